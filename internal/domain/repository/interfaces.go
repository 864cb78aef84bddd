package repository

import (
	"context"
	"time"

	"FlowCast/internal/domain/models"
)

// BarStream is a live market-data feed delivering finished bars.
type BarStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Bar, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher sends bars to a message broker.
type Publisher interface {
	Publish(ctx context.Context, b *models.Bar) error
	PublishBatch(ctx context.Context, bars []*models.Bar) error
	Close() error
}

// Storage persists raw bars.
type Storage interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, b *models.Bar) error
	StoreBatch(ctx context.Context, bars []*models.Bar) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Bar, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics records operational metrics.
type Metrics interface {
	RecordMessageSent(backend, symbol string)
	RecordError(kind string)
	RecordLastClose(symbol string, close float64)
	RecordLatency(op string, seconds float64)
}
