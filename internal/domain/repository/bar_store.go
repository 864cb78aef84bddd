package repository

import (
	"context"
	"time"

	"FlowCast/internal/domain/models"
)

// Timeframe represents bar resolution buckets.
type Timeframe string

const (
	TF1m Timeframe = "1m"
	TF5m Timeframe = "5m"
	TF1h Timeframe = "1h"
)

// BarStore provides read-only access to stored bars for analysis.
// Bars come back in strict ascending-timestamp order with no duplicates.
type BarStore interface {
	GetBars(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Bar, error)
	GetLatestNBars(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Bar, error)
}

// PredictionSink persists the flat timestamp/actual/predicted export table.
type PredictionSink interface {
	StorePredictions(ctx context.Context, symbol, strategy string, points []models.PredictionPoint) error
}
