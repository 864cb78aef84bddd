package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"FlowCast/internal/domain/models"
)

// fakeStream fails its first read session and serves bars from the second.
type fakeStream struct {
	mu         sync.Mutex
	reads      int
	reconnects int
	connected  bool
}

func (s *fakeStream) Connect(ctx context.Context) error   { s.connected = true; return nil }
func (s *fakeStream) Subscribe(ctx context.Context) error { return nil }
func (s *fakeStream) Close() error                        { s.connected = false; return nil }
func (s *fakeStream) IsConnected() bool                   { return s.connected }

func (s *fakeStream) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	s.reconnects++
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) Read(ctx context.Context) (<-chan *models.Bar, <-chan error) {
	s.mu.Lock()
	s.reads++
	first := s.reads == 1
	s.mu.Unlock()

	bars := make(chan *models.Bar, 4)
	errs := make(chan error, 1)
	if first {
		errs <- errors.New("connection dropped")
		close(bars)
		close(errs)
		return bars, errs
	}
	bars <- &models.Bar{
		Timestamp: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Symbol:    "btcusdt",
		Close:     101.5,
		Volume:    3,
	}
	return bars, errs
}

func (s *fakeStream) counts() (reads, reconnects int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads, s.reconnects
}

type recordingStorage struct {
	mu   sync.Mutex
	bars []*models.Bar
}

func (r *recordingStorage) Init(ctx context.Context) error { return nil }

func (r *recordingStorage) Store(ctx context.Context, b *models.Bar) error {
	r.mu.Lock()
	r.bars = append(r.bars, b)
	r.mu.Unlock()
	return nil
}

func (r *recordingStorage) StoreBatch(ctx context.Context, bars []*models.Bar) error {
	r.mu.Lock()
	r.bars = append(r.bars, bars...)
	r.mu.Unlock()
	return nil
}

func (r *recordingStorage) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Bar, error) {
	return nil, nil
}

func (r *recordingStorage) Health(ctx context.Context) error { return nil }
func (r *recordingStorage) Close() error                     { return nil }

func (r *recordingStorage) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bars)
}

type nopMetrics struct{}

func (nopMetrics) RecordMessageSent(backend, symbol string)     {}
func (nopMetrics) RecordError(kind string)                      {}
func (nopMetrics) RecordLastClose(symbol string, close float64) {}
func (nopMetrics) RecordLatency(op string, seconds float64)     {}

func TestCollectorReattachesAfterStreamError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := &fakeStream{}
	store := &recordingStorage{}
	proc := NewBarProcessor(nil, store, nopMetrics{}, "clickhouse", 1, time.Second)
	c := NewBarCollector(stream, proc, nopMetrics{}, nil)

	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for store.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("no bar stored after stream error and reconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}

	reads, reconnects := stream.counts()
	if reconnects < 1 {
		t.Fatalf("reconnects = %d, want at least 1", reconnects)
	}
	if reads < 2 {
		t.Fatalf("read sessions = %d, want a fresh read after reconnect", reads)
	}
	if got := store.bars[0]; got.Symbol != "btcusdt" || got.Close != 101.5 {
		t.Fatalf("stored bar = %+v, want post-reconnect bar", got)
	}
}
