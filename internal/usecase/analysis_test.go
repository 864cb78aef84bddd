package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"FlowCast/internal/domain/models"
	domrepo "FlowCast/internal/domain/repository"
)

type fakeBarStore struct {
	bars []models.Bar
	err  error
}

func (f *fakeBarStore) GetBars(_ context.Context, _ string, _, _ time.Time, _ domrepo.Timeframe) ([]models.Bar, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

func (f *fakeBarStore) GetLatestNBars(_ context.Context, _ string, n int, _ domrepo.Timeframe) ([]models.Bar, error) {
	if f.err != nil {
		return nil, f.err
	}
	if n > 0 && n < len(f.bars) {
		return f.bars[len(f.bars)-n:], nil
	}
	return f.bars, nil
}

func genBars(n int) []models.Bar {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		close := 100 + 5*math.Sin(float64(i)/7) + 0.01*float64(i)
		bars[i] = models.Bar{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Symbol:    "btcusdt",
			Open:      close - 0.5,
			High:      close + 1,
			Low:       close - 1,
			Close:     close,
			Volume:    1000 + float64(i%10)*50,
		}
	}
	return bars
}

func TestPressureUseCase(t *testing.T) {
	store := &fakeBarStore{bars: genBars(50)}
	uc := NewAnalysisUseCase(store)

	res, err := uc.Pressure(context.Background(), "btcusdt", 50, domrepo.TF1m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Records) != 50 {
		t.Fatalf("expected 50 records, got %d", len(res.Records))
	}
	if res.Summary.TotalVolume <= 0 {
		t.Fatalf("expected positive total volume, got %g", res.Summary.TotalVolume)
	}
	for _, r := range res.Records {
		if r.BuyVolume > 0 && r.SellVolume > 0 {
			t.Fatalf("a bar cannot carry both buy and sell volume: %+v", r)
		}
	}
}

func TestAnalysisUseCaseStoreError(t *testing.T) {
	want := errors.New("clickhouse down")
	uc := NewAnalysisUseCase(&fakeBarStore{err: want})

	if _, err := uc.Pressure(context.Background(), "btcusdt", 10, domrepo.TF1m); !errors.Is(err, want) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestReportFanOut(t *testing.T) {
	store := &fakeBarStore{bars: genBars(120)}
	uc := NewAnalysisReportUseCase(NewAnalysisUseCase(store))

	res, err := uc.GetReport(context.Background(), GetReportParams{
		Symbol:    "btcusdt",
		N:         120,
		Timeframe: domrepo.TF1m,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Errors != nil {
		t.Fatalf("expected no partial errors, got %v", res.Errors)
	}
	if len(res.Pressure) != 120 {
		t.Fatalf("expected 120 pressure records, got %d", len(res.Pressure))
	}
	if res.Summary == nil {
		t.Fatalf("expected pressure summary")
	}
	if len(res.Indicators) != 120 {
		t.Fatalf("expected 120 indicator records, got %d", len(res.Indicators))
	}
	if len(res.Anomalies) != 120 {
		t.Fatalf("expected 120 anomaly records, got %d", len(res.Anomalies))
	}
}

func TestReportPartialErrors(t *testing.T) {
	uc := NewAnalysisReportUseCase(NewAnalysisUseCase(&fakeBarStore{err: errors.New("boom")}))

	res, err := uc.GetReport(context.Background(), GetReportParams{Symbol: "btcusdt", N: 10, Timeframe: domrepo.TF1m})
	if err != nil {
		t.Fatalf("report should degrade, not fail: %v", err)
	}
	if len(res.Errors) != 3 {
		t.Fatalf("expected 3 stage errors, got %v", res.Errors)
	}
	if res.Pressure != nil || res.Indicators != nil || res.Anomalies != nil {
		t.Fatalf("no stage should have produced data")
	}
}

func TestReportRequiresSymbol(t *testing.T) {
	uc := NewAnalysisReportUseCase(NewAnalysisUseCase(&fakeBarStore{}))
	if _, err := uc.GetReport(context.Background(), GetReportParams{}); err == nil {
		t.Fatalf("expected error for missing symbol")
	}
}
