package usecase

import (
	"context"
	"math"
	"testing"

	"FlowCast/internal/analysis/forecast"
	"FlowCast/internal/domain/models"
	domrepo "FlowCast/internal/domain/repository"
	domsvc "FlowCast/internal/domain/service"
)

type fakePredictionSink struct {
	symbol   string
	strategy string
	points   []models.PredictionPoint
}

func (f *fakePredictionSink) StorePredictions(_ context.Context, symbol, strategy string, points []models.PredictionPoint) error {
	f.symbol = symbol
	f.strategy = strategy
	f.points = points
	return nil
}

func newForecastUC(store domrepo.BarStore, sink domrepo.PredictionSink) *ForecastUseCase {
	return NewForecastUseCase(store, sink, nil,
		forecast.ForestConfig{Trees: 10, MaxDepth: 6, MinLeaf: 2, Seed: 7},
		forecast.SequenceConfig{Hidden: 8, Epochs: 30, LearningRate: 0.01, Seed: 7},
	)
}

func TestForecastRunEnsembleTrees(t *testing.T) {
	store := &fakeBarStore{bars: genBars(80)}
	sink := &fakePredictionSink{}
	uc := newForecastUC(store, sink)

	res, err := uc.Run(context.Background(), RunForecastParams{
		Symbol:      "btcusdt",
		N:           80,
		Timeframe:   domrepo.TF1m,
		Lags:        3,
		Strategy:    domsvc.StrategyEnsembleTrees,
		HoldoutFrac: 0.25,
		Export:      true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 80 bars minus 3 warm-up rows, split 75/25 chronologically
	if res.TrainRows+res.HoldoutRows != 77 {
		t.Fatalf("expected 77 feature rows, got %d train + %d holdout", res.TrainRows, res.HoldoutRows)
	}
	if res.HoldoutRows == 0 {
		t.Fatalf("holdout must not be empty")
	}
	if len(res.Predictions) != res.HoldoutRows {
		t.Fatalf("one prediction per holdout row, got %d vs %d", len(res.Predictions), res.HoldoutRows)
	}
	if math.IsNaN(res.RMSE) || math.IsInf(res.RMSE, 0) {
		t.Fatalf("rmse not finite: %v", res.RMSE)
	}
	for _, p := range res.Predictions {
		if p.Timestamp.Before(res.Boundary) || p.Timestamp.Equal(res.Boundary) {
			t.Fatalf("holdout prediction at %v not after boundary %v", p.Timestamp, res.Boundary)
		}
	}

	if sink.symbol != "btcusdt" || sink.strategy != string(domsvc.StrategyEnsembleTrees) {
		t.Fatalf("sink recorded %s/%s", sink.symbol, sink.strategy)
	}
	if len(sink.points) != res.HoldoutRows {
		t.Fatalf("sink got %d points, want %d", len(sink.points), res.HoldoutRows)
	}
}

func TestForecastRunSequenceModel(t *testing.T) {
	store := &fakeBarStore{bars: genBars(80)}
	uc := newForecastUC(store, nil)

	res, err := uc.Run(context.Background(), RunForecastParams{
		Symbol:      "btcusdt",
		N:           80,
		Timeframe:   domrepo.TF1m,
		Strategy:    domsvc.StrategySequenceModel,
		HoldoutFrac: 0.2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.LagDepth != 3 {
		t.Fatalf("expected default lag depth 3, got %d", res.LagDepth)
	}
	for _, p := range res.Predictions {
		if math.IsNaN(p.Predicted) || math.IsInf(p.Predicted, 0) {
			t.Fatalf("prediction not finite: %+v", p)
		}
	}
}

func TestForecastRunNoExportSkipsSink(t *testing.T) {
	sink := &fakePredictionSink{}
	uc := newForecastUC(&fakeBarStore{bars: genBars(60)}, sink)

	_, err := uc.Run(context.Background(), RunForecastParams{
		Symbol:    "btcusdt",
		N:         60,
		Timeframe: domrepo.TF1m,
		Strategy:  domsvc.StrategyEnsembleTrees,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.points != nil {
		t.Fatalf("sink should not be called without export")
	}
}

func TestForecastRunRejectsUnknownStrategy(t *testing.T) {
	uc := newForecastUC(&fakeBarStore{bars: genBars(60)}, nil)
	if _, err := uc.Run(context.Background(), RunForecastParams{Symbol: "btcusdt", Strategy: "linear"}); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}

func TestForecastRunInsufficientHistory(t *testing.T) {
	uc := newForecastUC(&fakeBarStore{bars: genBars(3)}, nil)
	if _, err := uc.Run(context.Background(), RunForecastParams{
		Symbol:   "btcusdt",
		Strategy: domsvc.StrategyEnsembleTrees,
	}); err == nil {
		t.Fatalf("expected error for insufficient history")
	}
}
