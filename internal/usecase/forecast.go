package usecase

import (
	"context"
	"fmt"
	"time"

	"FlowCast/internal/analysis/features"
	"FlowCast/internal/analysis/forecast"
	"FlowCast/internal/analysis/pressure"
	"FlowCast/internal/domain/models"
	domrepo "FlowCast/internal/domain/repository"
	domsvc "FlowCast/internal/domain/service"
)

// ForecastUseCase drives the full modeling pass: load bars, derive pressure,
// build lagged features, split chronologically, fit the selected backend and
// score the holdout. Export persists the prediction table when a sink is
// configured.
type ForecastUseCase struct {
	store     domrepo.BarStore
	sink      domrepo.PredictionSink
	metrics   domrepo.Metrics
	forestCfg forecast.ForestConfig
	seqCfg    forecast.SequenceConfig
}

func NewForecastUseCase(
	store domrepo.BarStore,
	sink domrepo.PredictionSink,
	metrics domrepo.Metrics,
	forestCfg forecast.ForestConfig,
	seqCfg forecast.SequenceConfig,
) *ForecastUseCase {
	return &ForecastUseCase{
		store:     store,
		sink:      sink,
		metrics:   metrics,
		forestCfg: forestCfg,
		seqCfg:    seqCfg,
	}
}

type RunForecastParams struct {
	Symbol    string
	N         int
	Timeframe domrepo.Timeframe
	Lags      int
	Strategy  domsvc.Strategy
	// Boundary splits train from holdout; zero means derive from HoldoutFrac.
	Boundary    time.Time
	HoldoutFrac float64
	Export      bool
}

func (uc *ForecastUseCase) Run(ctx context.Context, p RunForecastParams) (*models.ForecastResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if !domsvc.IsValidStrategy(p.Strategy) {
		return nil, fmt.Errorf("unknown strategy: %s", p.Strategy)
	}
	if p.Lags <= 0 {
		p.Lags = features.DefaultLagDepth
	}
	if p.N <= 0 {
		p.N = 2000
	}

	start := time.Now()
	bars, err := uc.store.GetLatestNBars(ctx, p.Symbol, p.N, p.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}

	records, err := pressure.Analyze(bars)
	if err != nil {
		return nil, err
	}
	vectors, err := features.Build(records, bars, p.Lags)
	if err != nil {
		return nil, err
	}

	boundary := p.Boundary
	if boundary.IsZero() {
		boundary, err = forecast.BoundaryFromFraction(vectors, p.HoldoutFrac)
		if err != nil {
			return nil, err
		}
	}
	split, err := forecast.Split(vectors, boundary)
	if err != nil {
		return nil, err
	}

	seqCfg := uc.seqCfg
	seqCfg.Lags = p.Lags
	reg, err := forecast.NewRegressor(p.Strategy, uc.forestCfg, seqCfg)
	if err != nil {
		return nil, err
	}
	points, rmse, err := forecast.Evaluate(reg, split)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.RecordLatency("forecast_run", time.Since(start).Seconds())
	}

	if p.Export && uc.sink != nil {
		if err := uc.sink.StorePredictions(ctx, p.Symbol, string(p.Strategy), points); err != nil {
			if uc.metrics != nil {
				uc.metrics.RecordError("forecast_export")
			}
			return nil, fmt.Errorf("export predictions: %w", err)
		}
	}

	return &models.ForecastResult{
		Symbol:      p.Symbol,
		Strategy:    string(p.Strategy),
		LagDepth:    p.Lags,
		Boundary:    boundary,
		TrainRows:   len(split.Train),
		HoldoutRows: len(split.Holdout),
		RMSE:        rmse,
		Predictions: points,
	}, nil
}
