package usecase

import (
	"context"

	"FlowCast/internal/analysis/anomaly"
	"FlowCast/internal/analysis/indicators"
	"FlowCast/internal/analysis/pressure"
	"FlowCast/internal/domain/models"
	domrepo "FlowCast/internal/domain/repository"
)

// AnalysisUseCase runs the per-stage bar analyses against stored history.
// Every stage loads the latest N bars and computes in-process; nothing here
// mutates the bars.
type AnalysisUseCase struct {
	store domrepo.BarStore
}

func NewAnalysisUseCase(store domrepo.BarStore) *AnalysisUseCase {
	return &AnalysisUseCase{store: store}
}

// PressureResult pairs the per-bar records with the window summary.
type PressureResult struct {
	Symbol    string                  `json:"symbol"`
	Timeframe string                  `json:"tf"`
	Records   []models.PressureRecord `json:"records"`
	Summary   models.PressureSummary  `json:"summary"`
}

func (uc *AnalysisUseCase) Pressure(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) (*PressureResult, error) {
	bars, err := uc.store.GetLatestNBars(ctx, symbol, n, tf)
	if err != nil {
		return nil, err
	}
	records, err := pressure.Analyze(bars)
	if err != nil {
		return nil, err
	}
	return &PressureResult{
		Symbol:    symbol,
		Timeframe: string(tf),
		Records:   records,
		Summary:   pressure.Summarize(bars, records),
	}, nil
}

func (uc *AnalysisUseCase) Indicators(ctx context.Context, symbol string, n int, tf domrepo.Timeframe, p indicators.Params) ([]models.IndicatorRecord, error) {
	bars, err := uc.store.GetLatestNBars(ctx, symbol, n, tf)
	if err != nil {
		return nil, err
	}
	return indicators.Compute(bars, p)
}

func (uc *AnalysisUseCase) Anomalies(ctx context.Context, symbol string, n int, tf domrepo.Timeframe, window int, multiplier float64) ([]models.VolumeAnomaly, error) {
	bars, err := uc.store.GetLatestNBars(ctx, symbol, n, tf)
	if err != nil {
		return nil, err
	}
	return anomaly.Detect(bars, window, multiplier)
}
