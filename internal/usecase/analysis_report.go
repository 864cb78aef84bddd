package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FlowCast/internal/analysis/anomaly"
	"FlowCast/internal/analysis/indicators"
	"FlowCast/internal/domain/models"
	domrepo "FlowCast/internal/domain/repository"
)

// AnalysisReportUseCase fans the independent stages out concurrently and
// collects partial results: one failing stage reports its error without
// sinking the others.
type AnalysisReportUseCase struct {
	analysis *AnalysisUseCase
	timeout  time.Duration
}

func NewAnalysisReportUseCase(analysis *AnalysisUseCase) *AnalysisReportUseCase {
	return &AnalysisReportUseCase{analysis: analysis, timeout: 10 * time.Second}
}

type GetReportParams struct {
	Symbol    string
	N         int
	Timeframe domrepo.Timeframe
}

func (uc *AnalysisReportUseCase) GetReport(ctx context.Context, p GetReportParams) (*models.AnalysisReport, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.N <= 0 {
		p.N = 600
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	res := &models.AnalysisReport{
		Symbol:    p.Symbol,
		Timeframe: string(p.Timeframe),
		Timestamp: time.Now(),
		Errors:    map[string]string{},
	}

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.analysis.Pressure(ctx, p.Symbol, p.N, p.Timeframe)
		ch <- item{"pressure", v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.analysis.Indicators(ctx, p.Symbol, p.N, p.Timeframe, indicators.DefaultParams())
		ch <- item{"indicators", v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.analysis.Anomalies(ctx, p.Symbol, p.N, p.Timeframe, anomaly.DefaultWindow, anomaly.DefaultMultiplier)
		ch <- item{"anomalies", v, err}
	}()

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			res.Errors[it.name] = it.err.Error()
			continue
		}
		switch it.name {
		case "pressure":
			v := it.val.(*PressureResult)
			res.Pressure = v.Records
			res.Summary = &v.Summary
		case "indicators":
			res.Indicators = it.val.([]models.IndicatorRecord)
		case "anomalies":
			res.Anomalies = it.val.([]models.VolumeAnomaly)
		}
	}

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}
