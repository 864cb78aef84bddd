package usecase

import (
	"context"
	"fmt"

	domrepo "FlowCast/internal/domain/repository"
	domsvc "FlowCast/internal/domain/service"
	"FlowCast/pkg/logger"
	"FlowCast/pkg/queue"
)

// ForecastJobType routes queued forecast requests to ForecastJob.
const ForecastJobType = "forecast.run"

// ForecastJobPayload is the queued request. Export is implied: a queued run
// exists to persist its prediction table.
type ForecastJobPayload struct {
	Symbol      string  `json:"symbol"`
	N           int     `json:"n"`
	Timeframe   string  `json:"tf"`
	Lags        int     `json:"lags"`
	Strategy    string  `json:"strategy"`
	HoldoutFrac float64 `json:"holdout_frac"`
}

// ForecastJob runs queued forecasts in the background so slow model fits
// never block an API request.
type ForecastJob struct {
	uc *ForecastUseCase
	l  *logger.Logger
}

func NewForecastJob(uc *ForecastUseCase, l *logger.Logger) *ForecastJob {
	return &ForecastJob{uc: uc, l: l}
}

func (j *ForecastJob) Name() string { return "forecast-runner" }
func (j *ForecastJob) Type() string { return ForecastJobType }

func (j *ForecastJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[ForecastJobPayload](payload)
	if err != nil {
		return fmt.Errorf("forecast job payload: %w", err)
	}

	res, err := j.uc.Run(ctx, RunForecastParams{
		Symbol:      p.Symbol,
		N:           p.N,
		Timeframe:   domrepo.NormalizeTimeframe(p.Timeframe),
		Lags:        p.Lags,
		Strategy:    domsvc.Strategy(p.Strategy),
		HoldoutFrac: p.HoldoutFrac,
		Export:      true,
	})
	if err != nil {
		return fmt.Errorf("forecast job %s/%s: %w", p.Symbol, p.Strategy, err)
	}

	j.l.Info("forecast job done",
		logger.String("symbol", res.Symbol),
		logger.String("strategy", res.Strategy),
		logger.Int("train_rows", res.TrainRows),
		logger.Int("holdout_rows", res.HoldoutRows),
		logger.Any("rmse", res.RMSE),
	)
	return nil
}

var _ queue.Job = (*ForecastJob)(nil)
