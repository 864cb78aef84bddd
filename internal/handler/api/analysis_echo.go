package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"FlowCast/internal/analysis"
	"FlowCast/internal/analysis/indicators"
	models "FlowCast/internal/domain/models"
	domrepo "FlowCast/internal/domain/repository"
	domsvc "FlowCast/internal/domain/service"
	icache "FlowCast/internal/service/cache"
	"FlowCast/internal/service/metrics"
	"FlowCast/internal/service/ratelimit"
	"FlowCast/internal/usecase"
	pkgcache "FlowCast/pkg/cache"
	xhttp "FlowCast/pkg/http"
	xlogger "FlowCast/pkg/logger"
	"FlowCast/pkg/queue"

	"github.com/labstack/echo/v4"
)

// AnalysisEchoHandler exposes the analysis pipeline over Echo. Read endpoints
// are cached briefly and every endpoint is token-bucket limited per client.
type AnalysisEchoHandler struct {
	logger   *xlogger.Logger
	analysis *usecase.AnalysisUseCase
	report   *usecase.AnalysisReportUseCase
	forecast *usecase.ForecastUseCase
	bars     *usecase.BarsUseCase
	cache    icache.BytesCache
	rl       *ratelimit.Limiter
	queue    *queue.RedisQueue
}

func NewAnalysisEchoHandler(
	logger *xlogger.Logger,
	analysisUC *usecase.AnalysisUseCase,
	reportUC *usecase.AnalysisReportUseCase,
	forecastUC *usecase.ForecastUseCase,
	barsUC *usecase.BarsUseCase,
) *AnalysisEchoHandler {
	metrics.Register()
	return &AnalysisEchoHandler{
		logger:   logger,
		analysis: analysisUC,
		report:   reportUC,
		forecast: forecastUC,
		bars:     barsUC,
		rl:       ratelimit.New(),
	}
}

// SetCache injects the response cache.
func (h *AnalysisEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetQueue enables async forecast runs through the background queue.
func (h *AnalysisEchoHandler) SetQueue(q *queue.RedisQueue) { h.queue = q }

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/pressure", h.Pressure)
	g.GET("/indicators", h.Indicators)
	g.GET("/anomaly", h.Anomaly)
	g.GET("/report", h.Report)
	g.GET("/forecast", h.Forecast)
	g.GET("/bars", h.Bars)
}

func (h *AnalysisEchoHandler) Pressure(c echo.Context) error {
	start := time.Now()
	const endpoint = "pressure"
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.PressureRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":"+endpoint, 5, 2) {
		return h.rateLimited(c, endpoint)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	cacheKey := pkgcache.GenerateKeyWithParams("pressure", req.Symbol, req.N, tf)
	if b, ok := h.cached(endpoint, cacheKey); ok {
		return xhttp.SuccessResponse(c, json.RawMessage(b))
	}

	res, err := h.analysis.Pressure(c.Request().Context(), req.Symbol, req.N, tf)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return h.respond(c, endpoint, cacheKey, 30*time.Second, res)
}

func (h *AnalysisEchoHandler) Indicators(c echo.Context) error {
	start := time.Now()
	const endpoint = "indicators"
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":"+endpoint, 5, 2) {
		return h.rateLimited(c, endpoint)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	params := indicators.DefaultParams()
	params.SMAWindow = req.SMAWindow
	params.EMASpan = req.EMASpan
	params.RSIWindow = req.RSIWindow

	cacheKey := pkgcache.GenerateKeyWithParams("indicators", req.Symbol, req.N, tf, req.SMAWindow, req.EMASpan, req.RSIWindow)
	if b, ok := h.cached(endpoint, cacheKey); ok {
		return xhttp.SuccessResponse(c, json.RawMessage(b))
	}

	res, err := h.analysis.Indicators(c.Request().Context(), req.Symbol, req.N, tf, params)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return h.respond(c, endpoint, cacheKey, 30*time.Second, res)
}

func (h *AnalysisEchoHandler) Anomaly(c echo.Context) error {
	start := time.Now()
	const endpoint = "anomaly"
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.AnomalyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":"+endpoint, 3, 1) {
		return h.rateLimited(c, endpoint)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	cacheKey := pkgcache.GenerateKeyWithParams("anomaly", req.Symbol, req.N, tf, req.Window, req.Multiplier)
	if b, ok := h.cached(endpoint, cacheKey); ok {
		return xhttp.SuccessResponse(c, json.RawMessage(b))
	}

	res, err := h.analysis.Anomalies(c.Request().Context(), req.Symbol, req.N, tf, req.Window, req.Multiplier)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return h.respond(c, endpoint, cacheKey, 30*time.Second, res)
}

func (h *AnalysisEchoHandler) Report(c echo.Context) error {
	start := time.Now()
	const endpoint = "report"
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.PressureRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":"+endpoint, 3, 1) {
		return h.rateLimited(c, endpoint)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	res, err := h.report.GetReport(c.Request().Context(), usecase.GetReportParams{
		Symbol:    req.Symbol,
		N:         req.N,
		Timeframe: tf,
	})
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Forecast(c echo.Context) error {
	start := time.Now()
	const endpoint = "forecast"
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	// model fits are expensive, keep the bucket small
	if !h.rl.Allow(c.RealIP()+":"+endpoint, 2, 0.5) {
		return h.rateLimited(c, endpoint)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	boundary, err := parseBoundary(req.Boundary)
	if err != nil {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code:    "ERR_BOUNDARY",
			Field:   "boundary",
			Message: err.Error(),
		}})
	}

	if req.Async && h.queue != nil {
		err := h.queue.Enqueue(c.Request().Context(), usecase.ForecastJobType, usecase.ForecastJobPayload{
			Symbol:      req.Symbol,
			N:           req.N,
			Timeframe:   string(tf),
			Lags:        req.Lags,
			Strategy:    req.Strategy,
			HoldoutFrac: req.HoldoutFrac,
		})
		if err != nil {
			return h.fail(c, endpoint, err)
		}
		return xhttp.SuccessResponse(c, map[string]interface{}{
			"queued":   true,
			"symbol":   req.Symbol,
			"strategy": req.Strategy,
		})
	}

	res, err := h.forecast.Run(c.Request().Context(), usecase.RunForecastParams{
		Symbol:      req.Symbol,
		N:           req.N,
		Timeframe:   tf,
		Lags:        req.Lags,
		Strategy:    domsvc.Strategy(req.Strategy),
		Boundary:    boundary,
		HoldoutFrac: req.HoldoutFrac,
		Export:      req.Export,
	})
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	metrics.ForecastRMSE.WithLabelValues(res.Symbol, res.Strategy).Set(res.RMSE)
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Bars(c echo.Context) error {
	start := time.Now()
	const endpoint = "bars"
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.BarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":"+endpoint, 10, 5) {
		return h.rateLimited(c, endpoint)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	from, err := parseTimeParam(req.From, time.Now().Add(-24*time.Hour))
	if err != nil {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{Code: "ERR_TIME", Field: "from", Message: err.Error()}})
	}
	to, err := parseTimeParam(req.To, time.Now())
	if err != nil {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{Code: "ERR_TIME", Field: "to", Message: err.Error()}})
	}

	res, err := h.bars.GetBars(c.Request().Context(), usecase.GetBarsParams{
		Symbol:    req.Symbol,
		From:      from,
		To:        to,
		Timeframe: tf,
		Limit:     req.Limit,
	})
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// cached returns the cached payload for key, if any.
func (h *AnalysisEchoHandler) cached(endpoint, key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn(endpoint+" cache_get_error", xlogger.Error(err))
		}
		return nil, false
	}
	if ok && h.logger != nil {
		h.logger.Debug(endpoint+" cache_hit", xlogger.String("key", key))
	}
	return b, ok
}

// respond caches the marshaled payload and writes the success envelope.
func (h *AnalysisEchoHandler) respond(c echo.Context, endpoint, key string, ttl time.Duration, res interface{}) error {
	if h.cache != nil {
		if b, err := json.Marshal(res); err == nil {
			if err := h.cache.SetBytes(key, b, ttl); err != nil && h.logger != nil {
				h.logger.Warn(endpoint+" cache_set_error", xlogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) rateLimited(c echo.Context, endpoint string) error {
	if h.logger != nil {
		h.logger.Warn(endpoint+" rate_limited", xlogger.String("remote", c.RealIP()))
	}
	return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "rate limited", 429))
}

func (h *AnalysisEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	metrics.AnalysisErrors.WithLabelValues(endpoint).Inc()
	if h.logger != nil {
		h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
	}
	switch {
	case errors.Is(err, analysis.ErrEmptyInput),
		errors.Is(err, analysis.ErrInsufficientHistory),
		errors.Is(err, analysis.ErrInsufficientData),
		errors.Is(err, analysis.ErrEmptySplit):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()).WithError(err))
	}
	return xhttp.AppErrorResponse(c, err)
}

// parseBoundary accepts RFC3339 or unix seconds; empty means derived split.
func parseBoundary(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, ok := xhttp.ParseTime(s); ok {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("boundary must be RFC3339 or unix seconds")
}

func parseTimeParam(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	if t, ok := xhttp.ParseTime(s); ok {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("time must be RFC3339 or unix seconds")
}
