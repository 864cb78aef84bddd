package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FlowCast/internal/analysis/forecast"
	"FlowCast/internal/handler/api"
	"FlowCast/internal/repository"
	"FlowCast/internal/service/history"
	"FlowCast/internal/usecase"
	pkgch "FlowCast/pkg/clickhouse"
	"FlowCast/pkg/config"
	xhttp "FlowCast/pkg/http"
	pkgkafka "FlowCast/pkg/kafka"
	applogger "FlowCast/pkg/logger"
	"FlowCast/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	collector   *usecase.BarCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	jobQueue    *queue.RedisQueue
	backfill    *history.Client
	BarProc     *usecase.BarProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.BarCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetJobQueue allows DI to inject the background forecast queue.
func (a *App) SetJobQueue(q *queue.RedisQueue) { a.jobQueue = q }

// SetBackfill allows DI to inject the history backfill client.
func (a *App) SetBackfill(c *history.Client) { a.backfill = c }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init app logger (console info by default)
	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})

	// Setup Echo HTTP server using pkg/http and register routes via handler
	var httpHandler xhttp.Handler
	if a.httpHandler != nil {
		httpHandler = a.httpHandler
	} else if a.chClient != nil {
		store := repository.NewCHBarStore(a.chClient)
		store.SetLogger(l)
		sink := repository.NewCHPredictionSink(a.chClient)
		sink.SetLogger(l)

		analysisUC := usecase.NewAnalysisUseCase(store)
		reportUC := usecase.NewAnalysisReportUseCase(analysisUC)
		fc := a.cfg.Analysis.Forecast
		forecastUC := usecase.NewForecastUseCase(store, sink, nil,
			forecast.ForestConfig{Trees: fc.Trees, MaxDepth: fc.MaxDepth, MinLeaf: fc.MinLeaf, Seed: fc.Seed},
			forecast.SequenceConfig{Lags: a.cfg.Analysis.LagDepth, Hidden: fc.Hidden, Epochs: fc.Epochs, LearningRate: fc.LearningRate, Seed: fc.Seed})
		barsUC := usecase.NewBarsUseCase(store)

		httpHandler = api.NewAnalysisEchoHandler(l, analysisUC, reportUC, forecastUC, barsUC)
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Backfill history before the stream starts filling the head
	if a.backfill != nil && a.cfg.History.Backfill > 0 && a.BarProc != nil {
		go func() {
			to := time.Now()
			from := to.Add(-a.cfg.History.Backfill)
			store := repository.NewClickHouseStorage(a.chClient.DB(), "flowcast.bars_raw")
			if err := a.backfill.Backfill(ctx, store, a.cfg.Stream.Symbols, a.cfg.Stream.Interval, from, to); err != nil {
				l.Error("history backfill error", applogger.Error(err))
			}
		}()
	}

	// Start collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.Strings("symbols", a.cfg.Stream.Symbols))

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start background forecast queue if configured
	if a.jobQueue != nil {
		if err := a.jobQueue.Start(); err != nil {
			l.Error("job queue start error", applogger.Error(err))
		}
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop background queue
	if a.jobQueue != nil {
		if err := a.jobQueue.Stop(shutdownCtx); err != nil {
			l.Warn("job queue stop error", applogger.Error(err))
		}
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close bar processor resources (publisher/storage)
	if a.BarProc != nil {
		a.BarProc.Close()
	}

	l.Info("shutdown complete")
	return nil
}
