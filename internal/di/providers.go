package di

import (
	"context"
	"fmt"
	"time"

	"FlowCast/internal/analysis/forecast"
	"FlowCast/internal/domain/repository"
	"FlowCast/internal/handler/api"
	mid "FlowCast/internal/middleware"
	internalrepo "FlowCast/internal/repository"
	icache "FlowCast/internal/service/cache"
	"FlowCast/internal/service/history"
	"FlowCast/internal/service/stream"
	"FlowCast/internal/usecase"
	pkgch "FlowCast/pkg/clickhouse"
	"FlowCast/pkg/config"
	xhttp "FlowCast/pkg/http"
	pkgkafka "FlowCast/pkg/kafka"
	applogger "FlowCast/pkg/logger"
	"FlowCast/pkg/metrics"
	"FlowCast/pkg/queue"
	"FlowCast/pkg/server"

	goredis "github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger() (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS flowcast",
		"CREATE TABLE IF NOT EXISTS flowcast.bars_raw (ts DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, vol Float64, event_id String) ENGINE=ReplacingMergeTree ORDER BY (symbol, ts)",
		"CREATE TABLE IF NOT EXISTS flowcast.bars_1m (ts DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=ReplacingMergeTree ORDER BY (symbol, ts)",
		"CREATE TABLE IF NOT EXISTS flowcast.bars_5m (ts DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=ReplacingMergeTree ORDER BY (symbol, ts)",
		"CREATE TABLE IF NOT EXISTS flowcast.bars_1h (ts DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=ReplacingMergeTree ORDER BY (symbol, ts)",
		"CREATE MATERIALIZED VIEW IF NOT EXISTS flowcast.bars_1m_mv TO flowcast.bars_1m AS SELECT ts, symbol, open, high, low, close, vol FROM flowcast.bars_raw",
		"CREATE MATERIALIZED VIEW IF NOT EXISTS flowcast.bars_5m_mv TO flowcast.bars_5m AS SELECT bucket AS ts, symbol, open, high, low, close, vol FROM (SELECT toStartOfFiveMinutes(ts) AS bucket, symbol, argMin(open, ts) AS open, max(high) AS high, min(low) AS low, argMax(close, ts) AS close, sum(vol) AS vol FROM flowcast.bars_raw GROUP BY symbol, bucket)",
		"CREATE MATERIALIZED VIEW IF NOT EXISTS flowcast.bars_1h_mv TO flowcast.bars_1h AS SELECT bucket AS ts, symbol, open, high, low, close, vol FROM (SELECT toStartOfHour(ts) AS bucket, symbol, argMin(open, ts) AS open, max(high) AS high, min(low) AS low, argMax(close, ts) AS close, sum(vol) AS vol FROM flowcast.bars_raw GROUP BY symbol, bucket)",
		"CREATE TABLE IF NOT EXISTS flowcast.forecast_predictions (ts DateTime, symbol String, strategy String, actual Float64, predicted Float64, created_at DateTime) ENGINE=MergeTree ORDER BY (symbol, strategy, ts)",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideBarStorage creates ClickHouse storage for raw bars.
func ProvideBarStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	return internalrepo.NewClickHouseStorage(chClient.DB(), cfg.ClickHouse.Database+".bars_raw")
}

// ProvideBarPublisher creates the Kafka publisher for bars.
func ProvideBarPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaBarsHandler registers the handler for the bars topic.
func ProvideKafkaBarsHandler(store repository.Storage, m repository.Metrics, cfg *config.Config) *usecase.KafkaBarsHandler {
	return usecase.NewKafkaBarsHandler(cfg.Kafka.Topic, store, m)
}

// ProvideBarStream creates the kline WebSocket stream.
func ProvideBarStream(cfg *config.Config) repository.BarStream {
	return stream.New(
		cfg.Stream.WebSocketURL,
		cfg.Stream.Symbols,
		cfg.Stream.Interval,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
	)
}

// ProvideBarProcessor creates the bar processor use case.
func ProvideBarProcessor(
	pub repository.Publisher,
	store repository.Storage,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.BarProcessor {
	return usecase.NewBarProcessor(
		pub,
		store,
		m,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideBarCollector creates the bar collector use case.
func ProvideBarCollector(
	barStream repository.BarStream,
	processor *usecase.BarProcessor,
	m repository.Metrics,
) *usecase.BarCollector {
	pipe := mid.NewIngestPipeline(processor, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewBarCollector(barStream, processor, m, pipe)
}

// ProvideBarStore creates the ClickHouse read store for analysis.
func ProvideBarStore(chClient *pkgch.Client, l *applogger.Logger) repository.BarStore {
	store := internalrepo.NewCHBarStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvidePredictionSink creates the ClickHouse prediction sink.
func ProvidePredictionSink(chClient *pkgch.Client, l *applogger.Logger) repository.PredictionSink {
	sink := internalrepo.NewCHPredictionSink(chClient)
	sink.SetLogger(l)
	return sink
}

// ProvideAnalysisUseCase creates the per-stage analysis use case.
func ProvideAnalysisUseCase(store repository.BarStore) *usecase.AnalysisUseCase {
	return usecase.NewAnalysisUseCase(store)
}

// ProvideAnalysisReportUseCase creates the fan-out report use case.
func ProvideAnalysisReportUseCase(analysisUC *usecase.AnalysisUseCase) *usecase.AnalysisReportUseCase {
	return usecase.NewAnalysisReportUseCase(analysisUC)
}

// ProvideForecastUseCase creates the forecasting use case from config.
func ProvideForecastUseCase(
	store repository.BarStore,
	sink repository.PredictionSink,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.ForecastUseCase {
	fc := cfg.Analysis.Forecast
	return usecase.NewForecastUseCase(store, sink, m,
		forecast.ForestConfig{Trees: fc.Trees, MaxDepth: fc.MaxDepth, MinLeaf: fc.MinLeaf, Seed: fc.Seed},
		forecast.SequenceConfig{Lags: cfg.Analysis.LagDepth, Hidden: fc.Hidden, Epochs: fc.Epochs, LearningRate: fc.LearningRate, Seed: fc.Seed},
	)
}

// ProvideBarsUseCase creates the bars read use case.
func ProvideBarsUseCase(store repository.BarStore) *usecase.BarsUseCase {
	return usecase.NewBarsUseCase(store)
}

// ProvideAPIHandler assembles the Echo handler with its response cache.
func ProvideAPIHandler(
	l *applogger.Logger,
	analysisUC *usecase.AnalysisUseCase,
	reportUC *usecase.AnalysisReportUseCase,
	forecastUC *usecase.ForecastUseCase,
	barsUC *usecase.BarsUseCase,
	jobQueue *queue.RedisQueue,
	cfg *config.Config,
) xhttp.Handler {
	h := api.NewAnalysisEchoHandler(l, analysisUC, reportUC, forecastUC, barsUC)
	if jobQueue != nil {
		h.SetQueue(jobQueue)
	}
	if cfg.Analysis.Redis.Enabled {
		layered, err := icache.NewLayered(icache.RedisConfig{
			Addr:     cfg.Analysis.Redis.Addr,
			Password: cfg.Analysis.Redis.Password,
			DB:       cfg.Analysis.Redis.DB,
		})
		if err != nil {
			l.Warn("redis cache unavailable, falling back to in-memory", applogger.Error(err))
			h.SetCache(icache.NewTTLCache())
		} else {
			h.SetCache(layered)
		}
	} else {
		h.SetCache(icache.NewTTLCache())
	}
	return h
}

// ProvideJobQueue creates the Redis-backed forecast queue; nil when disabled.
func ProvideJobQueue(cfg *config.Config, l *applogger.Logger, forecastUC *usecase.ForecastUseCase) *queue.RedisQueue {
	if !cfg.Queue.Enabled {
		return nil
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Analysis.Redis.Addr,
		Password: cfg.Analysis.Redis.Password,
		DB:       cfg.Analysis.Redis.DB,
	})
	q := queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: 3,
		RetryDelay: 30 * time.Second,
	}, client, queue.ModeProducerConsumer)
	q.RegisterJob(usecase.NewForecastJob(forecastUC, l))
	return q
}

// ProvideHistoryClient creates the REST backfill client; nil when unconfigured.
func ProvideHistoryClient(cfg *config.Config, l *applogger.Logger) *history.Client {
	if cfg.History.BaseURL == "" {
		return nil
	}
	timeout := cfg.History.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := history.New(cfg.History.BaseURL, timeout)
	c.SetLogger(l)
	return c
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.BarCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaBarsHandler,
	chClient *pkgch.Client,
	handler xhttp.Handler,
	jobQueue *queue.RedisQueue,
	backfill *history.Client,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, collector, consumer, kh, chClient)
	app.SetHTTPHandler(handler)
	if jobQueue != nil {
		app.SetJobQueue(jobQueue)
	}
	if backfill != nil {
		app.SetBackfill(backfill)
	}
	if collector != nil {
		app.BarProc = collector.Processor()
	}
	return app
}
