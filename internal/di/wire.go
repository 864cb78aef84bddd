//go:build wireinject
// +build wireinject

package di

import (
	"FlowCast/pkg/config"
	"FlowCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Logging and metrics
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideBarStorage,
		ProvideBarPublisher,
		ProvideBarStream,
		ProvideBarStore,
		ProvidePredictionSink,

		// Use cases
		ProvideBarProcessor,
		ProvideBarCollector,
		ProvideKafkaBarsHandler,
		ProvideAnalysisUseCase,
		ProvideAnalysisReportUseCase,
		ProvideForecastUseCase,
		ProvideBarsUseCase,

		// HTTP, background queue, backfill
		ProvideAPIHandler,
		ProvideJobQueue,
		ProvideHistoryClient,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
