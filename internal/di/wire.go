//go:build wireinject
// +build wireinject

package di

import (
	"ChartFeed/pkg/config"
	"ChartFeed/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideNSEClient,

		// Repositories
		ProvideHistoryProvider,
		ProvideQuoteProvider,
		ProvideSymbolDirectory,
		ProvideArchive,
		ProvideUpdatePublisher,
		ProvideQuoteStream,

		// Use cases
		ProvideChartUseCase,
		ProvideIndicatorUseCase,
		ProvideWatchlistUseCase,
		ProvideUpdateProcessor,
		ProvideUpdateCollector,
		ProvideKafkaUpdatesHandler,

		// HTTP
		ProvideChartHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
