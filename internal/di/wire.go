//go:build wireinject
// +build wireinject

package di

import (
	"FinEnrich/pkg/config"
	"FinEnrich/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Upstream providers
		ProvideHTTPClient,
		ProvideQuoteProvider,
		ProvideNewsProvider,
		ProvideSentimentProvider,
		ProvideFXProvider,

		// Infrastructure clients
		ProvideMongoClient,
		ProvideKafkaProducer,
		ProvideClickHouseClient,
		ProvideRedisLock,

		// Repositories
		ProvideSource,
		ProvideSinks,
		ProvideRunLock,

		// Use cases
		ProvideEnricher,
		ProvideCleaner,
		ProvideMerger,
		ProvidePipeline,
		ProvideRunner,
		ProvideScheduler,

		// Delivery
		ProvideRunEventsHub,
		ProvideHealthChecks,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
