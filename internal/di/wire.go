//go:build wireinject
// +build wireinject

package di

import (
	"StockSeq/internal/domain/service"
	"StockSeq/internal/service/marketdata"
	"StockSeq/internal/service/ratelimit"
	"StockSeq/internal/usecase"
	"StockSeq/pkg/config"
	"StockSeq/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Quota
		ProvideQuotaStore,
		ProvideLedger,
		wire.Bind(new(service.QuotaLedger), new(*ratelimit.Ledger)),

		// Storage
		ProvideRawStore,
		ProvideTableStore,
		ProvideDatasetStore,
		ProvideArtifactStore,
		ProvidePredictionPublisher,

		// Services
		ProvideMarketDataClient,
		wire.Bind(new(service.MarketDataFetcher), new(*marketdata.Client)),
		ProvideFeatureEngine,
		ProvideSequenceBuilder,
		ProvideAssembler,
		ProvideScorer,

		// Use cases
		ProvideAcquirer,
		ProvideFeatureBuilder,
		ProvideDatasetBuilder,
		ProvidePredictor,
		usecase.NewQuotaStatus,
		usecase.NewPipeline,

		// Application server
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
