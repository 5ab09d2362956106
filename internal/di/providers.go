package di

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"StockSeq/internal/domain/models"
	"StockSeq/internal/domain/repository"
	"StockSeq/internal/domain/service"
	"StockSeq/internal/handler/api"
	internalrepo "StockSeq/internal/repository"
	"StockSeq/internal/service/cache"
	"StockSeq/internal/service/marketdata"
	"StockSeq/internal/service/ratelimit"
	"StockSeq/internal/services/analytics"
	"StockSeq/internal/services/features"
	"StockSeq/internal/services/inference"
	"StockSeq/internal/services/sequences"
	"StockSeq/internal/usecase"
	pkgcache "StockSeq/pkg/cache"
	pkgch "StockSeq/pkg/clickhouse"
	"StockSeq/pkg/config"
	xhttp "StockSeq/pkg/http"
	pkgkafka "StockSeq/pkg/kafka"
	applogger "StockSeq/pkg/logger"
	"StockSeq/pkg/metrics"
	"StockSeq/pkg/server"
)

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the Prometheus registry shared by all collectors.
func ProvideRegistry() *prometheus.Registry {
	return metrics.NewRegistry()
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config, reg *prometheus.Registry) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return repository.NopMetrics{}
	}
	return metrics.New(reg)
}

// ProvideQuotaStore selects the ledger backend. The redis backend keeps the
// connection open until cleanup.
func ProvideQuotaStore(cfg *config.Config, l *applogger.Logger) (repository.QuotaStore, func(), error) {
	ql := l.With(applogger.Component("quota_store"))
	switch cfg.Quota.Backend {
	case "redis":
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisAddr(cfg.Redis.Host, cfg.Redis.Port),
			pkgcache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
			pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
			pkgcache.WithRedisPool(cfg.Redis.PoolSize, 1),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis quota store: %w", err)
		}
		cleanup := func() {
			if err := rc.Close(); err != nil {
				ql.Warn("redis close error", applogger.Error(err))
			}
		}
		return internalrepo.NewQuotaRedisStore(rc, cfg.Quota.RedisKey, ql), cleanup, nil
	default:
		return internalrepo.NewQuotaFileStore(cfg.Quota.Path, ql), func() {}, nil
	}
}

// ProvideLedger creates the daily/monthly request ledger.
func ProvideLedger(cfg *config.Config, store repository.QuotaStore, m repository.Metrics, l *applogger.Logger) *ratelimit.Ledger {
	return ratelimit.New(store, cfg.Quota.DailyLimit, cfg.Quota.PeriodLimit,
		ratelimit.WithLogger(l.With(applogger.Component("ledger"))),
		ratelimit.WithMetrics(m),
	)
}

// ProvideRawStore keeps provider responses under <data_dir>/raw.
func ProvideRawStore(cfg *config.Config, l *applogger.Logger) repository.RawStore {
	return internalrepo.NewRawFileStore(filepath.Join(cfg.Storage.DataDir, "raw"), l)
}

// ProvideTableStore selects where indicator tables live. The clickhouse
// backend creates its schema on start and is closed on cleanup.
func ProvideTableStore(cfg *config.Config, l *applogger.Logger) (repository.TableStore, func(), error) {
	tl := l.With(applogger.Component("table_store"))
	if cfg.Storage.TableBackend != "clickhouse" {
		return internalrepo.NewTableCSVStore(filepath.Join(cfg.Storage.DataDir, "processed"), tl), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithPool(4, 2, 0),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	if err := client.InitSchema(ctx, internalrepo.IndicatorSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	tl.Info("clickhouse table store ready", applogger.String("database", cfg.ClickHouse.Database))

	cleanup := func() {
		if err := client.Close(); err != nil {
			tl.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	return internalrepo.NewCHTableStore(client, cfg.ClickHouse.Database, tl), cleanup, nil
}

func ProvideDatasetStore(cfg *config.Config, l *applogger.Logger) repository.DatasetStore {
	return internalrepo.NewDatasetFileStore(filepath.Join(cfg.Storage.DataDir, "datasets"), l)
}

func ProvideArtifactStore(cfg *config.Config) repository.ArtifactStore {
	return internalrepo.NewArtifactFileStore(cfg.Storage.ModelsDir)
}

// ProvideMarketDataClient creates the quota-governed provider client.
func ProvideMarketDataClient(
	cfg *config.Config,
	ledger service.QuotaLedger,
	raw repository.RawStore,
	m repository.Metrics,
	l *applogger.Logger,
) (*marketdata.Client, error) {
	p := cfg.Provider
	return marketdata.New(marketdata.Config{
		BaseURL:    p.BaseURL,
		APIKey:     p.APIKey,
		AuthHeader: p.AuthHeader,
		UserAgent:  p.UserAgent,
		Endpoints: map[string]string{
			models.KindHistorical: p.Endpoints.Historical,
			models.KindQuote:      p.Endpoints.Quote,
			models.KindCompany:    p.Endpoints.Company,
		},
		Timeout:     p.Timeout,
		MaxAttempts: p.MaxAttempts,
		BackoffBase: p.BackoffBase,
		BackoffLong: p.BackoffLong,
	}, ledger, raw,
		marketdata.WithLogger(l.With(applogger.Component("marketdata"))),
		marketdata.WithMetrics(m),
	)
}

func ProvideFeatureEngine(cfg *config.Config, l *applogger.Logger) *features.Engine {
	fc := features.DefaultConfig()
	fc.RecordsKey = cfg.Features.RecordsKey
	fc.MAPeriods = cfg.Features.MAPeriods
	fc.RSIPeriod = cfg.Features.RSIPeriod
	fc.VolatilityWindow = cfg.Features.VolatilityWindow
	fc.MinRows = cfg.Features.MinDataPoints
	return features.NewEngine(fc, l.With(applogger.Component("features")))
}

func ProvideSequenceBuilder(cfg *config.Config, l *applogger.Logger) *sequences.Builder {
	return sequences.NewBuilder(sequences.Config{
		Lookback:        cfg.Sequence.Lookback,
		Target:          cfg.Sequence.TargetColumn,
		TestSplit:       cfg.Sequence.TestSplit,
		ValidationSplit: cfg.Sequence.ValidationSplit,
		MinSequences:    cfg.Sequence.MinSequences,
	}, l.With(applogger.Component("sequences")))
}

func ProvideAssembler(cfg *config.Config, l *applogger.Logger) *inference.Assembler {
	return inference.NewAssembler(inference.Config{
		Lookback:          cfg.Sequence.Lookback,
		DefaultConfidence: cfg.Inference.DefaultConfidence,
	}, inference.WithLogger(l.With(applogger.Component("inference"))))
}

// ProvideScorer creates the HTTP client for the external model service.
func ProvideScorer(cfg *config.Config) service.Scorer {
	return analytics.NewHTTPScorer(cfg.Inference.ScorerURL, cfg.Inference.Timeout, cfg.Inference.Attempts)
}

// ProvidePredictionPublisher publishes predictions to Kafka when enabled.
func ProvidePredictionPublisher(cfg *config.Config, reg *prometheus.Registry, l *applogger.Logger) (repository.PredictionPublisher, func(), error) {
	if !cfg.Publish.Enabled {
		return internalrepo.NopPublisher{}, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaPredictionPublisher(producer, cfg.Publish.Topic)
	cleanup := func() {
		if err := pub.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	return pub, cleanup, nil
}

func ProvideAcquirer(
	cfg *config.Config,
	fetcher service.MarketDataFetcher,
	ledger service.QuotaLedger,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Acquirer {
	return usecase.NewAcquirer(fetcher, ledger, m, l, cfg.Provider.HistoryDays, cfg.Provider.Extras)
}

func ProvideFeatureBuilder(
	raw repository.RawStore,
	tables repository.TableStore,
	engine *features.Engine,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.FeatureBuilder {
	return usecase.NewFeatureBuilder(raw, tables, engine, m, l)
}

func ProvideDatasetBuilder(
	tables repository.TableStore,
	datasets repository.DatasetStore,
	artifacts repository.ArtifactStore,
	builder *sequences.Builder,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.DatasetBuilder {
	return usecase.NewDatasetBuilder(tables, datasets, artifacts, builder, m, l)
}

func ProvidePredictor(
	tables repository.TableStore,
	artifacts repository.ArtifactStore,
	assembler *inference.Assembler,
	scorer service.Scorer,
	publisher repository.PredictionPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Predictor {
	return usecase.NewPredictor(tables, artifacts, assembler, scorer, publisher, m, l)
}

// ProvideHTTPServer creates the quota/metrics server used by the serve command.
func ProvideHTTPServer(cfg *config.Config, reg *prometheus.Registry, ledger *ratelimit.Ledger, l *applogger.Logger) *xhttp.Server {
	hl := l.With(applogger.Component("http"))
	path := ""
	if cfg.Metrics.Enabled {
		path = cfg.Metrics.Path
	}
	stats := cache.NewQuotaStats(ledger, cfg.Server.StatsCacheTTL, nil)
	return xhttp.NewServer(api.NewQuotaEchoHandler(hl, stats),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithRegistry(reg, path),
		xhttp.WithLogger(hl),
	)
}

// ProvideApp assembles the command runner.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	acquirer *usecase.Acquirer,
	featureBuilder *usecase.FeatureBuilder,
	datasetBuilder *usecase.DatasetBuilder,
	predictor *usecase.Predictor,
	status *usecase.QuotaStatus,
	pipeline *usecase.Pipeline,
	srv *xhttp.Server,
) *server.App {
	return server.New(cfg, l, server.Phases{
		Acquirer:  acquirer,
		Features:  featureBuilder,
		Datasets:  datasetBuilder,
		Predictor: predictor,
		Status:    status,
		Pipeline:  pipeline,
	}, srv)
}
