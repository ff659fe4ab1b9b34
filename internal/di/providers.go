package di

import (
	"context"
	"fmt"
	"time"

	"FinEnrich/internal/domain/repository"
	dsvc "FinEnrich/internal/domain/service"
	"FinEnrich/internal/handler/api"
	internalrepo "FinEnrich/internal/repository"
	"FinEnrich/internal/service/exchangerate"
	"FinEnrich/internal/service/finnhub"
	"FinEnrich/internal/service/newsapi"
	"FinEnrich/internal/service/yahoo"
	"FinEnrich/internal/services/cleaning"
	"FinEnrich/internal/usecase"
	"FinEnrich/pkg/cache"
	pkgch "FinEnrich/pkg/clickhouse"
	"FinEnrich/pkg/config"
	xhttp "FinEnrich/pkg/http"
	pkgkafka "FinEnrich/pkg/kafka"
	applogger "FinEnrich/pkg/logger"
	"FinEnrich/pkg/metrics"
	pkgmongo "FinEnrich/pkg/mongodb"
	"FinEnrich/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

const connectTimeout = 10 * time.Second

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the registry for pipeline and HTTP metrics.
func ProvideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.NewWithRegistry(reg)
}

// ProvideHTTPClient creates the client shared by the upstream providers.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(cfg.Fetch.HTTPTimeout))
}

func ProvideQuoteProvider(client *xhttp.Client, cfg *config.Config) dsvc.QuoteProvider {
	return yahoo.New(client, yahoo.WithBaseURL(cfg.Yahoo.BaseURL))
}

func ProvideNewsProvider(client *xhttp.Client, cfg *config.Config) dsvc.NewsProvider {
	return newsapi.New(client, cfg.News.APIKey, newsapi.WithBaseURL(cfg.News.BaseURL))
}

func ProvideSentimentProvider(client *xhttp.Client, cfg *config.Config) dsvc.SentimentProvider {
	return finnhub.New(client, cfg.Finnhub.APIKey, finnhub.WithBaseURL(cfg.Finnhub.BaseURL))
}

func ProvideFXProvider(client *xhttp.Client, cfg *config.Config) dsvc.FXProvider {
	return exchangerate.New(client,
		exchangerate.WithBaseURL(cfg.FX.BaseURL),
		exchangerate.WithAccessKey(cfg.FX.AccessKey),
	)
}

// ProvideEnricher wraps the providers with per-source timeouts and rate limits.
func ProvideEnricher(
	quote dsvc.QuoteProvider,
	news dsvc.NewsProvider,
	sentiment dsvc.SentimentProvider,
	fx dsvc.FXProvider,
	m repository.Metrics,
	logger *applogger.Logger,
	cfg *config.Config,
) *usecase.Enricher {
	rl := cfg.Fetch.RateLimit
	return usecase.NewEnricher(quote, news, sentiment, fx,
		usecase.WithFetchTimeout(cfg.Fetch.Timeout),
		usecase.WithNewsLimit(cfg.News.MaxItems),
		usecase.WithRateLimit(usecase.SourceQuote, rl.Quote, rl.Burst),
		usecase.WithRateLimit(usecase.SourceNews, rl.News, rl.Burst),
		usecase.WithRateLimit(usecase.SourceSentiment, rl.Sentiment, rl.Burst),
		usecase.WithEnricherMetrics(m),
		usecase.WithEnricherLogger(logger.With(applogger.String("component", "enricher"))),
	)
}

func ProvideCleaner(cfg *config.Config) *cleaning.Cleaner {
	return cleaning.New(cleaning.WithZThreshold(cfg.Pipeline.ZThreshold))
}

func ProvideMerger() *usecase.Merger {
	return usecase.NewMerger()
}

func ProvideSource(cfg *config.Config) repository.SourceReader {
	return internalrepo.NewCSVSource(cfg.Source.Path)
}

// ProvideMongoClient connects to MongoDB when the mongo sink is enabled.
func ProvideMongoClient(cfg *config.Config) (*pkgmongo.Client, func(), error) {
	if !cfg.Mongo.Enabled {
		return nil, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := pkgmongo.NewClient(ctx,
		pkgmongo.WithURI(cfg.Mongo.URI),
		pkgmongo.WithAppName("finenrich"),
		pkgmongo.WithTimeout(cfg.Mongo.Timeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo client: %w", err)
	}
	return client, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Close(ctx)
	}, nil
}

// ProvideKafkaProducer creates a Kafka producer when the kafka sink is enabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideClickHouseClient connects to ClickHouse and prepares the sink table.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if err := client.InitSchema(ctx, internalrepo.ClickHouseSchema(cfg.ClickHouse.Database, cfg.ClickHouse.Table)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideRedisLock connects to Redis when distributed locking is enabled.
func ProvideRedisLock(cfg *config.Config) (*cache.RedisLock, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	lock, err := cache.NewRedisLock(ctx,
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis lock: %w", err)
	}
	return lock, func() { _ = lock.Close() }, nil
}

// ProvideRunLock falls back to an in-process lock without Redis.
func ProvideRunLock(redisLock *cache.RedisLock) repository.RunLock {
	if redisLock == nil {
		return cache.NewMemoryLock()
	}
	return redisLock
}

// ProvideSinks builds the sink list. The CSV sink is always present.
func ProvideSinks(
	cfg *config.Config,
	mongoClient *pkgmongo.Client,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) []repository.Sink {
	sinks := []repository.Sink{internalrepo.NewCSVSink(cfg.Output.CSVPath)}
	if mongoClient != nil {
		sinks = append(sinks, internalrepo.NewMongoSink(mongoClient.Collection(cfg.Mongo.Database, cfg.Mongo.Collection)))
	}
	if producer != nil {
		sinks = append(sinks, internalrepo.NewKafkaSink(producer))
	}
	if chClient != nil {
		table := cfg.ClickHouse.Database + "." + cfg.ClickHouse.Table
		sinks = append(sinks, internalrepo.NewClickHouseSink(chClient.DB(), table))
	}
	return sinks
}

func ProvidePipeline(
	source repository.SourceReader,
	cleaner *cleaning.Cleaner,
	enricher *usecase.Enricher,
	merger *usecase.Merger,
	sinks []repository.Sink,
	m repository.Metrics,
	logger *applogger.Logger,
	cfg *config.Config,
) *usecase.Pipeline {
	return usecase.NewPipeline(source, cleaner, enricher, merger, sinks,
		usecase.WithBatchSize(cfg.Pipeline.BatchSize),
		usecase.WithWorkers(cfg.Pipeline.Workers),
		usecase.WithFXPair(cfg.FX.Base, cfg.FX.Quote),
		usecase.WithPipelineMetrics(m),
		usecase.WithPipelineLogger(logger.With(applogger.String("component", "pipeline"))),
	)
}

func ProvideRunner(pipeline *usecase.Pipeline, lock repository.RunLock, logger *applogger.Logger, cfg *config.Config) *usecase.Runner {
	return usecase.NewRunner(pipeline, lock,
		usecase.WithLockTTL(cfg.Redis.LockTTL),
		usecase.WithRunTimeout(cfg.Pipeline.RunTimeout),
		usecase.WithRunnerLogger(logger.With(applogger.String("component", "runner"))),
	)
}

func ProvideScheduler(runner *usecase.Runner, logger *applogger.Logger, cfg *config.Config) (*usecase.Scheduler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("schedule timezone: %w", err)
	}
	return usecase.NewScheduler(runner, loc, cfg.Pipeline.RunTimeout, logger.With(applogger.String("component", "scheduler"))), nil
}

// ProvideRunEventsHub creates the websocket hub and subscribes it to run transitions.
func ProvideRunEventsHub(runner *usecase.Runner, logger *applogger.Logger) *api.RunEventsHub {
	hub := api.NewRunEventsHub(logger.With(applogger.String("component", "ws")))
	runner.Subscribe(hub)
	return hub
}

// ProvideHealthChecks collects probes for the connected backends.
func ProvideHealthChecks(
	mongoClient *pkgmongo.Client,
	chClient *pkgch.Client,
	redisLock *cache.RedisLock,
) map[string]api.HealthCheck {
	checks := map[string]api.HealthCheck{}
	if mongoClient != nil {
		checks["mongo"] = mongoClient.Health
	}
	if chClient != nil {
		checks["clickhouse"] = chClient.Health
	}
	if redisLock != nil {
		checks["redis"] = redisLock.Health
	}
	return checks
}

// ProvideHTTPServer registers the API routes on an Echo server.
func ProvideHTTPServer(
	cfg *config.Config,
	logger *applogger.Logger,
	reg *prometheus.Registry,
	runner *usecase.Runner,
	scheduler *usecase.Scheduler,
	hub *api.RunEventsHub,
	checks map[string]api.HealthCheck,
) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	handlers := []xhttp.Handler{
		api.NewRunsHandler(logger, runner),
		api.NewHealthHandler(runner, scheduler.Next, checks),
		hub,
	}
	return xhttp.NewServer(handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(metricsPath, reg),
		xhttp.WithLogger(logger.With(applogger.String("component", "http"))),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	runner *usecase.Runner,
	scheduler *usecase.Scheduler,
	httpServer *xhttp.Server,
	hub *api.RunEventsHub,
	pipeline *usecase.Pipeline,
) *server.App {
	logger.Info("pipeline wired", applogger.Strings("sinks", pipeline.Sinks()))
	return server.New(cfg, logger, runner, scheduler, httpServer, hub)
}
