package di

import (
	"context"
	"fmt"
	"time"

	"ChartFeed/internal/domain/repository"
	"ChartFeed/internal/handler/api"
	mid "ChartFeed/internal/middleware"
	internalrepo "ChartFeed/internal/repository"
	icache "ChartFeed/internal/service/cache"
	"ChartFeed/internal/service/nse"
	"ChartFeed/internal/service/stream"
	"ChartFeed/internal/usecase"
	pkgcache "ChartFeed/pkg/cache"
	pkgch "ChartFeed/pkg/clickhouse"
	"ChartFeed/pkg/config"
	pkgkafka "ChartFeed/pkg/kafka"
	"ChartFeed/pkg/metrics"
	"ChartFeed/pkg/server"

	applogger "ChartFeed/pkg/logger"
)

const candleTable = "chartfeed.live_candles"

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client.
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

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS chartfeed",
		"CREATE TABLE IF NOT EXISTS " + candleTable + " (ts DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, volume Float64, source String) ENGINE=ReplacingMergeTree ORDER BY (symbol, ts)",
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
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

// ProvideCache picks the chart cache backend: layered Redis when enabled,
// in-process TTL map otherwise.
func ProvideCache(cfg *config.Config) (icache.BytesCache, error) {
	if !cfg.Redis.Enabled {
		return icache.NewTTLCache(), nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return icache.NewServiceCache(pkgcache.NewLayeredCache(rc)), nil
}

// ProvideNSEClient creates the exchange HTTP client.
func ProvideNSEClient(cfg *config.Config) *nse.Client {
	return nse.New(cfg.Provider.BaseURL,
		nse.WithHistoryWindow(cfg.Provider.HistoryMonths, cfg.Provider.ChunkMonths),
		nse.WithTimeout(cfg.Provider.Timeout),
		nse.WithRate(cfg.Provider.RateCapacity, cfg.Provider.RateRefill),
	)
}

// ProvideHistoryProvider exposes the exchange client as a history source.
func ProvideHistoryProvider(client *nse.Client) repository.HistoryProvider { return client }

// ProvideQuoteProvider exposes the exchange client as a quote source.
func ProvideQuoteProvider(client *nse.Client) repository.QuoteProvider { return client }

// ProvideSymbolDirectory exposes the exchange client as a symbol directory.
func ProvideSymbolDirectory(client *nse.Client) repository.SymbolDirectory { return client }

// ProvideArchive creates the ClickHouse candle archive.
func ProvideArchive(chClient *pkgch.Client) repository.Archive {
	return internalrepo.NewClickHouseArchive(chClient, candleTable)
}

// ProvideUpdatePublisher creates the Kafka publisher for live updates.
func ProvideUpdatePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
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

// ProvideKafkaUpdatesHandler registers the handler for the updates topic.
func ProvideKafkaUpdatesHandler(archive repository.Archive, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaUpdatesHandler {
	return usecase.NewKafkaUpdatesHandler(cfg.Kafka.Topic, archive, metrics)
}

// ProvideQuoteStream picks the live update source: a streaming websocket
// when one is configured, the quote poller otherwise.
func ProvideQuoteStream(cfg *config.Config, client *nse.Client) repository.QuoteStream {
	if cfg.Live.Source == "websocket" {
		return stream.NewWS(
			cfg.Live.StreamURL,
			cfg.Live.StreamToken,
			cfg.Watchlist.Symbols,
			cfg.Live.Reconnect,
			cfg.Live.PingInterval,
		)
	}
	return stream.NewPoller(client, cfg.Watchlist.Symbols, cfg.Live.PollInterval)
}

// ProvideUpdateProcessor creates the update processor use case.
func ProvideUpdateProcessor(
	pub repository.Publisher,
	archive repository.Archive,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.UpdateProcessor {
	return usecase.NewUpdateProcessor(
		pub,
		archive,
		metrics,
		cfg.Live.Backend,
		cfg.Live.BatchSize,
		cfg.Live.BatchTimeout,
	)
}

// ProvideUpdateCollector creates the update collector use case.
func ProvideUpdateCollector(
	src repository.QuoteStream,
	processor *usecase.UpdateProcessor,
	metrics repository.Metrics,
) *usecase.UpdateCollector {
	// Build middleware pipeline between the stream and the backend
	pipe := mid.NewRealtimePipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
		mid.WithBatchFlush(processor.BatchSize(), processor.BatchTimeout()),
	)
	return usecase.NewUpdateCollector(src, processor, metrics, pipe)
}

// ProvideChartUseCase creates the chart use case.
func ProvideChartUseCase(
	history repository.HistoryProvider,
	quotes repository.QuoteProvider,
	cache icache.BytesCache,
	archive repository.Archive,
	metrics repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.ChartUseCase {
	uc := usecase.NewChartUseCase(history, quotes, cache, metrics, l, cfg.Chart.CacheTTL, cfg.Chart.MaxCandles)
	uc.SetArchive(archive)
	return uc
}

// ProvideIndicatorUseCase creates the indicator use case.
func ProvideIndicatorUseCase(charts *usecase.ChartUseCase) *usecase.IndicatorUseCase {
	return usecase.NewIndicatorUseCase(charts)
}

// ProvideWatchlistUseCase creates the watchlist use case.
func ProvideWatchlistUseCase(quotes repository.QuoteProvider, metrics repository.Metrics, cfg *config.Config) *usecase.WatchlistUseCase {
	return usecase.NewWatchlistUseCase(quotes, metrics, cfg.Watchlist.Symbols)
}

// ProvideChartHandler creates the Echo chart handler.
func ProvideChartHandler(
	l *applogger.Logger,
	charts *usecase.ChartUseCase,
	indicators *usecase.IndicatorUseCase,
	watchlist *usecase.WatchlistUseCase,
	quotes repository.QuoteProvider,
	directory repository.SymbolDirectory,
	cache icache.BytesCache,
	cfg *config.Config,
) *api.ChartEchoHandler {
	h := api.NewChartEchoHandler(l, charts, indicators, watchlist, quotes, directory)
	h.SetCache(cache)
	h.SetQuoteCacheTTL(cfg.Chart.QuoteCacheTTL)
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.UpdateCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaUpdatesHandler,
	chClient *pkgch.Client,
	handler *api.ChartEchoHandler,
) *server.App {
	// Attach hook to consumer: example NoopHook for now; can be replaced via config
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, collector, consumer, kh, chClient)
	app.SetHTTPHandler(handler)
	// attach update processor to app for closing resources via collector
	if collector != nil {
		app.UpdateProc = collector.Processor()
	}
	return app
}
