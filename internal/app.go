package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"nadlan-parser/internal/adapters/catalog"
	"nadlan-parser/internal/adapters/catalogfetcher"
	"nadlan-parser/internal/adapters/httpapi"
	"nadlan-parser/internal/adapters/nadlanfetcher"
	postgres_adapter "nadlan-parser/internal/adapters/postgres"
	rabbitmq_adapter "nadlan-parser/internal/adapters/rabbitmq"
	"nadlan-parser/internal/adapters/synthetic"
	"nadlan-parser/internal/configs"
	"nadlan-parser/internal/constants"
	"nadlan-parser/internal/core/domain"
	"nadlan-parser/internal/core/filter"
	"nadlan-parser/internal/core/port"
	"nadlan-parser/internal/core/usecase"
	"nadlan-parser/pkg/logger"
	"nadlan-parser/pkg/postgres"
	"nadlan-parser/pkg/rabbitmq/rabbitmq_common"
	"nadlan-parser/pkg/rabbitmq/rabbitmq_consumer"
	"nadlan-parser/pkg/rabbitmq/rabbitmq_producer"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 15 * time.Second

// App – структура приложения
type App struct {
	config        *configs.AppConfig
	log           zerolog.Logger
	dbPool        *pgxpool.Pool               // nil без DATABASE_URL
	eventProducer *rabbitmq_producer.Publisher // nil без RABBITMQ_URL

	httpServer *httpapi.Server

	// Синхронизация справочника, запускается самим приложением
	syncNeighborhoodsUseCase *usecase.SyncNeighborhoodsUseCase

	// Входящие порты (слушатели событий)
	requestEventsListener port.EventListenerPort
}

// NewApp создает новый экземпляр приложения.
// Это "Composition Root", где все зависимости создаются и связываются.
// Postgres и RabbitMQ необязательны: без них работают встроенный
// справочник и синхронный HTTP API.
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	appLog := logger.New(logger.Config{Level: appConfig.Log.Level, Pretty: appConfig.Log.Pretty})
	app := &App{config: appConfig, log: appLog.With().Str("component", "app").Logger()}

	// 1. Справочник районов
	var neighborhoodCatalog port.NeighborhoodCatalogPort = catalog.NewStaticCatalog(constants.SeedNeighborhoods)

	if appConfig.Database.URL != "" {
		dbPool, err := postgres.NewClient(context.Background(), postgres.Config{
			DatabaseURL: appConfig.Database.URL,
			MaxConns:    int32(appConfig.Database.MaxConns),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		app.dbPool = dbPool
		app.log.Info().Msg("Connected to PostgreSQL pool")

		pgCatalog, err := postgres_adapter.NewPostgresNeighborhoodCatalog(dbPool, appLog)
		if err != nil {
			app.closeResources()
			return nil, err
		}
		neighborhoodCatalog = catalog.NewFallbackCatalog(pgCatalog, neighborhoodCatalog, appLog)

		if appConfig.Catalog.SourceURL != "" {
			if err := app.initCatalogSync(dbPool, appLog); err != nil {
				app.closeResources()
				return nil, err
			}
		}
	}

	// 2. Источники кандидатов
	synthCfg := synthetic.DefaultConfig()
	if appConfig.Synthetic.HighVolume {
		synthCfg = synthetic.HighVolumeConfig()
	} else {
		synthCfg.MinRecords = appConfig.Synthetic.MinRecords
		synthCfg.MaxRecords = appConfig.Synthetic.MaxRecords
	}
	synthCfg.Seed = appConfig.Synthetic.Seed
	generator, err := synthetic.NewGenerator(synthCfg, appLog)
	if err != nil {
		app.closeResources()
		return nil, err
	}

	liveCfg := nadlanfetcher.DefaultConfig()
	liveCfg.URL = appConfig.Live.URL
	liveCfg.PageTimeout = appConfig.Live.PageTimeout
	liveCfg.InteractionTimeout = appConfig.Live.InteractionTimeout
	liveCfg.ResultsTimeout = appConfig.Live.ResultsTimeout
	browser := nadlanfetcher.NewChromeBrowser(appConfig.Live.Headless, constants.NadlanLocale, appLog)
	liveAdapter := nadlanfetcher.NewNadlanFetcherAdapter(browser, liveCfg, appLog)

	// 3. Use cases
	acquireUseCase := usecase.NewAcquireTransactionsUseCase(
		neighborhoodCatalog,
		map[domain.Mode]port.CandidateSourcePort{
			domain.ModeLive:      liveAdapter,
			domain.ModeSynthetic: generator,
		},
		filter.NewPipeline(appLog),
		appLog,
	)

	// 4. Асинхронный вход через RabbitMQ
	var requestQueue port.RequestQueuePort
	if appConfig.RabbitMQ.URL != "" {
		requestQueue, err = app.initQueues(acquireUseCase, appLog)
		if err != nil {
			app.closeResources()
			return nil, err
		}
	}

	// 5. HTTP API
	handlers := httpapi.NewHandlers(acquireUseCase, neighborhoodCatalog, requestQueue, appLog)
	app.httpServer = httpapi.NewServer(appConfig.HTTP.Addr, handlers, appConfig.HTTP.WriteTimeout, appLog)

	app.log.Info().
		Bool("postgres", app.dbPool != nil).
		Bool("rabbitmq", app.eventProducer != nil).
		Bool("catalog_sync", app.syncNeighborhoodsUseCase != nil).
		Msg("Application initialized")
	return app, nil
}

func (a *App) initCatalogSync(dbPool *pgxpool.Pool, appLog zerolog.Logger) error {
	storage, err := postgres_adapter.NewPostgresNeighborhoodStorage(dbPool, appLog)
	if err != nil {
		return err
	}
	runs, err := postgres_adapter.NewPostgresSyncRunRepository(dbPool, appLog)
	if err != nil {
		return err
	}
	fetcher, err := catalogfetcher.NewCatalogFetcherAdapter(catalogfetcher.Config{
		SourceURL:      a.config.Catalog.SourceURL,
		ItemSelector:   a.config.Catalog.ItemSelector,
		RandomDelay:    a.config.Catalog.RandomDelay,
		RequestTimeout: 30 * time.Second,
	}, appLog)
	if err != nil {
		return err
	}
	a.syncNeighborhoodsUseCase = usecase.NewSyncNeighborhoodsUseCase(fetcher, storage, runs, a.config.Catalog.SyncInterval, appLog)
	return nil
}

func (a *App) initQueues(acquire *usecase.AcquireTransactionsUseCase, appLog zerolog.Logger) (port.RequestQueuePort, error) {
	amqpCfg := rabbitmq_common.Config{URL: a.config.RabbitMQ.URL}

	producer, err := rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
		Config:                   amqpCfg,
		ExchangeName:             constants.ExchangeParser,
		ExchangeType:             constants.ExchangeParserType,
		DurableExchange:          true,
		DeclareExchangeIfMissing: true,
	}, appLog)
	if err != nil {
		return nil, fmt.Errorf("failed to create event producer: %w", err)
	}
	a.eventProducer = producer

	resultQueue, err := rabbitmq_adapter.NewRabbitMQResultQueueAdapter(producer, constants.RoutingKeyAcquisitionResults, appLog)
	if err != nil {
		return nil, err
	}
	requestQueue, err := rabbitmq_adapter.NewRabbitMQRequestQueueAdapter(producer, constants.RoutingKeyAcquisitionRequests, appLog)
	if err != nil {
		return nil, err
	}

	processUseCase := usecase.NewProcessRequestUseCase(acquire, resultQueue, appLog)

	listener, err := rabbitmq_adapter.NewRequestConsumerAdapter(rabbitmq_consumer.ConsumerConfig{
		Config:              amqpCfg,
		QueueName:           constants.QueueAcquisitionRequests,
		DeclareQueue:        true,
		DurableQueue:        true,
		ExchangeNameForBind: constants.ExchangeParser,
		RoutingKeyForBind:   constants.RoutingKeyAcquisitionRequests,
		PrefetchCount:       a.config.RabbitMQ.PrefetchCount,
		ConsumerTag:         "acquisition-request-worker",
	}, processUseCase, appLog)
	if err != nil {
		return nil, err
	}
	a.requestEventsListener = listener
	return requestQueue, nil
}

// StartCatalogSync обновляет справочник районов для городов из конфигурации.
func (a *App) StartCatalogSync(ctx context.Context, wg *sync.WaitGroup) {
	cities := a.config.Catalog.SyncCities
	if len(cities) == 0 {
		a.log.Warn().Msg("Catalog sync requested but CATALOG_SYNC_CITIES is empty")
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.log.Info().Strs("cities", cities).Msg("Catalog sync started")
		if err := a.syncNeighborhoodsUseCase.Execute(ctx, cities); err != nil {
			a.log.Error().Err(err).Msg("Catalog sync finished with errors")
			return
		}
		a.log.Info().Msg("Catalog sync finished")
	}()
}

// Run запускает все компоненты приложения и управляет их жизненным циклом.
func (a *App) Run() error {
	// Единый контекст для graceful shutdown
	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	var wg sync.WaitGroup
	componentErrors := make(chan error, 2)

	defer func() {
		a.log.Info().Msg("Shutdown sequence initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			a.log.Error().Err(err).Msg("HTTP server shutdown failed")
		}

		a.log.Info().Msg("Waiting for background processes to finish")
		wg.Wait()
		a.closeResources()
		a.log.Info().Msg("Application shut down gracefully")
	}()

	a.log.Info().Str("addr", a.config.HTTP.Addr).Msg("Application is starting")

	if a.config.Catalog.SyncOnStart && a.syncNeighborhoodsUseCase != nil {
		a.StartCatalogSync(appCtx, &wg)
	}

	if a.requestEventsListener != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.requestEventsListener.Start(appCtx); err != nil && !errors.Is(err, context.Canceled) {
				componentErrors <- fmt.Errorf("request listener: %w", err)
				return
			}
			a.log.Info().Msg("Request listener stopped")
		}()
	}

	go func() {
		if err := a.httpServer.Start(); err != nil {
			componentErrors <- fmt.Errorf("http server: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case receivedSignal := <-quit:
		a.log.Info().Str("signal", receivedSignal.String()).Msg("Received signal, shutting down")
	case runErr = <-componentErrors:
		a.log.Error().Err(runErr).Msg("A critical component failed, shutting down")
	}

	cancelApp()
	return runErr
}

// closeResources закрывает то, что успело открыться; безопасен при частичной инициализации.
func (a *App) closeResources() {
	if a.requestEventsListener != nil {
		if err := a.requestEventsListener.Close(); err != nil {
			a.log.Error().Err(err).Msg("Error closing request listener")
		}
	}
	if a.eventProducer != nil {
		if err := a.eventProducer.Close(); err != nil {
			a.log.Error().Err(err).Msg("Error closing event producer")
		}
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.log.Info().Msg("PostgreSQL pool closed")
	}
}
