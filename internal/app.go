package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"

	token_adapter "rentals-service/internal/adapters/jwt"
	logger_adapter "rentals-service/internal/adapters/logger"
	"rentals-service/internal/adapters/memory"
	postgres_adapter "rentals-service/internal/adapters/postgres"
	rabbitmq_adapter "rentals-service/internal/adapters/rabbitmq"
	"rentals-service/internal/adapters/rest"
	"rentals-service/internal/configs"
	"rentals-service/internal/constants"
	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/feed"
	"rentals-service/internal/core/port"
	"rentals-service/internal/core/usecase"
	fluentlogger "rentals-service/pkg/fluent_logger"
	"rentals-service/pkg/postgres"
	"rentals-service/pkg/rabbitmq/rabbitmq_common"
	"rentals-service/pkg/rabbitmq/rabbitmq_producer"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config    *configs.AppConfig
	dbPool    *pgxpool.Pool
	apiServer *rest.Server

	listingsHub *feed.Hub[domain.Listing]
	usersHub    *feed.Hub[domain.User]

	events      port.EventPublisherPort
	connManager *rabbitmq_common.ConnectionManager

	fluentClient *fluent.Fluent
	logger       port.LoggerPort
}

// dataLayer - репозитории и источники снимков выбранного хранилища.
type dataLayer struct {
	listings       port.ListingRepositoryPort
	users          port.UserRepositoryPort
	favorites      port.FavoritesRepositoryPort
	listingsSource port.SnapshotSource[domain.Listing]
	usersSource    port.SnapshotSource[domain.User]
	// publish рассылает первый снимок источникам, которые сами этого не делают
	publish func()
}

func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	app := &App{config: appConfig}

	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	baseLogger, err := app.initLoggers()
	if err != nil {
		return nil, err
	}
	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	app.logger = appLogger

	// --- 2. ХРАНИЛИЩЕ ---
	data, err := app.initDataLayer(baseLogger)
	if err != nil {
		app.closeResources()
		return nil, err
	}

	// --- 3. СОБЫТИЯ ---
	if err := app.initEvents(baseLogger); err != nil {
		app.closeResources()
		return nil, err
	}

	// --- 4. ЖИВЫЕ КОЛЛЕКЦИИ ---
	app.listingsHub = feed.NewHub[domain.Listing](data.listingsSource, domain.NewestFirst(domain.CollectionListings),
		domain.CollectionQuery.MatchesListing, baseLogger.WithFields(port.Fields{"component": "listings_hub"}))
	app.usersHub = feed.NewHub[domain.User](data.usersSource, domain.NewestFirst(domain.CollectionUsers),
		nil, baseLogger.WithFields(port.Fields{"component": "users_hub"}))
	if err := app.listingsHub.Start(context.Background()); err != nil {
		appLogger.Error("Failed to start listings hub", err, nil)
		app.closeResources()
		return nil, fmt.Errorf("failed to start listings hub: %w", err)
	}
	if err := app.usersHub.Start(context.Background()); err != nil {
		appLogger.Error("Failed to start users hub", err, nil)
		app.closeResources()
		return nil, fmt.Errorf("failed to start users hub: %w", err)
	}
	if data.publish != nil {
		data.publish()
	}

	// --- 5. USE CASES ---
	tokens, err := token_adapter.NewTokenService(appConfig.Auth.JWTSecret, appConfig.Auth.JWTIssuer, appConfig.Auth.AccessTTL)
	if err != nil {
		app.closeResources()
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	sliders := domain.SliderBounds{
		PriceMin: appConfig.Sliders.PriceMin,
		PriceMax: appConfig.Sliders.PriceMax,
		AreaMin:  appConfig.Sliders.AreaMin,
		AreaMax:  appConfig.Sliders.AreaMax,
	}

	handlers := rest.Handlers{
		Listings: rest.NewListingsHandler(
			usecase.NewBrowseListingsUseCase(app.listingsHub, data.favorites),
			usecase.NewGetFilterOptionsUseCase(app.listingsHub, sliders),
			usecase.NewGetListingUseCase(data.listings, data.favorites),
			usecase.NewCreateListingUseCase(data.listings, app.events, time.Now),
			usecase.NewDeleteListingUseCase(data.listings, app.events, time.Now),
		),
		Stream: rest.NewStreamHandler(usecase.NewWatchListingsUseCase(app.listingsHub, data.favorites)),
		Favorites: rest.NewFavoritesHandler(
			usecase.NewAddFavoriteUseCase(data.favorites),
			usecase.NewRemoveFavoriteUseCase(data.favorites),
			usecase.NewListFavoriteIDsUseCase(data.favorites),
		),
		Auth: rest.NewAuthHandler(
			usecase.NewRegisterUserUseCase(data.users, tokens, app.events, time.Now),
			usecase.NewLoginUserUseCase(data.users, tokens),
		),
		Users: rest.NewUsersHandler(
			usecase.NewGetUserUseCase(data.users),
			usecase.NewUpdateUserUseCase(data.users, time.Now),
			usecase.NewDeleteUserUseCase(data.users, app.events, time.Now),
			usecase.NewBrowseUsersUseCase(app.usersHub),
		),
	}
	authMiddleware := rest.NewAuthMiddleware(usecase.NewValidateTokenUseCase(tokens), usecase.NewRefreshSessionUseCase(data.users))

	// --- 6. REST API ---
	router := rest.NewRouter(handlers, authMiddleware, appConfig.Rest.CORSAllowedOrigins, baseLogger)
	app.apiServer = rest.NewServer(appConfig.Rest.PORT, router, baseLogger)
	app.apiServer.OnShutdown(handlers.Stream.Shutdown)
	appLogger.Info("REST API server configured.", nil)

	return app, nil
}

func (a *App) initLoggers() (port.LoggerPort, error) {
	var activeLoggers []port.LoggerPort

	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Level:    logger_adapter.ParseLevel(a.config.StdoutLogger.Level),
		IsJSON:   false,
		UseColor: a.config.StdoutLogger.Color,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	if a.config.FluentBit.Enabled {
		fluentClient, err := fluentlogger.NewClient(fluentlogger.Config{
			Host:      a.config.FluentBit.Host,
			Port:      a.config.FluentBit.Port,
			TagPrefix: a.config.AppName,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}
		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, a.config.AppName, logger_adapter.ParseLevel(a.config.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		a.fluentClient = fluentClient
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiLoggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{"service_name": a.config.AppName})
	baseLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": a.config.FluentBit.Enabled,
	})
	return baseLogger, nil
}

func (a *App) initDataLayer(baseLogger port.LoggerPort) (*dataLayer, error) {
	if a.config.DataSource == configs.DataSourceMemory {
		return a.initMemory()
	}

	ctx := context.Background()
	dbPool, err := postgres.NewClient(ctx, postgres.Config{
		DatabaseURL: a.config.Database.URL,
		MaxConns:    a.config.Database.MaxConns,
		MinConns:    a.config.Database.MinConns,
	})
	if err != nil {
		a.logger.Error("Failed to connect to PostgreSQL", err, nil)
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	a.dbPool = dbPool
	a.logger.Info("Successfully connected to PostgreSQL pool!", nil)

	if a.config.Database.AutoMigrate {
		if err := postgres_adapter.Migrate(ctx, dbPool, a.logger); err != nil {
			return nil, err
		}
	}

	listings, err := postgres_adapter.NewListingRepository(dbPool)
	if err != nil {
		return nil, err
	}
	users, err := postgres_adapter.NewUserRepository(dbPool)
	if err != nil {
		return nil, err
	}
	favorites, err := postgres_adapter.NewFavoritesRepository(dbPool)
	if err != nil {
		return nil, err
	}

	return &dataLayer{
		listings:       listings,
		users:          users,
		favorites:      favorites,
		listingsSource: postgres_adapter.NewListingsFeed(dbPool, listings, baseLogger),
		usersSource:    postgres_adapter.NewUsersFeed(dbPool, users, baseLogger),
	}, nil
}

func (a *App) initMemory() (*dataLayer, error) {
	store := memory.NewStore()
	if a.config.SeedFile != "" {
		seed, err := memory.LoadSeed(a.config.SeedFile)
		if err != nil {
			a.logger.Error("Failed to read seed file", err, port.Fields{"path": a.config.SeedFile})
			return nil, err
		}
		if err := store.Load(seed); err != nil {
			a.logger.Error("Failed to load seed", err, nil)
			return nil, fmt.Errorf("failed to load seed: %w", err)
		}
		a.logger.Info("In-memory store seeded", port.Fields{"users": len(seed.Users), "flats": len(seed.Listings)})
	}
	a.logger.Warn("Using in-memory data source, data is lost on restart", nil)

	return &dataLayer{
		listings:       memory.NewListingRepository(store),
		users:          memory.NewUserRepository(store),
		favorites:      memory.NewFavoritesRepository(store),
		listingsSource: store.Listings,
		usersSource:    store.Users,
		publish:        store.Publish,
	}, nil
}

func (a *App) initEvents(baseLogger port.LoggerPort) error {
	if !a.config.RabbitMQ.Enabled {
		a.logger.Info("RabbitMQ is disabled, domain events are dropped", nil)
		a.events = rabbitmq_adapter.NoopPublisher{}
		return nil
	}

	rmqLogger := logger_adapter.NewRabbitMQLoggerBridge(baseLogger.WithFields(port.Fields{"component": "rabbitmq"}))
	connManager, err := rabbitmq_common.NewConnectionManager(rabbitmq_common.Config{URL: a.config.RabbitMQ.URL}, rmqLogger)
	if err != nil {
		a.logger.Error("Failed to connect to RabbitMQ", err, nil)
		return fmt.Errorf("failed to create rabbitmq connection manager: %w", err)
	}
	a.connManager = connManager

	producer, err := rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
		ExchangeName:             a.config.RabbitMQ.Exchange,
		ExchangeType:             constants.EventsExchangeType,
		DurableExchange:          true,
		DeclareExchangeIfMissing: true,
		Logger:                   rmqLogger,
	}, connManager)
	if err != nil {
		a.logger.Error("Failed to create RabbitMQ publisher", err, nil)
		return fmt.Errorf("failed to create rabbitmq publisher: %w", err)
	}

	events, err := rabbitmq_adapter.NewEventsPublisher(producer, a.config.AppName)
	if err != nil {
		producer.Close()
		return err
	}
	a.events = events
	a.logger.Info("RabbitMQ events publisher initialized", port.Fields{"exchange": a.config.RabbitMQ.Exchange})
	return nil
}

// Run запускает все компоненты приложения и управляет их жизненным циклом.
func (a *App) Run() error {
	defer a.closeResources()

	a.logger.Info("Application is starting...", nil)

	serverErrors := make(chan error, 1)
	go func() {
		if err := a.apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	a.logger.Info("Application running. Waiting for signals or server error...", nil)
	var runErr error
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case err := <-serverErrors:
		a.logger.Error("Server failed, shutting down", err, nil)
		runErr = err
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.apiServer.Stop(ctx); err != nil {
		a.logger.Error("Error during API server shutdown", err, nil)
	}
	return runErr
}

// closeResources освобождает все, что успело создаться. Порядок обратный созданию.
func (a *App) closeResources() {
	if a.logger != nil {
		a.logger.Info("Shutdown sequence initiated...", nil)
	}

	if a.listingsHub != nil {
		a.listingsHub.Stop()
	}
	if a.usersHub != nil {
		a.usersHub.Stop()
	}

	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Error("Error closing events publisher", err, nil)
		}
	}
	if a.connManager != nil {
		if err := a.connManager.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ connection", err, nil)
		}
	}

	if a.dbPool != nil {
		a.dbPool.Close()
		a.logger.Info("PostgreSQL pool closed.", nil)
	}

	if a.logger != nil {
		a.logger.Info("Application shut down gracefully.", nil)
	}
	if a.fluentClient != nil {
		if err := a.fluentClient.Close(); err != nil {
			// fluent может быть уже недоступен, поэтому в stdout
			fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
		}
		a.fluentClient = nil
	}
}
