package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/clearcomms/linecheck/internal/address"
	"github.com/clearcomms/linecheck/internal/config"
	"github.com/clearcomms/linecheck/internal/event"
	handler "github.com/clearcomms/linecheck/internal/handler/http"
	"github.com/clearcomms/linecheck/internal/provider"
	"github.com/clearcomms/linecheck/internal/repository/postgres"
	redisrepo "github.com/clearcomms/linecheck/internal/repository/redis"
	"github.com/clearcomms/linecheck/internal/service"
	"github.com/clearcomms/linecheck/migrations"
	"github.com/clearcomms/linecheck/pkg/database"
	"github.com/clearcomms/linecheck/pkg/health"
	"github.com/clearcomms/linecheck/pkg/httpclient"
	pkgkafka "github.com/clearcomms/linecheck/pkg/kafka"
	"github.com/clearcomms/linecheck/pkg/middleware"
	"github.com/clearcomms/linecheck/pkg/tracing"
)

// App wires together all dependencies and runs the linecheck service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "linecheck",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPass,
		DBName:   cfg.PostgresDB,
		SSLMode:  cfg.PostgresSSL,
		MaxConns: 10,
		MinConns: 2,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize Redis for the offer cache.
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("host", cfg.RedisHost))

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Shared HTTP client for all upstream calls. Provider searches tolerate
	// slow responses, so the per-request timeout is generous; retries handle
	// the transient failures wholesaler APIs are prone to.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         60 * time.Second,
		MaxRetries:      3,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 100,
	})

	// Availability providers, each behind its own circuit breaker so one
	// failing wholesaler cannot burn the whole poll budget on every review.
	itsClient := provider.NewSearchClient(
		provider.Config{
			Name:         "its",
			BaseURL:      cfg.ITSBaseURL,
			PollAttempts: cfg.PollAttempts,
			PollDelay:    cfg.PollDelay(),
		},
		provider.StaticKeyAuth(cfg.ITSAPIKey),
		httpclient.NewCircuitBreakerClient(baseClient, httpclient.DefaultCircuitBreakerConfig("its"), logger),
		logger,
	)

	zenTokens := provider.NewTokenSource(provider.TokenSourceConfig{
		AuthURL:      cfg.ZenAuthURL,
		ClientID:     cfg.ZenClientID,
		ClientSecret: cfg.ZenClientSecret,
		Scope:        cfg.ZenScope,
	}, baseClient)

	zenClient := provider.NewSearchClient(
		provider.Config{
			Name:         "zen",
			BaseURL:      cfg.ZenBaseURL,
			PollAttempts: cfg.PollAttempts,
			PollDelay:    cfg.PollDelay(),
		},
		provider.BearerAuth(zenTokens),
		httpclient.NewCircuitBreakerClient(baseClient, httpclient.DefaultCircuitBreakerConfig("zen"), logger),
		logger,
	)

	// Build the dependency graph.
	reviewRepo := postgres.NewReviewRepository(pool)
	offerCache := redisrepo.NewOfferCache(redisClient, cfg.OfferCacheTTL())
	eventProducer := event.NewProducer(producer, logger)

	reviewService := service.NewReviewService(
		[]provider.Client{itsClient, zenClient},
		service.NewAnalyzer(),
		reviewRepo,
		offerCache,
		eventProducer,
		logger,
	)

	placesClient := address.NewOSPlacesClient(address.OSPlacesConfig{
		BaseURL: cfg.OSPlacesBaseURL,
		APIKey:  cfg.OSPlacesAPIKey,
	}, baseClient, logger)

	autocompleteClient := address.NewAutocompleteClient(address.GetAddressConfig{
		BaseURL: cfg.GetAddressBaseURL,
		APIKey:  cfg.GetAddressAPIKey,
	}, baseClient, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	// HTTP router.
	router := handler.NewRouter(handler.RouterConfig{
		ReviewService:      reviewService,
		PlacesClient:       placesClient,
		AutocompleteClient: autocompleteClient,
		HealthHandler:      healthHandler,
		Logger:             logger,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Environment:    cfg.Environment,
		},
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      time.Duration(cfg.RequestTimeout)*time.Second + 10*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: drain HTTP, flush
// tracer, close Kafka, then the stores.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
