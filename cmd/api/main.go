// Package main - точка входа HTTP API Scholarship Hub.
//
// API обслуживает каталог стипендий, подачу и рассмотрение заявок,
// учётные записи студентов, спонсоров и администраторов.
// Хранилище выбирается через STORAGE_DRIVER (postgres или memory),
// доменные события при включённом FEATURE_REDIS_EVENTS расходятся
// через Redis Pub/Sub между экземплярами.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/scholar-hub/scholarship-hub/config"
	"github.com/scholar-hub/scholarship-hub/internal/application/eventhandler"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
	"github.com/scholar-hub/scholarship-hub/internal/infrastructure/messaging"
	"github.com/scholar-hub/scholarship-hub/internal/infrastructure/metrics"
	"github.com/scholar-hub/scholarship-hub/internal/infrastructure/persistence/memory"
	"github.com/scholar-hub/scholarship-hub/internal/infrastructure/persistence/postgres"
	"github.com/scholar-hub/scholarship-hub/internal/infrastructure/persistence/redis"
	"github.com/scholar-hub/scholarship-hub/internal/infrastructure/service"
	httpapi "github.com/scholar-hub/scholarship-hub/internal/interface/http"
	"github.com/scholar-hub/scholarship-hub/internal/interface/http/handlers"
	"github.com/scholar-hub/scholarship-hub/pkg/logger"
	"github.com/scholar-hub/scholarship-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

// eventBus объединяет in-memory и Redis реализации шины.
type eventBus interface {
	shared.EventPublisher
	shared.EventSubscriber
	Close() error
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	defer func() { _ = log.Sync() }()

	log.Info("starting Scholarship Hub API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("storage", string(cfg.Storage.Driver)),
	)

	user.SetHashCost(cfg.Auth.BcryptCost)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. МЕТРИКИ
	// ─────────────────────────────────────────────────────────────────────────
	var registry *metrics.Metrics
	if cfg.Features.IsEnabled(config.FeatureMetrics) {
		registry = metrics.New(true)
	}

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ХРАНИЛИЩЕ
	// ─────────────────────────────────────────────────────────────────────────
	repos, closeStorage, err := setupStorage(ctx, cfg, log, health)
	if err != nil {
		return err
	}
	defer closeStorage()

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	bus, closeBus, err := setupEventBus(ctx, cfg, log, registry, health)
	if err != nil {
		return err
	}
	defer closeBus()

	handlerCfg := eventhandler.Config{
		Logger: log,
		Retry:  retry.New(retry.WithMaxAttempts(3), retry.WithInitialDelay(100*time.Millisecond)),
	}
	if registry != nil {
		handlerCfg.Metrics = registry
	}
	if err := eventhandler.Register(bus, handlerCfg); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ПРИЛОЖЕНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	var app *service.Container
	if registry != nil {
		app = service.NewContainer(repos, bus, registry)
	} else {
		app = service.NewContainer(repos, bus, nil)
	}

	if err := ensureAdmin(ctx, repos.Users, cfg.Auth, log); err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpapi.Config{
		Addr:             cfg.HTTP.Addr(),
		ReadTimeout:      cfg.HTTP.ReadTimeout,
		WriteTimeout:     cfg.HTTP.WriteTimeout,
		IdleTimeout:      cfg.HTTP.IdleTimeout,
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		RateLimitRPS:     cfg.HTTP.RateLimitRPS,
		RateLimitBurst:   cfg.HTTP.RateLimitBurst,
		SelfRegistration: cfg.Features.IsEnabled(config.FeatureSelfRegistration),
		CountViews:       cfg.Features.IsEnabled(config.FeatureViewCounting),
	}
	deps := httpapi.Dependencies{
		App:           app,
		Tokens:        httpapi.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL),
		Logger:        log,
		HealthChecker: health,
	}
	if registry != nil {
		deps.Metrics = registry
		deps.MetricsHandler = registry.Handler()
	}

	server, err := httpapi.NewServer(serverCfg, deps)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}
	errCh := server.StartAsync()

	log.Info("Scholarship Hub API is running", logger.String("address", serverCfg.Addr))

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err, ok := <-errCh:
		if ok && err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	log.Info("starting graceful shutdown...", logger.Duration("timeout", cfg.HTTP.ShutdownTimeout))
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SETUP
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Log.Level)
	opts.Format = cfg.Log.Format
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}

	log := logger.New(opts).With(
		logger.String("service", cfg.App.Name),
		logger.String("version", cfg.App.Version),
	)
	logger.SetDefault(log)
	return log
}

// setupStorage поднимает выбранное хранилище и регистрирует его проверку готовности.
func setupStorage(
	ctx context.Context,
	cfg *config.Config,
	log *logger.Logger,
	health *handlers.CompositeHealthChecker,
) (service.Repositories, func(), error) {
	if cfg.Storage.Driver == config.StorageMemory {
		log.Warn("using in-memory storage, data will not survive a restart")
		health.AddCheck("storage", func(context.Context) error { return nil })
		return service.NewMemoryRepositories(memory.NewStore()), func() {}, nil
	}

	dbCfg := postgres.DefaultConfig()
	dbCfg.URL = cfg.Database.URL
	dbCfg.MaxConns = int32(cfg.Database.MaxConns)
	dbCfg.MinConns = int32(cfg.Database.MinConns)
	dbCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	dbCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
	dbCfg.StatementTimeout = cfg.Database.QueryTimeout

	log.Info("connecting to database...")
	retrier := retry.StartupRetrier(cfg.Database.ConnectAttempts, func(attempt int, err error, delay time.Duration) {
		log.Warn("database not ready, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
			logger.Err(err),
		)
	})

	var conn *postgres.Connection
	err := retrier.Do(ctx, func(ctx context.Context) error {
		c, err := postgres.NewConnection(ctx, dbCfg)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return service.Repositories{}, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("database connection established")

	if cfg.Database.AutoMigrate {
		log.Info("applying database migrations...")
		status, err := postgres.NewMigrator(cfg.Database.URL, log).Up()
		if err != nil {
			conn.Close()
			return service.Repositories{}, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date", logger.Any("version", status.Version))
	}

	health.AddCheck("database", handlers.NewPingCheck(conn))

	closeFn := func() {
		log.Info("closing database connection...")
		conn.Close()
	}
	return service.NewPostgresRepositories(conn), closeFn, nil
}

// setupEventBus выбирает шину событий: локальную или через Redis.
func setupEventBus(
	ctx context.Context,
	cfg *config.Config,
	log *logger.Logger,
	registry *metrics.Metrics,
	health *handlers.CompositeHealthChecker,
) (eventBus, func(), error) {
	local := messaging.DefaultInMemoryEventBusConfig()
	local.Logger = log
	if registry != nil {
		local.Observer = registry
	}

	closeBus := func(bus eventBus, extra func() error) func() {
		return func() {
			log.Info("closing event bus...")
			if err := bus.Close(); err != nil {
				log.Warn("event bus close failed", logger.Err(err))
			}
			if extra != nil {
				if err := extra(); err != nil {
					log.Warn("redis close failed", logger.Err(err))
				}
			}
		}
	}

	if !cfg.Features.IsEnabled(config.FeatureRedisEvents) {
		bus := messaging.NewInMemoryEventBus(local)
		return bus, closeBus(bus, nil), nil
	}

	log.Info("connecting to Redis...")
	client, err := redis.Connect(ctx, redis.Config{
		URL:          cfg.Redis.URL,
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	health.AddCheck("redis", redis.HealthCheck(client))

	bus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
		Client:         redis.NewPubSub(client),
		ChannelName:    cfg.Redis.ChannelPrefix + "all",
		LocalBusConfig: local,
		Logger:         log,
	})
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to start Redis event bus: %w", err)
	}
	log.Info("Redis event bus started")
	return bus, closeBus(bus, client.Close), nil
}

// ensureAdmin создаёт администратора из конфигурации, если его ещё нет.
func ensureAdmin(ctx context.Context, users user.Repository, auth config.AuthConfig, log *logger.Logger) error {
	if auth.AdminEmail == "" {
		return nil
	}

	email, err := shared.NewEmail(auth.AdminEmail)
	if err != nil {
		return err
	}
	exists, err := users.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	admin, err := user.NewUser(user.NewUserParams{
		ID:        uuid.NewString(),
		Email:     auth.AdminEmail,
		Password:  auth.AdminPassword,
		Role:      user.RoleAdmin,
		FirstName: "System",
		LastName:  "Administrator",
	})
	if err != nil {
		return err
	}
	if err := users.Create(ctx, admin); err != nil && !errors.Is(err, user.ErrEmailTaken) {
		return err
	}

	log.Info("bootstrap administrator created", logger.UserID(admin.ID))
	return nil
}
