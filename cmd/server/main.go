// Package main - точка входа HTTP-сервера FocusGoal.
//
// Сервер принимает действия пользователя (цели, привычки, фокус-сессии),
// начисляет XP через движок прогресса и отдаёт статистику.
//
// Архитектура:
// - Domain: правила наград, серий и уровней
// - Application: команды, запросы и обработчики событий
// - Infrastructure: хранилища, блокировки, шина событий, метрики
// - Interface: HTTP API
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/focusgoal/focusgoal-backend/config"

	// Application layer
	"github.com/focusgoal/focusgoal-backend/internal/application/command"
	"github.com/focusgoal/focusgoal-backend/internal/application/eventhandler"
	"github.com/focusgoal/focusgoal-backend/internal/application/query"

	// Domain layer
	"github.com/focusgoal/focusgoal-backend/internal/domain/focus"
	"github.com/focusgoal/focusgoal-backend/internal/domain/goal"
	"github.com/focusgoal/focusgoal-backend/internal/domain/habit"
	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
	"github.com/focusgoal/focusgoal-backend/internal/domain/user"

	// Infrastructure layer
	"github.com/focusgoal/focusgoal-backend/internal/infrastructure/lock"
	"github.com/focusgoal/focusgoal-backend/internal/infrastructure/messaging"
	"github.com/focusgoal/focusgoal-backend/internal/infrastructure/metrics"
	"github.com/focusgoal/focusgoal-backend/internal/infrastructure/persistence/memory"
	"github.com/focusgoal/focusgoal-backend/internal/infrastructure/persistence/postgres"
	"github.com/focusgoal/focusgoal-backend/internal/infrastructure/persistence/redis"

	// Interface layer
	httpserver "github.com/focusgoal/focusgoal-backend/internal/interface/http"
	"github.com/focusgoal/focusgoal-backend/internal/interface/http/handlers"

	// Packages
	"github.com/focusgoal/focusgoal-backend/pkg/circuitbreaker"
	"github.com/focusgoal/focusgoal-backend/pkg/logger"
	"github.com/focusgoal/focusgoal-backend/pkg/retry"
	"github.com/focusgoal/focusgoal-backend/pkg/timeutil"
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

// storage объединяет репозитории выбранного бэкенда.
type storage struct {
	users  user.Repository
	goals  goal.Repository
	habits habit.Repository
	focus  focus.Repository
	pinger handlers.Pinger
	close  func()
}

// eventBus - шина событий с управляемым закрытием.
type eventBus interface {
	shared.EventBus
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
	logOpts := logger.DefaultOptions()
	logOpts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	logOpts.Format = cfg.Observability.LogFormat
	log := logger.New(logOpts).With(
		logger.String("service", cfg.App.Name),
		logger.String("version", cfg.App.Version),
	)
	defer func() { _ = log.Sync() }()

	log.Info("starting FocusGoal",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("timezone", cfg.App.Timezone),
		logger.String("store", cfg.Engine.StoreBackend),
		logger.String("lock", cfg.Engine.LockBackend),
	)

	m := metrics.New()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ХРАНИЛИЩЕ
	// ─────────────────────────────────────────────────────────────────────────
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("store", handlers.NewPingCheck(store.pinger))

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (для распределённых блокировок и рассылки событий)
	// ─────────────────────────────────────────────────────────────────────────
	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		log.Info("connecting to Redis...")
		redisClient, err = redis.NewClient(ctx, redis.Config{
			URL:          cfg.Redis.URL,
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   redis.DefaultConfig().MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			PoolTimeout:  redis.DefaultConfig().PoolTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer func() {
			log.Info("closing Redis connection...")
			_ = redisClient.Close()
		}()
		health.AddCheck("redis", handlers.NewPingCheck(redisClient))
		log.Info("Redis connection established")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. БЛОКИРОВКИ ПО ПОЛЬЗОВАТЕЛЮ
	// ─────────────────────────────────────────────────────────────────────────
	var locker command.UserLocker
	switch cfg.Engine.LockBackend {
	case config.LockRedis:
		locker = redis.NewLocker(redisClient, redis.LockConfig{
			TTL:     cfg.Engine.LockTTL,
			Timeout: cfg.Engine.LockTimeout,
		}, log)
	case config.LockNone:
		log.Warn("per-user locking disabled, concurrent actions may lose XP")
		locker = lock.Noop{}
	default:
		locker = lock.NewKeyedMutex()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ШИНА СОБЫТИЙ
	// ─────────────────────────────────────────────────────────────────────────
	bus, err := newEventBus(cfg, redisClient, m, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing event bus...")
		_ = bus.Close()
	}()

	progress := eventhandler.NewProgressHandler(log, eventhandler.DefaultProgressConfig())
	if err := progress.Register(bus); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	clock := timeutil.SystemClock{}
	engine := command.Engine{
		Users:     store.users,
		Locker:    locker,
		Publisher: bus,
		Clock:     clock,
		Logger:    log,
		Metrics:   m,
	}
	repos := query.Repositories{
		Users:  store.users,
		Goals:  store.goals,
		Habits: store.habits,
		Focus:  store.focus,
	}

	recompletion := func(userID int64) bool {
		return cfg.Features.IsEnabled(config.FeatureGoalRecompletion, &config.FeatureContext{UserID: userID})
	}
	autoRegister := func(userID int64) bool {
		return cfg.Features.IsEnabled(config.FeatureDashboardAutoRegister, &config.FeatureContext{UserID: userID})
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.AllowedOrigins = cfg.HTTP.CORSAllowedOrigins
	httpConfig.RateLimitPerSecond = cfg.HTTP.RateLimitPerSecond
	httpConfig.RateLimitBurst = cfg.HTTP.RateLimitBurst
	httpConfig.EnableMetrics = cfg.Observability.MetricsEnabled

	server := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		RegisterUser: command.NewRegisterUserHandler(engine),
		CreateGoal:   command.NewCreateGoalHandler(engine, store.goals),
		CompleteGoal: command.NewCompleteGoalHandler(engine, store.goals, recompletion),
		CreateHabit:  command.NewCreateHabitHandler(engine, store.habits),
		TrackHabit:   command.NewTrackHabitHandler(engine, store.habits),
		StartFocus:   command.NewStartFocusSessionHandler(engine, store.focus),

		GetUser:      query.NewGetUserHandler(store.users),
		ListGoals:    query.NewListGoalsHandler(store.goals, clock),
		ListHabits:   query.NewListHabitsHandler(store.habits),
		GetStats:     query.NewGetStatsHandler(repos),
		GetDashboard: query.NewGetDashboardHandler(repos, clock),

		Location:      cfg.App.Location,
		AutoRegister:  autoRegister,
		Logger:        log,
		HealthChecker: health,
		Metrics:       m,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := server.StartAsync()
	log.Info("FocusGoal is running", logger.String("http_address", httpConfig.Address()))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", logger.Err(err))
		return err
	}

	log.Info("FocusGoal stopped")
	return nil
}

// openStorage подключает выбранный бэкенд хранения.
func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Engine.StoreBackend != config.StorePostgres {
		s := memory.NewStore(cfg.App.Location)
		log.Warn("using in-memory store, data is lost on restart")
		return &storage{
			users:  s.Users(),
			goals:  s.Goals(),
			habits: s.Habits(),
			focus:  s.Focus(),
			pinger: s,
			close:  func() {},
		}, nil
	}

	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.Database.URL
	pgCfg.MaxConns = int32(cfg.Database.MaxConns)
	pgCfg.MinConns = int32(cfg.Database.MinConns)
	pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	log.Info("connecting to database...")
	var conn *postgres.Connection
	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		conn, err = postgres.NewConnection(ctx, pgCfg)
		if errors.Is(err, postgres.ErrInvalidURL) {
			return retry.Permanent(err)
		}
		return err
	},
		retry.WithMaxAttempts(5),
		retry.WithInitialDelay(time.Second),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn("database not ready, retrying",
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay),
				logger.Err(err),
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("running database migrations...")
	applied, err := postgres.NewMigrator(conn).Migrate(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("migrations completed", logger.Int("applied", applied))

	s := postgres.NewStore(conn, cfg.App.Location)
	return &storage{
		users:  s.Users(),
		goals:  s.Goals(),
		habits: s.Habits(),
		focus:  s.Focus(),
		pinger: s,
		close: func() {
			log.Info("closing database connection...")
			conn.Close()
		},
	}, nil
}

// newEventBus создаёт локальную шину или шину с рассылкой через Redis.
func newEventBus(cfg *config.Config, client *redis.Client, m *metrics.Metrics, log *logger.Logger) (eventBus, error) {
	local := messaging.InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: cfg.Engine.EventWorkers,
		Logger:         log,
		Observer:       m,
	}

	if client == nil || !cfg.Features.IsEnabled(config.FeatureRedisEvents, nil) {
		return messaging.NewInMemoryEventBus(local), nil
	}

	breaker := circuitbreaker.RedisBreaker(func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit breaker state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})

	bus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
		Client:         client,
		ChannelName:    cfg.Redis.EventsChannel,
		Breaker:        breaker,
		LocalBusConfig: local,
		Logger:         log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis event bus: %w", err)
	}
	return bus, nil
}
