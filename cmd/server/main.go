// Package main - точка входа HTTP-сервиса Puzzle Hub.
//
// Сервис принимает игровые события, выдаёт достижения по правилам
// и отдаёт лидерборд из кеша рейтинга.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: правила достижений, лидерборд, кеш рейтинга
// - Application: команды, запросы и обработчики событий
// - Infrastructure: PostgreSQL, Redis, очередь событий, event bus
// - Interface: HTTP API
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alem-hub/puzzle-hub/config"

	// Application layer
	"github.com/alem-hub/puzzle-hub/internal/application/command"
	"github.com/alem-hub/puzzle-hub/internal/application/eventhandler"
	"github.com/alem-hub/puzzle-hub/internal/application/query"

	// Domain layer
	"github.com/alem-hub/puzzle-hub/internal/domain/achievement"
	"github.com/alem-hub/puzzle-hub/internal/domain/leaderboard"

	// Infrastructure layer
	"github.com/alem-hub/puzzle-hub/internal/infrastructure/messaging"
	"github.com/alem-hub/puzzle-hub/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/puzzle-hub/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/puzzle-hub/internal/infrastructure/persistence/redis"
	"github.com/alem-hub/puzzle-hub/internal/infrastructure/scheduler"
	"github.com/alem-hub/puzzle-hub/internal/infrastructure/scheduler/jobs"

	// Interface layer
	httpserver "github.com/alem-hub/puzzle-hub/internal/interface/http"
	"github.com/alem-hub/puzzle-hub/internal/interface/http/handlers"

	// Packages
	"github.com/alem-hub/puzzle-hub/pkg/logger"
	"github.com/alem-hub/puzzle-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	configPath := flag.String("config", "", "directory containing config.yaml")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

// stores - хранилища, выбранные конфигурацией.
type stores struct {
	definitions achievement.DefinitionRepository
	awards      achievement.AwardRepository
	leaderboard leaderboard.Store
}

func run(ctx context.Context, configPath string) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		Format:    logger.Format(strings.ToLower(cfg.Observability.LogFormat)),
		AddCaller: cfg.IsDevelopment(),
	}).With(logger.String("service", cfg.App.Name), logger.String("version", cfg.App.Version))

	log.Info("starting Puzzle Hub",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("leaderboard_store", cfg.Leaderboard.Store),
		logger.Bool("postgres", cfg.UsePostgres()),
		logger.Any("features", cfg.Features.Enabled()),
	)

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	st := stores{}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ХРАНИЛИЩЕ ДОСТИЖЕНИЙ (PostgreSQL или память)
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.UsePostgres() {
		dbConn, err := connectPostgres(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing database connection...")
			dbConn.Close()
		}()

		if cfg.Database.MigrateOnStart {
			applied, err := postgres.NewMigrator(dbConn).Migrate(ctx)
			if err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info("migrations completed", logger.Int("applied", applied))
		}

		st.definitions = postgres.NewDefinitionRepository(dbConn, log)
		st.awards = postgres.NewAwardRepository(dbConn)
		health.AddCheck("postgres", handlers.NewPingCheck(dbConn))
	} else {
		log.Warn("DATABASE_URL is empty, achievements are kept in memory")
		st.definitions = memory.NewDefinitionRepository()
		st.awards = memory.NewAwardRepository()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ХРАНИЛИЩЕ ЛИДЕРБОРДА (Redis или память)
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Leaderboard.Store == config.StoreRedis {
		redisClient, err := connectRedis(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing Redis connection...")
			_ = redisClient.Close()
		}()

		st.leaderboard = redis.NewLeaderboardStore(redisClient, log, redis.WithBreaker(redis.NewStoreBreaker(log)))
		health.AddCheck("redis", handlers.NewPingCheck(redisClient))
	} else {
		st.leaderboard = memory.NewLeaderboardStore()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. НАЧАЛЬНЫЕ ОПРЕДЕЛЕНИЯ ДОСТИЖЕНИЙ
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Features.IsEnabled(config.FeatureSeedDefinitions) {
		if err := seedDefinitions(ctx, st.definitions, log); err != nil {
			return err
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EVENT BUS И ЛЕНТА НЕДАВНИХ НАГРАД
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	recentFeed := eventhandler.NewOnAchievementAwardedHandler(cfg.Ingestion.RecentFeedSize, log)
	if err := recentFeed.Register(eventBus); err != nil {
		return fmt.Errorf("failed to register recent awards feed: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	ranking := leaderboard.NewRankingCache(st.leaderboard,
		leaderboard.WithTTL(cfg.Leaderboard.CacheTTL),
		leaderboard.WithTopN(cfg.Leaderboard.TopN),
		leaderboard.WithFallbackHook(func(err error) {
			log.Warn("leaderboard recompute failed, serving last snapshot", logger.Err(err))
		}),
	)

	ledger := command.NewAwardAchievementHandler(st.awards, eventBus, log)
	processor := eventhandler.NewOnGameEventHandler(st.definitions, st.awards, ledger, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ОЧЕРЕДЬ ИГРОВЫХ СОБЫТИЙ
	// ─────────────────────────────────────────────────────────────────────────
	queue := messaging.NewEventQueue(processor, messaging.EventQueueConfig{
		Workers:        cfg.Ingestion.Workers,
		QueueSize:      cfg.Ingestion.QueueSize,
		MaxAttempts:    cfg.Ingestion.MaxAttempts,
		InitialBackoff: cfg.Ingestion.InitialBackoff,
		MaxBackoff:     cfg.Ingestion.MaxBackoff,
		HandleTimeout:  cfg.Ingestion.HandleTimeout,
		Logger:         log,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 9. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.AllowedOrigins = cfg.HTTP.CORSAllowedOrigins
	httpConfig.RateLimitRequests = cfg.HTTP.RateLimitRequests
	httpConfig.RateLimitWindow = cfg.HTTP.RateLimitWindow
	httpConfig.Version = cfg.App.Version

	server := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		Events:                 queue,
		UpsertScore:            command.NewUpsertScoreHandler(st.leaderboard, ranking, eventBus, log),
		UpsertAchievement:      command.NewUpsertAchievementHandler(st.definitions, log),
		GetLeaderboard:         query.NewGetLeaderboardHandler(ranking, cfg.Leaderboard.MaxPageSize, log),
		ListAchievements:       query.NewListAchievementsHandler(st.definitions),
		ListPlayerAchievements: query.NewListPlayerAchievementsHandler(st.awards, st.definitions),
		RecentAwards:           recentFeed,
		QueueMetrics:           queue,
		BusMetrics:             eventBus,
		Ranking:                ranking,
		AdminAuth:              handlers.NewAPIKeyAuth(handlers.DefaultAPIKeyHeader, cfg.HTTP.AdminKeyHash),
		Features:               cfg.Features,
		HealthChecker:          health,
		Logger:                 log,
	})

	if cfg.HTTP.AdminKeyHash == "" {
		log.Warn("HTTP_ADMIN_KEY_HASH is empty, admin endpoints are disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. ФОНОВЫЕ ЗАДАЧИ
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Leaderboard.WarmInterval > 0 {
		sched = scheduler.NewScheduler(scheduler.SchedulerConfig{Logger: log})
		warm := jobs.NewWarmLeaderboardJob(ranking, log)
		if err := sched.Register(warm, scheduler.Every(cfg.Leaderboard.WarmInterval)); err != nil {
			return fmt.Errorf("failed to register %s job: %w", warm.Name(), err)
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := server.StartAsync()

	log.Info("Puzzle Hub is running", logger.String("http_address", server.Address()))

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err, ok := <-errCh:
		if ok && err != nil {
			log.Error("http server error", logger.Err(err))
			runErr = err
		}
	}

	log.Info("starting graceful shutdown...", logger.Duration("timeout", cfg.App.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	// Сначала перестаём принимать запросы, затем дожидаемся очереди.
	// Event bus и хранилища закрываются через defer в обратном порядке.
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
	}

	if sched != nil {
		_ = sched.Stop()
	}

	if err := queue.Close(shutdownCtx); err != nil {
		m := queue.Metrics()
		log.Error("event queue did not drain in time",
			logger.Err(err),
			logger.Int64("processed", m.Processed),
			logger.Int64("dropped", m.Dropped),
		)
	}

	log.Info("shutdown completed")
	return runErr
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// connectPostgres подключается к PostgreSQL с повторами: база может
// подниматься одновременно с сервисом.
func connectPostgres(ctx context.Context, cfg *config.Config, log *logger.Logger) (*postgres.Connection, error) {
	pgConfig := postgres.DefaultConfig()
	pgConfig.URL = cfg.Database.URL
	if cfg.Database.MaxConns > 0 {
		pgConfig.MaxConns = cfg.Database.MaxConns
	}
	if cfg.Database.MinConns > 0 {
		pgConfig.MinConns = cfg.Database.MinConns
	}
	if cfg.Database.MaxConnLifetime > 0 {
		pgConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	}
	if cfg.Database.MaxConnIdleTime > 0 {
		pgConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime
	}
	if cfg.Database.ConnectTimeout > 0 {
		pgConfig.ConnectTimeout = cfg.Database.ConnectTimeout
	}

	log.Info("connecting to database...")
	var conn *postgres.Connection
	err := retry.StartupRetrier(startupRetryLogger(log, "postgres")).Do(ctx, func(ctx context.Context) error {
		var err error
		conn, err = postgres.NewConnection(ctx, pgConfig)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("database connection established")
	return conn, nil
}

// connectRedis подключается к Redis с повторами.
func connectRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) (*redis.Client, error) {
	redisConfig := redis.DefaultConfig()
	redisConfig.Host = cfg.Redis.Host
	redisConfig.Port = cfg.Redis.Port
	redisConfig.Password = cfg.Redis.Password
	redisConfig.DB = cfg.Redis.DB
	redisConfig.KeyPrefix = cfg.Redis.KeyPrefix
	if cfg.Redis.PoolSize > 0 {
		redisConfig.PoolSize = cfg.Redis.PoolSize
	}
	if cfg.Redis.MinIdleConns > 0 {
		redisConfig.MinIdleConns = cfg.Redis.MinIdleConns
	}
	if cfg.Redis.DialTimeout > 0 {
		redisConfig.DialTimeout = cfg.Redis.DialTimeout
	}
	if cfg.Redis.ReadTimeout > 0 {
		redisConfig.ReadTimeout = cfg.Redis.ReadTimeout
	}
	if cfg.Redis.WriteTimeout > 0 {
		redisConfig.WriteTimeout = cfg.Redis.WriteTimeout
	}

	log.Info("connecting to Redis...", logger.String("addr", redisConfig.Addr()))
	var client *redis.Client
	err := retry.StartupRetrier(startupRetryLogger(log, "redis")).Do(ctx, func(ctx context.Context) error {
		var err error
		client, err = redis.NewClient(ctx, redisConfig)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("Redis connection established")
	return client, nil
}

func startupRetryLogger(log *logger.Logger, target string) func(int, error, time.Duration) {
	return func(attempt int, err error, delay time.Duration) {
		log.Warn("backing store not reachable yet, retrying",
			logger.String("target", target),
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
			logger.Err(err),
		)
	}
}

// seedDefinitions загружает стартовый набор, только если хранилище пусто.
func seedDefinitions(ctx context.Context, repo achievement.DefinitionRepository, log *logger.Logger) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list achievement definitions: %w", err)
	}
	if len(existing) > 0 {
		log.Info("achievement definitions already present", logger.Int("count", len(existing)))
		return nil
	}

	defaults := achievement.DefaultDefinitions()
	var errs []error
	for _, def := range defaults {
		if err := repo.Upsert(ctx, def); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", def.ID, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to seed achievement definitions: %w", err)
	}

	log.Info("seeded default achievement definitions", logger.Int("count", len(defaults)))
	return nil
}
