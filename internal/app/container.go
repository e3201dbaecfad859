// Package app wires configuration, infrastructure and handlers together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/eventline/internal/planning/application/commands"
	"github.com/felixgeelhaar/eventline/internal/planning/application/queries"
	"github.com/felixgeelhaar/eventline/internal/planning/application/services"
	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/felixgeelhaar/eventline/internal/planning/infrastructure/cache"
	"github.com/felixgeelhaar/eventline/internal/planning/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/eventline/internal/shared/application"
	"github.com/felixgeelhaar/eventline/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/eventline/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/eventline/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/eventline/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/eventline/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/eventline/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/eventline/pkg/config"
	"github.com/felixgeelhaar/eventline/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	// Infrastructure
	DBConn          database.Connection
	RedisClient     *redis.Client
	Store           *persistence.SQLStore
	OutboxRepo      outbox.Repository
	UnitOfWork      sharedApplication.UnitOfWork
	SummaryCache    domain.SummaryCache
	EventPublisher  eventbus.Publisher
	OutboxProcessor *outbox.Processor
	Engine          *services.Engine

	// Planning handlers
	RecalculateTimelineHandler  *commands.RecalculateTimelineHandler
	AutoRecalculateHandler      *commands.AutoRecalculateHandler
	PreviewRecalculationHandler *queries.PreviewRecalculationHandler
	GetLastRecalculationHandler *queries.GetLastRecalculationHandler
}

// NewContainer creates a container from cfg. SQLite databases are migrated
// on open; PostgreSQL schemas are applied with the migrate command.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	conn, err := database.NewConnection(ctx, database.Config{
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DBConn = conn
	logger.Info("connected to database", "driver", conn.Driver())

	if conn.Driver() == database.DriverSQLite {
		applied, err := migrations.Migrate(ctx, conn, cfg.DatabaseURL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		if len(applied) > 0 {
			logger.Info("applied migrations", "count", len(applied))
		}
	}
	c.Health.Register("database", observability.PingChecker("database", conn.Ping, observability.HealthStatusUnhealthy))

	c.Store = persistence.NewSQLStore(conn)
	c.OutboxRepo = outbox.NewSQLRepository(conn)
	c.UnitOfWork = database.NewUnitOfWork(conn)

	if err := c.initCache(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initPublisher(); err != nil {
		c.Close()
		return nil, err
	}

	procCfg := outbox.DefaultProcessorConfig()
	procCfg.PollInterval = cfg.Outbox.PollInterval
	procCfg.BatchSize = cfg.Outbox.BatchSize
	if cfg.Outbox.MaxRetries > 0 {
		procCfg.MaxRetries = cfg.Outbox.MaxRetries
	}
	if cfg.Outbox.RetentionDays > 0 {
		procCfg.Retention = time.Duration(cfg.Outbox.RetentionDays) * 24 * time.Hour
	}
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, procCfg, logger, c.Metrics)

	c.Engine = services.NewEngine(EngineConfig(cfg))

	c.RecalculateTimelineHandler = commands.NewRecalculateTimelineHandler(
		c.Store, c.Store, c.OutboxRepo, c.UnitOfWork, c.Engine, c.SummaryCache, logger, c.Metrics,
	)
	c.AutoRecalculateHandler = commands.NewAutoRecalculateHandler(c.Store, c.RecalculateTimelineHandler, logger, c.Metrics)
	c.PreviewRecalculationHandler = queries.NewPreviewRecalculationHandler(c.Store, c.Engine)
	c.GetLastRecalculationHandler = queries.NewGetLastRecalculationHandler(c.Store, c.SummaryCache, logger)

	return c, nil
}

// EngineConfig maps the planning settings onto the engine.
func EngineConfig(cfg *config.Config) services.EngineConfig {
	return services.EngineConfig{
		CanonicalHorizonMonths: cfg.Planning.CanonicalHorizonMonths,
		MaxDependencyPasses:    cfg.Planning.MaxDependencyPasses,
		WeekStart:              cfg.WeekStartDay(),
	}
}

// initCache connects to Redis when configured. Development falls back to the
// in-process cache when Redis is unreachable.
func (c *Container) initCache(ctx context.Context) error {
	if c.Config.RedisURL == "" {
		c.SummaryCache = cache.NewMemorySummaryCache()
		return nil
	}

	client, err := cache.NewRedisClient(ctx, c.Config.RedisURL)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, using in-memory summary cache", "error", err)
		c.SummaryCache = cache.NewMemorySummaryCache()
		return nil
	}

	c.RedisClient = client
	c.SummaryCache = cache.NewRedisSummaryCache(client, cache.DefaultTTL)
	c.Health.Register("redis", observability.PingChecker("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}, observability.HealthStatusDegraded))
	c.Logger.Info("connected to Redis")
	return nil
}

// initPublisher connects to RabbitMQ when configured and puts a circuit
// breaker in front of it.
func (c *Container) initPublisher() error {
	if c.Config.RabbitMQURL == "" {
		c.EventPublisher = eventbus.NewNoopPublisher(c.Logger)
		return nil
	}

	publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
		c.EventPublisher = eventbus.NewNoopPublisher(c.Logger)
		return nil
	}

	breakerCfg := eventbus.DefaultBreakerConfig()
	breakerCfg.FailureThreshold = c.Config.Breaker.FailureThreshold
	if c.Config.Breaker.Timeout > 0 {
		breakerCfg.Timeout = c.Config.Breaker.Timeout
	}
	breaker := eventbus.NewBreakerPublisher(publisher, breakerCfg, c.Logger)
	c.EventPublisher = breaker
	c.Health.Register("broker", func(ctx context.Context) observability.HealthCheckResult {
		if state := breaker.State(); state != "closed" {
			return observability.HealthCheckResult{Status: observability.HealthStatusDegraded, Message: "publisher circuit " + state}
		}
		return observability.HealthCheckResult{Status: observability.HealthStatusHealthy}
	})
	return nil
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil && c.OutboxProcessor.IsRunning() {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBConn.Driver())
		}
	}
}
