// Package config loads eventline settings from the environment, an optional
// .env file and an optional YAML overlay.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	AppEnv   string
	LogLevel string

	// Database. An empty DatabaseURL selects the local SQLite file.
	DatabaseURL string
	SQLitePath  string

	// Optional infrastructure. Empty URLs disable the integration.
	RedisURL    string
	RabbitMQURL string

	HTTPAddr         string
	MCPAddr          string
	MCPAuthToken     string
	WorkerHealthAddr string

	Planning PlanningConfig
	Outbox   OutboxConfig
	Breaker  BreakerConfig
}

// PlanningConfig tunes the recalculation engine.
type PlanningConfig struct {
	WeekStart              string `yaml:"week_start"`
	CanonicalHorizonMonths int    `yaml:"canonical_horizon_months"`
	MaxDependencyPasses    int    `yaml:"max_dependency_passes"`
	AutoRecalcCron         string `yaml:"auto_recalc_cron"`
}

// OutboxConfig tunes the outbox processor in the worker.
type OutboxConfig struct {
	Enabled         bool
	PollInterval    time.Duration
	BatchSize       int
	MaxRetries      int
	RetentionDays   int
	CleanupInterval time.Duration
	StatsInterval   time.Duration
}

// BreakerConfig tunes the circuit breaker around the broker publisher.
type BreakerConfig struct {
	FailureThreshold uint32
	Timeout          time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		SQLitePath:       getEnv("EVENTLINE_SQLITE_PATH", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		HTTPAddr:         getEnv("HTTP_ADDR", "127.0.0.1:8080"),
		MCPAddr:          getEnv("MCP_ADDR", "127.0.0.1:8082"),
		MCPAuthToken:     getEnv("MCP_AUTH_TOKEN", ""),
		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", ""),

		Planning: PlanningConfig{
			WeekStart:              strings.ToLower(getEnv("EVENTLINE_WEEK_START", "sunday")),
			CanonicalHorizonMonths: getIntEnv("EVENTLINE_CANONICAL_HORIZON_MONTHS", 12),
			MaxDependencyPasses:    getIntEnv("EVENTLINE_MAX_DEPENDENCY_PASSES", 100),
			AutoRecalcCron:         getEnv("EVENTLINE_AUTO_RECALC_CRON", "0 3 * * *"),
		},

		Outbox: OutboxConfig{
			Enabled:         getBoolEnv("OUTBOX_PROCESSOR_ENABLED", true),
			PollInterval:    getDurationEnv("OUTBOX_POLL_INTERVAL", time.Second),
			BatchSize:       getIntEnv("OUTBOX_BATCH_SIZE", 100),
			MaxRetries:      getIntEnv("OUTBOX_MAX_RETRIES", 5),
			RetentionDays:   getIntEnv("OUTBOX_RETENTION_DAYS", 7),
			CleanupInterval: getDurationEnv("OUTBOX_CLEANUP_INTERVAL", 24*time.Hour),
			StatsInterval:   getDurationEnv("OUTBOX_STATS_INTERVAL", time.Minute),
		},

		Breaker: BreakerConfig{
			FailureThreshold: uint32(getIntEnv("PUBLISHER_BREAKER_FAILURES", 5)),
			Timeout:          getDurationEnv("PUBLISHER_BREAKER_TIMEOUT", 30*time.Second),
		},
	}

	cfg.Normalize()
	return cfg, nil
}

// fileOverlay is the YAML shape accepted by ApplyFile.
type fileOverlay struct {
	Planning PlanningConfig `yaml:"planning"`
	Server   struct {
		HTTPAddr string `yaml:"http_addr"`
		MCPAddr  string `yaml:"mcp_addr"`
	} `yaml:"server"`
}

// ApplyFile overlays the planning and server settings found in a YAML file.
// Keys that are absent keep their current value.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if overlay.Planning.WeekStart != "" {
		c.Planning.WeekStart = strings.ToLower(overlay.Planning.WeekStart)
	}
	if overlay.Planning.CanonicalHorizonMonths != 0 {
		c.Planning.CanonicalHorizonMonths = overlay.Planning.CanonicalHorizonMonths
	}
	if overlay.Planning.MaxDependencyPasses != 0 {
		c.Planning.MaxDependencyPasses = overlay.Planning.MaxDependencyPasses
	}
	if overlay.Planning.AutoRecalcCron != "" {
		c.Planning.AutoRecalcCron = overlay.Planning.AutoRecalcCron
	}
	if overlay.Server.HTTPAddr != "" {
		c.HTTPAddr = overlay.Server.HTTPAddr
	}
	if overlay.Server.MCPAddr != "" {
		c.MCPAddr = overlay.Server.MCPAddr
	}

	c.Normalize()
	return nil
}

// Normalize replaces out-of-range values with defaults.
func (c *Config) Normalize() {
	switch c.Planning.WeekStart {
	case "sunday", "monday":
	default:
		c.Planning.WeekStart = "sunday"
	}
	if c.Planning.CanonicalHorizonMonths <= 0 {
		c.Planning.CanonicalHorizonMonths = 12
	}
	if c.Planning.MaxDependencyPasses <= 0 {
		c.Planning.MaxDependencyPasses = 100
	}
	if c.Planning.AutoRecalcCron == "" {
		c.Planning.AutoRecalcCron = "0 3 * * *"
	}
	if c.Outbox.BatchSize <= 0 {
		c.Outbox.BatchSize = 100
	}
	if c.Outbox.PollInterval <= 0 {
		c.Outbox.PollInterval = time.Second
	}
	if c.Outbox.CleanupInterval <= 0 {
		c.Outbox.CleanupInterval = 24 * time.Hour
	}
	if c.Outbox.StatsInterval <= 0 {
		c.Outbox.StatsInterval = time.Minute
	}
}

// WeekStartDay returns the configured first day of the week.
func (c *Config) WeekStartDay() time.Weekday {
	if c.Planning.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}

// UsesSQLite reports whether the local SQLite store is selected.
func (c *Config) UsesSQLite() bool {
	return c.DatabaseURL == "" || strings.HasPrefix(c.DatabaseURL, "sqlite://")
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
