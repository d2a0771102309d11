// Package config loads service configuration from the environment.
// An optional .env file in the working directory is read first.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment represents the deployment environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Lock backends.
const (
	LockLocal = "local"
	LockRedis = "redis"
	LockNone  = "none"
)

// Config is the whole service configuration, grouped by concern.
type Config struct {
	App AppConfig

	HTTP HTTPConfig

	Database DatabaseConfig

	Redis RedisConfig

	Engine EngineConfig

	Features *FeatureFlags

	Observability ObservabilityConfig
}

// AppConfig is process-wide identity and lifecycle settings.
type AppConfig struct {
	Name        string
	Environment Environment
	Debug       bool
	Version     string

	// Timezone decides where a calendar day starts for habit streaks.
	Timezone string
	Location *time.Location

	ShutdownTimeout time.Duration
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Host string
	Port int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	CORSAllowedOrigins []string

	RateLimitPerSecond float64
	RateLimitBurst     int
}

// DatabaseConfig sizes the pgx pool.
type DatabaseConfig struct {
	URL string

	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RedisConfig holds Redis settings.
type RedisConfig struct {
	URL string

	Host     string
	Port     int
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	EventsChannel string
}

// EngineConfig holds progress engine settings.
type EngineConfig struct {
	StoreBackend string // memory, postgres
	LockBackend  string // local, redis, none

	LockTTL     time.Duration
	LockTimeout time.Duration

	EventWorkers int
}

// ObservabilityConfig controls zap output and the Prometheus endpoint.
type ObservabilityConfig struct {
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, console

	MetricsEnabled bool
}

// Load reads configuration from .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	app, err := loadAppConfig()
	if err != nil {
		return nil, fmt.Errorf("app config: %w", err)
	}

	cfg := &Config{
		App:           app,
		HTTP:          loadHTTPConfig(),
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		Engine:        loadEngineConfig(),
		Features:      LoadFeatureFlags(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func loadAppConfig() (AppConfig, error) {
	env := Environment(getEnv("APP_ENV", "development"))
	timezone := getEnv("APP_TIMEZONE", "UTC")

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return AppConfig{}, fmt.Errorf("APP_TIMEZONE %q: %w", timezone, err)
	}

	return AppConfig{
		Name:            getEnv("APP_NAME", "focusgoal"),
		Environment:     env,
		Debug:           env == EnvDevelopment || getEnvBool("APP_DEBUG", false),
		Version:         getEnv("APP_VERSION", "0.1.0"),
		Timezone:        timezone,
		Location:        loc,
		ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 15*time.Second),
	}, nil
}

func loadHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Host:               getEnv("HTTP_HOST", "0.0.0.0"),
		Port:               getEnvInt("PORT", getEnvInt("HTTP_PORT", 8080)),
		ReadTimeout:        getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:        getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		CORSAllowedOrigins: getEnvStringSlice("HTTP_CORS_ORIGINS", []string{"*"}),
		RateLimitPerSecond: getEnvFloat("HTTP_RATE_LIMIT_RPS", 20),
		RateLimitBurst:     getEnvInt("HTTP_RATE_LIMIT_BURST", 40),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:             databaseURL(),
		MaxConns:        getEnvInt("DB_MAX_CONNS", 10),
		MinConns:        getEnvInt("DB_MIN_CONNS", 2),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
	}
}

// databaseURL prefers DATABASE_URL and otherwise assembles one from DB_*
// parts. Host and user are both required for the fallback.
func databaseURL() string {
	if u := getEnv("DATABASE_URL", ""); u != "" {
		return u
	}

	host, user := getEnv("DB_HOST", ""), getEnv("DB_USER", "")
	if host == "" || user == "" {
		return ""
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, getEnv("DB_PASSWORD", "")),
		Host:     net.JoinHostPort(host, getEnv("DB_PORT", "5432")),
		Path:     "/" + getEnv("DB_NAME", "focusgoal"),
		RawQuery: "sslmode=" + url.QueryEscape(getEnv("DB_SSLMODE", "disable")),
	}
	return u.String()
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:           getEnv("REDIS_URL", ""),
		Host:          getEnv("REDIS_HOST", "localhost"),
		Port:          getEnvInt("REDIS_PORT", 6379),
		Password:      getEnv("REDIS_PASSWORD", ""),
		DB:            getEnvInt("REDIS_DB", 0),
		PoolSize:      getEnvInt("REDIS_POOL_SIZE", 10),
		MinIdleConns:  getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:   getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:   getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout:  getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		EventsChannel: getEnv("REDIS_EVENTS_CHANNEL", "focusgoal:events"),
	}
}

func loadEngineConfig() EngineConfig {
	return EngineConfig{
		StoreBackend: strings.ToLower(getEnv("ENGINE_STORE_BACKEND", StoreMemory)),
		LockBackend:  strings.ToLower(getEnv("ENGINE_LOCK_BACKEND", LockLocal)),
		LockTTL:      getEnvDuration("ENGINE_LOCK_TTL", 10*time.Second),
		LockTimeout:  getEnvDuration("ENGINE_LOCK_TIMEOUT", 5*time.Second),
		EventWorkers: getEnvInt("ENGINE_EVENT_WORKERS", 4),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []string

	switch c.Engine.StoreBackend {
	case StoreMemory:
	case StorePostgres:
		if c.Database.URL == "" {
			errs = append(errs, "DATABASE_URL is required when ENGINE_STORE_BACKEND=postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("ENGINE_STORE_BACKEND must be memory or postgres, got %q", c.Engine.StoreBackend))
	}

	switch c.Engine.LockBackend {
	case LockLocal, LockRedis, LockNone:
	default:
		errs = append(errs, fmt.Sprintf("ENGINE_LOCK_BACKEND must be local, redis or none, got %q", c.Engine.LockBackend))
	}

	if c.App.Environment == EnvProduction && c.Engine.StoreBackend == StoreMemory {
		errs = append(errs, "ENGINE_STORE_BACKEND=memory is not allowed in production")
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, "HTTP_PORT must be 1-65535")
	}

	if c.Engine.LockTTL <= 0 {
		errs = append(errs, "ENGINE_LOCK_TTL must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// NeedsRedis reports whether any component requires a Redis connection.
func (c *Config) NeedsRedis() bool {
	return c.Engine.LockBackend == LockRedis || c.Features.IsEnabled(FeatureRedisEvents, nil)
}

// ══ env parsing ══
// Unset or malformed values fall back to the default.

func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

func getEnv(key, def string) string {
	return envOr(key, def, func(s string) (string, error) { return s, nil })
}

func getEnvBool(key string, def bool) bool { return envOr(key, def, strconv.ParseBool) }

func getEnvInt(key string, def int) int { return envOr(key, def, strconv.Atoi) }

func getEnvFloat(key string, def float64) float64 {
	return envOr(key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	return envOr(key, def, time.ParseDuration)
}

func getEnvStringSlice(key string, def []string) []string {
	return envOr(key, def, func(s string) ([]string, error) {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	})
}
