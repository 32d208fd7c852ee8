package config

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
// Values come from environment variables named by the envconfig tags.
type Config struct {
	AppEnv    string `envconfig:"APP_ENV" default:"development"`
	Server    ServerConfig
	Database  DatabaseConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Catalog   CatalogConfig
	Health    HealthConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string `envconfig:"DB_HOST" default:"localhost"`
	Port            int    `envconfig:"DB_PORT" default:"5432"`
	User            string `envconfig:"DB_USER" default:"postgres"`
	Password        string `envconfig:"DB_PASSWORD"`
	Database        string `envconfig:"DB_NAME" default:"productcompare"`
	MaxConnections  int    `envconfig:"DB_MAX_CONNECTIONS" default:"25"`
	MinConnections  int    `envconfig:"DB_MIN_CONNECTIONS" default:"5"`
	MaxConnLifetime int    `envconfig:"DB_MAX_CONN_LIFETIME" default:"300"` // seconds
	EnsureSchema    bool   `envconfig:"DB_ENSURE_SCHEMA" default:"true"`
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"` // "json" or "console"
}

// AuthConfig holds API key configuration.
type AuthConfig struct {
	// Pepper is the HMAC secret used to hash API keys at rest.
	Pepper  string        `envconfig:"API_KEY_PEPPER"`
	UserTTL time.Duration `envconfig:"API_KEY_USER_TTL" default:"720h"`
}

// CacheConfig holds listing cache configuration.
type CacheConfig struct {
	// SweepInterval is how often the whole listing cache is dropped. Zero disables the sweep.
	SweepInterval time.Duration `envconfig:"CACHE_SWEEP_INTERVAL" default:"10s"`
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	Enabled bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	Max     int           `envconfig:"RATE_LIMIT_MAX" default:"100"`
	Window  time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// CatalogConfig holds the location of the sample catalog used for bulk loads.
type CatalogConfig struct {
	// FilePath is a local JSON-lines file (optionally gzipped). Empty means built-in samples.
	FilePath string `envconfig:"CATALOG_FILE"`
	S3       S3Config
}

// S3Config holds AWS S3 configuration for catalog files.
type S3Config struct {
	Enabled bool   `envconfig:"S3_ENABLED" default:"false"`
	Bucket  string `envconfig:"S3_BUCKET"`
	Region  string `envconfig:"S3_REGION" default:"us-east-1"`
	Prefix  string `envconfig:"S3_PREFIX" default:"catalog/"` // Path prefix within bucket
}

// HealthConfig holds probe settings.
type HealthConfig struct {
	Interval      time.Duration `envconfig:"HEALTH_CHECK_INTERVAL" default:"10s"`
	Timeout       time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"2s"`
	MaxGoroutines int           `envconfig:"HEALTH_MAX_GOROUTINES" default:"10000"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return errors.New("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return errors.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return errors.New("database user is required")
	}

	if c.Database.Database == "" {
		return errors.New("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return errors.New("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return errors.New("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return errors.New("database min connections cannot exceed max connections")
	}

	if c.Auth.Pepper == "" {
		return errors.New("API key pepper is required")
	}

	if c.Auth.UserTTL <= 0 {
		return errors.New("API key user TTL must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return errors.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return errors.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Cache.SweepInterval < 0 {
		return errors.New("cache sweep interval cannot be negative")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Max < 1 {
			return errors.New("rate limit max must be at least 1")
		}
		if c.RateLimit.Window <= 0 {
			return errors.New("rate limit window must be positive")
		}
	}

	if c.Health.Interval <= 0 || c.Health.Timeout <= 0 {
		return errors.New("health check interval and timeout must be positive")
	}

	if c.Catalog.S3.Enabled {
		if c.Catalog.S3.Bucket == "" {
			return errors.New("S3 bucket is required when S3 is enabled")
		}
		if c.Catalog.S3.Region == "" {
			return errors.New("S3 region is required when S3 is enabled")
		}
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
