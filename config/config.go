package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/contatogonetwork/urban-space-broccoli/internal/middleware"
	"github.com/contatogonetwork/urban-space-broccoli/internal/optimizer"
	"github.com/contatogonetwork/urban-space-broccoli/internal/store"
	"github.com/contatogonetwork/urban-space-broccoli/internal/telemetry"
)

// EnvPrefix prefixes every environment override, e.g. FRIDGE_SERVER_PORT.
const EnvPrefix = "FRIDGE"

// Config holds the application configuration
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Database  DatabaseConfig   `mapstructure:"database"`
	Logging   LoggingConfig    `mapstructure:"logging"`
	Analytics optimizer.Config `mapstructure:"analytics"`
	Snapshot  store.Config     `mapstructure:"snapshot"`
	Auth      AuthConfig       `mapstructure:"auth"`
	Telemetry telemetry.Config `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AuthConfig guards the /internal routes.
type AuthConfig struct {
	APIKey    string                       `mapstructure:"api_key"`
	RateLimit middleware.RateLimiterConfig `mapstructure:",squash"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables.
// Precedence, highest first: environment, .env, config file, defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// .env is optional
	if err := loadEnvFile(); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads the first .env found. Variables already set in the
// environment are not overridden.
func loadEnvFile() error {
	for _, dir := range []string{".", "./config"} {
		envFile := filepath.Join(dir, ".env")
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		return godotenv.Load(envFile)
	}
	return errors.New("no .env file found")
}

// bindEnvVars binds the conventional unprefixed names used by the
// deployment tooling. The prefixed form still wins when both are set.
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	_ = v.BindEnv("logging.level", EnvPrefix+"_LOGGING_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("auth.api_key", EnvPrefix+"_AUTH_API_KEY", "INTERNAL_API_KEY")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})

	// Database defaults
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	analytics := optimizer.Defaults()
	v.SetDefault("analytics.trend_threshold_pct", analytics.TrendThresholdPct)
	v.SetDefault("analytics.cache_name", analytics.CacheName)
	v.SetDefault("analytics.cache_ttl", analytics.CacheTTL)
	v.SetDefault("analytics.cache_sweep_interval", analytics.CacheSweepInterval)
	v.SetDefault("analytics.warmup_concurrency", analytics.WarmupConcurrency)
	v.SetDefault("analytics.snapshot_refresh_interval", analytics.SnapshotRefreshInterval)
	v.SetDefault("analytics.max_request_items", analytics.MaxRequestItems)

	snapshot := store.DefaultConfig()
	v.SetDefault("snapshot.load_timeout", snapshot.LoadTimeout)
	v.SetDefault("snapshot.circuit_breaker.max_failures", snapshot.CircuitBreaker.MaxFailures)
	v.SetDefault("snapshot.circuit_breaker.reset_timeout", snapshot.CircuitBreaker.ResetTimeout)
	v.SetDefault("snapshot.circuit_breaker.half_open_max_calls", snapshot.CircuitBreaker.HalfOpenMaxCalls)

	rateLimit := middleware.DefaultRateLimiterConfig()
	v.SetDefault("auth.api_key", "")
	v.SetDefault("auth.requests_per_second", rateLimit.RequestsPerSecond)
	v.SetDefault("auth.burst", rateLimit.BurstSize)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.service_name", telemetry.DefaultServiceName)
	v.SetDefault("telemetry.service_version", "")
	v.SetDefault("telemetry.environment", "")
	v.SetDefault("telemetry.export_interval", 30*time.Second)
}

// Validate checks the settings every binary depends on. The database URL
// and API key are checked by the binaries that need them.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format: must be json or console, got %q", c.Logging.Format)
	}
	if c.Auth.RateLimit.RequestsPerSecond <= 0 || c.Auth.RateLimit.BurstSize < 1 {
		return errors.New("auth: requests_per_second and burst must be positive")
	}
	if err := c.Analytics.Validate(); err != nil {
		return fmt.Errorf("analytics: %w", err)
	}
	if c.Snapshot.LoadTimeout <= 0 {
		return errors.New("snapshot.load_timeout: must be positive")
	}
	if c.Snapshot.CircuitBreaker.MaxFailures < 1 {
		return errors.New("snapshot.circuit_breaker.max_failures: must be at least 1")
	}
	return nil
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}
