package optimizer

import "time"

// Config holds the tunables for trend analysis, planning and result caching.
// It is loaded from the "analytics" section of the service config.
type Config struct {
	// Trend classification band around the historical mean, in percent.
	TrendThresholdPct float64 `mapstructure:"trend_threshold_pct"`

	// Result cache
	CacheName          string        `mapstructure:"cache_name"` // Metric label; one per cache instance
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
	CacheSweepInterval time.Duration `mapstructure:"cache_sweep_interval"` // 0 disables the janitor

	// Warmup settings
	WarmupConcurrency int `mapstructure:"warmup_concurrency"`

	// How often the server reloads the price snapshot; 0 disables.
	SnapshotRefreshInterval time.Duration `mapstructure:"snapshot_refresh_interval"`

	// Validation limits
	MaxRequestItems int `mapstructure:"max_request_items"`
}

// DefaultCacheName labels the result cache metrics when no name is configured.
const DefaultCacheName = "analytics"

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		TrendThresholdPct:       5.0,
		CacheName:               DefaultCacheName,
		CacheTTL:                300 * time.Second,
		CacheSweepInterval:      time.Minute,
		WarmupConcurrency:       4,
		SnapshotRefreshInterval: 5 * time.Minute,
		MaxRequestItems:         100,
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.TrendThresholdPct <= 0 {
		return ErrInvalidConfig{Field: "trend_threshold_pct", Reason: "must be positive"}
	}
	if c.CacheTTL <= 0 {
		return ErrInvalidConfig{Field: "cache_ttl", Reason: "must be positive"}
	}
	if c.CacheSweepInterval < 0 {
		return ErrInvalidConfig{Field: "cache_sweep_interval", Reason: "must be non-negative"}
	}
	if c.WarmupConcurrency < 1 {
		return ErrInvalidConfig{Field: "warmup_concurrency", Reason: "must be at least 1"}
	}
	if c.SnapshotRefreshInterval < 0 {
		return ErrInvalidConfig{Field: "snapshot_refresh_interval", Reason: "must be non-negative"}
	}
	if c.MaxRequestItems < 1 {
		return ErrInvalidConfig{Field: "max_request_items", Reason: "must be at least 1"}
	}
	return nil
}

// ErrInvalidConfig is returned when the configuration is invalid.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return e.Field + ": " + e.Reason
}
