package config

import "time"

// Config is the complete application configuration, layered as
// defaults → optional YAML config file → EDGARLENS_* environment variables.
type Config struct {
	// Identity is the default User-Agent identity. EDGAR_IDENTITY remains
	// the last-resort source when this is empty.
	Identity string `mapstructure:"identity"`

	HTTP      HTTPConfig      `mapstructure:"http"`
	Retry     RetryConfig     `mapstructure:"retry"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// HTTPConfig tunes the transport collaborator.
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// RetryConfig tunes the retry policy around each pipeline call.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Timeout     time.Duration `mapstructure:"timeout"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
}

// RateLimitConfig configures the sliding-window admission controller.
// Backend selects between the in-process limiter and a Redis-shared one.
type RateLimitConfig struct {
	MaxRequests  int           `mapstructure:"max_requests"`
	Window       time.Duration `mapstructure:"window"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Backend      string        `mapstructure:"backend"`
	RedisAddr    string        `mapstructure:"redis_addr"`
	RedisKey     string        `mapstructure:"redis_key"`
}

// StoreConfig contains database configuration for libsql/Turso.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level controls the minimum log level.
	// Valid values: debug, info, warn, error.
	Level string `mapstructure:"level"`
}
