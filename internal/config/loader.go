// Package config provides centralized configuration management for
// EdgarLens: conservative defaults, an optional YAML config file, and
// EDGARLENS_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix       = "EDGARLENS"
	defaultFileName = "config"
)

// Backends for the rate-limit ticket source.
const (
	BackendLocal = "local"
	BackendRedis = "redis"
)

// Load reads configuration. path may be empty, in which case the default
// location (~/.config/edgarlens/config.yaml) is tried and silently skipped
// when absent. An explicitly passed path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(defaultFileName)
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "edgarlens"))
		}
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the pipeline would refuse at runtime.
func (c *Config) Validate() error {
	if c.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("rate_limit.max_requests must be positive, got %d", c.RateLimit.MaxRequests)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive, got %s", c.RateLimit.Window)
	}
	switch c.RateLimit.Backend {
	case BackendLocal, BackendRedis:
	default:
		return fmt.Errorf("rate_limit.backend must be %q or %q, got %q", BackendLocal, BackendRedis, c.RateLimit.Backend)
	}
	if c.RateLimit.Backend == BackendRedis && strings.TrimSpace(c.RateLimit.RedisAddr) == "" {
		return fmt.Errorf("rate_limit.redis_addr is required for the redis backend")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Registered even when empty so EDGARLENS_IDENTITY binds.
	v.SetDefault("identity", "")

	// The SEC's published fair access limit is 10 req/s; default below it.
	v.SetDefault("rate_limit.max_requests", 8)
	v.SetDefault("rate_limit.window", time.Second)
	v.SetDefault("rate_limit.poll_interval", 100*time.Millisecond)
	v.SetDefault("rate_limit.backend", BackendLocal)
	v.SetDefault("rate_limit.redis_key", "edgarlens:ratelimit")

	v.SetDefault("retry.max_attempts", 6)
	v.SetDefault("retry.timeout", 40*time.Second)
	v.SetDefault("retry.initial_wait", 100*time.Millisecond)

	v.SetDefault("http.timeout", 15*time.Second)

	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", defaultStorePath())

	v.SetDefault("logging.level", "info")
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "edgarlens.db"
	}
	return filepath.Join(dir, "edgarlens", "edgarlens.db")
}
