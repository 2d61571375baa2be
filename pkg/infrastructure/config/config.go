package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. BOM_DATABASE_URL
const EnvPrefix = "BOM"

// Config holds runtime configuration read from BOM_* environment variables and an optional
// bom.yaml in the working directory.
type Config struct {
	// Database
	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"` // sqlite | postgres
	DatabaseURL    string `mapstructure:"DATABASE_URL"`

	// Cache; an empty REDIS_URL keeps results in process
	RedisURL string        `mapstructure:"REDIS_URL"`
	CacheTTL time.Duration `mapstructure:"CACHE_TTL"`

	LogMode string `mapstructure:"LOG_MODE"` // development | production

	// Traversal
	ExplosionMaxDepth int `mapstructure:"EXPLOSION_MAX_DEPTH"`
	DefaultPageSize   int `mapstructure:"DEFAULT_PAGE_SIZE"`
}

// Load reads configuration. configFile overrides the default bom.yaml lookup when set.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_URL", "bom.db")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CACHE_TTL", "10m")
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("EXPLOSION_MAX_DEPTH", 64)
	v.SetDefault("DEFAULT_PAGE_SIZE", 10)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("bom")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engines cannot run with
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid DATABASE_DRIVER: %s (expected: sqlite or postgres)", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.ExplosionMaxDepth < 1 {
		return fmt.Errorf("EXPLOSION_MAX_DEPTH must be positive, got %d", c.ExplosionMaxDepth)
	}
	if c.DefaultPageSize < 1 {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be positive, got %d", c.DefaultPageSize)
	}
	return nil
}
