package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/jadedragon942/dorm/storage"
)

// Config holds the dormd settings. Values come from an optional YAML file;
// environment variables override them. The database URL carries credentials
// and is read from the environment only.
type Config struct {
	Port           int    `yaml:"port" env:"DORM_PORT" env-default:"8080"`
	Engine         string `yaml:"engine" env:"DORM_ENGINE" env-default:"postgres"`
	LogLevel       string `yaml:"log_level" env:"DORM_LOG_LEVEL" env-default:"info"`
	LogDevelopment bool   `yaml:"log_development" env:"DORM_LOG_DEVELOPMENT" env-default:"false"`

	// DatabaseURL, when set, is connected at startup.
	DatabaseURL string `yaml:"-" env:"DATABASE_URL"`

	Pool PoolConfig `yaml:"pool"`
}

// PoolConfig bounds the connection pool opened by each connect.
type PoolConfig struct {
	MaxConns       int           `yaml:"max_conns" env:"DORM_POOL_MAX_CONNS" env-default:"10"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env:"DORM_POOL_IDLE_TIMEOUT" env-default:"10s"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"DORM_POOL_CONNECT_TIMEOUT" env-default:"5s"`
	DefaultSSLMode string        `yaml:"default_ssl_mode" env:"DORM_POOL_DEFAULT_SSL_MODE" env-default:"disable"`
	// ScreenValues rejects string values flagged as SQL injection.
	ScreenValues bool `yaml:"screen_values" env:"DORM_POOL_SCREEN_VALUES" env-default:"false"`
}

// Load reads path when it is non-empty, otherwise the environment alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Engine == "" {
		return fmt.Errorf("engine must not be empty")
	}
	if c.Pool.MaxConns <= 0 {
		return fmt.Errorf("pool.max_conns must be positive, got %d", c.Pool.MaxConns)
	}
	if c.Pool.IdleTimeout <= 0 {
		return fmt.Errorf("pool.idle_timeout must be positive, got %s", c.Pool.IdleTimeout)
	}
	if c.Pool.ConnectTimeout <= 0 {
		return fmt.Errorf("pool.connect_timeout must be positive, got %s", c.Pool.ConnectTimeout)
	}
	return nil
}

// PoolOptions converts the pool settings for storage.Dialect.Open.
func (c *Config) PoolOptions() storage.PoolOptions {
	return storage.PoolOptions{
		MaxConns:    c.Pool.MaxConns,
		IdleTimeout: c.Pool.IdleTimeout,
		SSLMode:     c.Pool.DefaultSSLMode,
	}
}
