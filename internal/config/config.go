// Package config loads notifyd's configuration using viper into one typed,
// validated struct, so every tunable has a documented default and a single
// environment variable naming scheme instead of scattered os.Getenv calls.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is notifyd's top-level static configuration.
type Config struct {
	Budget   BudgetConfig   `mapstructure:"budget"`
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Push     PushConfig     `mapstructure:"push"`
	Log      LogConfig      `mapstructure:"log"`
}

// BudgetConfig configures the Thread Budget admission controller.
type BudgetConfig struct {
	Limit          int           `mapstructure:"limit"`
	ReaperInterval time.Duration `mapstructure:"reaper_interval"`
}

// ServerConfig configures the admin HTTP/WebSocket surface.
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	AuthToken  string `mapstructure:"auth_token"`
}

// RedisConfig configures the device registry backend. Enabled defaults to
// false so a fresh checkout runs against the in-memory registry without
// requiring a Redis instance.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PostgresConfig configures the delivery log backend. Enabled defaults to
// false so a fresh checkout runs against the in-memory delivery log without
// requiring a Postgres instance.
type PostgresConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// PushConfig configures outbound provider delivery and the per-provider
// rate limiter.
type PushConfig struct {
	APNsEndpoint    string  `mapstructure:"apns_endpoint"`
	FCMEndpoint     string  `mapstructure:"fcm_endpoint"`
	RateLimitPerSec float64 `mapstructure:"rate_limit_per_sec"`
	RateLimitBurst  int     `mapstructure:"rate_limit_burst"`
}

// LogConfig configures the logging facade.
type LogConfig struct {
	Debug  bool   `mapstructure:"debug"`
	Format string `mapstructure:"format"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("budget.limit", 50)
	v.SetDefault("budget.reaper_interval", 5*time.Second)
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.auth_token", "")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("log.debug", false)
	v.SetDefault("push.apns_endpoint", "https://api.push.apple.com/3/device")
	v.SetDefault("push.fcm_endpoint", "https://fcm.googleapis.com/v1/message")
	v.SetDefault("push.rate_limit_per_sec", 100.0)
	v.SetDefault("push.rate_limit_burst", 200)
	v.SetDefault("log.format", "json")
}

// Load reads configuration from an optional file at path (empty skips the
// file), then overlays environment variables prefixed NOTIFYD_ (e.g.
// NOTIFYD_BUDGET_LIMIT, NOTIFYD_REDIS_ADDR, NOTIFYD_POSTGRES_DSN).
func Load(path string) (*Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix("notifyd")
	v.SetEnvKeyReplacer(envReplacer())
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("notifyd: reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("notifyd: decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the thread budget's configuration invariants: the
// admission limit must allow at least one concurrent task, and the reaper
// must tick on a positive interval.
func (c *Config) Validate() error {
	if c.Budget.Limit < 1 {
		return fmt.Errorf("notifyd: budget.limit must be >= 1, got %d", c.Budget.Limit)
	}
	if c.Budget.ReaperInterval <= 0 {
		return fmt.Errorf("notifyd: budget.reaper_interval must be > 0, got %v", c.Budget.ReaperInterval)
	}
	return nil
}
