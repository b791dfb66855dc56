// Package config loads server configuration from file and environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	DB       DBConfig       `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Lock     LockConfig     `mapstructure:"lock"`
	Fiscal   FiscalConfig   `mapstructure:"fiscal"`
	Rollover RolloverConfig `mapstructure:"rollover"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type DBConfig struct {
	// Path is the SQLite database file; ":memory:" for no persistence.
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	// Enabled switches the locker from in-process to Redis.
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LockConfig struct {
	TTL  time.Duration `mapstructure:"ttl"`
	Wait time.Duration `mapstructure:"wait"`
}

type FiscalConfig struct {
	// StartMonth is the month the fiscal year begins, 1-12.
	StartMonth int `mapstructure:"start_month"`
}

type RolloverConfig struct {
	// Enabled starts the background year-end rollover sweep.
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration with precedence: env > file > defaults.
// Environment variables use the LEAVE_ prefix, dots replaced with
// underscores (LEAVE_SERVER_PORT, LEAVE_DB_PATH, ...).
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("db.path", "./data/leave.db")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("lock.ttl", "10s")
	v.SetDefault("lock.wait", "5s")

	v.SetDefault("fiscal.start_month", 1)

	v.SetDefault("rollover.enabled", true)
	v.SetDefault("rollover.interval", "1h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("LEAVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// No file: defaults plus environment.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Fiscal.StartMonth < 1 || c.Fiscal.StartMonth > 12 {
		return fmt.Errorf("invalid fiscal.start_month %d", c.Fiscal.StartMonth)
	}
	if c.DB.Path == "" {
		return fmt.Errorf("db.path is required")
	}
	return nil
}
