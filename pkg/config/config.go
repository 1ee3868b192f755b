// Package config loads guildkit application configuration with viper.
//
// Values come from, in increasing precedence: built-in defaults, an optional
// YAML/JSON/TOML file, and GUILDKIT_* environment variables (dots become
// underscores, e.g. GUILDKIT_REDIS_ADDR for redis.addr).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/Sternrassler/guildkit/pkg/logging"
	"github.com/Sternrassler/guildkit/pkg/rest"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GUILDKIT"

// Config is the application configuration.
type Config struct {
	Token     string
	UserAgent string
	BaseURL   string

	Logger    *Logger
	Redis     *Redis
	Cache     *Cache
	Requester *Requester
	Metrics   *Metrics
}

// Logger configures logging.Setup.
type Logger struct {
	Level  string
	Pretty bool
}

// Redis configures the shared rate limit store and response cache.
// An empty Addr disables Redis.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Cache configures the response cache.
type Cache struct {
	TTL time.Duration
}

// Requester configures the REST requester.
type Requester struct {
	MaxConcurrency  int
	QueueSize       int
	Timeout         time.Duration
	MaxAttempts     int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	BackoffFactor   float64
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Metrics configures the Prometheus endpoint. An empty Addr disables it.
type Metrics struct {
	Addr string
}

// Load reads the configuration. An explicit path must exist; without one,
// "guildkit.{yaml,json,toml}" is looked up in the working directory and
// $HOME/.config/guildkit and may be absent.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("guildkit")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "guildkit"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Token:     v.GetString("token"),
		UserAgent: v.GetString("user_agent"),
		BaseURL:   v.GetString("base_url"),
		Logger:    getLoggerConfig(v),
		Redis:     getRedisConfig(v),
		Cache:     &Cache{TTL: v.GetDuration("cache.ttl")},
		Requester: getRequesterConfig(v),
		Metrics:   &Metrics{Addr: v.GetString("metrics.addr")},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := rest.DefaultConfig("", "")

	v.SetDefault("token", "")
	v.SetDefault("user_agent", "guildkit (https://github.com/Sternrassler/guildkit, 1.0)")
	v.SetDefault("base_url", d.BaseURL)

	v.SetDefault("logger.level", string(logging.LevelInfo))
	v.SetDefault("logger.pretty", false)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cache.ttl", time.Duration(0))

	v.SetDefault("requester.max_concurrency", d.MaxConcurrency)
	v.SetDefault("requester.queue_size", d.QueueSize)
	v.SetDefault("requester.timeout", d.Timeout)
	v.SetDefault("requester.retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("requester.retry.initial_backoff", d.Retry.InitialBackoff)
	v.SetDefault("requester.retry.max_backoff", d.Retry.MaxBackoff)
	v.SetDefault("requester.retry.backoff_multiplier", d.Retry.BackoffMultiplier)
	v.SetDefault("requester.breaker.failures", d.BreakerFailures)
	v.SetDefault("requester.breaker.timeout", d.BreakerTimeout)

	v.SetDefault("metrics.addr", "")
}

func getLoggerConfig(v *viper.Viper) *Logger {
	return &Logger{
		Level:  v.GetString("logger.level"),
		Pretty: v.GetBool("logger.pretty"),
	}
}

func getRedisConfig(v *viper.Viper) *Redis {
	return &Redis{
		Addr:     v.GetString("redis.addr"),
		Password: v.GetString("redis.password"),
		DB:       v.GetInt("redis.db"),
	}
}

func getRequesterConfig(v *viper.Viper) *Requester {
	return &Requester{
		MaxConcurrency:  v.GetInt("requester.max_concurrency"),
		QueueSize:       v.GetInt("requester.queue_size"),
		Timeout:         v.GetDuration("requester.timeout"),
		MaxAttempts:     v.GetInt("requester.retry.max_attempts"),
		InitialBackoff:  v.GetDuration("requester.retry.initial_backoff"),
		MaxBackoff:      v.GetDuration("requester.retry.max_backoff"),
		BackoffFactor:   v.GetFloat64("requester.retry.backoff_multiplier"),
		BreakerFailures: v.GetUint32("requester.breaker.failures"),
		BreakerTimeout:  v.GetDuration("requester.breaker.timeout"),
	}
}

// Validate checks values the library packages would reject later.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Logger.Level); err != nil {
		return fmt.Errorf("logger.level: %w", err)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative (got %s)", c.Cache.TTL)
	}
	if err := c.REST(nil).Validate(); err != nil {
		return fmt.Errorf("requester: %w", err)
	}
	return nil
}

// Logging returns the logging.Setup configuration.
func (c *Config) Logging() logging.Config {
	level, _ := logging.ParseLevel(c.Logger.Level)
	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Pretty = c.Logger.Pretty
	cfg.Service = "guildkit"
	return cfg
}

// RedisClient returns a client for the configured Redis, or nil when Redis
// is disabled.
func (c *Config) RedisClient() *redis.Client {
	if c.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	})
}

// REST returns the requester configuration. redisClient may be nil.
func (c *Config) REST(redisClient *redis.Client) rest.Config {
	cfg := rest.DefaultConfig(c.Token, c.UserAgent)
	cfg.BaseURL = c.BaseURL
	cfg.Redis = redisClient
	cfg.ResponseCacheTTL = c.Cache.TTL
	cfg.MaxConcurrency = c.Requester.MaxConcurrency
	cfg.QueueSize = c.Requester.QueueSize
	cfg.Timeout = c.Requester.Timeout
	cfg.Retry = rest.RetryConfig{
		MaxAttempts:       c.Requester.MaxAttempts,
		InitialBackoff:    c.Requester.InitialBackoff,
		MaxBackoff:        c.Requester.MaxBackoff,
		BackoffMultiplier: c.Requester.BackoffFactor,
	}
	cfg.BreakerFailures = c.Requester.BreakerFailures
	cfg.BreakerTimeout = c.Requester.BreakerTimeout
	return cfg
}
