package rest

import (
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultBaseURL is the versioned API root.
const DefaultBaseURL = "https://discord.com/api/v10"

// Config holds the requester configuration.
type Config struct {
	// Token is the bot token, sent as "Authorization: Bot <token>".
	Token string

	// User-Agent header (REQUIRED by the API)
	// Format: "DiscordBot (url, version)" or "AppName (url, version)"
	UserAgent string

	// BaseURL is the API root without trailing slash.
	BaseURL string

	// Redis is optional. When set, rate limit state is shared through it and,
	// with ResponseCacheTTL > 0, GET responses are cached in it.
	Redis *redis.Client

	// ResponseCacheTTL is the freshness of cached responses that carry no
	// Cache-Control or Expires header. Zero disables the response cache.
	ResponseCacheTTL time.Duration

	// Concurrency of Execute
	MaxConcurrency int
	QueueSize      int

	// Timeout bounds one HTTP attempt.
	Timeout time.Duration

	// Retry
	Retry RetryConfig

	// Circuit breaker: consecutive failed attempts that open the circuit,
	// and how long it stays open. BreakerFailures 0 disables the breaker.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(token, userAgent string) Config {
	return Config{
		Token:           token,
		UserAgent:       userAgent,
		BaseURL:         DefaultBaseURL,
		MaxConcurrency:  4,
		QueueSize:       64,
		Timeout:         30 * time.Second,
		Retry:           DefaultRetryConfig(),
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

// Validate checks the configuration for values New cannot work with.
func (c Config) Validate() error {
	if c.UserAgent == "" {
		return fmt.Errorf("user-agent is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base url must be absolute (got %q)", c.BaseURL)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be >= 1 (got %d)", c.MaxConcurrency)
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("queue_size must be >= 0 (got %d)", c.QueueSize)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max_attempts must be >= 1 (got %d)", c.Retry.MaxAttempts)
	}
	if c.ResponseCacheTTL < 0 {
		return fmt.Errorf("response_cache_ttl must not be negative")
	}
	return nil
}
