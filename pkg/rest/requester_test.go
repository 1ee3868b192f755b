package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

// newTestRequester points a requester at server with fast retries.
func newTestRequester(t *testing.T, server *httptest.Server, mutate ...func(*Config)) *Requester {
	t.Helper()

	cfg := DefaultConfig("test-token", "TestBot (https://example.com, 1.0)")
	cfg.BaseURL = server.URL
	cfg.Retry = fastRetryConfig(3)
	for _, m := range mutate {
		m(&cfg)
	}

	r, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create requester: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestNew_Validation(t *testing.T) {
	valid := DefaultConfig("token", "TestBot (https://example.com, 1.0)")

	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{"valid config", func(*Config) {}, ""},
		{"empty user agent", func(c *Config) { c.UserAgent = "" }, "user-agent is required"},
		{"relative base url", func(c *Config) { c.BaseURL = "/api" }, `base url must be absolute (got "/api")`},
		{"no workers", func(c *Config) { c.MaxConcurrency = 0 }, "max_concurrency must be >= 1 (got 0)"},
		{"no attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "retry max_attempts must be >= 1 (got 0)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			r, err := New(cfg)
			if tt.errorMsg == "" {
				if err != nil {
					t.Fatalf("New() error = %v", err)
				}
				r.Close()
				return
			}
			if err == nil {
				r.Close()
				t.Fatal("Expected error but got nil")
			}
			if err.Error() != tt.errorMsg {
				t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("token", "TestBot/1.0")

	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("Retry.MaxAttempts = %d, want 3", cfg.Retry.MaxAttempts)
	}
	if cfg.ResponseCacheTTL != 0 {
		t.Errorf("ResponseCacheTTL = %v, want cache disabled by default", cfg.ResponseCacheTTL)
	}
}

func TestDo_HeadersSet(t *testing.T) {
	var auth, userAgent, query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		userAgent = r.Header.Get("User-Agent")
		query = r.URL.RawQuery
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	requester := newTestRequester(t, server)
	route := GetChannelMessages.MustCompile("1").WithQuery("limit", "100")

	resp, err := requester.Do(context.Background(), route)
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}

	if auth != "Bot test-token" {
		t.Errorf("Authorization = %q, want %q", auth, "Bot test-token")
	}
	if userAgent != "TestBot (https://example.com, 1.0)" {
		t.Errorf("User-Agent = %q", userAgent)
	}
	if query != "limit=100" {
		t.Errorf("query = %q, want limit=100", query)
	}
	if string(resp.Body) != `[]` || resp.Cached {
		t.Errorf("resp = %+v", resp)
	}
}

func TestDo_NoRetryOnClientError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "Missing Access", "code": 50001}`))
	}))
	defer server.Close()

	requester := newTestRequester(t, server)
	_, err := requester.Do(context.Background(), GetBans.MustCompile("1"))

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Do() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusForbidden || apiErr.Code != 50001 {
		t.Errorf("APIError = %+v", apiErr)
	}
	if errors.Is(err, ErrRetryExhausted) {
		t.Error("client errors must not be retried")
	}
	if n := attempts.Load(); n != 1 {
		t.Errorf("Expected 1 attempt (no retry for 4xx), got %d", n)
	}
}

func TestDo_RetryOnServerError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	requester := newTestRequester(t, server, func(c *Config) { c.BreakerFailures = 0 })
	resp, err := requester.Do(context.Background(), GetBans.MustCompile("1"))
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200 after retry, got %d", resp.StatusCode)
	}
	if n := attempts.Load(); n != 3 {
		t.Errorf("Expected 3 attempts (2 retries), got %d", n)
	}
}

func TestDo_RetryOnRateLimit(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "0.1")
			w.Header().Set("X-RateLimit-Scope", "user")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"message": "You are being rate limited.", "retry_after": 0.1, "global": false}`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	requester := newTestRequester(t, server)

	start := time.Now()
	_, err := requester.Do(context.Background(), GetChannelMessages.MustCompile("1"))
	duration := time.Since(start)

	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}
	if n := attempts.Load(); n != 2 {
		t.Errorf("Expected 2 attempts (1 retry), got %d", n)
	}
	if duration < 80*time.Millisecond {
		t.Errorf("Expected Retry-After to delay the retry, got %v", duration)
	}
}

func TestDo_RetryExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	requester := newTestRequester(t, server, func(c *Config) { c.BreakerFailures = 0 })
	_, err := requester.Do(context.Background(), GetBans.MustCompile("1"))

	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted, got %v", err)
	}
	if !IsStatus(err, http.StatusBadGateway) {
		t.Errorf("Expected wrapped 502 APIError, got %v", err)
	}
	if n := attempts.Load(); n != 3 {
		t.Errorf("Expected 3 attempts, got %d", n)
	}
}

func TestDo_CircuitBreakerOpens(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	requester := newTestRequester(t, server, func(c *Config) {
		c.Retry = fastRetryConfig(1)
		c.BreakerFailures = 2
		c.BreakerTimeout = time.Minute
	})

	route := GetBans.MustCompile("1")
	for i := 0; i < 2; i++ {
		if _, err := requester.Do(context.Background(), route); !IsStatus(err, http.StatusServiceUnavailable) {
			t.Fatalf("Do() #%d error = %v, want 503", i, err)
		}
	}

	_, err := requester.Do(context.Background(), route)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Do() error = %v, want ErrCircuitOpen", err)
	}
	if n := attempts.Load(); n != 2 {
		t.Errorf("server saw %d attempts, want 2 (open circuit short-circuits)", n)
	}
}

func TestDo_RateLimitHeadersTracked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "5")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset-After", "0.15")
		w.Header().Set("X-RateLimit-Bucket", "abc")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	requester := newTestRequester(t, server)
	route := GetChannelMessages.MustCompile("1")

	if _, err := requester.Do(context.Background(), route); err != nil {
		t.Fatalf("Do() failed: %v", err)
	}

	start := time.Now()
	if _, err := requester.Do(context.Background(), route); err != nil {
		t.Fatalf("Do() failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("second request sent after %v, want to wait for the drained bucket", elapsed)
	}
}

func TestExecute_Callbacks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/guilds/404/") {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message": "Unknown Guild", "code": 10004}`))
			return
		}
		w.Write([]byte(`[{"id": "1"}]`))
	}))
	defer server.Close()

	requester := newTestRequester(t, server)

	type outcome struct {
		resp *Response
		err  error
	}
	run := func(guildID string) outcome {
		done := make(chan outcome, 2)
		requester.Execute(context.Background(), GetBans.MustCompile(guildID),
			func(resp *Response) { done <- outcome{resp: resp} },
			func(err error) { done <- outcome{err: err} },
		)
		got := <-done
		select {
		case extra := <-done:
			t.Errorf("second callback invoked: %+v", extra)
		case <-time.After(20 * time.Millisecond):
		}
		return got
	}

	if got := run("1"); got.err != nil || string(got.resp.Body) != `[{"id": "1"}]` {
		t.Errorf("Execute() success = %+v", got)
	}
	if got := run("404"); !IsStatus(got.err, http.StatusNotFound) {
		t.Errorf("Execute() failure = %+v, want 404", got)
	}
}

func TestExecute_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	requester := newTestRequester(t, server)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errc := make(chan error, 1)
	requester.Execute(ctx, GetBans.MustCompile("1"),
		func(*Response) { errc <- nil },
		func(err error) { errc <- err },
	)

	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	requester := newTestRequester(t, server)
	if err := requester.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	requester.Close()

	if _, err := requester.Do(context.Background(), GetBans.MustCompile("1")); !errors.Is(err, ErrClosed) {
		t.Errorf("Do() after Close error = %v, want ErrClosed", err)
	}

	var got error
	requester.Execute(context.Background(), GetBans.MustCompile("1"),
		func(*Response) {},
		func(err error) { got = err },
	)
	if !errors.Is(got, ErrClosed) {
		t.Errorf("Execute() after Close error = %v, want ErrClosed", got)
	}
}

func TestDo_CacheHit(t *testing.T) {
	redisClient := setupTestRedis(t)

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Cache-Control", "max-age=300")
		w.Write([]byte(`[{"id": "42"}]`))
	}))
	defer server.Close()

	requester := newTestRequester(t, server, func(c *Config) {
		c.Redis = redisClient
		c.ResponseCacheTTL = time.Minute
	})
	route := GetBans.MustCompile("1").WithQuery("limit", "10")

	first, err := requester.Do(context.Background(), route)
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}
	second, err := requester.Do(context.Background(), route)
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}

	if first.Cached || !second.Cached {
		t.Errorf("Cached = %v/%v, want false/true", first.Cached, second.Cached)
	}
	if string(second.Body) != string(first.Body) {
		t.Errorf("cached body = %s, want %s", second.Body, first.Body)
	}
	if n := requests.Load(); n != 1 {
		t.Errorf("server saw %d requests, want 1", n)
	}
}
