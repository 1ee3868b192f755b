package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	rateLimitRemaining = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "guildkit_ratelimit_remaining",
		Help: "Requests remaining in the current window by route bucket",
	}, []string{"bucket"})

	rateLimitWaitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildkit_ratelimit_waits_total",
		Help: "Total number of requests delayed by a drained bucket",
	}, []string{"scope"})

	rateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "guildkit_ratelimit_wait_seconds",
		Help:    "Time spent waiting for rate limit resets",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	})
)

// Limiter gates requests on observed bucket state.
type Limiter struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewLimiter creates a limiter. A nil store defaults to a MemoryStore.
func NewLimiter(store Store, logger zerolog.Logger) *Limiter {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Limiter{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Wait blocks until a request on key may be sent: first the global lock, then the
// route bucket. Passing the route bucket takes one request from its remaining
// budget atomically in the store, so concurrent callers sharing it cannot
// overshoot the window.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	for _, k := range []string{GlobalKey, key} {
		for {
			wait, err := l.store.Acquire(ctx, k, l.now(), k != GlobalKey)
			if err != nil {
				return fmt.Errorf("acquire bucket: %w", err)
			}
			if wait <= 0 {
				break
			}

			scope := "route"
			if k == GlobalKey {
				scope = "global"
			}
			l.logger.Warn().
				Str("bucket", k).
				Str("scope", scope).
				Dur("wait", wait).
				Msg("Rate limit bucket drained - waiting for reset")

			rateLimitWaitsTotal.WithLabelValues(scope).Inc()
			rateLimitWaitSeconds.Observe(wait.Seconds())

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return nil
}

// UpdateFromHeaders records the bucket state reported by a response.
// Responses without rate limit headers are ignored.
func (l *Limiter) UpdateFromHeaders(ctx context.Context, key string, headers http.Header) error {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	resetAfter, err := parseSeconds(headers.Get(HeaderResetAfter))
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderResetAfter, err)
	}

	limit := 0
	if v := headers.Get(HeaderLimit); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderLimit, err)
		}
	}

	now := l.now()
	state := &BucketState{
		Bucket:     headers.Get(HeaderBucket),
		Limit:      limit,
		Remaining:  remain,
		ResetAt:    now.Add(resetAfter),
		LastUpdate: now,
	}

	if err := l.store.Set(ctx, key, state); err != nil {
		return fmt.Errorf("store bucket state: %w", err)
	}

	rateLimitRemaining.WithLabelValues(key).Set(float64(remain))

	l.logger.Debug().
		Str("bucket", key).
		Str("bucket_hash", state.Bucket).
		Int("remaining", remain).
		Dur("reset_after", resetAfter).
		Msg("Rate limit state updated")

	return nil
}

// Lock records a 429 response. Global limits lock every route, otherwise only key.
func (l *Limiter) Lock(ctx context.Context, key string, headers http.Header, retryAfter time.Duration) error {
	if retryAfter <= 0 {
		return nil
	}

	target := key
	if headers.Get(HeaderGlobal) == "true" {
		target = GlobalKey
	}

	now := l.now()
	state := &BucketState{
		Bucket:     headers.Get(HeaderBucket),
		Remaining:  0,
		ResetAt:    now.Add(retryAfter),
		LastUpdate: now,
	}

	l.logger.Warn().
		Str("bucket", target).
		Str("scope", headers.Get(HeaderScope)).
		Dur("retry_after", retryAfter).
		Msg("Rate limited by API")

	return l.store.Set(ctx, target, state)
}

// RetryAfter extracts the wait duration of a 429 response from its headers.
// Returns 0 if none is present.
func RetryAfter(headers http.Header) time.Duration {
	for _, h := range []string{HeaderRetryAfter, HeaderResetAfter} {
		if d, err := parseSeconds(headers.Get(h)); err == nil && d > 0 {
			return d
		}
	}
	return 0
}

func parseSeconds(v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if secs < 0 {
		return 0, nil
	}
	return time.Duration(secs * float64(time.Second)), nil
}
