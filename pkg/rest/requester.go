package rest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/guildkit/pkg/rest/cache"
	"github.com/Sternrassler/guildkit/pkg/rest/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Prometheus metrics for REST operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildkit_rest_requests_total",
		Help: "Total REST requests by route template and status",
	}, []string{"route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "guildkit_rest_request_duration_seconds",
		Help:    "REST request duration in seconds by route template, retries included",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"route"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildkit_rest_errors_total",
		Help: "Total REST errors by class",
	}, []string{"class"})

	breakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "guildkit_rest_circuit_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	})
)

// errServerStatus marks 5xx attempts as failures for the circuit breaker.
var errServerStatus = errors.New("server error status")

// Response is a completed round trip with its body read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Cached is true when the body was served from the response cache.
	Cached bool
}

// Requester executes API requests with rate limiting, caching, retries and
// a circuit breaker.
type Requester struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	cache      *cache.Manager
	cacheScope string
	breaker    *gobreaker.CircuitBreaker
	tracer     trace.Tracer
	pool       *workerPool
	config     Config
	logger     zerolog.Logger
	closed     atomic.Bool
}

// New creates a Requester and starts its worker pool.
func New(cfg Config) (*Requester, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := log.With().Str("component", "rest").Logger()

	var store ratelimit.Store
	if cfg.Redis != nil {
		store = ratelimit.NewRedisStore(cfg.Redis)
	}

	r := &Requester{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    ratelimit.NewLimiter(store, logger),
		tracer:     otel.Tracer("guildkit/rest"),
		config:     cfg,
		logger:     logger,
	}

	if cfg.Redis != nil && cfg.ResponseCacheTTL > 0 {
		r.cache = cache.NewManager(cfg.Redis)
		// Responses depend on the token's permissions; never share them between bots.
		sum := sha256.Sum256([]byte(cfg.Token))
		r.cacheScope = hex.EncodeToString(sum[:6])
	}

	if cfg.BreakerFailures > 0 {
		r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "guildkit-rest",
			Timeout: cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.BreakerFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				breakerState.Set(float64(to))
				logger.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Circuit breaker state changed")
			},
		})
	}

	r.pool = newWorkerPool(cfg.MaxConcurrency, cfg.QueueSize, r.run, logger)
	return r, nil
}

// Do performs one logical request and returns the response of the first
// successful attempt. Non-2xx/304 responses are returned as *APIError.
func (r *Requester) Do(ctx context.Context, route CompiledRoute) (*Response, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}

	template := route.Route().Template

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(template).Observe(time.Since(startTime).Seconds())
	}()

	ctx, span := r.tracer.Start(ctx, route.Route().String(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", route.Method()),
			attribute.String("http.route", template),
			attribute.String("guildkit.bucket", route.BucketKey()),
		),
	)
	defer span.End()

	resp, err := r.do(ctx, route)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("http.response.status_code", resp.StatusCode),
		attribute.Bool("guildkit.cached", resp.Cached),
	)
	return resp, nil
}

func (r *Requester) do(ctx context.Context, route CompiledRoute) (*Response, error) {
	template := route.Route().Template
	cacheable := r.cache != nil && route.Method() == http.MethodGet

	var cacheKey cache.Key
	var cached *cache.Entry
	if cacheable {
		cacheKey = cache.Key{Route: route.Path(), Query: route.Query(), Scope: r.cacheScope}
		entry, err := r.cache.Get(ctx, cacheKey)
		switch {
		case err == nil && !entry.IsExpired():
			requestsTotal.WithLabelValues(template, "cached").Inc()
			r.logger.Debug().Str("route", route.String()).Msg("Serving cached response")
			return entryToResponse(entry), nil
		case err == nil:
			cached = entry
		case !errors.Is(err, cache.ErrCacheMiss):
			r.logger.Warn().Err(err).Str("route", route.String()).Msg("Cache get error")
		}
	}

	r.logger.Debug().
		Str("route", route.String()).
		Str("bucket", route.BucketKey()).
		Msg("Executing request")

	var resp *Response
	err := retryWithBackoff(ctx, r.config.Retry, r.logger, func(attempt int) error {
		if err := r.limiter.Wait(ctx, route.BucketKey()); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
		var err error
		resp, err = r.attempt(ctx, route, cached)
		return err
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		cache.NotModifiedResponses.Inc()
		r.logger.Debug().Str("route", route.String()).Msg("304 Not Modified - using cache")

		if fresh, err := cache.ResponseToEntry(&http.Response{StatusCode: cached.StatusCode, Header: resp.Header}, cached.Data, r.config.ResponseCacheTTL); err == nil {
			if err := r.cache.Refresh(ctx, cacheKey, cached, fresh.Expires); err != nil {
				r.logger.Warn().Err(err).Msg("Failed to refresh cache entry")
			}
		}
		return entryToResponse(cached), nil
	}

	if cacheable && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(&http.Response{StatusCode: resp.StatusCode, Header: resp.Header}, resp.Body, r.config.ResponseCacheTTL)
		if err != nil {
			r.logger.Debug().Err(err).Str("route", route.String()).Msg("Response not cacheable")
		} else if err := r.cache.Set(ctx, cacheKey, entry); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to cache response")
		}
	}

	return resp, nil
}

// attempt performs a single HTTP exchange and classifies its outcome.
func (r *Requester) attempt(ctx context.Context, route CompiledRoute, cached *cache.Entry) (*Response, error) {
	template := route.Route().Template

	req, err := http.NewRequestWithContext(ctx, route.Method(), route.URL(r.config.BaseURL), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if r.config.Token != "" {
		req.Header.Set("Authorization", "Bot "+r.config.Token)
	}
	req.Header.Set("User-Agent", r.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	cache.AddConditionalHeaders(req, cached)

	resp, err := r.send(req)
	if errors.Is(err, ErrCircuitOpen) {
		errorsTotal.WithLabelValues("circuit_open").Inc()
		return nil, err
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(template, "network_error").Inc()
		r.logger.Error().Err(err).Str("route", route.String()).Msg("HTTP request failed")
		return nil, &attemptError{class: ErrorClassNetwork, err: fmt.Errorf("%s: %w", route, err)}
	}

	requestsTotal.WithLabelValues(template, strconv.Itoa(resp.StatusCode)).Inc()

	if err := r.limiter.UpdateFromHeaders(ctx, route.BucketKey(), resp.Header); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
	}

	if resp.StatusCode < 400 {
		return resp, nil
	}

	apiErr := newAPIError(route, resp.StatusCode, resp.Body)
	errorsTotal.WithLabelValues(string(apiErr.Class)).Inc()

	r.logger.Warn().
		Str("route", route.String()).
		Int("status", resp.StatusCode).
		Int("code", apiErr.Code).
		Str("error_class", string(apiErr.Class)).
		Msg("API request error")

	if resp.StatusCode == http.StatusTooManyRequests {
		wait := ratelimit.RetryAfter(resp.Header)
		if err := r.limiter.Lock(ctx, route.BucketKey(), resp.Header, wait); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to record rate limit lock")
		}
		return nil, &attemptError{class: ErrorClassRateLimit, wait: wait, err: apiErr}
	}

	return nil, &attemptError{class: apiErr.Class, err: apiErr}
}

// send runs the exchange through the circuit breaker when one is configured.
func (r *Requester) send(req *http.Request) (*Response, error) {
	if r.breaker == nil {
		return r.roundTrip(req)
	}

	out, err := r.breaker.Execute(func() (interface{}, error) {
		resp, err := r.roundTrip(req)
		if err == nil && resp.StatusCode >= 500 {
			return resp, errServerStatus
		}
		return resp, err
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	case errors.Is(err, errServerStatus):
		err = nil
	}

	resp, _ := out.(*Response)
	if err == nil && resp == nil {
		return nil, fmt.Errorf("empty response")
	}
	return resp, err
}

func (r *Requester) roundTrip(req *http.Request) (*Response, error) {
	httpResp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

// Execute runs Do on the worker pool and invokes exactly one of onSuccess or
// onFailure exactly once. If the request cannot be queued onFailure runs on
// the calling goroutine.
func (r *Requester) Execute(ctx context.Context, route CompiledRoute, onSuccess func(*Response), onFailure func(error)) {
	if r.closed.Load() {
		onFailure(ErrClosed)
		return
	}
	err := r.pool.submit(ctx, job{
		ctx:       ctx,
		route:     route,
		onSuccess: onSuccess,
		onFailure: onFailure,
	})
	if err != nil {
		onFailure(err)
	}
}

func (r *Requester) run(j job) {
	resp, err := r.Do(j.ctx, j.route)
	if err != nil {
		j.onFailure(err)
		return
	}
	j.onSuccess(resp)
}

// Close stops the worker pool. Queued requests fail with ErrClosed.
func (r *Requester) Close() error {
	r.closed.Store(true)
	r.pool.close()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (r *Requester) SetHTTPClient(client *http.Client) {
	r.httpClient = client
}

// Limiter returns the rate limiter (for testing).
func (r *Requester) Limiter() *ratelimit.Limiter {
	return r.limiter
}

func entryToResponse(entry *cache.Entry) *Response {
	return &Response{
		StatusCode: entry.StatusCode,
		Header:     entry.Header,
		Body:       entry.Data,
		Cached:     true,
	}
}
