package pagination

import (
	"fmt"
	"net/url"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Action is one traversal of a paginated collection: cursor, cache, page
// size, order and filters. Configuration methods are safe to call from any
// goroutine; page requests of one Action are serialized.
type Action[T any] struct {
	fetcher  Fetcher
	endpoint Endpoint[T]
	id       string
	logger   zerolog.Logger

	// inflight holds a token while a page request is outstanding.
	inflight chan struct{}

	mu       sync.Mutex
	cache    []T
	view     []T
	useCache bool
	limit    int
	order    Order
	lastKey  uint64
	last     T
	hasLast  bool
	state    State
	// pending holds fetched elements a stopped consumer has not seen yet.
	pending []T
	filters url.Values
}

// New creates a traversal of endpoint. The cache is enabled, the limit is the
// policy's InitialLimit and the order its first supported order.
func New[T any](fetcher Fetcher, endpoint Endpoint[T]) (*Action[T], error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	endpoint = endpoint.withDefaults()
	if err := endpoint.validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	return &Action[T]{
		fetcher:  fetcher,
		endpoint: endpoint,
		id:       id,
		logger: log.With().
			Str("component", "pagination").
			Str("endpoint", endpoint.Name).
			Str("traversal_id", id).
			Logger(),
		inflight: make(chan struct{}, 1),
		useCache: true,
		limit:    endpoint.Policy.InitialLimit,
		order:    endpoint.Policy.Orders[0],
		filters:  url.Values{},
	}, nil
}

// Name returns the endpoint name.
func (a *Action[T]) Name() string { return a.endpoint.Name }

// ID identifies the traversal in logs.
func (a *Action[T]) ID() string { return a.id }

// Policy returns the endpoint's ordering and limit policy.
func (a *Action[T]) Policy() Policy {
	p := a.endpoint.Policy
	p.Orders = slices.Clone(p.Orders)
	return p
}

// SetLimit sets the page size of the next requests.
func (a *Action[T]) SetLimit(n int) error {
	if err := a.endpoint.Policy.CheckLimit(n); err != nil {
		return err
	}
	a.mu.Lock()
	a.limit = n
	a.mu.Unlock()
	return nil
}

// Limit returns the current page size; 0 means the API default.
func (a *Action[T]) Limit() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.limit
}

// SetCacheEnabled toggles caching of future pages. Cached elements are kept.
func (a *Action[T]) SetCacheEnabled(enabled bool) {
	a.mu.Lock()
	a.useCache = enabled
	a.mu.Unlock()
}

// CacheEnabled reports whether fetched pages are cached.
func (a *Action[T]) CacheEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.useCache
}

// SetOrder changes the traversal direction. It fails once anything has been
// fetched; setting the current order is always allowed.
func (a *Action[T]) SetOrder(o Order) error {
	if !a.endpoint.Policy.Supports(o) {
		return fmt.Errorf("%w: %s supports %v, got %v", ErrUnsupportedOrder, a.endpoint.Name, a.endpoint.Policy.Orders, o)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if o == a.order {
		return nil
	}
	if a.state != StateFresh || len(a.cache) > 0 || a.hasLast {
		return fmt.Errorf("%w: %s is %v with %d cached", ErrOrderLocked, a.endpoint.Name, a.state, len(a.cache))
	}
	a.order = o
	return nil
}

// Reverse flips the traversal direction, subject to SetOrder's rules.
func (a *Action[T]) Reverse() error {
	return a.SetOrder(a.Order().Reverse())
}

// Order returns the traversal direction.
func (a *Action[T]) Order() Order {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.order
}

// SkipTo moves the cursor to key. With a non-empty cache key must not be
// newer than the current anchor. Moving the cursor forgets the last element
// and the undelivered elements and re-opens an exhausted traversal; the cache
// is left untouched.
func (a *Action[T]) SkipTo(key uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.cache) > 0 && key > a.lastKey {
		return fmt.Errorf("%w: %d is newer than %d", ErrSkipForward, key, a.lastKey)
	}
	if key == a.lastKey {
		return nil
	}

	a.lastKey = key
	a.hasLast = false
	a.pending = nil
	var zero T
	a.last = zero
	if a.state == StateExhausted {
		a.state = StateHasData
	}

	a.logger.Debug().Uint64("key", key).Msg("Cursor moved")
	return nil
}

// LastKey returns the cursor key; 0 before anything was fetched.
func (a *Action[T]) LastKey() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastKey
}

// State returns the lifecycle state.
func (a *Action[T]) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// SetFilter sets an endpoint-specific query parameter sent with every page request.
func (a *Action[T]) SetFilter(key string, values ...string) {
	a.mu.Lock()
	a.filters[key] = slices.Clone(values)
	a.mu.Unlock()
}

// ClearFilter removes a filter.
func (a *Action[T]) ClearFilter(key string) {
	a.mu.Lock()
	delete(a.filters, key)
	a.mu.Unlock()
}

// Cached returns every cached element in traversal order. The slice is shared
// until the next page is appended and must not be modified.
func (a *Action[T]) Cached() []T {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *Action[T]) snapshotLocked() []T {
	if a.view == nil && len(a.cache) > 0 {
		a.view = slices.Clip(slices.Clone(a.cache))
	}
	return a.view
}

// CacheSize returns the number of cached elements.
func (a *Action[T]) CacheSize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.cache)
}

// IsEmpty reports whether the cache is empty.
func (a *Action[T]) IsEmpty() bool {
	return a.CacheSize() == 0
}

// First returns the first cached element.
func (a *Action[T]) First() (T, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.cache) == 0 {
		var zero T
		return zero, ErrNoSuchElement
	}
	return a.cache[0], nil
}

// Last returns the element the cursor is anchored at. It is unavailable
// before the first non-empty page and after SkipTo moved the cursor.
func (a *Action[T]) Last() (T, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.hasLast {
		var zero T
		return zero, ErrNoSuchElement
	}
	return a.last, nil
}

// takePending removes and returns the undelivered elements.
func (a *Action[T]) takePending() []T {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := a.pending
	a.pending = nil
	return p
}

// keepPending puts undelivered elements back in front of the pending queue.
func (a *Action[T]) keepPending(rest []T) {
	if len(rest) == 0 {
		return
	}
	a.mu.Lock()
	a.pending = append(slices.Clone(rest), a.pending...)
	a.mu.Unlock()
}
