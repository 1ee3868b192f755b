// Package testutil provides an in-process mock of the platform REST API for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/guildkit/pkg/rest/ratelimit"
)

// MockResponse defines a canned response for a path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock of the platform API. Paths either serve a
// canned response, a custom handler, or a paginated Collection.
type MockAPI struct {
	server      *httptest.Server
	mu          sync.RWMutex
	handlers    map[string]http.HandlerFunc
	collections map[string]*Collection

	// Tracking
	RequestCount      int
	ConditionalCount  int
	LastRequestHeader http.Header
	queries           map[string][]url.Values
}

// NewMockAPI starts a mock API server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers:    make(map[string]http.HandlerFunc),
		collections: make(map[string]*Collection),
		queries:     make(map[string][]url.Values),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		if r.Header.Get("If-None-Match") != "" {
			mock.ConditionalCount++
		}
		mock.queries[r.URL.Path] = append(mock.queries[r.URL.Path], r.URL.Query())
		handler, hasHandler := mock.handlers[r.URL.Path]
		collection, hasCollection := mock.collections[r.URL.Path]
		mock.mu.Unlock()

		switch {
		case hasHandler:
			handler(w, r)
		case hasCollection:
			collection.ServeHTTP(w, r)
		default:
			WriteError(w, http.StatusNotFound, 10003, "Unknown Channel")
		}
	}))

	return mock
}

// URL returns the mock server URL, usable as rest.Config.BaseURL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.LastRequestHeader = nil
	m.queries = make(map[string][]url.Values)
}

// SetHandler sets a custom handler for a path.
func (m *MockAPI) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse serves resp for every request on path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetCollection serves c on path.
func (m *MockAPI) SetCollection(path string, c *Collection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[path] = c
}

// Queries returns the query strings of every request made on path.
func (m *MockAPI) Queries(path string) []url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.queries[path])
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockAPI) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// Element is one item of a Collection.
type Element struct {
	// Key orders the collection and is compared with before/after ids.
	Key uint64
	// Time is compared with before/after timestamps when the collection
	// is timestamp-anchored.
	Time time.Time
	// Attrs are matched against the collection's filter parameters.
	Attrs map[string]string
	// Body is encoded as the element's JSON.
	Body any
}

// Collection is a remote list with before/after/limit pagination.
type Collection struct {
	// Field wraps pages in an object under this name; empty serves a bare array.
	Field string
	// Descending returns pages newest first, as the messages endpoint does.
	Descending bool
	// Timestamps anchors before/after on Element.Time instead of Key.
	Timestamps bool
	// DefaultLimit applies when no limit is sent; MaxLimit rejects larger ones.
	DefaultLimit int
	MaxLimit     int
	// Filters lists query parameters matched against Element.Attrs.
	Filters []string

	mu       sync.Mutex
	elements []Element
}

// NewCollection returns a bare-array collection with limits 1-100, default 50.
func NewCollection(elements ...Element) *Collection {
	c := &Collection{DefaultLimit: 50, MaxLimit: 100}
	c.Add(elements...)
	return c
}

// Add inserts elements, keeping the collection ordered by key.
func (c *Collection) Add(elements ...Element) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elements = append(c.elements, elements...)
	slices.SortFunc(c.elements, func(a, b Element) int {
		switch {
		case a.Key < b.Key:
			return -1
		case a.Key > b.Key:
			return 1
		}
		return 0
	})
}

// Len returns the number of elements.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.elements)
}

// ServeHTTP serves one page.
func (c *Collection) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := c.DefaultLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || (c.MaxLimit > 0 && n > c.MaxLimit) {
			WriteError(w, http.StatusBadRequest, 50035, "Invalid Form Body")
			return
		}
		limit = n
	}

	after, hasAfter, err := c.anchor(q.Get("after"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, 50035, "Invalid Form Body")
		return
	}
	before, hasBefore, err := c.anchor(q.Get("before"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, 50035, "Invalid Form Body")
		return
	}

	c.mu.Lock()
	matching := make([]Element, 0, len(c.elements))
	for _, e := range c.elements {
		if c.matches(e, q) {
			matching = append(matching, e)
		}
	}
	c.mu.Unlock()

	var page []Element
	if hasAfter {
		for _, e := range matching {
			if c.position(e) > after && len(page) < limit {
				page = append(page, e)
			}
		}
	} else {
		for i := len(matching) - 1; i >= 0 && len(page) < limit; i-- {
			if !hasBefore || c.position(matching[i]) < before {
				page = append(page, matching[i])
			}
		}
		slices.Reverse(page)
	}
	if c.Descending {
		slices.Reverse(page)
	}

	bodies := make([]any, len(page))
	for i, e := range page {
		bodies[i] = e.Body
	}

	var out any = bodies
	if c.Field != "" {
		out = map[string]any{c.Field: bodies, "has_more": len(page) == limit}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(ratelimit.HeaderLimit, "50")
	w.Header().Set(ratelimit.HeaderRemaining, "49")
	w.Header().Set(ratelimit.HeaderResetAfter, "1.000")
	w.Header().Set(ratelimit.HeaderBucket, "mock")
	WriteJSON(w, http.StatusOK, out)
}

// position is the comparable cursor value of e: its key, or its time in
// unix microseconds for timestamp-anchored collections.
func (c *Collection) position(e Element) int64 {
	if c.Timestamps {
		return e.Time.UnixMicro()
	}
	return int64(e.Key)
}

func (c *Collection) anchor(v string) (int64, bool, error) {
	if v == "" {
		return 0, false, nil
	}
	if c.Timestamps {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return 0, false, err
		}
		return t.UnixMicro(), true, nil
	}
	n, err := strconv.ParseUint(v, 10, 63)
	if err != nil {
		return 0, false, err
	}
	return int64(n), true, nil
}

func (c *Collection) matches(e Element, q url.Values) bool {
	for _, param := range c.Filters {
		want := q.Get(param)
		if want == "" {
			continue
		}
		if e.Attrs[param] != want {
			return false
		}
	}
	return true
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes a platform error payload.
func WriteError(w http.ResponseWriter, status, code int, message string) {
	WriteJSON(w, status, map[string]any{"code": code, "message": message})
}

// NewRateLimitResponse creates a 429 response asking the client to retry after d.
func NewRateLimitResponse(d time.Duration, global bool) MockResponse {
	secs := strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"message": "You are being rate limited.", "retry_after": ` + secs + `, "global": ` + strconv.FormatBool(global) + `}`,
		Headers: map[string]string{
			ratelimit.HeaderRetryAfter: secs,
			ratelimit.HeaderGlobal:     strconv.FormatBool(global),
			ratelimit.HeaderRemaining:  "0",
			ratelimit.HeaderResetAfter: secs,
			"Content-Type":             "application/json",
		},
	}
}

// NewServerErrorResponse creates a 500 response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"code": 0, "message": "500: Internal Server Error"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewConditionalHandler responds 304 to requests carrying etag and serves
// data otherwise.
func NewConditionalHandler(etag string, data string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "max-age=60")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(data))
	}
}
