package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Sternrassler/guildkit/pkg/rest"
)

type item struct {
	ID uint64 `json:"id"`
}

// fakeCollection serves a snowflake-keyed collection like the messages
// endpoint: pages are always returned newest first.
type fakeCollection struct {
	mu       sync.Mutex
	ids      []uint64 // ascending
	calls    []url.Values
	failNext error
	body     func(q url.Values) []byte

	inflight    atomic.Int32
	maxInflight atomic.Int32
	// gate, when set, holds every response until it receives a value or the
	// request context ends.
	gate chan struct{}
}

func newFakeCollection(n int) *fakeCollection {
	ids := make([]uint64, n)
	for i := range ids {
		ids[i] = uint64(1000 + i)
	}
	return &fakeCollection{ids: ids}
}

func (f *fakeCollection) Execute(ctx context.Context, route rest.CompiledRoute, onSuccess func(*rest.Response), onFailure func(error)) {
	q := route.Query()

	f.mu.Lock()
	f.calls = append(f.calls, q)
	err := f.failNext
	f.failNext = nil
	gate := f.gate
	f.mu.Unlock()

	n := f.inflight.Add(1)
	for {
		m := f.maxInflight.Load()
		if n <= m || f.maxInflight.CompareAndSwap(m, n) {
			break
		}
	}

	go func() {
		if gate != nil {
			select {
			case <-gate:
			case <-ctx.Done():
			}
		}
		if err == nil {
			err = ctx.Err()
		}
		var body []byte
		if err == nil {
			body = f.page(q)
		}
		f.inflight.Add(-1)

		if err != nil {
			onFailure(err)
			return
		}
		onSuccess(&rest.Response{StatusCode: 200, Body: body})
	}()
}

func (f *fakeCollection) page(q url.Values) []byte {
	if f.body != nil {
		return f.body(q)
	}

	limit := 50
	if v := q.Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	var selected []uint64
	switch {
	case q.Has("after"):
		after, _ := strconv.ParseUint(q.Get("after"), 10, 64)
		for _, id := range f.ids {
			if id > after && len(selected) < limit {
				selected = append(selected, id)
			}
		}
	default:
		before := uint64(1<<63 - 1)
		if q.Has("before") {
			before, _ = strconv.ParseUint(q.Get("before"), 10, 64)
		}
		for i := len(f.ids) - 1; i >= 0 && len(selected) < limit; i-- {
			if f.ids[i] < before {
				selected = append([]uint64{f.ids[i]}, selected...)
			}
		}
	}

	// newest first
	out := make([]item, 0, len(selected))
	for i := len(selected) - 1; i >= 0; i-- {
		out = append(out, item{ID: selected[i]})
	}
	body, _ := json.Marshal(out)
	return body
}

func (f *fakeCollection) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeCollection) call(i int) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

func (f *fakeCollection) failWith(err error) {
	f.mu.Lock()
	f.failNext = err
	f.mu.Unlock()
}

func testEndpoint() Endpoint[item] {
	return Endpoint[item]{
		Name:  "test",
		Route: rest.GetChannelMessages.MustCompile("1"),
		Policy: Policy{
			MinLimit:     1,
			MaxLimit:     100,
			InitialLimit: 100,
			Orders:       []Order{Backward, Forward},
		},
		Key: func(i item) uint64 { return i.ID },
	}
}

func newTestAction(f Fetcher) *Action[item] {
	a, err := New(f, testEndpoint())
	if err != nil {
		panic(fmt.Sprintf("New() error = %v", err))
	}
	return a
}

func ids(items []item) []uint64 {
	out := make([]uint64, len(items))
	for i, v := range items {
		out[i] = v.ID
	}
	return out
}
