package pagination

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/Sternrassler/guildkit/pkg/rest"
)

// request is the snapshot of cursor state a page request was built from.
type request struct {
	route  rest.CompiledRoute
	limit  int
	order  Order
	anchor string
	prev   State
}

// FetchPage requests the next page, appends it to the cache and advances the
// cursor. It returns an empty page without a network call once exhausted.
func (a *Action[T]) FetchPage(ctx context.Context) ([]T, error) {
	return a.fetch(ctx)
}

// FetchPageAsync is FetchPage on a background goroutine.
func (a *Action[T]) FetchPageAsync(ctx context.Context) *Future[[]T] {
	f := newFuture[[]T]()
	go func() {
		if f.cancelRequested() {
			f.complete(nil, ErrCanceled)
			return
		}
		f.complete(a.fetch(ctx))
	}()
	return f
}

// fetch performs one page request. Requests of one Action never overlap.
func (a *Action[T]) fetch(ctx context.Context) ([]T, error) {
	select {
	case a.inflight <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-a.inflight }()

	a.mu.Lock()
	if a.state == StateExhausted {
		a.mu.Unlock()
		return nil, nil
	}
	req := a.buildRequestLocked()
	a.state = StateFetching
	a.mu.Unlock()

	a.logger.Debug().
		Int("limit", req.limit).
		Str("order", req.order.String()).
		Str("anchor", req.anchor).
		Msg("Requesting page")

	type result struct {
		resp *rest.Response
		err  error
	}
	done := make(chan result, 1)
	a.fetcher.Execute(ctx, req.route,
		func(resp *rest.Response) { done <- result{resp: resp} },
		func(err error) { done <- result{err: err} },
	)
	res := <-done

	if res.err == nil && res.resp == nil {
		res.err = fmt.Errorf("empty response")
	}

	var page []T
	var raw int
	if res.err == nil {
		page, raw, res.err = a.decodePage(res.resp.Body, req.order)
	}

	if res.err != nil {
		a.mu.Lock()
		a.state = req.prev
		a.mu.Unlock()

		fetchErrorsTotal.WithLabelValues(a.endpoint.Name).Inc()
		a.logger.Warn().Err(res.err).Str("anchor", req.anchor).Msg("Page request failed")
		return nil, fmt.Errorf("%s: fetch page: %w", a.endpoint.Name, res.err)
	}

	a.mu.Lock()
	page = a.applyPageLocked(page, raw, req)
	a.mu.Unlock()

	return page, nil
}

func (a *Action[T]) buildRequestLocked() request {
	p := a.endpoint.Policy
	route := a.endpoint.Route
	for k, v := range a.filters {
		route = route.WithQuery(k, v...)
	}
	if a.limit > 0 {
		route = route.WithQuery(p.LimitParam, strconv.Itoa(a.limit))
	}

	var last *T
	if a.hasLast {
		l := a.last
		last = &l
	}
	anchor := a.endpoint.Anchor(a.lastKey, last, a.order)
	if anchor != "" {
		route = route.WithQuery(p.param(a.order), anchor)
	}

	return request{
		route:  route,
		limit:  a.limit,
		order:  a.order,
		anchor: anchor,
		prev:   a.state,
	}
}

// decodePage decodes every element it can and orders the page along the
// traversal direction. raw is the element count before decoding.
func (a *Action[T]) decodePage(body []byte, order Order) (page []T, raw int, err error) {
	raws, err := a.endpoint.Elements(body)
	if err != nil {
		return nil, 0, err
	}

	page = make([]T, 0, len(raws))
	for i, r := range raws {
		v, err := a.endpoint.Decode(r)
		if err != nil {
			decodeFailuresTotal.WithLabelValues(a.endpoint.Name).Inc()
			a.logger.Warn().
				Err(err).
				Int("index", i).
				Int("page_size", len(raws)).
				Msg("Dropping element that failed to decode")
			continue
		}
		page = append(page, v)
	}

	if len(page) > 1 {
		first, last := a.endpoint.Key(page[0]), a.endpoint.Key(page[len(page)-1])
		if (order == Forward && first > last) || (order == Backward && first < last) {
			slices.Reverse(page)
		}
	}
	return page, len(raws), nil
}

// applyPageLocked advances the cursor and cache and returns the elements to deliver.
// Whoever receives a new page has consumed everything before it, so pending
// elements are dropped.
func (a *Action[T]) applyPageLocked(page []T, raw int, req request) []T {
	a.pending = nil
	pagesTotal.WithLabelValues(a.endpoint.Name).Inc()
	elementsTotal.WithLabelValues(a.endpoint.Name).Add(float64(len(page)))

	if len(page) == 0 {
		a.exhaustLocked(raw, 0)
		return nil
	}

	tail := page[len(page)-1]
	key := a.endpoint.Key(tail)
	if a.lastKey != 0 && !advances(a.lastKey, key, req.order) {
		// A page that does not move the cursor would be requested forever.
		a.logger.Warn().
			Uint64("last_key", a.lastKey).
			Uint64("page_key", key).
			Msg("Page did not advance the cursor")
		a.exhaustLocked(raw, len(page))
		return nil
	}

	if a.useCache {
		a.cache = append(a.cache, page...)
		a.view = nil
	}
	a.last = tail
	a.hasLast = true
	a.lastKey = key

	if req.limit > 0 && raw < req.limit {
		a.exhaustLocked(raw, len(page))
		return page
	}
	a.state = StateHasData

	a.logger.Debug().
		Int("received", raw).
		Int("decoded", len(page)).
		Uint64("last_key", key).
		Msg("Page fetched")
	return page
}

func (a *Action[T]) exhaustLocked(raw, decoded int) {
	a.state = StateExhausted
	exhaustedTotal.WithLabelValues(a.endpoint.Name).Inc()
	a.logger.Debug().
		Int("received", raw).
		Int("decoded", decoded).
		Int("cached", len(a.cache)).
		Msg("Collection exhausted")
}

// advances reports whether next lies strictly beyond prev in direction o.
func advances(prev, next uint64, o Order) bool {
	if o == Forward {
		return next > prev
	}
	return next < prev
}
