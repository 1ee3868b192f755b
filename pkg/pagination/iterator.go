package pagination

import (
	"context"
	"iter"
)

// Iterator is a single-pass, blocking view of a traversal. It replays the
// cache as it was when the iterator was created (or takes over the
// undelivered elements when caching is off), then fetches. Next blocks
// the calling goroutine while a page is requested.
//
//	it := action.Iterator(ctx)
//	for it.Next() {
//		use(it.Item())
//	}
//	if err := it.Err(); err != nil {
//		return err
//	}
type Iterator[T any] struct {
	action *Action[T]
	ctx    context.Context
	queue  []T
	item   T
	err    error
	done   bool
}

// Iterator returns a pull iterator bound to ctx.
func (a *Action[T]) Iterator(ctx context.Context) *Iterator[T] {
	a.mu.Lock()
	var seed []T
	if a.useCache {
		seed = a.snapshotLocked()
	} else {
		seed = a.pending
		a.pending = nil
	}
	a.mu.Unlock()

	return &Iterator[T]{action: a, ctx: ctx, queue: seed}
}

// Next advances to the next element. It returns false once the collection is
// exhausted or a request failed; see Err. After that it keeps returning false
// without touching the network.
func (it *Iterator[T]) Next() bool {
	if it.done {
		return false
	}

	if len(it.queue) == 0 {
		page, err := it.action.fetch(it.ctx)
		if err != nil || len(page) == 0 {
			it.err = err
			it.finish()
			return false
		}
		it.queue = page
	}

	it.item = it.queue[0]
	it.queue = it.queue[1:]
	return true
}

// Item returns the element Next advanced to.
func (it *Iterator[T]) Item() T {
	return it.item
}

// Err returns the error that ended the iteration, if any.
func (it *Iterator[T]) Err() error {
	return it.err
}

func (it *Iterator[T]) finish() {
	var zero T
	it.done = true
	it.queue = nil
	it.item = zero
	it.action = nil
}

// Stream returns the traversal as a range-over-func sequence. A failed
// request is yielded once as the final pair with a zero element.
func (a *Action[T]) Stream(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		it := a.Iterator(ctx)
		for it.Next() {
			if !yield(it.Item(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

// All blocks until every remaining element was fetched and returns the whole
// traversal, cached elements included.
func (a *Action[T]) All(ctx context.Context) ([]T, error) {
	var out []T
	for v, err := range a.Stream(ctx) {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}
