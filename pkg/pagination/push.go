package pagination

import "context"

// Predicate receives elements in traversal order; returning false stops the walk.
type Predicate[T any] func(T) bool

// walk delivers elements to visit until it returns false, the collection is
// exhausted, stop reports true or ctx ends. Non-remaining walks replay the
// cache first (or the pending elements when caching is off); remaining walks
// start with the pending elements. Elements not delivered are kept pending.
func (a *Action[T]) walk(ctx context.Context, remaining bool, stop func() bool, visit Predicate[T]) error {
	var batch []T
	if remaining {
		batch = a.takePending()
	} else {
		a.mu.Lock()
		if a.useCache {
			batch = a.snapshotLocked()
			a.pending = nil
		} else {
			batch = a.pending
			a.pending = nil
		}
		a.mu.Unlock()
	}

	interrupted := func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if stop != nil && stop() {
			return ErrCanceled
		}
		return nil
	}

	for {
		for i, v := range batch {
			if err := interrupted(); err != nil {
				a.keepPending(batch[i:])
				return err
			}
			if !visit(v) {
				a.keepPending(batch[i+1:])
				return nil
			}
		}

		if err := interrupted(); err != nil {
			return err
		}

		page, err := a.fetch(ctx)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		batch = page
	}
}

// ForEachRemaining blocks while it delivers pending and newly fetched
// elements to pred until pred returns false or the collection is exhausted.
func (a *Action[T]) ForEachRemaining(ctx context.Context, pred Predicate[T]) error {
	return a.walk(ctx, true, nil, pred)
}

// ForEachAsync delivers cached, then newly fetched elements to pred on a
// background goroutine.
func (a *Action[T]) ForEachAsync(ctx context.Context, pred Predicate[T]) *Future[struct{}] {
	return a.forEachAsync(ctx, false, pred)
}

// ForEachRemainingAsync is ForEachAsync that skips elements already
// delivered: it starts with the elements left over by the last stopped walk,
// then fetches.
func (a *Action[T]) ForEachRemainingAsync(ctx context.Context, pred Predicate[T]) *Future[struct{}] {
	return a.forEachAsync(ctx, true, pred)
}

func (a *Action[T]) forEachAsync(ctx context.Context, remaining bool, pred Predicate[T]) *Future[struct{}] {
	f := newFuture[struct{}]()
	go func() {
		f.complete(struct{}{}, a.walk(ctx, remaining, f.cancelRequested, pred))
	}()
	return f
}

// TakeAsync collects up to n elements, replaying the cache first.
func (a *Action[T]) TakeAsync(ctx context.Context, n int) *Future[[]T] {
	if n <= 0 {
		return resolved[[]T](nil, nil)
	}
	return a.takeAsync(ctx, false, n, nil)
}

// TakeRemainingAsync collects up to n elements not delivered before.
func (a *Action[T]) TakeRemainingAsync(ctx context.Context, n int) *Future[[]T] {
	if n <= 0 {
		return resolved[[]T](nil, nil)
	}
	return a.takeAsync(ctx, true, n, nil)
}

// TakeWhileAsync collects elements while p holds, at most n when n > 0.
// The first element failing p is consumed but not collected.
func (a *Action[T]) TakeWhileAsync(ctx context.Context, n int, p Predicate[T]) *Future[[]T] {
	return a.takeAsync(ctx, false, n, p)
}

// TakeUntilAsync collects elements until p holds, at most n when n > 0.
// The first element satisfying p is consumed but not collected.
func (a *Action[T]) TakeUntilAsync(ctx context.Context, n int, p Predicate[T]) *Future[[]T] {
	return a.takeAsync(ctx, false, n, func(v T) bool { return !p(v) })
}

// TakeRemainingWhileAsync is TakeWhileAsync over elements not delivered before.
func (a *Action[T]) TakeRemainingWhileAsync(ctx context.Context, n int, p Predicate[T]) *Future[[]T] {
	return a.takeAsync(ctx, true, n, p)
}

// TakeRemainingUntilAsync is TakeUntilAsync over elements not delivered before.
func (a *Action[T]) TakeRemainingUntilAsync(ctx context.Context, n int, p Predicate[T]) *Future[[]T] {
	return a.takeAsync(ctx, true, n, func(v T) bool { return !p(v) })
}

// takeAsync collects elements accepted by while, capped at n when n > 0.
// A cancelled or failed take resolves with the elements collected so far
// alongside the error.
func (a *Action[T]) takeAsync(ctx context.Context, remaining bool, n int, while Predicate[T]) *Future[[]T] {
	f := newFuture[[]T]()
	go func() {
		var out []T
		if n > 0 {
			out = make([]T, 0, min(n, 1000))
		}
		err := a.walk(ctx, remaining, f.cancelRequested, func(v T) bool {
			if while != nil && !while(v) {
				return false
			}
			out = append(out, v)
			return n <= 0 || len(out) < n
		})
		f.complete(out, err)
	}()
	return f
}
