package pagination

import (
	"context"
	"sync"
)

// Future is the result of a background pagination operation.
type Future[R any] struct {
	done       chan struct{}
	cancel     chan struct{}
	cancelOnce sync.Once

	value R
	err   error
}

func newFuture[R any]() *Future[R] {
	return &Future[R]{
		done:   make(chan struct{}),
		cancel: make(chan struct{}),
	}
}

func resolved[R any](value R, err error) *Future[R] {
	f := newFuture[R]()
	f.complete(value, err)
	return f
}

// complete resolves the future. It must be called exactly once.
func (f *Future[R]) complete(value R, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// Done is closed once the result is available.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the result is available or ctx ends. A ctx ending does
// not cancel the operation.
func (f *Future[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// Result blocks until the result is available.
func (f *Future[R]) Result() (R, error) {
	<-f.done
	return f.value, f.err
}

// Cancel asks the operation to stop. It is observed before the next element
// is delivered or the next page is requested; a request already in flight
// completes and its elements are cached. Returns false if the future had
// already resolved.
func (f *Future[R]) Cancel() bool {
	select {
	case <-f.done:
		return false
	default:
	}
	f.cancelOnce.Do(func() { close(f.cancel) })
	return true
}

// Cancelled reports whether Cancel was called.
func (f *Future[R]) Cancelled() bool {
	return f.cancelRequested()
}

func (f *Future[R]) cancelRequested() bool {
	select {
	case <-f.cancel:
		return true
	default:
		return false
	}
}
