package pagination

import "errors"

var (
	// ErrLimitOutOfRange is returned by SetLimit for page sizes outside the endpoint's bounds.
	ErrLimitOutOfRange = errors.New("limit out of range")

	// ErrUnsupportedOrder is returned when the endpoint cannot traverse in the requested order.
	ErrUnsupportedOrder = errors.New("order not supported by endpoint")

	// ErrOrderLocked is returned when the order is changed after data was fetched.
	ErrOrderLocked = errors.New("order cannot change after data was fetched")

	// ErrSkipForward is returned when SkipTo would jump past the cached anchor.
	ErrSkipForward = errors.New("cannot skip past the current anchor while the cache is not empty")

	// ErrNoSuchElement is returned by First and Last when nothing is available.
	ErrNoSuchElement = errors.New("no such element")

	// ErrCanceled resolves a Future that was cancelled before it finished.
	ErrCanceled = errors.New("pagination canceled")
)
