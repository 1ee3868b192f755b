package pagination

import (
	"fmt"
	"slices"
	"strings"
)

// Order is the traversal direction.
type Order int

const (
	// Backward walks newest to oldest; the remote key decreases.
	Backward Order = iota
	// Forward walks oldest to newest; the remote key increases.
	Forward
)

func (o Order) String() string {
	switch o {
	case Backward:
		return "backward"
	case Forward:
		return "forward"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// Reverse returns the opposite direction.
func (o Order) Reverse() Order {
	if o == Forward {
		return Backward
	}
	return Forward
}

// ParseOrder parses "backward"/"newest" or "forward"/"oldest".
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "backward", "newest", "desc":
		return Backward, nil
	case "forward", "oldest", "asc":
		return Forward, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedOrder, s)
	}
}

// State is the lifecycle state of an Action.
type State int32

const (
	// StateFresh means nothing has been fetched yet.
	StateFresh State = iota
	// StateFetching means a page request is in flight.
	StateFetching
	// StateHasData means the cursor is anchored and more pages may follow.
	StateHasData
	// StateExhausted means the last page was short or empty.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateFetching:
		return "fetching"
	case StateHasData:
		return "has_data"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Policy describes the page size bounds and directions of an endpoint.
type Policy struct {
	// MinLimit and MaxLimit bound the page size. Zero leaves that side open.
	MinLimit int
	MaxLimit int
	// InitialLimit is the page size before SetLimit. Zero omits the limit
	// parameter and lets the API pick.
	InitialLimit int

	// Orders lists the supported directions; the first one is the default.
	Orders []Order

	// Query parameter names, "before", "after" and "limit" when empty.
	BeforeParam string
	AfterParam  string
	LimitParam  string
}

// Supports reports whether o is one of the policy's orders.
func (p Policy) Supports(o Order) bool {
	return slices.Contains(p.Orders, o)
}

// CheckLimit validates a page size against the bounds.
func (p Policy) CheckLimit(n int) error {
	if n < 1 || (p.MinLimit > 0 && n < p.MinLimit) || (p.MaxLimit > 0 && n > p.MaxLimit) {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrLimitOutOfRange, n, p.MinLimit, p.MaxLimit)
	}
	return nil
}

// param returns the anchor parameter for o.
func (p Policy) param(o Order) string {
	if o == Forward {
		return p.AfterParam
	}
	return p.BeforeParam
}

func (p Policy) withDefaults() Policy {
	if p.BeforeParam == "" {
		p.BeforeParam = "before"
	}
	if p.AfterParam == "" {
		p.AfterParam = "after"
	}
	if p.LimitParam == "" {
		p.LimitParam = "limit"
	}
	if len(p.Orders) == 0 {
		p.Orders = []Order{Backward}
	}
	p.Orders = slices.Clone(p.Orders)
	return p
}

func (p Policy) validate() error {
	if p.MinLimit < 0 || p.MaxLimit < 0 || (p.MaxLimit > 0 && p.MinLimit > p.MaxLimit) {
		return fmt.Errorf("invalid limit bounds [%d, %d]", p.MinLimit, p.MaxLimit)
	}
	if p.InitialLimit != 0 {
		if err := p.CheckLimit(p.InitialLimit); err != nil {
			return fmt.Errorf("initial limit: %w", err)
		}
	}
	for _, o := range p.Orders {
		if o != Backward && o != Forward {
			return fmt.Errorf("%w: %v", ErrUnsupportedOrder, o)
		}
	}
	return nil
}
