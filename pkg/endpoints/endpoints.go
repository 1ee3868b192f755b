package endpoints

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Sternrassler/guildkit/pkg/pagination"
	"github.com/Sternrassler/guildkit/pkg/rest"
	"github.com/Sternrassler/guildkit/pkg/snowflake"
)

// ErrInvalidTarget is returned when a constructor is given a zero id or an
// empty path parameter.
var ErrInvalidTarget = errors.New("invalid pagination target")

// defaultMaxLimit is the page size bound shared by most collections.
const defaultMaxLimit = 100

var (
	bothOrders   = []pagination.Order{pagination.Backward, pagination.Forward}
	backwardOnly = []pagination.Order{pagination.Backward}
	forwardOnly  = []pagination.Order{pagination.Forward}
	forwardFirst = []pagination.Order{pagination.Forward, pagination.Backward}
)

func standardPolicy(orders []pagination.Order) pagination.Policy {
	return pagination.Policy{
		MinLimit:     1,
		MaxLimit:     defaultMaxLimit,
		InitialLimit: defaultMaxLimit,
		Orders:       orders,
	}
}

// compile validates ids and params and substitutes them into route.
func compile(route rest.Route, ids []snowflake.ID, params ...string) (rest.CompiledRoute, error) {
	values := make([]string, 0, len(ids)+len(params))
	for _, id := range ids {
		if id == 0 {
			return rest.CompiledRoute{}, fmt.Errorf("%w: %s needs non-zero ids", ErrInvalidTarget, route)
		}
		values = append(values, id.String())
	}
	for _, p := range params {
		if p == "" {
			return rest.CompiledRoute{}, fmt.Errorf("%w: %s has an empty parameter", ErrInvalidTarget, route)
		}
		values = append(values, p)
	}
	return route.Compile(values...)
}

func newAction[T any](f pagination.Fetcher, e pagination.Endpoint[T]) (*pagination.Action[T], error) {
	a, err := pagination.New(f, e)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name, err)
	}
	return a, nil
}

func key(id snowflake.ID) uint64 { return uint64(id) }

func formatBool(v bool) string { return strconv.FormatBool(v) }
