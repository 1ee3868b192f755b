package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Sternrassler/guildkit/pkg/rest"
	"github.com/Sternrassler/guildkit/pkg/snowflake"
)

// Fetcher performs one round trip and invokes exactly one of onSuccess or
// onFailure exactly once. *rest.Requester implements it.
type Fetcher interface {
	Execute(ctx context.Context, route rest.CompiledRoute, onSuccess func(*rest.Response), onFailure func(error))
}

// AnchorFunc encodes the cursor for the next request. lastKey is 0 and last
// is nil before the first fetch; last is also nil after SkipTo. An empty
// result omits the anchor parameter.
type AnchorFunc[T any] func(lastKey uint64, last *T, order Order) string

// Endpoint binds the engine to one remote collection.
type Endpoint[T any] struct {
	// Name labels logs and metrics, e.g. "message_history".
	Name string

	// Route is the compiled base route; limit, anchor and filters are added per request.
	Route rest.CompiledRoute

	Policy Policy

	// Key projects an element onto the cursor key. Required.
	Key func(T) uint64

	// Decode turns one raw element into T. Defaults to json.Unmarshal.
	Decode func(json.RawMessage) (T, error)

	// Elements splits a response body into raw elements. Defaults to a
	// top-level JSON array; see FieldElements for wrapped shapes.
	Elements func(body []byte) ([]json.RawMessage, error)

	// Anchor defaults to SnowflakeAnchor.
	Anchor AnchorFunc[T]
}

func (e Endpoint[T]) withDefaults() Endpoint[T] {
	if e.Name == "" {
		e.Name = e.Route.Route().Template
	}
	e.Policy = e.Policy.withDefaults()
	if e.Decode == nil {
		e.Decode = DecodeJSON[T]
	}
	if e.Elements == nil {
		e.Elements = ArrayElements
	}
	if e.Anchor == nil {
		e.Anchor = func(lastKey uint64, _ *T, order Order) string {
			return SnowflakeAnchor(lastKey, order)
		}
	}
	return e
}

func (e Endpoint[T]) validate() error {
	if e.Key == nil {
		return fmt.Errorf("endpoint %s: key function is required", e.Name)
	}
	if e.Route.Path() == "" {
		return fmt.Errorf("endpoint %s: route is required", e.Name)
	}
	if err := e.Policy.validate(); err != nil {
		return fmt.Errorf("endpoint %s: %w", e.Name, err)
	}
	return nil
}

// DecodeJSON unmarshals one element.
func DecodeJSON[T any](raw json.RawMessage) (T, error) {
	var v T
	err := json.Unmarshal(raw, &v)
	return v, err
}

// ArrayElements splits a top-level JSON array.
func ArrayElements(body []byte) ([]json.RawMessage, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("decode page array: %w", err)
	}
	return raws, nil
}

// FieldElements splits the array stored under field of a top-level object,
// e.g. {"audit_log_entries": [...]}. A missing or null field is an empty page.
func FieldElements(field string) func([]byte) ([]json.RawMessage, error) {
	return func(body []byte) ([]json.RawMessage, error) {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(body, &wrapper); err != nil {
			return nil, fmt.Errorf("decode page object: %w", err)
		}
		raw, ok := wrapper[field]
		if !ok || string(raw) == "null" {
			return nil, nil
		}
		return ArrayElements(raw)
	}
}

// SnowflakeAnchor encodes the key as a decimal id. Before the first fetch a
// forward traversal starts at "0" and a backward one omits the anchor so the
// API starts at the newest element.
func SnowflakeAnchor(lastKey uint64, order Order) string {
	if lastKey == 0 {
		if order == Forward {
			return "0"
		}
		return ""
	}
	return strconv.FormatUint(lastKey, 10)
}

// KeyFromTime converts a timestamp into a cursor key for endpoints anchored
// by time: unix milliseconds.
func KeyFromTime(t time.Time) uint64 {
	ms := t.UnixMilli()
	if ms < 0 {
		return 0
	}
	return uint64(ms)
}

// maxTimestampKey is the last millisecond a four-digit ISO-8601 year can
// express. Larger keys, such as snowflakes passed to SkipTo, are clamped to it.
const maxTimestampKey = 253402300799999

// TimestampAnchor encodes the anchor as an ISO-8601 timestamp taken from the
// last element, or from the key (unix milliseconds) after SkipTo. Before the
// first fetch a forward traversal starts at the platform epoch and a backward
// one omits the anchor.
func TimestampAnchor[T any](at func(T) time.Time) AnchorFunc[T] {
	return func(lastKey uint64, last *T, order Order) string {
		switch {
		case last != nil:
			return formatAnchorTime(at(*last))
		case lastKey != 0:
			return formatAnchorTime(time.UnixMilli(int64(min(lastKey, maxTimestampKey))))
		case order == Forward:
			return formatAnchorTime(snowflake.Epoch)
		default:
			return ""
		}
	}
}

func formatAnchorTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000-07:00")
}
