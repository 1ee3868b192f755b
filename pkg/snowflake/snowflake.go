// Package snowflake adapts github.com/disgoorg/snowflake/v2 to the cursor
// needs of guildkit.
//
// The upper 42 bits of an ID hold milliseconds since Epoch, so comparing two
// IDs numerically compares their creation times. Pagination relies on this:
// an ID is both an opaque handle and a cursor position.
package snowflake

import (
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// EpochMillis is the platform epoch (2015-01-01T00:00:00Z) in Unix milliseconds.
const EpochMillis = snowflake.Epoch

// Epoch is EpochMillis as a time.Time.
var Epoch = time.UnixMilli(EpochMillis).UTC()

// ErrInvalid is returned when a value cannot be parsed as an ID.
var ErrInvalid = errors.New("invalid snowflake")

// ID is a platform identifier encoded as a JSON string on the wire.
// The zero value means "no ID".
type ID = snowflake.ID

// Parse parses a decimal ID.
func Parse(s string) (ID, error) {
	id, err := snowflake.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", ErrInvalid, s, err)
	}
	return id, nil
}

// MustParse is like Parse but panics on error. Intended for constants in tests and examples.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// FromTime returns the smallest ID that could have been created at t, or 0
// for times before Epoch. Useful as a pagination anchor for "everything
// after this moment".
func FromTime(t time.Time) ID {
	if t.UnixMilli() <= EpochMillis {
		return 0
	}
	return snowflake.New(t)
}
