package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/guildkit/pkg/pagination"
	"github.com/Sternrassler/guildkit/pkg/snowflake"
)

// traversalFlags are the pagination settings shared by the export commands.
type traversalFlags struct {
	limit  int
	order  string
	max    int
	skipTo string
}

func (f *traversalFlags) register(cmd *cobra.Command, withOrder bool) {
	cmd.Flags().IntVar(&f.limit, "limit", 0, "page size (default: the endpoint's maximum)")
	cmd.Flags().IntVar(&f.max, "max", 0, "stop after this many elements (0 exports everything)")
	if withOrder {
		cmd.Flags().StringVar(&f.order, "order", "", "newest or oldest first (default: the endpoint's order)")
		cmd.Flags().StringVar(&f.skipTo, "skip-to", "", "start after this id instead of at the newest or oldest element")
	}
}

// configure applies the flags to a fresh traversal. Exports stream through
// the data once, so the chunk cache is turned off.
func configure[T any](a *pagination.Action[T], f traversalFlags) error {
	a.SetCacheEnabled(false)
	if f.limit != 0 {
		if err := a.SetLimit(f.limit); err != nil {
			return err
		}
	}
	if f.order != "" {
		o, err := pagination.ParseOrder(f.order)
		if err != nil {
			return err
		}
		if err := a.SetOrder(o); err != nil {
			return err
		}
	}
	if f.skipTo != "" {
		id, err := parseID("skip-to", f.skipTo)
		if err != nil {
			return err
		}
		if err := a.SkipTo(uint64(id)); err != nil {
			return err
		}
	}
	return nil
}

// export writes every element of the traversal to w as one JSON line.
func export[T any](ctx context.Context, w io.Writer, a *pagination.Action[T], max int, logger zerolog.Logger) error {
	start := time.Now()
	enc := json.NewEncoder(w)
	n := 0

	for v, err := range a.Stream(ctx) {
		if err != nil {
			return fmt.Errorf("%s export failed after %d elements: %w", a.Name(), n, err)
		}
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("write element: %w", err)
		}
		n++
		if max > 0 && n >= max {
			break
		}
	}

	logger.Info().
		Str("endpoint", a.Name()).
		Str("traversal_id", a.ID()).
		Int("elements", n).
		Dur("duration", time.Since(start)).
		Msg("Export complete")
	return nil
}

func parseID(name, value string) (snowflake.ID, error) {
	id, err := snowflake.Parse(value)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s %q: want a numeric id", name, value)
	}
	return id, nil
}
