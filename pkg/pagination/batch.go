package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// BatchConfig holds the configuration of CollectAll.
type BatchConfig struct {
	// MaxConcurrency is the number of traversals drained in parallel.
	// Requests still go through the fetcher's own rate limiting.
	MaxConcurrency int
	// MaxPerTraversal caps the elements collected per traversal; 0 collects everything.
	MaxPerTraversal int
	// Timeout bounds each traversal; 0 means no timeout.
	Timeout time.Duration
}

// DefaultBatchConfig returns a conservative batch configuration.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxConcurrency: 4,
		Timeout:        5 * time.Minute,
	}
}

// BatchResult is the outcome of one traversal in CollectAll.
type BatchResult[T any] struct {
	Index    int
	Name     string
	Elements []T
	Err      error
}

// CollectAll drains independent traversals on a worker pool, each with
// ForEachRemaining. Results are indexed like actions. A failed traversal keeps
// what it collected; the returned error reports the first failure.
func CollectAll[T any](ctx context.Context, cfg BatchConfig, actions []*Action[T]) ([]BatchResult[T], error) {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	start := time.Now()
	results := make([]BatchResult[T], len(actions))
	if len(actions) == 0 {
		return results, nil
	}

	log.Info().
		Int("traversals", len(actions)).
		Int("workers", cfg.MaxConcurrency).
		Msg("Starting parallel collection")

	queue := make(chan int, len(actions))
	for i := range actions {
		queue <- i
	}
	close(queue)

	var wg sync.WaitGroup
	for w := 0; w < min(cfg.MaxConcurrency, len(actions)); w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			processed := 0
			for i := range queue {
				results[i] = collectOne(ctx, cfg, i, actions[i])
				processed++
			}
			log.Debug().
				Int("worker_id", workerID).
				Int("traversals_processed", processed).
				Msg("Worker completed")
		}(w)
	}
	wg.Wait()

	var firstErr error
	failed, total := 0, 0
	for _, r := range results {
		total += len(r.Elements)
		if r.Err != nil {
			failed++
			if firstErr == nil {
				firstErr = fmt.Errorf("%s (traversal %d): %w", r.Name, r.Index, r.Err)
			}
		}
	}

	event := log.Info()
	if failed > 0 {
		event = log.Warn().Int("failed", failed)
	}
	event.
		Int("traversals", len(actions)).
		Int("elements", total).
		Dur("duration", time.Since(start)).
		Msg("Collection complete")

	return results, firstErr
}

func collectOne[T any](ctx context.Context, cfg BatchConfig, index int, a *Action[T]) BatchResult[T] {
	result := BatchResult[T]{Index: index, Name: a.Name()}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	result.Err = a.ForEachRemaining(ctx, func(v T) bool {
		result.Elements = append(result.Elements, v)
		return cfg.MaxPerTraversal <= 0 || len(result.Elements) < cfg.MaxPerTraversal
	})
	return result
}
