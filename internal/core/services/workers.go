package services

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Worker pool bounds.
const (
	DefaultConcurrency = 4
	MaxConcurrency     = 16
)

// clampConcurrency keeps n within [1, MaxConcurrency]; zero or less means the default.
func clampConcurrency(n int) int {
	switch {
	case n <= 0:
		return DefaultConcurrency
	case n > MaxConcurrency:
		return MaxConcurrency
	default:
		return n
	}
}

// mapOrdered applies fn to every item using at most concurrency goroutines.
// Results are returned in input order regardless of completion order.
// If ctx is cancelled, no new items are started and ctx.Err() is returned
// once in-flight items finish.
func mapOrdered[T, R any](
	ctx context.Context, items []T, concurrency int, fn func(ctx context.Context, i int, item T) R,
) ([]R, error) {
	results := make([]R, len(items))
	var g errgroup.Group
	g.SetLimit(clampConcurrency(concurrency))

	for i := range items {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = fn(ctx, i, items[i])
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}
