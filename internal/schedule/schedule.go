// Package schedule runs page-scale tasks with bounded parallelism while
// keeping results in submission order.
package schedule

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunBounded executes tasks with at most limit running concurrently and
// returns their results in submission order regardless of completion order.
// The first failure cancels the remaining tasks and fails the whole batch
// with no partial results. A context cancelled before a task starts rejects
// that task without invoking it.
func RunBounded[T any](ctx context.Context, limit int, tasks []func(context.Context) (T, error)) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 1
	}

	results := make([]T, len(tasks))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, task := range tasks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := task(ctx)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
