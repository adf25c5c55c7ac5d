package concurrent

import (
	"context"
	"iter"

	"golang.org/x/sync/errgroup"
)

// Task is a long-running unit of work that stops when its context is done.
type Task func(ctx context.Context) error

// Run starts every task in its own goroutine and waits for all of them. The
// first task to fail cancels the context shared by the others; its error is
// returned.
func Run(ctx context.Context, tasks ...Task) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		if task == nil {
			continue
		}
		g.Go(func() error {
			return task(ctx)
		})
	}
	return g.Wait()
}

// EachLimit runs the action function for each element of the sequence in a
// separate goroutine, with at most limit actions in flight. A limit below one
// means no limit. It waits for all goroutines to finish and returns the first
// error encountered.
func EachLimit[T any](seq iter.Seq[T], limit int, action func(T) error) error {
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for value := range seq {
		g.Go(func() error {
			return action(value)
		})
	}
	return g.Wait()
}
