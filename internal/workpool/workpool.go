// Package workpool provides a small bounded-parallelism fan-out helper
// for the read-only, per-item batches spec.md §5 allows to run
// concurrently: predicate evaluation, quality-record recomputation, and
// winding-number summation. It is grounded on the teacher's
// render/march3.go evaluation pool (a fixed worker count draining a
// shared request channel), generalized to propagate the first error
// through golang.org/x/sync/errgroup instead of silently swallowing it,
// since our predicates can report a structured error where SDF sampling
// cannot fail.
package workpool

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers returns a worker count for a job of size n: the number of
// logical CPUs, capped by n so small batches never over-subscribe.
func Workers(n int) int {
	w := runtime.NumCPU()
	if w < 1 {
		w = 1
	}
	if n > 0 && w > n {
		w = n
	}
	return w
}

// Each runs fn(i) for every i in [0, n) across up to `workers` goroutines,
// returning the first error any call returns (errgroup semantics: the
// group's context is cancelled on first error, and Each still waits for
// every in-flight call to finish before returning). Safe to call with
// workers <= 0, which falls back to Workers(n).
func Each(ctx context.Context, workers, n int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = Workers(n)
	}

	g, gctx := errgroup.WithContext(ctx)
	items := make(chan int)

	g.Go(func() error {
		defer close(items)
		for i := 0; i < n; i++ {
			select {
			case items <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range items {
				if err := fn(gctx, i); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}
