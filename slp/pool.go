package slp

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool owns a fixed set of programs cloned from one master: shared
// immutable description, one scratch bank per worker. It exists for
// callers that evaluate many points concurrently (spread path tracking
// across cores) without each arranging its own cloning.
type Pool struct {
	programs chan *Program
	workers  int
}

// NewPool builds a pool of workers clones of master. workers <= 0 means
// one per CPU.
func NewPool(master *Program, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pl := &Pool{
		programs: make(chan *Program, workers),
		workers:  workers,
	}
	for i := 0; i < workers; i++ {
		pl.programs <- master.Clone()
	}
	return pl
}

// Get borrows a program from the pool, blocking until one is free. The
// caller must return it with Put.
func (pl *Pool) Get() *Program { return <-pl.programs }

// Put returns a borrowed program.
func (pl *Pool) Put(p *Program) { pl.programs <- p }

// EvalBatch evaluates the system at every point concurrently and returns
// the function values per point. times must be nil for programs without a
// path variable, and one value per point otherwise.
func (pl *Pool) EvalBatch(ctx context.Context, points [][]complex128, times []complex128) ([][]complex128, error) {
	if times != nil && len(times) != len(points) {
		return nil, fmt.Errorf("%w: %d points with %d time values",
			ErrShapeMismatch, len(points), len(times))
	}

	results := make([][]complex128, len(points))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(pl.workers)
	for i := range points {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := pl.Get()
			defer pl.Put(p)

			var err error
			if times != nil {
				err = p.EvalAt(points[i], times[i])
			} else {
				err = p.Eval(points[i])
			}
			if err != nil {
				return fmt.Errorf("point %d: %w", i, err)
			}
			results[i] = p.FunctionValues(nil)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
