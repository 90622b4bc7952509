package task

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/simonhull/audiolib"
)

// Runner runs ReadTasks on a bounded pool of goroutines.
type Runner struct {
	ctx context.Context
	g   *errgroup.Group
}

// NewRunner returns a pool running at most workers tasks at once; values
// below 1 mean runtime.NumCPU(). Cancelling ctx cancels every task.
func NewRunner(ctx context.Context, workers int) *Runner {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	return &Runner{ctx: ctx, g: g}
}

// Submit schedules t and returns its Future. It blocks while the pool is
// full.
func (r *Runner) Submit(t *ReadTask) *Future {
	r.g.Go(func() error {
		_, _, _ = t.Run(r.ctx)
		return nil
	})
	return &Future{task: t}
}

// Wait blocks until every submitted task is terminal.
func (r *Runner) Wait() error {
	return r.g.Wait()
}

// Future is the pending outcome of a submitted task.
type Future struct {
	task *ReadTask
}

func (f *Future) Task() *ReadTask { return f.task }

// Cancel cancels the task.
func (f *Future) Cancel() { f.task.Cancel() }

// Wait blocks until the task is terminal or ctx is done. The result is
// partial when the task was cancelled or failed.
func (f *Future) Wait(ctx context.Context) (ok bool, result []*audiolib.Metadata, err error) {
	select {
	case <-f.task.Done():
	case <-ctx.Done():
		return false, nil, ctx.Err()
	}
	return f.task.State() == Succeeded, f.task.Result(), f.task.Err()
}
