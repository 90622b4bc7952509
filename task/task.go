// Package task runs batch metadata reads in the background with
// cancellation, progress reporting and completion callbacks.
package task

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simonhull/audiolib"
	"github.com/simonhull/audiolib/internal/logger"
)

// State is the lifecycle position of a ReadTask.
type State int32

const (
	Ready State = iota
	Running
	Succeeded
	Cancelled
	Failed
)

var stateNames = [...]string{"ready", "running", "succeeded", "cancelled", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool { return s >= Succeeded }

// Progress counts the items handled so far. Completed includes the
// skipped ones.
type Progress struct {
	Completed int
	Total     int
	Skipped   int
}

// Fraction returns Completed/Total, or 1 for an empty batch.
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Completed) / float64(p.Total)
}

// ErrStarted is returned by Run on a task that already ran.
var ErrStarted = errors.New("task already started")

// ReadFunc reads one item. A nil or Empty result counts as skipped.
type ReadFunc func(ctx context.Context, item audiolib.Item) (*audiolib.Metadata, error)

// ReadTask reads a batch of items in order. A failed item is skipped and
// left out of the result; cancellation stops between items and keeps
// what was already read.
//
// Callbacks registered with OnProgress and OnDone run on the task's
// Executor, never on the goroutine doing the reads unless the executor
// is Immediate. Without WithExecutor each Run queues them on a
// SerialExecutor of its own, so a slow listener never holds up a read.
type ReadTask struct {
	id       uuid.UUID
	items    []audiolib.Item
	read     ReadFunc
	executor Executor
	queue    *SerialExecutor

	state     atomic.Int32
	cancelled atomic.Bool

	mu         sync.Mutex
	stop       context.CancelFunc
	progress   Progress
	result     []*audiolib.Metadata
	err        error
	onProgress []func(Progress)
	onDone     []func(ok bool, result []*audiolib.Metadata)
	done       chan struct{}
}

// Option configures a ReadTask.
type Option func(*ReadTask)

// WithExecutor sets where callbacks are delivered. The default is a
// per-run SerialExecutor.
func WithExecutor(e Executor) Option {
	return func(t *ReadTask) {
		if e != nil {
			t.executor = e
		}
	}
}

// WithReadOptions passes read options to audiolib.ReadFile.
func WithReadOptions(opts ...audiolib.Option) Option {
	return func(t *ReadTask) {
		t.read = fileReader(opts)
	}
}

// WithReadFunc replaces the per-item read.
func WithReadFunc(fn ReadFunc) Option {
	return func(t *ReadTask) {
		if fn != nil {
			t.read = fn
		}
	}
}

func fileReader(opts []audiolib.Option) ReadFunc {
	return func(ctx context.Context, item audiolib.Item) (*audiolib.Metadata, error) {
		if item.IsCorrupt() {
			return nil, audiolib.ErrCorruptItem
		}
		if !item.IsFileBased() {
			return nil, audiolib.ErrNotFileBased
		}
		return audiolib.ReadFile(ctx, item.File(), opts...)
	}
}

// NewReadTask returns a task in the Ready state over a copy of items.
func NewReadTask(items []audiolib.Item, opts ...Option) *ReadTask {
	t := &ReadTask{
		id:    uuid.New(),
		items: slices.Clone(items),
		read:  fileReader(nil),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.progress.Total = len(t.items)
	return t
}

func (t *ReadTask) ID() uuid.UUID { return t.id }

func (t *ReadTask) State() State { return State(t.state.Load()) }

// Progress returns a snapshot of the counters.
func (t *ReadTask) Progress() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

// Done is closed once the task reaches a terminal state.
func (t *ReadTask) Done() <-chan struct{} { return t.done }

// Result returns the metadata read so far.
func (t *ReadTask) Result() []*audiolib.Metadata {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.result)
}

// Err returns the failure of a Failed task.
func (t *ReadTask) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// OnProgress registers fn to receive progress after every item.
func (t *ReadTask) OnProgress(fn func(Progress)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onProgress = append(t.onProgress, fn)
}

// OnDone registers fn for the terminal transition; ok is true only for
// Succeeded. Registered on a finished task, fn is delivered right away.
func (t *ReadTask) OnDone(fn func(ok bool, result []*audiolib.Metadata)) {
	t.mu.Lock()
	if !t.State().Terminal() {
		t.onDone = append(t.onDone, fn)
		t.mu.Unlock()
		return
	}
	ok, result := t.State() == Succeeded, slices.Clone(t.result)
	t.mu.Unlock()
	exec := t.executor
	if exec == nil {
		exec = Immediate
	}
	exec.Execute(func() { safeCall(func() { fn(ok, result) }) })
}

// callbacks is the executor for deliveries made while running.
func (t *ReadTask) callbacks() Executor {
	if t.executor != nil {
		return t.executor
	}
	return t.queue
}

// Cancel asks the task to stop before its next item. A task cancelled
// before Run ends as Cancelled without reading.
func (t *ReadTask) Cancel() {
	t.cancelled.Store(true)
	t.mu.Lock()
	stop := t.stop
	t.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Run reads the items on the calling goroutine and returns once the task
// is terminal. The result holds every item read before a cancellation or
// failure.
func (t *ReadTask) Run(ctx context.Context) (ok bool, result []*audiolib.Metadata, err error) {
	if !t.state.CompareAndSwap(int32(Ready), int32(Running)) {
		return false, nil, ErrStarted
	}
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	t.mu.Lock()
	t.stop = stop
	t.mu.Unlock()
	if t.executor == nil {
		t.queue = NewSerialExecutor()
	}

	logger.Debug("read task started", zap.Stringer("task", t.id), zap.Int("items", len(t.items)))

	final := Succeeded
	func() {
		defer func() {
			if r := recover(); r != nil {
				final = Failed
				err = fmt.Errorf("read task %s: %v", t.id, r)
			}
		}()
		for _, item := range t.items {
			if t.cancelled.Load() || ctx.Err() != nil {
				final = Cancelled
				return
			}
			t.readOne(ctx, item)
		}
	}()

	result = t.finish(final, err)
	return final == Succeeded, result, err
}

func (t *ReadTask) readOne(ctx context.Context, item audiolib.Item) {
	m, err := t.read(ctx, item)
	skipped := err != nil || m == nil || m.IsEmpty()
	if err != nil {
		logger.Debug("item skipped", zap.Stringer("task", t.id), zap.String("uri", item.URI()), zap.Error(err))
	}

	t.mu.Lock()
	if skipped {
		t.progress.Skipped++
	} else {
		t.result = append(t.result, m)
	}
	t.progress.Completed++
	p := t.progress
	listeners := slices.Clone(t.onProgress)
	t.mu.Unlock()

	for _, fn := range listeners {
		t.callbacks().Execute(func() { safeCall(func() { fn(p) }) })
	}
}

// finish records the terminal state and delivers OnDone callbacks.
func (t *ReadTask) finish(final State, err error) []*audiolib.Metadata {
	t.mu.Lock()
	t.state.Store(int32(final))
	t.err = err
	t.stop = nil
	result := slices.Clone(t.result)
	listeners := t.onDone
	t.onDone = nil
	p := t.progress
	t.mu.Unlock()
	close(t.done)

	logger.Debug("read task finished",
		zap.Stringer("task", t.id),
		zap.Stringer("state", final),
		zap.Int("read", len(result)),
		zap.Int("skipped", p.Skipped),
	)

	ok := final == Succeeded
	exec := t.callbacks()
	for _, fn := range listeners {
		exec.Execute(func() { safeCall(func() { fn(ok, slices.Clone(result)) }) })
	}
	if t.queue != nil {
		// Close waits for the queued callbacks; the reader does not.
		go t.queue.Close()
	}
	return result
}
