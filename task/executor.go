package task

import (
	"sync"

	"go.uber.org/zap"

	"github.com/simonhull/audiolib/internal/logger"
)

// Executor delivers task callbacks. A UI would hand in its event loop;
// the read itself never runs on an Executor.
type Executor interface {
	Execute(fn func())
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(fn func())

func (f ExecutorFunc) Execute(fn func()) { f(fn) }

// Immediate runs callbacks on the calling goroutine.
var Immediate Executor = ExecutorFunc(func(fn func()) { fn() })

// SerialExecutor runs callbacks one at a time, in submission order, on a
// goroutine of its own. Execute never blocks; the queue is unbounded.
type SerialExecutor struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

// NewSerialExecutor starts the delivery goroutine. Close stops it.
func NewSerialExecutor() *SerialExecutor {
	e := &SerialExecutor{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go e.loop()
	return e
}

// Execute queues fn. Callbacks queued after Close are dropped.
func (e *SerialExecutor) Execute(fn func()) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		logger.Debug("callback dropped: executor closed")
		return
	}
	e.queue = append(e.queue, fn)
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Close delivers the callbacks already queued and stops the executor.
func (e *SerialExecutor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		<-e.done
		return
	}
	e.closed = true
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
	<-e.done
}

func (e *SerialExecutor) loop() {
	defer close(e.done)
	for range e.wake {
		for {
			e.mu.Lock()
			if len(e.queue) == 0 {
				closed := e.closed
				e.mu.Unlock()
				if closed {
					return
				}
				break
			}
			fn := e.queue[0]
			e.queue[0] = nil
			e.queue = e.queue[1:]
			e.mu.Unlock()

			safeCall(fn)
		}
	}
}

// safeCall runs a callback, logging instead of propagating its panic.
func safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("task callback panicked", zap.Any("panic", r))
		}
	}()
	fn()
}
