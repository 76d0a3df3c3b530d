package runner

import (
	"context"
	"sync"
	"sync/atomic"

	apperrors "github.com/meridianchain/meridian/pkg/app/errors"
	"github.com/meridianchain/meridian/pkg/taskpool"
)

// ErrFutureDone is returned when a completed future is awaited again.
var ErrFutureDone = apperrors.InvalidInputError(nil, "future already completed")

// Future is a fused one-shot asynchronous computation. Once it has reported
// completion it is never run or awaited again, and discarding it mid-flight
// cancels its context; the computation must tolerate that.
type Future struct {
	fn     func(ctx context.Context) error
	result chan error

	started atomic.Bool
	done    atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewFuture wraps fn. The computation does not run until the future is
// started by a Runner invocation (or Await).
func NewFuture(fn func(ctx context.Context) error) *Future {
	return &Future{
		fn:     fn,
		result: make(chan error, 1),
	}
}

// start launches the computation through d on the execution pool.
// Subsequent calls are no-ops.
func (f *Future) start(d taskpool.Dispatcher) {
	if !f.started.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	f.mu.Lock()
	f.cancel = cancel
	f.mu.Unlock()

	d.Dispatch(func(poolCtx context.Context) {
		runCtx, runCancel := context.WithCancel(ctx)
		defer runCancel()
		stop := context.AfterFunc(poolCtx, runCancel)
		defer stop()

		f.result <- f.fn(runCtx)
	}, taskpool.TaskTypeAsync)
}

// Result delivers the computation's outcome exactly once.
func (f *Future) Result() <-chan error {
	return f.result
}

// Discard abandons the computation. Its context is canceled and its result
// will never be observed; cancellation is cooperative, nothing is
// preempted.
func (f *Future) Discard() {
	f.done.Store(true)
	f.mu.Lock()
	cancel := f.cancel
	f.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// markDone records completion so any further Await is rejected.
func (f *Future) markDone() {
	f.done.Store(true)
}

// Await starts the computation through d and blocks for its result. A
// future that already completed (or was discarded) reports ErrFutureDone
// instead of running again.
func (f *Future) Await(ctx context.Context, d taskpool.Dispatcher) error {
	if f.done.Load() {
		return ErrFutureDone
	}
	f.start(d)
	select {
	case err := <-f.result:
		f.done.Store(true)
		return err
	case <-ctx.Done():
		f.Discard()
		return ctx.Err()
	}
}
