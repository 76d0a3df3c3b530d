// Package service holds the collaborators a node implementation hands to
// the lifecycle layer: the task manager owning background work and the
// client/backend/import-queue contracts consumed by subcommands.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/meridianchain/meridian/pkg/taskpool"
)

// TaskManager owns a growing set of background tasks spawned by node code.
//
// Its aggregate signal short-circuits: Done fires as soon as any one owned
// task returns, successfully or not. Terminate requests cancellation of all
// owned tasks and is idempotent. A task that never observes cancellation
// can delay process exit indefinitely; the manager does not preempt.
type TaskManager struct {
	dispatcher taskpool.Dispatcher
	logger     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	done     chan struct{}
	doneOnce sync.Once

	mu       sync.Mutex
	firstErr error

	wg            sync.WaitGroup
	terminateOnce sync.Once
}

// NewTaskManager creates a manager scheduling its tasks through d.
func NewTaskManager(d taskpool.Dispatcher, logger *zap.Logger) *TaskManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TaskManager{
		dispatcher: d,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Spawn schedules fn as an owned background task. The context passed to fn
// is canceled by Terminate and by pool shutdown, whichever comes first.
func (tm *TaskManager) Spawn(name string, taskType taskpool.TaskType, fn func(ctx context.Context) error) {
	tm.wg.Add(1)
	tm.dispatcher.Dispatch(func(poolCtx context.Context) {
		defer tm.wg.Done()

		ctx, cancel := context.WithCancel(tm.ctx)
		defer cancel()
		stop := context.AfterFunc(poolCtx, cancel)
		defer stop()

		tm.finish(name, fn(ctx))
	}, taskType)
}

func (tm *TaskManager) finish(name string, err error) {
	if err != nil && tm.ctx.Err() == nil {
		tm.logger.Error("background task failed",
			zap.String("task", name), zap.Error(err))
	} else {
		tm.logger.Debug("background task finished", zap.String("task", name))
	}
	tm.doneOnce.Do(func() {
		tm.mu.Lock()
		tm.firstErr = err
		tm.mu.Unlock()
		close(tm.done)
	})
}

// Done fires when the first owned task returns.
func (tm *TaskManager) Done() <-chan struct{} {
	return tm.done
}

// Err reports the error of the task that fired Done, if any. Valid once
// Done has fired.
func (tm *TaskManager) Err() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.firstErr
}

// Terminate requests cancellation of all owned tasks. Safe to call more
// than once; only the first call has an effect.
func (tm *TaskManager) Terminate() {
	tm.terminateOnce.Do(func() {
		tm.logger.Debug("terminating background tasks")
		tm.cancel()
	})
}

// Wait blocks until every owned task has returned or the timeout elapses.
// No invocation mode calls this; it exists for callers that need drainage
// guarantees beyond what shutdown provides.
func (tm *TaskManager) Wait(timeout time.Duration) error {
	finished := make(chan struct{})
	go func() {
		tm.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("background tasks still running after %s", timeout)
	}
}
