package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/meridianchain/meridian/pkg/taskpool"
)

// directDispatcher runs every task on its own goroutine; enough scheduling
// for exercising the manager without a pool.
type directDispatcher struct{}

func (directDispatcher) Dispatch(task taskpool.Task, _ taskpool.TaskType) {
	go task(context.Background())
}

func newTestManager() *TaskManager {
	return NewTaskManager(directDispatcher{}, zap.NewNop())
}

func TestDoneFiresOnFirstTaskReturn(t *testing.T) {
	tm := newTestManager()

	release := make(chan struct{})
	tm.Spawn("long", taskpool.TaskTypeAsync, func(ctx context.Context) error {
		<-release
		return nil
	})
	tm.Spawn("short", taskpool.TaskTypeAsync, func(ctx context.Context) error {
		return nil
	})

	select {
	case <-tm.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done did not fire when a task finished")
	}
	if err := tm.Err(); err != nil {
		t.Fatalf("clean completion reported error: %v", err)
	}
	close(release)
}

func TestDoneFiresOnTaskFailure(t *testing.T) {
	tm := newTestManager()

	boom := errors.New("boom")
	tm.Spawn("failing", taskpool.TaskTypeAsync, func(ctx context.Context) error {
		return boom
	})

	select {
	case <-tm.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done did not fire when a task failed")
	}
	if !errors.Is(tm.Err(), boom) {
		t.Fatalf("Err() = %v, want %v", tm.Err(), boom)
	}
}

func TestTerminateCancelsTasksAndIsIdempotent(t *testing.T) {
	tm := newTestManager()

	canceled := make(chan struct{})
	tm.Spawn("waiter", taskpool.TaskTypeAsync, func(ctx context.Context) error {
		<-ctx.Done()
		close(canceled)
		return ctx.Err()
	})

	tm.Terminate()
	// Second call is a no-op, not a panic or an error.
	tm.Terminate()

	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Fatal("task never observed termination")
	}
}

func TestWaitTimesOutOnStuckTask(t *testing.T) {
	tm := newTestManager()

	release := make(chan struct{})
	defer close(release)
	tm.Spawn("stuck", taskpool.TaskTypeAsync, func(ctx context.Context) error {
		<-release
		return nil
	})

	if err := tm.Wait(20 * time.Millisecond); err == nil {
		t.Fatal("Wait should time out while a task is stuck")
	}
}

func TestWaitReturnsOnceTasksFinish(t *testing.T) {
	tm := newTestManager()

	tm.Spawn("quick", taskpool.TaskTypeAsync, func(ctx context.Context) error {
		return nil
	})

	if err := tm.Wait(2 * time.Second); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
}
