package taskpool

import "context"

// TaskType tags how a deferred operation must be scheduled.
type TaskType int

const (
	// TaskTypeAsync schedules latency-sensitive work directly onto the
	// shared workers.
	TaskTypeAsync TaskType = iota

	// TaskTypeBlocking routes work through the blocking bridge so it
	// runs on a dedicated thread.
	TaskTypeBlocking
)

func (t TaskType) String() string {
	switch t {
	case TaskTypeBlocking:
		return "blocking"
	default:
		return "async"
	}
}

// Dispatcher schedules deferred operations onto an execution pool.
type Dispatcher interface {
	Dispatch(task Task, taskType TaskType)
}

type poolDispatcher struct {
	pool *Pool
}

// NewDispatcher returns a Dispatcher backed by the given pool.
func NewDispatcher(pool *Pool) Dispatcher {
	return &poolDispatcher{pool: pool}
}

// Dispatch schedules a task. Blocking tasks take a double hop: an
// intermediary is spawned onto the pool and hands the task to the blocking
// bridge from there, resolving the owning pool through the task context.
// The intermediary only reflects scheduling; the blocking task's outcome is
// not observed.
func (d *poolDispatcher) Dispatch(task Task, taskType TaskType) {
	switch taskType {
	case TaskTypeBlocking:
		d.pool.Spawn(func(ctx context.Context) {
			pool := FromContext(ctx)
			if pool == nil {
				return
			}
			pool.SpawnBlocking(task)
		})
	default:
		d.pool.Spawn(task)
	}
}
