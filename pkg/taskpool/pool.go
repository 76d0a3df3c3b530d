// Package taskpool implements the execution pool shared by a node's
// background tasks and the dispatcher that schedules work onto it.
package taskpool

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/meridianchain/meridian/internal/metrics"
	apperrors "github.com/meridianchain/meridian/pkg/app/errors"
)

// Task is the unit of deferred work. The context is canceled when the pool
// shuts down; tasks observe it cooperatively.
type Task func(ctx context.Context)

// Config holds execution pool construction options.
type Config struct {
	// Workers is the number of cooperative worker goroutines. Must be
	// positive.
	Workers int

	// Metrics receives the worker start/stop hooks. Defaults to the
	// process-wide set.
	Metrics *metrics.PoolMetrics

	Logger *zap.Logger
}

// Pool is a multi-worker cooperative scheduler. Latency-sensitive tasks run
// on the shared workers; blocking tasks are bridged onto dedicated threads
// so they can never stall a worker slot.
type Pool struct {
	workers int
	queue   chan Task
	taskCtx context.Context
	cancel  context.CancelFunc
	metrics *metrics.PoolMetrics
	logger  *zap.Logger

	wg         sync.WaitGroup // shared workers
	blockingWG sync.WaitGroup // dedicated blocking threads
	overflowWG sync.WaitGroup // queue overflow tasks

	mu       sync.RWMutex
	closed   bool
	stopOnce sync.Once
}

// New builds a pool and starts its workers. Fails with a RuntimeInit error
// when the requested worker count cannot be satisfied.
func New(cfg Config) (*Pool, error) {
	if cfg.Workers <= 0 {
		return nil, apperrors.RuntimeInitError(
			fmt.Errorf("invalid worker count %d", cfg.Workers))
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		workers: cfg.Workers,
		queue:   make(chan Task, cfg.Workers*64),
		cancel:  cancel,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
	p.taskCtx = withPool(ctx, p)

	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p, nil
}

// WorkerCount returns the number of shared workers.
func (p *Pool) WorkerCount() int {
	return p.workers
}

// Spawn schedules a task onto the shared workers. Tasks submitted after
// Stop are dropped. When the queue is saturated the task runs on its own
// goroutine instead of blocking the caller.
func (p *Pool) Spawn(task Task) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Debug("task rejected: pool stopped")
		return
	}
	select {
	case p.queue <- task:
	default:
		p.overflowWG.Add(1)
		go func() {
			defer p.overflowWG.Done()
			p.runTask(p.taskCtx, task)
		}()
	}
}

// SpawnBlocking runs a task to completion on a dedicated OS thread. The
// thread is never shared with the cooperative workers, so the task may
// block freely. Fire-and-forget: the task's outcome is not reported back.
func (p *Pool) SpawnBlocking(task Task) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Debug("blocking task rejected: pool stopped")
		return
	}
	p.blockingWG.Add(1)
	go func() {
		defer p.blockingWG.Done()
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		p.runTask(p.taskCtx, task)
	}()
}

// Stop cancels the task context, drains the workers and joins every thread
// the pool ever started, including blocking ones. Idempotent.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.cancel()
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()

		p.wg.Wait()
		p.blockingWG.Wait()
		p.overflowWG.Wait()
	})
}

func (p *Pool) worker() {
	p.metrics.ThreadsAlive.Inc()
	p.metrics.ThreadsTotal.Inc()
	defer func() {
		p.metrics.ThreadsAlive.Dec()
		p.wg.Done()
	}()

	for task := range p.queue {
		p.runTask(p.taskCtx, task)
	}
}

// runTask executes a task, isolating panics so one misbehaving task cannot
// take down the scheduler.
func (p *Pool) runTask(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked",
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()
	task(ctx)
}

type poolKeyType struct{}

var poolKey poolKeyType

func withPool(ctx context.Context, p *Pool) context.Context {
	return context.WithValue(ctx, poolKey, p)
}

// FromContext returns the pool a task is running on, or nil when the
// context does not belong to a pool task.
func FromContext(ctx context.Context) *Pool {
	if v := ctx.Value(poolKey); v != nil {
		return v.(*Pool)
	}
	return nil
}
