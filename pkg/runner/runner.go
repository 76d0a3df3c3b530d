// Package runner supervises a node process or a bounded subcommand: it
// owns the execution pool, races the primary operation against OS
// termination requests and guarantees that background tasks are asked to
// stop before control returns, on every exit path.
package runner

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/meridianchain/meridian/pkg/app/errors"
	"github.com/meridianchain/meridian/pkg/commands"
	"github.com/meridianchain/meridian/pkg/config"
	"github.com/meridianchain/meridian/pkg/service"
	"github.com/meridianchain/meridian/pkg/taskpool"
)

// AppInfo identifies the node implementation in the startup banner.
type AppInfo struct {
	Name           string
	Version        string
	Author         string
	CopyrightStart int

	// RuntimeID names the native runtime the node executes.
	RuntimeID string
}

// TaskManager is the lifecycle view of a background-task owner: an
// aggregate completion signal plus the cancellation trigger. Done fires as
// soon as any owned task finishes or fails; Terminate must be idempotent.
type TaskManager interface {
	Done() <-chan struct{}
	Err() error
	Terminate()
}

// BuiltService bundles the resources a builder assembles for an
// asynchronous subcommand. Each subcommand consumes its own subset.
type BuiltService struct {
	Client      service.Client
	Backend     service.Backend
	ImportQueue service.ImportQueue
	TaskManager TaskManager
}

// Builder assembles the node resources for a subcommand invocation.
type Builder func(cfg *config.Config, d taskpool.Dispatcher) (BuiltService, error)

// Initializer starts a node's background services and returns the manager
// owning them.
type Initializer func(cfg *config.Config, d taskpool.Dispatcher) (TaskManager, error)

// Runner drives exactly one invocation. It owns the execution pool and the
// resolved configuration; every invocation mode consumes it, and a consumed
// Runner rejects further use.
type Runner struct {
	info       AppInfo
	cfg        *config.Config
	pool       *taskpool.Pool
	dispatcher taskpool.Dispatcher
	logger     *zap.Logger

	watch    func() (interruptSource, error)
	consumed atomic.Bool
}

// New builds a Runner and its execution pool.
func New(info AppInfo, cfg *config.Config, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := taskpool.New(taskpool.Config{
		Workers: cfg.EffectiveWorkers(),
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	return &Runner{
		info:       info,
		cfg:        cfg,
		pool:       pool,
		dispatcher: taskpool.NewDispatcher(pool),
		logger:     logger,
		watch:      newInterruptWatcher,
	}, nil
}

// Config exposes the configuration for inspection or mutation before an
// invocation mode consumes the Runner.
func (r *Runner) Config() *config.Config {
	return r.cfg
}

// Dispatcher exposes the task dispatcher backed by the Runner's pool.
func (r *Runner) Dispatcher() taskpool.Dispatcher {
	return r.dispatcher
}

func (r *Runner) consume() error {
	if !r.consumed.CompareAndSwap(false, true) {
		return apperrors.ConsumedError("runner already consumed")
	}
	return nil
}

// RunSubcommand routes a subcommand. Synchronous variants (build-spec,
// purge-chain) run directly and never invoke the builder or schedule work.
// Asynchronous variants invoke the builder exactly once, supervise the
// subcommand's operation and terminate its task manager before returning.
func (r *Runner) RunSubcommand(sub commands.Subcommand, builder Builder) error {
	if err := r.consume(); err != nil {
		return err
	}
	defer r.pool.Stop()

	switch cmd := sub.(type) {
	case *commands.BuildSpec:
		return cmd.Run(r.cfg.Spec, r.cfg.Network)
	case *commands.PurgeChain:
		return cmd.Run(r.cfg.Database, r.cfg.DatabasePath())
	case *commands.ExportBlocks:
		svc, err := builder(r.cfg, r.dispatcher)
		if err != nil {
			return err
		}
		fut := NewFuture(func(ctx context.Context) error {
			return cmd.Run(ctx, svc.Client, r.cfg.Database)
		})
		return r.runUntilExit(fut, svc.TaskManager)
	case *commands.ImportBlocks:
		svc, err := builder(r.cfg, r.dispatcher)
		if err != nil {
			return err
		}
		fut := NewFuture(func(ctx context.Context) error {
			return cmd.Run(ctx, svc.Client, svc.ImportQueue)
		})
		return r.runUntilExit(fut, svc.TaskManager)
	case *commands.CheckBlock:
		svc, err := builder(r.cfg, r.dispatcher)
		if err != nil {
			return err
		}
		fut := NewFuture(func(ctx context.Context) error {
			return cmd.Run(ctx, svc.Client, svc.ImportQueue)
		})
		return r.runUntilExit(fut, svc.TaskManager)
	case *commands.Revert:
		svc, err := builder(r.cfg, r.dispatcher)
		if err != nil {
			return err
		}
		fut := NewFuture(func(ctx context.Context) error {
			return cmd.Run(ctx, svc.Client, svc.Backend)
		})
		return r.runUntilExit(fut, svc.TaskManager)
	case *commands.ExportState:
		svc, err := builder(r.cfg, r.dispatcher)
		if err != nil {
			return err
		}
		fut := NewFuture(func(ctx context.Context) error {
			return cmd.Run(ctx, svc.Client, r.cfg.Spec)
		})
		return r.runUntilExit(fut, svc.TaskManager)
	default:
		return apperrors.InvalidInputError(nil,
			fmt.Sprintf("unknown subcommand %T", sub))
	}
}

// RunNodeUntilExit logs the startup banner, initializes the node and
// supervises its task manager until a task finishes or the process is
// interrupted.
func (r *Runner) RunNodeUntilExit(initialize Initializer) error {
	if err := r.consume(); err != nil {
		return err
	}
	defer r.pool.Stop()

	r.printNodeInfos()

	tm, err := initialize(r.cfg, r.dispatcher)
	if err != nil {
		return err
	}

	fut := NewFuture(func(ctx context.Context) error {
		select {
		case <-tm.Done():
			return tm.Err()
		case <-ctx.Done():
			return nil
		}
	})
	return r.runUntilExit(fut, tm)
}

// SyncRun runs a synchronous function with the configuration. No work is
// scheduled on the pool.
func (r *Runner) SyncRun(fn func(cfg *config.Config) error) error {
	if err := r.consume(); err != nil {
		return err
	}
	defer r.pool.Stop()
	return fn(r.cfg)
}

// AsyncRun obtains an operation and its task manager from fn and supervises
// them like an asynchronous subcommand.
func (r *Runner) AsyncRun(fn func(cfg *config.Config, d taskpool.Dispatcher) (*Future, TaskManager, error)) error {
	if err := r.consume(); err != nil {
		return err
	}
	defer r.pool.Stop()

	fut, tm, err := fn(r.cfg, r.dispatcher)
	if err != nil {
		return err
	}
	return r.runUntilExit(fut, tm)
}

// runUntilExit races the primary operation against the interrupt watcher,
// then unconditionally terminates the task manager. The pool is released by
// the invocation mode's deferred Stop, strictly after termination.
func (r *Runner) runUntilExit(fut *Future, tm TaskManager) error {
	raceErr := r.race(fut)
	tm.Terminate()
	return raceErr
}

// race resolves with nil when the interrupt arrives first, discarding the
// primary; otherwise it surfaces the primary's own result.
func (r *Runner) race(fut *Future) error {
	watcher, err := r.watch()
	if err != nil {
		return apperrors.SignalRegistrationError(err)
	}
	defer watcher.Close()

	fut.start(r.dispatcher)
	select {
	case sig := <-watcher.Recv():
		r.logger.Info("received termination request, shutting down",
			zap.String("signal", fmt.Sprint(sig)))
		fut.Discard()
		return nil
	case err := <-fut.Result():
		fut.markDone()
		if err != nil {
			return apperrors.PrimaryError(err)
		}
		return nil
	}
}

// printNodeInfos writes the fixed-order startup banner.
func (r *Runner) printNodeInfos() {
	log := r.logger
	log.Info(r.info.Name)
	log.Info(fmt.Sprintf("version %s", r.info.Version))
	log.Info(fmt.Sprintf("by %s, %d-%d",
		r.info.Author, r.info.CopyrightStart, time.Now().Year()))
	log.Info(fmt.Sprintf("Chain specification: %s", r.cfg.Spec.Name))
	log.Info(fmt.Sprintf("Node name: %s", r.cfg.Network.NodeName))
	log.Info(fmt.Sprintf("Role: %s", strings.ToUpper(r.cfg.Role)))
	log.Info(fmt.Sprintf("Database: %s at %s",
		r.cfg.Database.Kind, r.cfg.DatabasePath()))
	log.Info(fmt.Sprintf("Native runtime: %s", r.info.RuntimeID))
}
