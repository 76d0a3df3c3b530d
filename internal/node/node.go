// Package node wires a minimal in-memory node service: enough of a client,
// backend and import queue to drive the subcommands, plus the background
// tasks a running node keeps alive (metrics endpoint, sync loop).
package node

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/meridianchain/meridian/pkg/app/httpserver"
	"github.com/meridianchain/meridian/pkg/config"
	"github.com/meridianchain/meridian/pkg/runner"
	"github.com/meridianchain/meridian/pkg/service"
	"github.com/meridianchain/meridian/pkg/taskpool"
)

// NewBuilder returns the service builder used by asynchronous subcommands.
func NewBuilder(logger *zap.Logger) runner.Builder {
	return func(cfg *config.Config, d taskpool.Dispatcher) (runner.BuiltService, error) {
		store, err := openStore(cfg, logger)
		if err != nil {
			return runner.BuiltService{}, err
		}

		tm := service.NewTaskManager(d, logger)
		// The store compacts on its own schedule; subcommands only need
		// it kept alive until shutdown.
		tm.Spawn("store-housekeeping", taskpool.TaskTypeBlocking, func(ctx context.Context) error {
			return store.housekeep(ctx)
		})

		return runner.BuiltService{
			Client:      store,
			Backend:     store,
			ImportQueue: store,
			TaskManager: tm,
		}, nil
	}
}

// Initialize starts the node's background services and returns the task
// manager owning them.
func Initialize(logger *zap.Logger) runner.Initializer {
	return func(cfg *config.Config, d taskpool.Dispatcher) (runner.TaskManager, error) {
		store, err := openStore(cfg, logger)
		if err != nil {
			return nil, err
		}

		tm := service.NewTaskManager(d, logger)

		tm.Spawn("chain-sync", taskpool.TaskTypeBlocking, func(ctx context.Context) error {
			return syncLoop(ctx, store, logger)
		})

		if !cfg.Monitoring.Disabled {
			addr := cfg.Monitoring.MetricsAddr
			timeout, err := time.ParseDuration(cfg.Monitoring.ShutdownTimeout)
			if err != nil {
				timeout = 10 * time.Second
			}
			tm.Spawn("metrics-server", taskpool.TaskTypeAsync, func(ctx context.Context) error {
				return httpserver.ServeAndWait(ctx, logger, metricsServer(addr), timeout)
			})
		}

		return tm, nil
	}
}

func metricsServer(addr string) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	return &http.Server{Addr: addr, Handler: r}
}

// syncLoop is the node's primary background activity. Without networking
// it only advances the local chain clock; it still demonstrates a task
// that observes cancellation.
func syncLoop(ctx context.Context, store *memStore, logger *zap.Logger) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Debug("sync loop stopping")
			return nil
		case <-ticker.C:
			n := store.advance()
			logger.Debug("imported block", zap.Uint64("best", n))
		}
	}
}
