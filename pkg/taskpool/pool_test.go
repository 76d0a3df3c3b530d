package taskpool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/meridianchain/meridian/internal/metrics"
	apperrors "github.com/meridianchain/meridian/pkg/app/errors"
)

func newTestPool(t *testing.T, workers int) (*Pool, *metrics.PoolMetrics) {
	t.Helper()
	pm := metrics.NewPoolMetrics(prometheus.NewRegistry())
	pool, err := New(Config{Workers: workers, Metrics: pm})
	require.NoError(t, err)
	return pool, pm
}

func TestNewRejectsInvalidWorkerCount(t *testing.T) {
	_, err := New(Config{Workers: 0})
	require.Error(t, err)
	require.True(t, apperrors.Is(err, apperrors.CategoryRuntimeInit))

	_, err = New(Config{Workers: -4})
	require.Error(t, err)
	require.True(t, apperrors.Is(err, apperrors.CategoryRuntimeInit))
}

func TestPoolRunsTasks(t *testing.T) {
	pool, _ := newTestPool(t, 2)
	defer pool.Stop()

	done := make(chan struct{})
	pool.Spawn(func(ctx context.Context) {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
}

func TestThreadGaugesAcrossPoolCycles(t *testing.T) {
	pm := metrics.NewPoolMetrics(prometheus.NewRegistry())

	for cycle := 1; cycle <= 3; cycle++ {
		pool, err := New(Config{Workers: 4, Metrics: pm})
		require.NoError(t, err)

		// Workers register themselves asynchronously; wait for all of
		// them to come up before asserting.
		require.Eventually(t, func() bool {
			return testutil.ToFloat64(pm.ThreadsAlive) == 4
		}, 2*time.Second, 5*time.Millisecond)

		pool.Stop()

		require.Equal(t, float64(0), testutil.ToFloat64(pm.ThreadsAlive),
			"alive gauge must return to zero after Stop")
		require.Equal(t, float64(4*cycle), testutil.ToFloat64(pm.ThreadsTotal),
			"total counter is cumulative across cycles")
	}
}

func TestBlockingTaskDoesNotStallWorkers(t *testing.T) {
	// One shared worker: if the blocking task occupied it, the async
	// task could never run.
	pool, _ := newTestPool(t, 1)
	defer pool.Stop()

	d := NewDispatcher(pool)

	release := make(chan struct{})
	blockingStarted := make(chan struct{})
	d.Dispatch(func(ctx context.Context) {
		close(blockingStarted)
		<-release
	}, TaskTypeBlocking)

	select {
	case <-blockingStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("blocking task never started")
	}

	asyncDone := make(chan struct{})
	d.Dispatch(func(ctx context.Context) {
		close(asyncDone)
	}, TaskTypeAsync)

	select {
	case <-asyncDone:
	case <-time.After(2 * time.Second):
		t.Fatal("async task starved by a blocking task")
	}
	close(release)
}

func TestBlockingPanicIsIsolated(t *testing.T) {
	pool, _ := newTestPool(t, 2)
	defer pool.Stop()

	d := NewDispatcher(pool)
	d.Dispatch(func(ctx context.Context) {
		panic("boom")
	}, TaskTypeBlocking)

	// The dispatcher and the pool must survive the panic.
	done := make(chan struct{})
	d.Dispatch(func(ctx context.Context) {
		close(done)
	}, TaskTypeAsync)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool unusable after a blocking task panicked")
	}
}

func TestStopCancelsTaskContext(t *testing.T) {
	pool, _ := newTestPool(t, 2)

	var wg sync.WaitGroup
	wg.Add(1)
	canceled := make(chan struct{})
	pool.Spawn(func(ctx context.Context) {
		defer wg.Done()
		<-ctx.Done()
		close(canceled)
	})

	go pool.Stop()

	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Fatal("task context never canceled by Stop")
	}
	wg.Wait()
}

func TestSpawnAfterStopIsDropped(t *testing.T) {
	pool, _ := newTestPool(t, 1)
	pool.Stop()

	ran := make(chan struct{})
	pool.Spawn(func(ctx context.Context) {
		close(ran)
	})

	select {
	case <-ran:
		t.Fatal("task ran on a stopped pool")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFromContextInsidePoolTask(t *testing.T) {
	pool, _ := newTestPool(t, 1)
	defer pool.Stop()

	got := make(chan *Pool, 1)
	pool.Spawn(func(ctx context.Context) {
		got <- FromContext(ctx)
	})

	select {
	case p := <-got:
		require.Same(t, pool, p)
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}

	require.Nil(t, FromContext(context.Background()))
}
