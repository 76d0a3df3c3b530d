package runner

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInterruptWatcherRegistersAndReleases(t *testing.T) {
	w, err := newInterruptWatcher()
	require.NoError(t, err)
	require.NotNil(t, w)

	select {
	case sig := <-w.Recv():
		t.Fatalf("unexpected signal before any was sent: %v", sig)
	default:
	}

	// Close releases the registration; a second Close would be a bug in
	// the caller, Close itself must not panic.
	w.Close()
}

func TestInterruptSignalsNonEmpty(t *testing.T) {
	require.NotEmpty(t, interruptSignals())
}
