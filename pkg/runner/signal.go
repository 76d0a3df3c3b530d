package runner

import (
	"errors"
	"os"
	"os/signal"
)

// interruptSource resolves once when the operating system asks the process
// to terminate.
type interruptSource interface {
	// Recv yields the first termination request.
	Recv() <-chan os.Signal

	// Close releases the signal registration.
	Close()
}

type interruptWatcher struct {
	ch chan os.Signal
}

// newInterruptWatcher installs the platform termination listeners. The
// signal set is platform-specific: SIGINT and SIGTERM where the host
// distinguishes them, the single interrupt notification elsewhere.
func newInterruptWatcher() (interruptSource, error) {
	sigs := interruptSignals()
	if len(sigs) == 0 {
		return nil, errors.New("no termination signals available on this platform")
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	return &interruptWatcher{ch: ch}, nil
}

func (w *interruptWatcher) Recv() <-chan os.Signal {
	return w.ch
}

func (w *interruptWatcher) Close() {
	signal.Stop(w.ch)
}
