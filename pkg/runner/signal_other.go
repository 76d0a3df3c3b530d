//go:build !unix

package runner

import "os"

// interruptSignals returns the single interrupt notification available on
// hosts without distinguishable termination signals.
func interruptSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
