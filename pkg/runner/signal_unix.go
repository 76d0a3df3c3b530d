//go:build unix

package runner

import (
	"os"
	"syscall"
)

// interruptSignals returns the termination requests raced on POSIX hosts.
func interruptSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM}
}
