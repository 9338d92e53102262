package signalhandler

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
)

// Signals are the signals that cancel a running command
var Signals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// Context returns a context cancelled on SIGINT or SIGTERM.
// The returned stop function restores default signal behaviour so a second
// interrupt terminates the process.
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, Signals...)
}

// GetOptimalProcs returns the optimal number of worker goroutines for the system
func GetOptimalProcs() int {
	return optimalProcs(runtime.NumCPU())
}

// ResolveWorkers maps a configured worker count to an effective one; 0 means automatic
func ResolveWorkers(configured int) int {
	if configured > 0 {
		return configured
	}
	return GetOptimalProcs()
}

func optimalProcs(numCPU int) int {
	// Decoders through cgo loaders get unstable with one goroutine per core.
	return max((numCPU*3)/4, 1)
}
