// Package panics centralizes panic recovery and fatal-exit handling so
// a crash inside an agent iteration is logged and contained, while a
// fatal startup failure is logged and turned into a clean process
// exit, instead of silently corrupting shared state.
package panics

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/btcsuite/btclog"
)

// Recover logs a panic value recovered by the caller without exiting
// the process. Used where a single unit of work (an agent iteration)
// must not be allowed to bring down the whole process.
func Recover(log btclog.Logger, recovered interface{}) {
	log.Errorf("recovered panic: %v", recovered)
	log.Errorf("Stack trace: %s", debug.Stack())
}

// Exit logs the given reason and terminates the process with a nonzero
// exit code. Used for fatal startup failures that leave the process
// with no useful work left to do.
func Exit(log btclog.Logger, reason string) {
	exitHandlerDone := make(chan struct{})
	go func() {
		log.Criticalf("Exiting: %s", reason)
		close(exitHandlerDone)
	}()

	const exitHandlerTimeout = 5 * time.Second
	select {
	case <-time.After(exitHandlerTimeout):
		fmt.Fprintln(os.Stderr, "couldn't exit gracefully")
	case <-exitHandlerDone:
	}
	os.Exit(1)
}
