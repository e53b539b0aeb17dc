// Command monerosim is the orchestrator entrypoint: it loads a
// scenario file, builds the per-host launch manifest and registries
// it describes, and writes them to an output directory for the
// discrete-event simulator to consume.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/monerosim/monerosim/logger"
	"github.com/monerosim/monerosim/orchestrator"
)

// Exit codes: 0 success, 1 configuration/validation error, 2
// binary-validation error, 3 filesystem error.
const (
	exitOK              = 0
	exitConfigError     = 1
	exitBinaryError     = 2
	exitFilesystemError = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "monerosim: fatal error: %v\n%s\n", r, debug.Stack())
		}
	}()

	cfg, err := parseConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "monerosim: %s\n", err)
		return exitConfigError
	}

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = filepath.Join(cfg.OutputDir, "monerosim.log")
	}
	if err := logger.InitLogRotator(logFile); err != nil {
		fmt.Fprintf(os.Stderr, "monerosim: %s\n", err)
		return exitFilesystemError
	}
	if err := logger.ParseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		fmt.Fprintf(os.Stderr, "monerosim: %s\n", err)
		return exitConfigError
	}

	if err := orchestrator.Run(context.Background(), cfg.ScenarioPath, cfg.OutputDir); err != nil {
		fmt.Fprintf(os.Stderr, "monerosim: %s\n", err)
		var orchErr *orchestrator.Error
		if stderrors.As(err, &orchErr) {
			switch orchErr.Kind {
			case orchestrator.ErrKindBinary:
				return exitBinaryError
			case orchestrator.ErrKindFilesystem:
				return exitFilesystemError
			default:
				return exitConfigError
			}
		}
		return exitConfigError
	}

	return exitOK
}
