// Package logger provides the subsystem-tagged, rotated logging backend
// shared by the orchestrator and every agent process.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
)

// logWriter fans writes out to stdout and the rotating log file. Writes
// are no-ops before InitLogRotator has run.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	if rotatorInstance != nil {
		os.Stdout.Write(p)
		rotatorInstance.Write(p)
	}
	return len(p), nil
}

var (
	// rotatorInstance is the on-disk log rotation target. Nil until
	// InitLogRotator is called.
	rotatorInstance *rotator.Rotator

	backend = btclog.NewBackend(logWriter{})

	orchLog = backend.Logger("ORCH")
	agntLog = backend.Logger("AGNT")
	minrLog = backend.Logger("MINR")
	userLog = backend.Logger("USER")
	distLog = backend.Logger("DIST")
	discLog = backend.Logger("DISC")
	planLog = backend.Logger("PLAN")
	topoLog = backend.Logger("TOPO")
	ipalLog = backend.Logger("IPAL")
	sstoLog = backend.Logger("SSTO")
	rpccLog = backend.Logger("RPCC")
)

// SubsystemTags enumerates every known logging subsystem.
var SubsystemTags = struct {
	ORCH, AGNT, MINR, USER, DIST, DISC, PLAN, TOPO, IPAL, SSTO, RPCC string
}{
	ORCH: "ORCH", AGNT: "AGNT", MINR: "MINR", USER: "USER", DIST: "DIST",
	DISC: "DISC", PLAN: "PLAN", TOPO: "TOPO", IPAL: "IPAL", SSTO: "SSTO",
	RPCC: "RPCC",
}

var subsystemLoggers = map[string]btclog.Logger{
	SubsystemTags.ORCH: orchLog,
	SubsystemTags.AGNT: agntLog,
	SubsystemTags.MINR: minrLog,
	SubsystemTags.USER: userLog,
	SubsystemTags.DIST: distLog,
	SubsystemTags.DISC: discLog,
	SubsystemTags.PLAN: planLog,
	SubsystemTags.TOPO: topoLog,
	SubsystemTags.IPAL: ipalLog,
	SubsystemTags.SSTO: sstoLog,
	SubsystemTags.RPCC: rpccLog,
}

// InitLogRotator initializes the rotating log file target. Must be
// called once during process startup before any subsystem logger is
// used for anything other than Disabled-level output.
func InitLogRotator(logFile string) error {
	logDir, _ := filepath.Split(logFile)
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0700); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}
	rotatorInstance = r
	return nil
}

// Writer exposes the process-wide log writer for callers (such as the
// standard library's log package, used by third-party dependencies)
// that want to share the same sink.
func Writer() io.Writer {
	return logWriter{}
}

// Get returns the logger registered for the given subsystem tag.
func Get(tag string) (btclog.Logger, bool) {
	l, ok := subsystemLoggers[tag]
	return l, ok
}

// SetLogLevel sets the logging level for the given subsystem. Unknown
// subsystems are ignored.
func SetLogLevel(subsystemID, logLevel string) {
	l, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}
	level, ok := btclog.LevelFromString(logLevel)
	if !ok {
		level = btclog.LevelInfo
	}
	l.SetLevel(level)
}

// SetLogLevels sets every subsystem logger to the given level.
func SetLogLevels(logLevel string) {
	for subsystemID := range subsystemLoggers {
		SetLogLevel(subsystemID, logLevel)
	}
}

// SupportedSubsystems returns the sorted list of subsystem tags.
func SupportedSubsystems() []string {
	tags := make([]string, 0, len(subsystemLoggers))
	for tag := range subsystemLoggers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func validLogLevel(logLevel string) bool {
	_, ok := btclog.LevelFromString(logLevel)
	return ok
}

// ParseAndSetDebugLevels parses a debug level specifier, either a bare
// level ("info") applied to every subsystem, or a comma-separated list
// of subsystem=level pairs ("ORCH=debug,MINR=trace").
func ParseAndSetDebugLevels(debugLevel string) error {
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		if !validLogLevel(debugLevel) {
			return fmt.Errorf("the specified debug level [%s] is invalid", debugLevel)
		}
		SetLogLevels(debugLevel)
		return nil
	}

	for _, pair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(pair, "=") {
			return fmt.Errorf("the specified debug level contains an invalid subsystem/level pair [%s]", pair)
		}
		fields := strings.SplitN(pair, "=", 2)
		subsysID, logLevel := fields[0], fields[1]

		if _, exists := Get(subsysID); !exists {
			return fmt.Errorf("the specified subsystem [%s] is invalid -- supported subsystems %s",
				subsysID, strings.Join(SupportedSubsystems(), ", "))
		}
		if !validLogLevel(logLevel) {
			return fmt.Errorf("the specified debug level [%s] is invalid", logLevel)
		}
		SetLogLevel(subsysID, logLevel)
	}
	return nil
}
