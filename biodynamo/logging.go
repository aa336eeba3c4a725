package biodynamo

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// Logger is the engine's diagnostic sink: recoverable-error notices
// (PositionNotAllowed retries, ConfigurationError auto-creation) and the
// single fatal-abort line spec.md §7 calls for when an InvariantViolation
// or ResourceExhaustion terminates a step.
type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	// WithTick returns a Logger whose lines are stamped with the given
	// simulation time, so messages emitted across a run's ticks can be
	// correlated back to when they happened (spec.md §5's per-tick loop).
	WithTick(tick float64) Logger
}

// DefaultLogger writes to stdout/stderr through the standard log package,
// gated by a mutex-guarded debug flag.
type DefaultLogger struct {
	mu      sync.Mutex
	debug   bool
	prefix  string
	tick    float64
	hasTick bool
	out     *log.Logger
	err     *log.Logger
}

// NewDefaultLogger builds a DefaultLogger with the given prefix and initial
// debug setting.
func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &DefaultLogger{
		debug:  debug,
		prefix: prefix,
		out:    log.New(os.Stdout, "", flags),
		err:    log.New(os.Stderr, "", flags),
	}
}

func (l *DefaultLogger) DebugEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debug
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.mu.Lock()
	l.debug = enabled
	l.mu.Unlock()
}

// WithTick returns a logger writing to the same streams with the same debug
// setting, but stamping every line with tick — the caller takes a fresh
// view once per tick and logs through it for that tick's duration.
func (l *DefaultLogger) WithTick(tick float64) Logger {
	return &DefaultLogger{
		debug:   l.DebugEnabled(),
		prefix:  l.prefix,
		tick:    tick,
		hasTick: true,
		out:     l.out,
		err:     l.err,
	}
}

func (l *DefaultLogger) prefixf(level, format string, args ...any) string {
	tag := l.prefix
	if l.hasTick {
		if tag != "" {
			tag = fmt.Sprintf("%s t=%g", tag, l.tick)
		} else {
			tag = fmt.Sprintf("t=%g", l.tick)
		}
	}
	if tag != "" {
		return fmt.Sprintf("[%s] %s: %s", tag, level, fmt.Sprintf(format, args...))
	}
	return fmt.Sprintf("%s: %s", level, fmt.Sprintf(format, args...))
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	l.mu.Lock()
	dbg := l.debug
	l.mu.Unlock()
	if !dbg {
		return
	}
	l.out.Print(l.prefixf("DEBUG", format, args...))
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.out.Print(l.prefixf("INFO", format, args...))
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.err.Print(l.prefixf("WARN", format, args...))
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.err.Print(l.prefixf("ERROR", format, args...))
}

type nopLogger struct{}

// NewNopLogger returns a Logger that discards everything, for tests and
// embedders that don't want engine diagnostics on stdout.
func NewNopLogger() Logger { return &nopLogger{} }

func (n *nopLogger) DebugEnabled() bool                { return false }
func (n *nopLogger) SetDebug(enabled bool)             {}
func (n *nopLogger) Debugf(format string, args ...any) {}
func (n *nopLogger) Infof(format string, args ...any)  {}
func (n *nopLogger) Warnf(format string, args ...any)  {}
func (n *nopLogger) Errorf(format string, args ...any) {}
func (n *nopLogger) WithTick(tick float64) Logger      { return n }

// Fatal logs a single diagnostic line naming the violated invariant and
// returns the wrapped error unchanged, so callers can `return logger.Fatal(...)`
// at the one abort point an InvariantViolation/ResourceExhaustion reaches
// (spec.md §7: "fatals terminate with a single line naming the invariant").
func Fatal(logger Logger, err error) error {
	if logger == nil {
		logger = NewNopLogger()
	}
	logger.Errorf("fatal: %v", err)
	return err
}
