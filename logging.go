// logging.go - structured logging wiring for the reactor package.
//
// Package-level configuration, same shape as the teacher's eventloop
// logging.go: a package-global logger, defaulting to a no-op, replaceable
// via SetLogger. Unlike the teacher's hand-rolled Logger interface,
// the default backend here is github.com/joeycumines/logiface over
// github.com/joeycumines/stumpy, so structured fields and levels come
// from a real logging library rather than a bespoke LogEntry type.
package reactor

import (
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logging interface the reactor uses to report
// swallowed callback failures (hook, timer, and transport read/write/close
// panics); state transitions and transport evictions are not logged. Kept deliberately narrow (debug/info/warn/error) so
// alternative backends are trivial to plug in via SetLogger.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(err error, format string, args ...any)
}

var globalLogger struct {
	sync.RWMutex
	logger Logger
}

// SetLogger installs the package-wide logger used by every [Reactor]
// created after the call. Each reactor captures the logger once, at
// construction, so reactors that already exist keep the logger they had.
func SetLogger(l Logger) {
	globalLogger.Lock()
	defer globalLogger.Unlock()
	globalLogger.logger = l
}

func getLogger() Logger {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	if globalLogger.logger != nil {
		return globalLogger.logger
	}
	return noopLogger{}
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any)         {}
func (noopLogger) Infof(string, ...any)          {}
func (noopLogger) Warnf(string, ...any)          {}
func (noopLogger) Errorf(error, string, ...any) {}

// stumpyLogger adapts a *logiface.Logger[*stumpy.Event] to [Logger].
type stumpyLogger struct {
	l *logiface.Logger[*stumpy.Event]
}

// NewDefaultLogger builds the reactor package's default structured logger:
// a stumpy-backed logiface.Logger writing newline-delimited JSON to
// os.Stderr (stumpy's own default writer).
func NewDefaultLogger() Logger {
	return &stumpyLogger{
		l: stumpy.L.New(stumpy.L.WithStumpy()),
	}
}

func (s *stumpyLogger) Debugf(format string, args ...any) {
	s.l.Debug().Logf(format, args...)
}

func (s *stumpyLogger) Infof(format string, args ...any) {
	s.l.Info().Logf(format, args...)
}

func (s *stumpyLogger) Warnf(format string, args ...any) {
	s.l.Warning().Logf(format, args...)
}

func (s *stumpyLogger) Errorf(err error, format string, args ...any) {
	s.l.Err().Err(err).Logf(format, args...)
}
