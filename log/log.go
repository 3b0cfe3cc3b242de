// Package log provides the engine's ambient structured logger.
//
// Core components never fail loudly across a tick boundary; instead of
// dropping absorbed errors silently, they report them through this package
// so a host application can route them to whatever sink it likes. The
// default sink is logrus's text formatter on stderr.
package log

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus entry so call sites can attach structured fields
// without importing logrus directly.
type Logger struct {
	entry *logrus.Entry
}

var (
	mu      sync.RWMutex
	root    = logrus.New()
	current = &Logger{entry: logrus.NewEntry(root)}
)

func init() {
	root.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Default returns the package-wide logger instance.
func Default() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// SetOutput lets a host application redirect the default logger's sink.
func SetOutput(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	current = l
}

// New builds a Logger scoped to a component name, e.g. log.New("event.bus").
func New(component string) *Logger {
	return &Logger{entry: logrus.NewEntry(root).WithField("component", component)}
}

// With returns a derived logger carrying an additional structured field.
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithError returns a derived logger carrying the given error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

func (l *Logger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }
