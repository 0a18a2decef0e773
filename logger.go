package bgate

import (
	"log"
	"sync/atomic"
	"testing"
)

// Logger can be implemented to get informed about important states.
type Logger interface {
	LogUnhandledError(err error)
	LogCloseError(err error)
	LogImplicitFlushError(err error)
}

type stdLogger struct{ *log.Logger }

func (l stdLogger) LogUnhandledError(err error) {
	l.Logger.Printf("bgate: unhandled error: %s", err)
}

func (l stdLogger) LogCloseError(err error) {
	l.Logger.Printf("bgate: error while closing result: %s", err)
}

func (l stdLogger) LogImplicitFlushError(err error) {
	l.Logger.Printf("bgate: error while flushing implicitly: %s", err)
}

// NewStdLogger creates a logger that writes to a standard library logger. A nil logger writes to the default one.
func NewStdLogger(l *log.Logger) Logger {
	if l == nil {
		l = log.Default()
	}

	return stdLogger{l}
}

type TestLogger struct {
	tb testing.TB

	NumLogUnhandledError     int64
	NumLogCloseError         int64
	NumLogImplicitFlushError int64
}

func NewTestLogger(tb testing.TB) *TestLogger {
	return &TestLogger{tb: tb}
}

func (l *TestLogger) LogUnhandledError(err error) {
	atomic.AddInt64(&l.NumLogUnhandledError, 1)
	l.tb.Logf("bgate: unhandled error: %s", err)
}

func (l *TestLogger) LogCloseError(err error) {
	atomic.AddInt64(&l.NumLogCloseError, 1)
	l.tb.Logf("bgate: error while closing result: %s", err)
}

func (l *TestLogger) LogImplicitFlushError(err error) {
	atomic.AddInt64(&l.NumLogImplicitFlushError, 1)
	l.tb.Logf("bgate: error while flushing implicitly: %s", err)
}

var _ Logger = &TestLogger{}
