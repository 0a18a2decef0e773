package bgserve

import (
	"net/http"
	"time"

	"github.com/advdv/bgate"
	"github.com/felixge/httpsnoop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a zap logger configured from the environment.
// Uses JSON encoding with ISO8601 timestamps. BG_LOG_LEVEL controls the level (debug, info, warn, error).
func NewLogger(env Environment) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(env.logLevel())
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

type zapLogger struct{ *zap.Logger }

func (l zapLogger) LogUnhandledError(err error) {
	l.Logger.Error("unhandled error", zap.Error(err))
}

func (l zapLogger) LogCloseError(err error) {
	l.Logger.Error("error while closing result", zap.Error(err))
}

func (l zapLogger) LogImplicitFlushError(err error) {
	l.Logger.Error("error while flushing implicitly", zap.Error(err))
}

// NewGateLogger adapts a zap logger to the [bgate.Logger] interface.
func NewGateLogger(l *zap.Logger) bgate.Logger {
	return zapLogger{l.Named("bgate").Named("bgserve")}
}

// withAccessLog logs every request once it was served. Statuses for which isError returns true are logged at
// the error level.
func withAccessLog(logs *zap.Logger, isError func(int) bool) func(http.Handler) http.Handler {
	logs = logs.Named("access")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)

			level := zapcore.InfoLevel
			if isError(m.Code) {
				level = zapcore.ErrorLevel
			}

			logs.Log(level, "served request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", m.Code),
				zap.Int64("written", m.Written),
				zap.Duration("duration", m.Duration.Round(time.Microsecond)),
			)
		})
	}
}
