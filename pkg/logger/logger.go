package logger

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"stockresearch/pkg/errors"
)

var (
	mu           sync.RWMutex
	globalLogger *Logger
)

// Logger wraps zap.SugaredLogger and forwards errors to the configured tracker
type Logger struct {
	*zap.SugaredLogger
	tracker errors.Tracker
}

// Init builds the global logger. env "production" selects JSON output,
// anything else a colored console encoder.
func Init(level string, env string) error {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	base, err := cfg.Build(
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		return errors.Wrap(err, "build zap logger")
	}

	Replace(base)
	return nil
}

// Replace installs base as the global logger, keeping the current tracker.
// Tests use it with zaptest/observer cores.
func Replace(base *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()

	var tracker errors.Tracker
	if globalLogger != nil {
		tracker = globalLogger.tracker
	}
	globalLogger = &Logger{SugaredLogger: base.Sugar(), tracker: tracker}
}

// SetErrorTracker sets the tracker used by Error, Errorf and ErrorWithContext
func SetErrorTracker(tracker errors.Tracker) {
	Get()
	mu.Lock()
	defer mu.Unlock()
	globalLogger.tracker = tracker
}

// Get returns the global logger, creating a development logger on first use
func Get() *Logger {
	mu.RLock()
	l := globalLogger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if globalLogger == nil {
		base, err := zap.NewDevelopment()
		if err != nil {
			base = zap.NewNop()
		}
		globalLogger = &Logger{SugaredLogger: base.Sugar()}
	}
	return globalLogger
}

// With creates a child logger with additional key/value fields
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(args...), tracker: l.tracker}
}

// WithFields creates a child logger from a field map
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return l.With(args...)
}

func (l *Logger) Error(args ...interface{}) {
	l.SugaredLogger.Error(args...)
	if l.tracker != nil {
		err := errors.Wrap(errors.ErrInternal, fmt.Sprint(args...))
		_ = l.tracker.CaptureError(context.Background(), err, map[string]string{"component": "logger"})
	}
}

func (l *Logger) Errorf(template string, args ...interface{}) {
	l.SugaredLogger.Errorf(template, args...)
	if l.tracker != nil {
		_ = l.tracker.CaptureError(context.Background(), fmt.Errorf(template, args...), map[string]string{"component": "logger"})
	}
}

// ErrorWithContext logs err and reports it with the given tags
func (l *Logger) ErrorWithContext(ctx context.Context, err error, tags map[string]string) {
	l.SugaredLogger.Errorw(err.Error(), "tags", tags)
	if l.tracker != nil {
		_ = l.tracker.CaptureError(ctx, err, tags)
	}
}

func Debug(args ...interface{})                   { Get().Debug(args...) }
func Debugf(template string, args ...interface{}) { Get().Debugf(template, args...) }
func Info(args ...interface{})                    { Get().Info(args...) }
func Infof(template string, args ...interface{})  { Get().Infof(template, args...) }
func Warn(args ...interface{})                    { Get().Warn(args...) }
func Warnf(template string, args ...interface{})  { Get().Warnf(template, args...) }
func Error(args ...interface{})                   { Get().Error(args...) }
func Errorf(template string, args ...interface{}) { Get().Errorf(template, args...) }
func Fatalf(template string, args ...interface{}) { Get().Fatalf(template, args...) }

// Sync flushes buffered entries
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}
