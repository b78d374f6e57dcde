package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log = zap.NewNop().Sugar()

// Init installs a JSON production logger at info level.
func Init() {
	InitWithLevel("info")
}

// InitWithLevel installs a JSON production logger at the given level.
// Unknown levels fall back to info.
func InitWithLevel(level string) {
	lvl := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl.SetLevel(zapcore.InfoLevel)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		l = zap.NewExample()
	}
	log = l.Sugar()
}

// New wraps an arbitrary core, mostly for tests.
func New(core zapcore.Core) *zap.SugaredLogger {
	return zap.New(core, zap.AddCallerSkip(1)).Sugar()
}

// Swap installs l and returns the previous logger.
func Swap(l *zap.SugaredLogger) *zap.SugaredLogger {
	prev := log
	log = l
	return prev
}

// L returns the current logger.
func L() *zap.SugaredLogger {
	return log
}

func Info(msg string, keysAndValues ...interface{}) {
	log.Infow(msg, keysAndValues...)
}

func Infof(format string, v ...interface{}) {
	log.Infof(format, v...)
}

func Warn(msg string, keysAndValues ...interface{}) {
	log.Warnw(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...interface{}) {
	log.Errorw(msg, keysAndValues...)
}

func Errorf(format string, v ...interface{}) {
	log.Errorf(format, v...)
}

func Debug(msg string, keysAndValues ...interface{}) {
	log.Debugw(msg, keysAndValues...)
}

func Debugf(format string, v ...interface{}) {
	log.Debugf(format, v...)
}

func Fatalf(format string, v ...interface{}) {
	log.Fatalf(format, v...)
}

// WithError returns a child logger carrying the error field.
func WithError(err error) *zap.SugaredLogger {
	return log.With("error", err)
}

// WithFields returns a child logger carrying every field of the map.
func WithFields(fields map[string]interface{}) *zap.SugaredLogger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return log.With(args...)
}

// Sync flushes buffered entries.
func Sync() {
	_ = log.Sync()
}
