package logger

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	globalLogger *zap.Logger
	atomicLevel  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	mu           sync.RWMutex
)

// LogLevel is one of debug, info, warn, error.
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

// Config describes the console and optional rotating file outputs.
type Config struct {
	Level      LogLevel
	OutputPath string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

func parseLevel(l LogLevel) zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// InitLogger builds the global logger. Calling it again replaces the cores,
// which the server does after a config reload.
func InitLogger(config Config) error {
	atomicLevel.SetLevel(parseLevel(config.Level))

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(os.Stdout), atomicLevel),
	}

	if config.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputPath), 0755); err != nil {
			return err
		}
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   config.OutputPath,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileWriter, atomicLevel))
	}

	l := zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)

	mu.Lock()
	old := globalLogger
	globalLogger = l
	mu.Unlock()
	if old != nil {
		_ = old.Sync()
	}
	return nil
}

// SetLevel changes the level without rebuilding the cores.
func SetLevel(level LogLevel) {
	atomicLevel.SetLevel(parseLevel(level))
}

// Replace swaps in an arbitrary zap logger. Tests use it with zaptest/observer.
func Replace(l *zap.Logger) func() {
	mu.Lock()
	old := globalLogger
	globalLogger = l
	mu.Unlock()
	return func() {
		mu.Lock()
		globalLogger = old
		mu.Unlock()
	}
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// Sync flushes buffered entries.
func Sync() {
	if l := current(); l != nil {
		_ = l.Sync()
	}
}

func Debug(msg string, fields ...zap.Field) {
	if l := current(); l != nil {
		l.Debug(msg, fields...)
	}
}

func Info(msg string, fields ...zap.Field) {
	if l := current(); l != nil {
		l.Info(msg, fields...)
	}
}

func Warn(msg string, fields ...zap.Field) {
	if l := current(); l != nil {
		l.Warn(msg, fields...)
	}
}

func Error(msg string, fields ...zap.Field) {
	if l := current(); l != nil {
		l.Error(msg, fields...)
	}
}

// Fatal logs and exits. Without a logger it still exits.
func Fatal(msg string, fields ...zap.Field) {
	if l := current(); l != nil {
		l.Fatal(msg, fields...)
	}
	os.Exit(1)
}

func String(key string, val string) zap.Field {
	return zap.String(key, val)
}

func Int(key string, val int) zap.Field {
	return zap.Int(key, val)
}

func Int64(key string, val int64) zap.Field {
	return zap.Int64(key, val)
}

func Uint64(key string, val uint64) zap.Field {
	return zap.Uint64(key, val)
}

func Float64(key string, val float64) zap.Field {
	return zap.Float64(key, val)
}

func Bool(key string, val bool) zap.Field {
	return zap.Bool(key, val)
}

// ErrorField attaches err under the "error" key.
func ErrorField(err error) zap.Field {
	return zap.Error(err)
}

func Any(key string, val interface{}) zap.Field {
	return zap.Any(key, val)
}

func Duration(key string, val time.Duration) zap.Field {
	return zap.Duration(key, val)
}
