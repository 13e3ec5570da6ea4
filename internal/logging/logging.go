// Package logging provides structured logging with zap.
//
// The terminal belongs to the UI, so nothing is written unless Init is given
// an output file.
package logging

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger atomic.Pointer[zap.Logger]
	globalLevel  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Config holds logging configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	OutputPath string // file path; empty disables logging
}

// Init installs the global logger described by cfg.
func Init(cfg Config) error {
	if cfg.OutputPath == "" {
		Use(nil)
		return nil
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}
	globalLevel.SetLevel(level)

	var config zap.Config
	if cfg.Format == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}
	config.Level = globalLevel
	config.OutputPaths = []string{cfg.OutputPath}
	config.ErrorOutputPaths = []string{cfg.OutputPath}

	built, err := config.Build(
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		return err
	}

	Use(built)
	return nil
}

// Use replaces the global logger. A nil logger discards everything.
func Use(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	globalLogger.Store(l)
}

// Sync flushes any buffered log entries.
func Sync() error {
	if l := globalLogger.Load(); l != nil {
		return l.Sync()
	}
	return nil
}

func logger() *zap.Logger {
	if l := globalLogger.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

func Debug(msg string, fields ...zap.Field) {
	logger().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	logger().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	logger().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	logger().Error(msg, fields...)
}

// Field helpers for common fields.
func String(key, val string) zap.Field {
	return zap.String(key, val)
}

func Strings(key string, val []string) zap.Field {
	return zap.Strings(key, val)
}

func Int(key string, val int) zap.Field {
	return zap.Int(key, val)
}

func Uint64(key string, val uint64) zap.Field {
	return zap.Uint64(key, val)
}

func Bool(key string, val bool) zap.Field {
	return zap.Bool(key, val)
}

func Err(err error) zap.Field {
	return zap.Error(err)
}

func Duration(key string, val time.Duration) zap.Field {
	return zap.Duration(key, val)
}
