package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures a ZapLogger.
type Options struct {
	// Verbose enables Verbose() output on every sink
	Verbose bool

	// Output receives console-formatted lines; defaults to os.Stderr
	Output io.Writer

	// File, when set, additionally receives JSON lines through a rotating writer
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ZapLogger adapts a zap logger to the printf-style ydbrpc.Logger interface.
type ZapLogger struct {
	sugar *zap.SugaredLogger
	file  *lumberjack.Logger
}

// New builds a ZapLogger from opts.
func New(opts Options) *ZapLogger {
	level := zap.InfoLevel
	if opts.Verbose {
		level = zap.DebugLevel
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	consoleCfg := zapcore.EncoderConfig{
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(zapcore.AddSync(out)), level),
	}

	l := &ZapLogger{}
	if opts.File != "" {
		l.file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    withDefault(opts.MaxSizeMB, 50),
			MaxBackups: withDefault(opts.MaxBackups, 3),
			MaxAge:     withDefault(opts.MaxAgeDays, 7),
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(l.file),
			level,
		))
	}

	l.sugar = zap.New(zapcore.NewTee(cores...)).Sugar()
	return l
}

// NewConsoleLogger creates a stderr-only logger.
func NewConsoleLogger(verbose bool) *ZapLogger {
	return New(Options{Verbose: verbose})
}

func withDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Verbose logs at debug level.
func (l *ZapLogger) Verbose(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs informational messages about normal operations.
func (l *ZapLogger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Error logs error messages.
func (l *ZapLogger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// Zap exposes the underlying structured logger.
func (l *ZapLogger) Zap() *zap.Logger {
	return l.sugar.Desugar()
}

// Close flushes buffered entries and closes the log file, if any.
func (l *ZapLogger) Close() error {
	_ = l.sugar.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
