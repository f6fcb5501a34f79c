package logging

import "github.com/vvka-141/ydbrpc/pkg/ydbrpc"

// NullLogger discards all log messages.
type NullLogger struct{}

// NewNullLogger creates a new NullLogger.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

// Verbose is a no-op.
func (l *NullLogger) Verbose(format string, args ...interface{}) {}

// Info is a no-op.
func (l *NullLogger) Info(format string, args ...interface{}) {}

// Error is a no-op.
func (l *NullLogger) Error(format string, args ...interface{}) {}

// OrNull returns l, or a NullLogger when l is nil.
func OrNull(l ydbrpc.Logger) ydbrpc.Logger {
	if l == nil {
		return NewNullLogger()
	}
	return l
}
