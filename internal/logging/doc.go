// Package logging provides concrete implementations of the ydbrpc.Logger interface.
//
// Available implementations:
//   - ZapLogger: zap-backed console output on stderr, optionally teed to a
//     rotating JSON file
//   - NullLogger: discards all messages
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
