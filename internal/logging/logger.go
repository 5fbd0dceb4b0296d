// Package logging keeps the rest of the code independent of the concrete log
// backend: components take the Logger interface, the server wires in the
// slog-backed implementation.
package logging

import "context"

// Logger is the structured, context-aware logging contract. Variadic args
// are alternating key/value pairs:
//
//	log.Info(ctx, "session sweep finished", "removed", n)
type Logger interface {
	// Info records normal operational events.
	Info(ctx context.Context, msg string, args ...any)

	// Warn records unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error records failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that carries the given key/value pairs on
	// every record.
	With(args ...any) Logger
}
