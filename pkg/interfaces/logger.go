package interfaces

import "context"

// Logger is the leveled logging contract used throughout the docsite runtime.
// The method set matches github.com/goliatone/go-logger, so hosts already on
// that package can wire their loggers in directly.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// LoggerProvider hands out named loggers. Implementations may scope children
// per name or return a shared instance for every caller.
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// FieldsLogger is an optional extension for loggers that can attach
// persistent structured fields. Implementations return a new logger that
// includes the fields on every subsequent entry.
type FieldsLogger interface {
	WithFields(fields map[string]any) Logger
}
