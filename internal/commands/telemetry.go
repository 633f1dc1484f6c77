package commands

import (
	"context"
	"time"

	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

// TelemetryStatus classifies how a command execution ended.
type TelemetryStatus string

const (
	TelemetryStatusSuccess      TelemetryStatus = "success"
	TelemetryStatusFailed       TelemetryStatus = "failed"
	TelemetryStatusContextError TelemetryStatus = "context_error"
)

// TelemetryInfo is handed to telemetry callbacks once a command finishes.
// Fields holds the structured log fields accumulated during execution, and
// Error carries the already-categorised failure when Status is not success.
type TelemetryInfo struct {
	Command   string
	Operation string
	Fields    map[string]any
	Duration  time.Duration
	Error     error
	Status    TelemetryStatus
	Logger    interfaces.Logger
}

// Telemetry is an optional callback invoked after every command execution.
type Telemetry[T command.Message] func(ctx context.Context, msg T, info TelemetryInfo)

var telemetryMessages = map[TelemetryStatus]string{
	TelemetryStatusSuccess:      "command.execute.success",
	TelemetryStatusContextError: "command.execute.context_error",
	TelemetryStatusFailed:       "command.execute.failed",
}

// DefaultTelemetry builds a callback that records command outcomes through
// the supplied logger. Success logs at info, everything else at error with
// the failure attached.
func DefaultTelemetry[T command.Message](logger interfaces.Logger) Telemetry[T] {
	logger = EnsureLogger(logger)
	return func(_ context.Context, _ T, info TelemetryInfo) {
		entry := logging.WithFields(logger, info.Fields)

		msg, ok := telemetryMessages[info.Status]
		if !ok {
			msg = telemetryMessages[TelemetryStatusFailed]
		}

		args := []any{"duration_ms", info.Duration.Milliseconds()}
		if info.Status == TelemetryStatusSuccess {
			entry.Info(msg, args...)
			return
		}
		entry.Error(msg, append(args, "error", info.Error)...)
	}
}

// EnsureLogger returns a usable logger, substituting a no-op when nil.
func EnsureLogger(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}
