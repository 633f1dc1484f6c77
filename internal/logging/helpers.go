package logging

import (
	"maps"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// WithFields attaches structured fields when the logger implements the
// optional FieldsLogger extension, and is a no-op passthrough otherwise.
// The fields map is copied before handing it to the logger.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(maps.Clone(fields))
	}
	return logger
}
