package logger

import (
	"go.uber.org/zap"
)

// Standard field names for consistent structured logging.
// Use these constants instead of raw strings to ensure consistency.
const (
	// FieldCount labels a single stage's output size, e.g. the number of
	// inferred cast paths.
	FieldCount = "count"

	// FieldTotalCount labels a whole-schema total, e.g. the number of
	// top-level types parsed.
	FieldTotalCount = "total_count"
)

// ComponentLogger returns a named logger for a specific pipeline stage.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	plog := logger.ComponentLogger("pathinfer")
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
// Use for sub-operations that need extra context fields.
//
// Example:
//
//	typeLogger := logger.ChildLogger(baseLogger, "type", spec.Name)
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
