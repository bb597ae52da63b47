package logger

import (
	"go.uber.org/zap"
)

// Standard field names for consistent structured logging.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Background work
	FieldJobID = "job_id"

	// Documents
	FieldURI      = "uri"
	FieldLanguage = "language"
	FieldVersion  = "version"
	FieldOffset   = "offset"
	FieldReason   = "reason"

	// Operations
	FieldMethod     = "method"
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount = "count"
	FieldSize  = "size"

	// Vocabularies
	FieldNamespace = "namespace"
	FieldURL       = "url"
	FieldStatus    = "status"

	// Network
	FieldAddress = "address"
)

// ComponentLogger returns a named child of the global logger, for
// components that take a *zap.SugaredLogger.
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
