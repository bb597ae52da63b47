// Package errors provides error handling for semls.
//
// This package re-exports github.com/cockroachdb/errors so every package
// gets stack traces, wrapping and user hints from a single import:
//
//	if err := cache.Put(key, body); err != nil {
//	    return errors.Wrapf(err, "cache vocabulary %s", ns)
//	}
//
// Syntax and semantic problems in user documents are never Go errors; they
// are diagnostics (see package lang). Errors here cover IO, fetch, config
// and protocol failures.
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors. Wrap them with errors.Wrap to add context; match them
// with errors.Is.
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")

	// ErrUnknownDocument indicates a request referenced a document that is not open
	ErrUnknownDocument = New("unknown document")

	// ErrUnsupportedLanguage indicates no grammar is registered for a document
	ErrUnsupportedLanguage = New("unsupported language")

	// ErrFetchFailed indicates a remote resource could not be retrieved
	ErrFetchFailed = New("fetch failed")

	// ErrCacheMiss indicates the cache has no entry for a key
	ErrCacheMiss = New("cache miss")

	// ErrClosed indicates the workspace loop has stopped
	ErrClosed = New("workspace closed")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound or ErrUnknownDocument.
func IsNotFoundError(err error) bool {
	return err != nil && IsAny(err, ErrNotFound, ErrUnknownDocument)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrapf(ErrNotFound, format, args...)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrapf(ErrInvalidRequest, format, args...)
}

// UnknownDocument reports a request against a URI that is not open.
func UnknownDocument(uri string) error {
	return WithHint(Wrapf(ErrUnknownDocument, "%s", uri), "send textDocument/didOpen before querying a document")
}
