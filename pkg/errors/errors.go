// Package errors defines the categorized error type used across the
// generator. Every failure the tool can surface carries a category, a code,
// and an optional suggestion for the human running it.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Category groups errors by the subsystem that produced them.
type Category string

const (
	CategoryFile       Category = "file"
	CategoryCodec      Category = "codec"
	CategoryValidation Category = "validation"
	CategoryTemplate   Category = "template"
	CategoryStorage    Category = "storage"
	CategoryInternal   Category = "internal"
)

// Code identifies a specific failure within a category.
type Code string

const (
	// File errors
	CodeFileNotFound Code = "file_not_found"
	CodeFileUnreadable Code = "file_unreadable"

	// Codec errors
	CodeInvalidFormat    Code = "invalid_format"
	CodeUnrecognizedShape Code = "unrecognized_shape"
	CodeInvalidData      Code = "invalid_data"

	// Validation errors
	CodeInvalidAmount Code = "invalid_amount"
	CodeInvalidDate   Code = "invalid_date"
	CodeMissingField  Code = "missing_field"

	// Template errors
	CodeUnknownTemplate Code = "unknown_template"
	CodeUnknownRelation Code = "unknown_relation"

	// Storage errors
	CodeSnapshotOpen  Code = "snapshot_open"
	CodeSnapshotWrite Code = "snapshot_write"
	CodeSnapshotRead  Code = "snapshot_read"

	// Internal errors
	CodeUnexpected Code = "unexpected_error"
)

// GeneratorError is the base error type for all application errors.
type GeneratorError struct {
	Category   Category          `json:"category"`
	Code       Code              `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    map[string]any    `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Error implements the error interface.
func (e *GeneratorError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error.
func (e *GeneratorError) Unwrap() error {
	return e.Cause
}

// ExitCode maps the error category to a CLI exit code.
func (e *GeneratorError) ExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryCodec, CategoryValidation:
		return 3
	case CategoryTemplate:
		return 4
	case CategoryStorage:
		return 5
	case CategoryInternal:
		return 6
	default:
		return 1
	}
}

// WithContext attaches a key-value pair to the error.
func (e *GeneratorError) WithContext(key string, value any) *GeneratorError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion attaches a human-facing fix suggestion.
func (e *GeneratorError) WithSuggestion(suggestion string) *GeneratorError {
	e.Suggestion = suggestion
	return e
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// New creates a new GeneratorError with a captured stack trace.
func New(category Category, code Code, message string) *GeneratorError {
	return &GeneratorError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with generator context. Returns nil for a nil
// cause.
func Wrap(err error, category Category, code Code, message string) *GeneratorError {
	if err == nil {
		return nil
	}
	return &GeneratorError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// CodecError creates an import/export error.
func CodecError(code Code, detail string, err error) *GeneratorError {
	var message, suggestion string
	switch code {
	case CodeUnrecognizedShape:
		message = fmt.Sprintf("unrecognizable interchange shape: %s", detail)
		suggestion = "expected a wire document with a meta object and docs/txs arrays"
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid interchange format: %s", detail)
		suggestion = "check that the file is valid JSON"
	case CodeInvalidData:
		message = fmt.Sprintf("invalid interchange data: %s", detail)
		suggestion = "correct the offending field or remove the entry"
	default:
		message = fmt.Sprintf("codec error: %s", detail)
	}

	result := newOrWrap(err, CategoryCodec, code, message)
	return result.WithSuggestion(suggestion).WithContext("detail", detail)
}

// TemplateError creates a template-catalog error.
func TemplateError(code Code, name string, err error) *GeneratorError {
	var message, suggestion string
	switch code {
	case CodeUnknownTemplate:
		message = fmt.Sprintf("unknown template: %s", name)
		suggestion = "run 'matchgen templates' to list the catalog"
	case CodeUnknownRelation:
		message = fmt.Sprintf("unknown relationship kind: %s", name)
		suggestion = "valid kinds: doc_only, tx_only, one_to_one, one_to_many, many_to_one, many_to_many"
	default:
		message = fmt.Sprintf("template error: %s", name)
	}

	result := newOrWrap(err, CategoryTemplate, code, message)
	return result.WithSuggestion(suggestion).WithContext("name", name)
}

// StorageError creates a snapshot-store error.
func StorageError(code Code, key string, err error) *GeneratorError {
	var message, suggestion string
	switch code {
	case CodeSnapshotOpen:
		message = fmt.Sprintf("cannot open snapshot store for key %q", key)
		suggestion = "check the database path and permissions"
	case CodeSnapshotWrite:
		message = fmt.Sprintf("cannot write snapshot %q", key)
	case CodeSnapshotRead:
		message = fmt.Sprintf("cannot read snapshot %q", key)
	default:
		message = fmt.Sprintf("storage error for key %q", key)
	}

	result := newOrWrap(err, CategoryStorage, code, message)
	return result.WithSuggestion(suggestion).WithContext("key", key)
}

// FileError creates a file access error.
func FileError(code Code, path string, err error) *GeneratorError {
	var message, suggestion string
	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFileUnreadable:
		message = fmt.Sprintf("file not readable: %s", path)
		suggestion = "check file permissions"
	default:
		message = fmt.Sprintf("file error: %s", path)
	}

	result := newOrWrap(err, CategoryFile, code, message)
	return result.WithSuggestion(suggestion).WithContext("file_path", path)
}

func newOrWrap(err error, category Category, code Code, message string) *GeneratorError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// IsGeneratorError checks if an error is a GeneratorError.
func IsGeneratorError(err error) bool {
	_, ok := err.(*GeneratorError)
	return ok
}

// AsGeneratorError extracts a GeneratorError from an error chain.
func AsGeneratorError(err error) (*GeneratorError, bool) {
	var genErr *GeneratorError
	if errors.As(err, &genErr) {
		return genErr, true
	}
	return nil, false
}
