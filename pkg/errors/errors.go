// Package errors defines the typed error taxonomy used across the
// reconciliation engine.
//
// Three kinds of failure exist and they are handled very differently:
//
//   - Validation errors abort the requested operation before any state
//     is committed (a missing mandatory column mapping, a manual match
//     selection with an unsupported shape).
//   - Data-quality warnings never abort anything. Messy statement rows
//     are parsed best-effort with safe fallbacks and the warning is
//     recorded so the caller can report it.
//   - Invariant violations are programming bugs (an id claimed by two
//     matches). They are prevented by construction and fail loudly when
//     they do surface.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory groups errors by how the caller must react to them.
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryParse      ErrorCategory = "parse"
	CategoryFile       ErrorCategory = "file"
	CategoryInvariant  ErrorCategory = "invariant"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorCode identifies a specific failure within a category.
type ErrorCode string

const (
	// Validation errors
	CodeMissingMapping   ErrorCode = "missing_mapping"
	CodeInvalidSelection ErrorCode = "invalid_selection"
	CodeMissingField     ErrorCode = "missing_field"
	CodeInvalidConfig    ErrorCode = "invalid_config"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeInvalidData   ErrorCode = "invalid_data"

	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"

	// Invariant violations
	CodeDuplicatePrimary  ErrorCode = "duplicate_primary"
	CodeOverlappingMember ErrorCode = "overlapping_member"
	CodeUnknownID         ErrorCode = "unknown_id"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// EngineError is the base error type for all engine errors.
type EngineError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context carries additional structured information about the error.
type Context map[string]interface{}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// GetExitCode maps the error category to a CLI exit code.
func (e *EngineError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryInvariant, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds a key/value pair to the error context.
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion attaches a hint for fixing the error.
func (e *EngineError) WithSuggestion(suggestion string) *EngineError {
	e.Suggestion = suggestion
	return e
}

// New creates a new EngineError with a captured stack trace.
func New(category ErrorCategory, code ErrorCode, message string) *EngineError {
	return &EngineError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with engine error context.
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *EngineError {
	if err == nil {
		return nil
	}
	return &EngineError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// ValidationError creates an error for a caller mistake that aborts the
// operation with no partial state committed.
func ValidationError(code ErrorCode, field string, value interface{}) *EngineError {
	var message, suggestion string

	switch code {
	case CodeMissingMapping:
		message = fmt.Sprintf("mandatory column '%s' is not mapped", field)
		suggestion = "map the column before parsing the statement"
	case CodeInvalidSelection:
		message = fmt.Sprintf("unsupported manual match selection: %v", value)
		suggestion = "select 1:1, 1:many, many:1 or equal counts on both sides"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", field, value)
		suggestion = "check the configuration documentation for valid values"
	default:
		message = fmt.Sprintf("validation error in '%s': %v", field, value)
		suggestion = "check the value and try again"
	}

	return New(CategoryValidation, code, message).
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// InvariantViolation creates an error for a broken engine invariant.
// These indicate programming bugs, not recoverable runtime conditions.
func InvariantViolation(code ErrorCode, id string) *EngineError {
	var message string

	switch code {
	case CodeDuplicatePrimary:
		message = fmt.Sprintf("id %s is already the primary of another match", id)
	case CodeOverlappingMember:
		message = fmt.Sprintf("id %s is already a related member of another match", id)
	case CodeUnknownID:
		message = fmt.Sprintf("id %s does not belong to this session", id)
	default:
		message = fmt.Sprintf("invariant violated for id %s", id)
	}

	return New(CategoryInvariant, code, message).
		WithSuggestion("this is a bug in the matching logic - please report it").
		WithContext("id", id)
}

// FileError creates a file access error.
func FileError(code ErrorCode, path string, err error) *EngineError {
	var message, suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}
	return result.WithSuggestion(suggestion).WithContext("file_path", path)
}

// ParseError creates an error for statement content the lenient parser
// could not recover from at all.
func ParseError(code ErrorCode, line int, field, value string, err error) *EngineError {
	message := fmt.Sprintf("parse error at line %d, field '%s': '%s'", line, field, value)

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}
	return result.
		WithContext("line", line).
		WithContext("field", field).
		WithContext("value", value)
}

// InternalError creates an error for unexpected conditions.
func InternalError(operation string, err error) *EngineError {
	message := fmt.Sprintf("unexpected error during %s", operation)

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryInternal, CodeUnexpectedError, message)
	} else {
		result = New(CategoryInternal, CodeUnexpectedError, message)
	}
	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// DataQualityWarning records a statement cell that could not be parsed
// and was replaced with a safe fallback. Warnings are not errors: the
// import always continues.
type DataQualityWarning struct {
	Line     int    `json:"line"`
	Field    string `json:"field"`
	Value    string `json:"value"`
	Fallback string `json:"fallback"`
	Message  string `json:"message"`
}

// String returns a human-readable description of the warning.
func (w *DataQualityWarning) String() string {
	return fmt.Sprintf("line %d: %s '%s' %s, used %s",
		w.Line, w.Field, w.Value, w.Message, w.Fallback)
}

// WarningSummary aggregates data-quality warnings from one import.
type WarningSummary struct {
	Total    int                   `json:"total"`
	ByField  map[string]int        `json:"by_field"`
	Warnings []*DataQualityWarning `json:"warnings"`
}

// NewWarningSummary builds a summary over the collected warnings.
func NewWarningSummary(warnings []*DataQualityWarning) *WarningSummary {
	summary := &WarningSummary{
		Total:    len(warnings),
		ByField:  make(map[string]int),
		Warnings: warnings,
	}
	for _, w := range warnings {
		summary.ByField[w.Field]++
	}
	return summary
}

// String returns a one-line description of the summary.
func (ws *WarningSummary) String() string {
	if ws.Total == 0 {
		return "no data quality warnings"
	}
	var fields []string
	for field, count := range ws.ByField {
		fields = append(fields, fmt.Sprintf("%s: %d", field, count))
	}
	return fmt.Sprintf("%d data quality warnings (%s)", ws.Total, strings.Join(fields, ", "))
}

// IsEngineError checks if an error is an EngineError.
func IsEngineError(err error) bool {
	_, ok := err.(*EngineError)
	return ok
}

// AsEngineError extracts an EngineError from an error chain.
func AsEngineError(err error) (*EngineError, bool) {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr, true
	}
	return nil, false
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	if engineErr, ok := AsEngineError(err); ok {
		return engineErr.Category == CategoryValidation
	}
	return false
}

// IsInvariantViolation reports whether err is an invariant violation.
func IsInvariantViolation(err error) bool {
	if engineErr, ok := AsEngineError(err); ok {
		return engineErr.Category == CategoryInvariant
	}
	return false
}
