// Package errors defines the categorized error type shared by the ingestion
// pipeline and the conciliation engine.
//
// Parse-level failures (undecodable file, unrecognized format, no usable
// columns) are represented here; row-level failures are not errors in this
// sense and are accumulated in parse results instead.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors.
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryConciliation  ErrorCategory = "conciliation"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories.
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeFileCorrupted  ErrorCode = "file_corrupted"

	// Parse errors
	CodeUnsupportedFormat ErrorCode = "unsupported_format"
	CodeEncodingError     ErrorCode = "encoding_error"
	CodeTooFewRows        ErrorCode = "too_few_rows"
	CodeNoValueColumn     ErrorCode = "no_value_column"
	CodeNoTransactions    ErrorCode = "no_transactions"
	CodeUnrecognizedCNAB  ErrorCode = "unrecognized_cnab"
	CodeInvalidDocument   ErrorCode = "invalid_document"

	// Validation errors
	CodeInvalidAmount ErrorCode = "invalid_amount"
	CodeInvalidDate   ErrorCode = "invalid_date"
	CodeMissingField  ErrorCode = "missing_field"
	CodeInvalidScope  ErrorCode = "invalid_scope"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Conciliation errors
	CodeRunFailed ErrorCode = "run_failed"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// ConciliadorError is the base error type for all application errors.
type ConciliadorError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error.
type Context map[string]interface{}

// Error implements the error interface.
func (e *ConciliadorError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error.
func (e *ConciliadorError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate process exit code for the error.
func (e *ConciliadorError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryConciliation, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error.
func (e *ConciliadorError) WithContext(key string, value interface{}) *ConciliadorError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error.
func (e *ConciliadorError) WithSuggestion(suggestion string) *ConciliadorError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ConciliadorError.
func New(category ErrorCategory, code ErrorCode, message string) *ConciliadorError {
	return &ConciliadorError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ConciliadorError context.
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ConciliadorError {
	if err == nil {
		return nil
	}

	return &ConciliadorError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces.
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// FileError creates a file-related error.
func FileError(code ErrorCode, path string, err error) *ConciliadorError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeFileCorrupted:
		message = fmt.Sprintf("file appears to be corrupted: %s", path)
		suggestion = "verify the file integrity and try using a backup copy"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *ConciliadorError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseFailure creates a parse-level (whole file) error.
func ParseFailure(code ErrorCode, filename string, err error) *ConciliadorError {
	var message string
	var suggestion string

	switch code {
	case CodeUnsupportedFormat:
		message = fmt.Sprintf("unsupported file format: %s", filename)
		suggestion = "use a CSV, XLSX, OFX or CNAB return file"
	case CodeEncodingError:
		message = fmt.Sprintf("could not decode file: %s", filename)
		suggestion = "save the file in UTF-8 or Latin-1 encoding and try again"
	case CodeTooFewRows:
		message = fmt.Sprintf("file must have at least a header row and one data row: %s", filename)
		suggestion = "check that the file is not empty or header-only"
	case CodeNoValueColumn:
		message = fmt.Sprintf("could not detect a value/amount column in file: %s", filename)
		suggestion = "name the amount column with a recognizable header such as 'valor' or 'amount'"
	case CodeNoTransactions:
		message = fmt.Sprintf("bank statement has no transactions: %s", filename)
		suggestion = "export a statement period that contains at least one transaction"
	case CodeUnrecognizedCNAB:
		message = fmt.Sprintf("unrecognized CNAB return file: %s", filename)
		suggestion = "verify the file is a CNAB 240 or CNAB 400 retorno"
	default:
		message = fmt.Sprintf("failed to parse file: %s", filename)
		suggestion = "check the file format and data integrity"
	}

	var result *ConciliadorError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("filename", filename)
}

// ValidationError creates a validation-related error.
func ValidationError(code ErrorCode, field string, value interface{}, err error) *ConciliadorError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
		suggestion = "amounts must be positive decimal numbers"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use DD/MM/YYYY or YYYY-MM-DD date formats"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeInvalidScope:
		message = fmt.Sprintf("invalid scope in field '%s': %v", field, value)
		suggestion = "provide exactly one of session id or organization id"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *ConciliadorError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error.
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *ConciliadorError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *ConciliadorError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// ConciliationError creates a matching-run-related error.
func ConciliationError(code ErrorCode, operation string, err error) *ConciliadorError {
	message := fmt.Sprintf("conciliation error during %s", operation)
	suggestion := "review the scope and the loaded records"

	var result *ConciliadorError
	if err != nil {
		result = Wrap(err, CategoryConciliation, code, message)
	} else {
		result = New(CategoryConciliation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// InternalError creates an internal error.
func InternalError(code ErrorCode, operation string, err error) *ConciliadorError {
	message := fmt.Sprintf("internal error during %s", operation)
	suggestion := "this is likely a bug - please report it with the error details"

	var result *ConciliadorError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// IsConciliadorError checks if an error is a ConciliadorError.
func IsConciliadorError(err error) bool {
	_, ok := err.(*ConciliadorError)
	return ok
}

// AsConciliadorError extracts a ConciliadorError from an error chain.
func AsConciliadorError(err error) (*ConciliadorError, bool) {
	var appErr *ConciliadorError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already a ConciliadorError.
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *ConciliadorError {
	if err == nil {
		return nil
	}

	if appErr, ok := AsConciliadorError(err); ok {
		return appErr
	}

	return Wrap(err, category, code, message)
}
