package spec

import "fmt"

// ErrorCode categorizes generation errors for clearer handling and messaging.
type ErrorCode string

const (
	ConfigurationError    ErrorCode = "ConfigurationError"
	FileOperationError    ErrorCode = "FileOperationError"
	SpecValidationError   ErrorCode = "SpecValidationError"
	SchemaGenerationError ErrorCode = "SchemaGenerationError"
)

// Error is a structured error with optional schema name and document location.
type Error struct {
	Code     ErrorCode
	Message  string
	Location string // file path of the offending document
	Schema   string // offending schema name, when attributable
	Ref      string // offending $ref string, for unresolved references
	Cause    error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Cause }

// NewError builds a structured error with a formatted message.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapSchema attributes err to the named schema, converting an anonymous
// internal failure into an actionable one before it propagates.
func WrapSchema(name string, err error) *Error {
	return &Error{
		Code:    SchemaGenerationError,
		Message: fmt.Sprintf("schema %q: %v", name, err),
		Schema:  name,
		Cause:   err,
	}
}

// CodeOf returns the ErrorCode carried by err, or "" for foreign errors.
func CodeOf(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
