package errors

import (
	"fmt"
	"runtime"
)

// ErrorType is the stable, version-independent identifier of a failure.
// Harnesses match on the type, never on message text.
type ErrorType string

const (
	// Recoverable conditions, returned to the caller.
	ErrorTypeConfiguration     ErrorType = "configuration"
	ErrorTypeBusy              ErrorType = "busy"
	ErrorTypeUnknownHandle     ErrorType = "unknown_handle"
	ErrorTypeResourceExhausted ErrorType = "resource_exhausted"
	ErrorTypeAlreadyRegistered ErrorType = "already_registered"

	// Programming errors, raised as checked assertions.
	ErrorTypeInvalidArgument ErrorType = "invalid_argument"
	ErrorTypeInvalidArena    ErrorType = "invalid_arena"
)

// Recoverable reports whether failures of this type are returned as ordinary
// errors rather than raised as assertions.
func (t ErrorType) Recoverable() bool {
	switch t {
	case ErrorTypeInvalidArgument, ErrorTypeInvalidArena:
		return false
	default:
		return true
	}
}

// Sentinels for errors.Is. They match any StructuredError of the same type.
var (
	ErrConfig            = &StructuredError{Type: ErrorTypeConfiguration}
	ErrBusy              = &StructuredError{Type: ErrorTypeBusy}
	ErrUnknownHandle     = &StructuredError{Type: ErrorTypeUnknownHandle}
	ErrResourceExhausted = &StructuredError{Type: ErrorTypeResourceExhausted}
	ErrAlreadyRegistered = &StructuredError{Type: ErrorTypeAlreadyRegistered}
)

// StructuredError provides rich error context
type StructuredError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
	Context   map[string]interface{}
	Stack     []uintptr
}

// Error implements the error interface
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Operation, e.Message)
}

// Unwrap returns the underlying cause
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// Is matches another StructuredError of the same type.
func (e *StructuredError) Is(target error) bool {
	t, ok := target.(*StructuredError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// New creates a new structured error
func New(errType ErrorType, operation, message string) *StructuredError {
	return &StructuredError{
		Type:      errType,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, operation, message string) *StructuredError {
	if err == nil {
		return nil
	}

	return &StructuredError{
		Type:      errType,
		Operation: operation,
		Message:   message,
		Cause:     err,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
	}
}

// WithContext adds context information to an error
func (e *StructuredError) WithContext(key string, value interface{}) *StructuredError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// TypeOf returns the ErrorType carried by err, if any. Assertion panics
// recovered as errors are recognised too.
func TypeOf(err error) (ErrorType, bool) {
	var se *StructuredError
	if As(err, &se) {
		return se.Type, true
	}
	var ae *AssertionError
	if As(err, &ae) {
		return ae.Type, true
	}
	return "", false
}

// captureStack captures the current stack trace
func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:]) // Skip runtime.Callers, this function and the constructor
	return pcs[:n]
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(operation, message string) *StructuredError {
	return New(ErrorTypeConfiguration, operation, message)
}

// NewBusyError creates a busy error
func NewBusyError(operation, message string) *StructuredError {
	return New(ErrorTypeBusy, operation, message)
}

// NewUnknownHandleError creates an unknown-handle error
func NewUnknownHandleError(operation, message string) *StructuredError {
	return New(ErrorTypeUnknownHandle, operation, message)
}

// NewResourceExhaustedError creates a resource-exhaustion error
func NewResourceExhaustedError(operation, message string) *StructuredError {
	return New(ErrorTypeResourceExhausted, operation, message)
}

// NewAlreadyRegisteredError creates an already-registered error
func NewAlreadyRegisteredError(operation, message string) *StructuredError {
	return New(ErrorTypeAlreadyRegistered, operation, message)
}

// WrapConfigurationError wraps an error as a configuration error
func WrapConfigurationError(err error, operation, message string) *StructuredError {
	return Wrap(err, ErrorTypeConfiguration, operation, message)
}
