package errors

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// AssertionError is the payload of a failed checked assertion. Assertions
// guard preconditions whose violation is a programming bug: the failure is
// raised with panic so it cannot be silently ignored, and an uncaught one
// terminates the process with this diagnostic.
type AssertionError struct {
	Type ErrorType
	File string // base name of the file holding the check
	Line int
	Cond string // predicate text, identical for every occurrence of the same misuse
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s:%d: %s (%s)", e.File, e.Line, e.Cond, e.Type)
}

// Is matches sentinels and other assertions of the same type.
func (e *AssertionError) Is(target error) bool {
	switch t := target.(type) {
	case *AssertionError:
		return t.Type == e.Type && (t.Cond == "" || t.Cond == e.Cond)
	case *StructuredError:
		return t.Type == e.Type
	}
	return false
}

// Sentinels for the assertion types.
var (
	ErrInvalidArgument = &AssertionError{Type: ErrorTypeInvalidArgument}
	ErrInvalidArena    = &AssertionError{Type: ErrorTypeInvalidArena}
)

// Assertion builds the AssertionError for a check located skip frames above
// the caller of Assertion.
func Assertion(errType ErrorType, cond string, skip int) *AssertionError {
	ae := &AssertionError{Type: errType, Cond: cond, File: "??"}
	if _, file, line, ok := runtime.Caller(skip + 1); ok {
		ae.File = filepath.Base(file)
		ae.Line = line
	}
	return ae
}

// Recover converts a recovered panic value into an AssertionError. Panics
// that are not assertions are re-raised.
func Recover(r any) *AssertionError {
	if r == nil {
		return nil
	}
	if ae, ok := r.(*AssertionError); ok {
		return ae
	}
	panic(r)
}
