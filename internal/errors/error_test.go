package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredError_Error(t *testing.T) {
	// Test error without cause
	err := New(ErrorTypeBusy, "destroy", "2 mutators registered")
	assert.Equal(t, "[busy] destroy: 2 mutators registered", err.Error())

	// Test error with cause
	cause := stderrors.New("underlying error")
	err = Wrap(cause, ErrorTypeConfiguration, "load", "bad env")
	assert.Contains(t, err.Error(), "[configuration] load: bad env")
	assert.Contains(t, err.Error(), "underlying error")
	assert.Equal(t, cause, err.Unwrap())
}

func TestStructuredError_WithContext(t *testing.T) {
	err := New(ErrorTypeUnknownHandle, "deregister", "not registered")
	err = err.WithContext("arena", 7).WithContext("mutator", uint64(3))

	assert.Equal(t, 7, err.Context["arena"])
	assert.Equal(t, uint64(3), err.Context["mutator"])
}

func TestSentinelMatching(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewBusyError("destroy", "busy"))

	assert.True(t, Is(err, ErrBusy))
	assert.False(t, Is(err, ErrUnknownHandle))
	assert.False(t, Is(err, ErrConfig))

	typ, ok := TypeOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeBusy, typ)

	_, ok = TypeOf(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestErrorConstructors(t *testing.T) {
	assert.Equal(t, ErrorTypeConfiguration, NewConfigurationError("op", "msg").Type)
	assert.Equal(t, ErrorTypeBusy, NewBusyError("op", "msg").Type)
	assert.Equal(t, ErrorTypeUnknownHandle, NewUnknownHandleError("op", "msg").Type)
	assert.Equal(t, ErrorTypeResourceExhausted, NewResourceExhaustedError("op", "msg").Type)
	assert.Equal(t, ErrorTypeAlreadyRegistered, NewAlreadyRegisteredError("op", "msg").Type)

	// Wrap returns nil for nil error
	assert.Nil(t, Wrap(nil, ErrorTypeConfiguration, "op", "msg"))
	assert.Nil(t, WrapConfigurationError(nil, "op", "msg"))
}

func TestErrorTypeRecoverable(t *testing.T) {
	assert.True(t, ErrorTypeConfiguration.Recoverable())
	assert.True(t, ErrorTypeBusy.Recoverable())
	assert.True(t, ErrorTypeUnknownHandle.Recoverable())
	assert.False(t, ErrorTypeInvalidArgument.Recoverable())
	assert.False(t, ErrorTypeInvalidArena.Recoverable())
}

func TestStackTraceCapture(t *testing.T) {
	err := New(ErrorTypeBusy, "test", "message")
	assert.Greater(t, len(err.Stack), 0)
}

func TestAssertion_Panics(t *testing.T) {
	defer func() {
		ae := Recover(recover())
		require.NotNil(t, ae)
		assert.Equal(t, ErrorTypeInvalidArgument, ae.Type)
		assert.Equal(t, "slot != nil", ae.Cond)
		assert.Equal(t, "error_test.go", ae.File)
		assert.Greater(t, ae.Line, 0)
		assert.True(t, Is(ae, ErrInvalidArgument))
		assert.False(t, Is(ae, ErrInvalidArena))
		assert.Contains(t, ae.Error(), "slot != nil")
	}()

	panic(Assertion(ErrorTypeInvalidArgument, "slot != nil", 0))
}

func TestAssertion_SkipsFrames(t *testing.T) {
	raise := func() *AssertionError { return Assertion(ErrorTypeInvalidArena, "ArenaCheck(arena)", 1) }
	ae := raise()
	assert.Equal(t, "error_test.go", ae.File)
	assert.Equal(t, "ArenaCheck(arena)", ae.Cond)
}

func TestRecover_ReraisesForeignPanics(t *testing.T) {
	assert.Nil(t, Recover(nil))
	assert.PanicsWithValue(t, "boom", func() {
		Recover("boom")
	})
}
