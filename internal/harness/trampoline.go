package harness

import (
	"fmt"
	"runtime"
	"time"
	"unsafe"

	"github.com/23skdu/tracearena/internal/errors"
	"github.com/23skdu/tracearena/internal/memory"
	"github.com/google/uuid"
)

// CaptureStack returns the stack bounds of the calling goroutine as seen
// from this call: the address of a local stands in for the stack pointer and
// is used as the base for anything the caller goes on to run. Goroutine
// stacks can move, so the value is approximate.
//
//go:noinline
func CaptureStack() memory.StackContext {
	var marker byte
	sp := uintptr(unsafe.Pointer(&marker))
	return memory.StackContext{Base: sp, Pointer: sp}
}

// T is handed to a case body.
type T struct {
	stack    memory.StackContext
	cleanups []func()
	logs     []string
}

// dieSignal unwinds a body that gave up.
type dieSignal struct{ msg string }

// Stack returns the stack bounds captured when the body was entered.
func (t *T) Stack() memory.StackContext { return t.stack }

// Cleanup registers fn to run after the body, however it ends.
func (t *T) Cleanup(fn func()) { t.cleanups = append(t.cleanups, fn) }

// Logf records a line in the verdict transcript.
func (t *T) Logf(format string, args ...any) {
	t.logs = append(t.logs, fmt.Sprintf(format, args...))
}

// Die ends the body as failed when err is non-nil.
func (t *T) Die(err error, what string) {
	if err != nil {
		panic(dieSignal{msg: fmt.Sprintf("%s: %v", what, err)})
	}
}

// Require ends the body as failed when ok is false.
func (t *T) Require(ok bool, format string, args ...any) {
	if !ok {
		panic(dieSignal{msg: fmt.Sprintf(format, args...)})
	}
}

// Trampoline runs body on a fresh goroutine locked to its own OS thread and
// returns its verdict. The stack context captured on entry is passed to the
// body explicitly.
func Trampoline(body func(t *T)) Verdict {
	done := make(chan Verdict, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		done <- runBody(body)
	}()
	return <-done
}

func runBody(body func(t *T)) (v Verdict) {
	t := &T{stack: CaptureStack()}
	v.RunID = uuid.NewString()
	start := time.Now()

	defer func() {
		r := recover()
		for i := len(t.cleanups) - 1; i >= 0; i-- {
			runCleanup(t.cleanups[i])
		}
		v.Duration = time.Since(start)
		v.Log = t.logs

		switch p := r.(type) {
		case nil:
			v.Outcome = OutcomePass
		case *errors.AssertionError:
			v.Outcome = OutcomeAssert
			v.Type = p.Type
			v.File = p.File
			v.Line = p.Line
			v.Cond = p.Cond
			v.Message = p.Error()
		case dieSignal:
			v.Outcome = OutcomeFail
			v.Message = p.msg
		default:
			v.Outcome = OutcomeFail
			v.Message = fmt.Sprintf("panic: %v", p)
		}
	}()

	body(t)
	return v
}

// runCleanup runs fn, swallowing assertions and panics so every cleanup
// gets its turn.
func runCleanup(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
