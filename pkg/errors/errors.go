// Package errors provides structured error handling for the vio runtime.
//
// Every failure in the core is synchronous and typed. Operations return a
// *RuntimeError whose Kind identifies the category; callers test for a
// category with the standard library:
//
//	if errors.Is(err, vioerrors.ErrUnknownAction) { ... }
//
// Recovered panics are reported as *PanicError or *BuildError to the global
// ErrorHandler (see SetHandler).
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Kind identifies the category of an error.
type Kind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown Kind = iota
	// KindNotFound indicates a missing mount point or instance.
	KindNotFound
	// KindUnknownAction indicates a dispatch of an unregistered action.
	KindUnknownAction
	// KindDuplicateRegistration indicates a component name registered twice.
	KindDuplicateRegistration
	// KindMethodNotConfigured indicates an operation whose collaborator
	// (store or router) was not configured.
	KindMethodNotConfigured
	// KindRender indicates a failure inside a component render function.
	KindRender
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindProtocol indicates a malformed devtools message.
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindUnknownAction:
		return "unknown action"
	case KindDuplicateRegistration:
		return "duplicate registration"
	case KindMethodNotConfigured:
		return "method not configured"
	case KindRender:
		return "render"
	case KindPanic:
		return "panic"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// Sentinel errors, one per kind that callers are expected to branch on.
var (
	ErrNotFound              = stderrors.New("not found")
	ErrUnknownAction         = stderrors.New("unknown action")
	ErrDuplicateRegistration = stderrors.New("duplicate registration")
	ErrMethodNotConfigured   = stderrors.New("method not configured")
)

func sentinel(k Kind) error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindUnknownAction:
		return ErrUnknownAction
	case KindDuplicateRegistration:
		return ErrDuplicateRegistration
	case KindMethodNotConfigured:
		return ErrMethodNotConfigured
	}
	return nil
}

// RuntimeError represents a structured error returned by a runtime operation.
type RuntimeError struct {
	// Op is the operation that failed (e.g., "store.Dispatch").
	Op string
	// Kind categorizes the error.
	Kind Kind
	// Err is the underlying error.
	Err error
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

// New creates a RuntimeError of the given kind with a formatted message.
func New(op string, kind Kind, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Op:        op,
		Kind:      kind,
		Err:       fmt.Errorf(format, args...),
		Timestamp: time.Now(),
	}
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *RuntimeError) Is(target error) bool {
	if s := sentinel(e.Kind); s != nil && target == s {
		return true
	}
	return false
}

// KindOf returns the Kind of the first RuntimeError in err's chain.
func KindOf(err error) Kind {
	var rt *RuntimeError
	if stderrors.As(err, &rt) {
		return rt.Kind
	}
	var be *BuildError
	if stderrors.As(err, &be) {
		return KindRender
	}
	var pe *PanicError
	if stderrors.As(err, &pe) {
		return KindPanic
	}
	return KindUnknown
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "devtools.handle").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// BuildError represents a failure inside a component's render function.
type BuildError struct {
	// Component is the name of the component definition that failed.
	Component string
	// Instance is the id of the instance being rendered, if any.
	Instance string
	// Recovered is the panic value.
	Recovered any
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *BuildError) Error() string {
	if e.Recovered != nil {
		return fmt.Sprintf("panic in %s.Render(): %v", e.Component, e.Recovered)
	}
	return fmt.Sprintf("unknown error in %s.Render()", e.Component)
}

// ErrorHandler receives errors reported by the runtime.
type ErrorHandler interface {
	// HandleError is called when an error occurs outside of a caller's reach
	// (for example while re-rendering after a store change).
	HandleError(err *RuntimeError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
	// HandleBuildError is called when a render function fails.
	HandleBuildError(err *BuildError)
}
