package errors

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"
)

var (
	// DefaultHandler receives every reported error. Replace it with
	// SetHandler.
	DefaultHandler ErrorHandler = &LogHandler{}

	handlerMu sync.RWMutex
)

// SetHandler installs h as the global handler. nil restores a LogHandler.
func SetHandler(h ErrorHandler) {
	if h == nil {
		h = &LogHandler{}
	}
	handlerMu.Lock()
	DefaultHandler = h
	handlerMu.Unlock()
}

func deliver(fn func(ErrorHandler)) {
	handlerMu.RLock()
	h := DefaultHandler
	handlerMu.RUnlock()
	if h != nil {
		fn(h)
	}
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now()
	}
}

// Report hands a RuntimeError that no caller can receive to the handler.
func Report(err *RuntimeError) {
	if err == nil {
		return
	}
	stamp(&err.Timestamp)
	deliver(func(h ErrorHandler) { h.HandleError(err) })
}

// ReportPanic hands a recovered panic to the handler.
func ReportPanic(err *PanicError) {
	if err == nil {
		return
	}
	stamp(&err.Timestamp)
	deliver(func(h ErrorHandler) { h.HandlePanic(err) })
}

// ReportBuildError hands a failed render to the handler. The renderer calls
// it for re-renders triggered by store changes; Mount and SetState return
// the error instead.
func ReportBuildError(err *BuildError) {
	if err == nil {
		return
	}
	stamp(&err.Timestamp)
	deliver(func(h ErrorHandler) { h.HandleBuildError(err) })
}

// Recover reports a panic in op and lets the goroutine continue.
//
//	defer errors.Recover("devtools.serve")
func Recover(op string) {
	if r := recover(); r != nil {
		ReportPanic(newPanic(op, r))
	}
}

// RecoverWithCallback is Recover followed by callback(r), which typically
// turns the panic into an error response.
func RecoverWithCallback(op string, callback func(r any)) {
	if r := recover(); r != nil {
		ReportPanic(newPanic(op, r))
		if callback != nil {
			callback(r)
		}
	}
}

// RecoverBuild converts a panic raised while rendering instance into a
// *BuildError stored in *errp. Nothing is reported; the caller decides.
//
//	func render(inst *Instance) (tree *core.Node, err error) {
//	    defer errors.RecoverBuild(inst.Definition.Name, inst.ID, &err)
//	    ...
//	}
func RecoverBuild(component, instance string, errp *error) {
	if r := recover(); r != nil {
		*errp = &BuildError{
			Component:  component,
			Instance:   instance,
			Recovered:  r,
			StackTrace: CaptureStack(),
			Timestamp:  time.Now(),
		}
	}
}

func newPanic(op string, r any) *PanicError {
	return &PanicError{
		Op:         op,
		Value:      r,
		StackTrace: CaptureStack(),
		Timestamp:  time.Now(),
	}
}

// CaptureStack formats the caller's stack, one "function\n\tfile:line"
// entry per frame. The recovery helpers of this package and the runtime's
// panic machinery are left out.
func CaptureStack() string {
	var pcs [48]uintptr
	n := runtime.Callers(2, pcs[:])
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		frame, more := frames.Next()
		if !skipFrame(frame.Function) {
			fmt.Fprintf(&sb, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

const pkgPath = "github.com/go-drift/vio/pkg/errors."

var helperFrames = map[string]bool{
	pkgPath + "CaptureStack":        true,
	pkgPath + "newPanic":            true,
	pkgPath + "Recover":             true,
	pkgPath + "RecoverWithCallback": true,
	pkgPath + "RecoverBuild":        true,
}

func skipFrame(fn string) bool {
	return fn == "runtime.gopanic" || helperFrames[fn]
}
