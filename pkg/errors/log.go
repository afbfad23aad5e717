package errors

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogHandler is an ErrorHandler that logs through zap.
// A nil Logger lazily becomes a console logger on stderr.
type LogHandler struct {
	// Logger receives the entries. Optional.
	Logger *zap.Logger
	// Verbose enables detailed output including stack traces.
	Verbose bool

	once sync.Once
	log  *zap.Logger
}

func (h *LogHandler) logger() *zap.Logger {
	h.once.Do(func() {
		if h.Logger != nil {
			h.log = h.Logger
			return
		}
		encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		h.log = zap.New(zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zapcore.DebugLevel))
	})
	return h.log
}

// HandleError logs a RuntimeError.
func (h *LogHandler) HandleError(err *RuntimeError) {
	if err == nil {
		return
	}
	h.logger().Error("vio error",
		zap.String("op", err.Op),
		zap.Stringer("kind", err.Kind),
		zap.Error(err.Err),
	)
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	fields := []zap.Field{zap.String("op", err.Op), zap.Any("value", err.Value)}
	if h.Verbose && err.StackTrace != "" {
		fields = append(fields, zap.String("stack", err.StackTrace))
	}
	h.logger().Error("vio panic", fields...)
}

// HandleBuildError logs a BuildError.
func (h *LogHandler) HandleBuildError(err *BuildError) {
	if err == nil {
		return
	}
	fields := []zap.Field{
		zap.String("component", err.Component),
		zap.String("instance", err.Instance),
		zap.Any("recovered", err.Recovered),
	}
	if h.Verbose && err.StackTrace != "" {
		fields = append(fields, zap.String("stack", err.StackTrace))
	}
	h.logger().Error("vio render error", fields...)
}
