// Package apperror provides coded errors shared by every bounded context.
package apperror

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// AppError is an error with a stable code, a human message and an optional cause.
type AppError struct {
	Code    Code
	Message string
	// Context names the operation or resource, e.g. "getAccountInfo" or a pool address.
	Context string
	// StatusCode is the upstream HTTP status when the error came from a response, else 0.
	StatusCode int

	cause error
	stack []uintptr
}

func (e *AppError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Context != "" {
		sb.WriteString(" (" + e.Context + ")")
	}
	if e.cause != nil {
		sb.WriteString(": " + e.cause.Error())
	}
	return sb.String()
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches any AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Code == t.Code
}

// LogValue renders the error as a group when logged through slog.
func (e *AppError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("code", string(e.Code)),
		slog.String("message", e.Message),
	}
	if e.Context != "" {
		attrs = append(attrs, slog.String("context", e.Context))
	}
	if e.StatusCode != 0 {
		attrs = append(attrs, slog.Int("status", e.StatusCode))
	}
	if e.cause != nil {
		attrs = append(attrs, slog.String("cause", e.cause.Error()))
	}
	if at := e.origin(); at != "" {
		attrs = append(attrs, slog.String("at", at))
	}
	return slog.GroupValue(attrs...)
}

// origin returns file:line of the first frame outside this package.
func (e *AppError) origin() string {
	if len(e.stack) == 0 {
		return ""
	}
	frames := runtime.CallersFrames(e.stack)
	for {
		f, more := frames.Next()
		if !strings.HasSuffix(f.File, "apperror/error.go") && !strings.Contains(f.File, "runtime/") {
			return fmt.Sprintf("%s:%d", trimPath(f.File), f.Line)
		}
		if !more {
			return ""
		}
	}
}

func trimPath(file string) string {
	if i := strings.LastIndex(file, "/business/"); i >= 0 {
		return file[i+1:]
	}
	if i := strings.LastIndex(file, "/internal/"); i >= 0 {
		return file[i+1:]
	}
	return file
}

func captureStack() []uintptr {
	var pcs [16]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[:n]
}

// Option configures an AppError.
type Option func(*AppError)

// WithMessage overrides the registered message for the code.
func WithMessage(message string) Option {
	return func(e *AppError) { e.Message = message }
}

// WithContext names the operation or resource.
func WithContext(context string) Option {
	return func(e *AppError) { e.Context = context }
}

// WithStatusCode records the upstream HTTP status.
func WithStatusCode(status int) Option {
	return func(e *AppError) { e.StatusCode = status }
}

// WithCause wraps an underlying error.
func WithCause(cause error) Option {
	return func(e *AppError) { e.cause = cause }
}

// New creates an AppError. The message defaults to the one registered for code, then to the code itself.
func New(code Code, opts ...Option) *AppError {
	err := &AppError{
		Code:    code,
		Message: messages[code],
		stack:   captureStack(),
	}
	for _, opt := range opts {
		opt(err)
	}
	if err.Message == "" {
		err.Message = string(code)
	}
	return err
}

// NotFound reports a missing account, transaction or market entry.
func NotFound(code Code, context string) *AppError {
	return New(code, WithContext(context))
}

// Validation reports rejected input.
func Validation(code Code, context string) *AppError {
	return New(code, WithContext(context))
}

// Internal wraps an unexpected failure.
func Internal(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause))
}

// External wraps a failure of an upstream service.
func External(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause))
}

// Wrap converts err into an AppError. An AppError already in the chain is returned as is,
// gaining context if it had none.
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		if context != "" && appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}
	return Internal(code, context, err)
}

// IsAppError reports whether err's chain holds an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetCode returns the code of the first AppError in err's chain, or CodeUnknownError.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}

// HasCode reports whether any AppError in err's chain carries code.
func HasCode(err error, code Code) bool {
	return errors.Is(err, &AppError{Code: code})
}
