package errors

import (
	"github.com/pkg/errors"
)

// StackTracer is implemented by errors that carry the stack they were created on.
type StackTracer interface {
	StackTrace() errors.StackTrace
}

// ErrorTracer pins a stack trace to an error returned by a driver or client,
// so the logger can report where it surfaced. Codes of wrapped ErrorDetails
// stay visible to ErrorCodeEquals.
type ErrorTracer struct {
	err   error
	stack StackTracer
}

// TracerFromError wraps err. A stack already present anywhere in err's chain
// is reused; otherwise the caller's stack is captured.
func TracerFromError(err error) *ErrorTracer {
	var stack StackTracer
	if !errors.As(err, &stack) {
		withStack := errors.WithStack(err)
		stack = withStack.(StackTracer)
		err = withStack
	}
	return &ErrorTracer{err: err, stack: stack}
}

func (e *ErrorTracer) Error() string {
	return e.err.Error()
}

func (e *ErrorTracer) Unwrap() error {
	return e.err
}

// StackTrace implements StackTracer.
func (e *ErrorTracer) StackTrace() errors.StackTrace {
	return e.stack.StackTrace()
}
