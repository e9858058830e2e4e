package result

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Code classifies a Failure. The classification decides default retry
// behavior: transient failures may be retried by a schedule, everything
// else stops a pipeline where it stands.
type Code string

const (
	// CodeUnknown marks failures lifted from foreign errors without a
	// recognizable classification.
	CodeUnknown Code = "unknown"

	// CodeValidation marks a caller invariant violation. Not retried.
	CodeValidation Code = "validation_failure"

	// CodeTransient marks an infrastructure/IO failure that a schedule
	// may retry.
	CodeTransient Code = "transient_failure"

	// CodeResourceAcquisition marks a failed acquire phase of a bracket.
	// The release phase never ran for it.
	CodeResourceAcquisition Code = "resource_acquisition_failure"

	// CodeCancelled marks cooperative cancellation observed between steps.
	CodeCancelled Code = "cancelled"

	// CodeValidationRejected marks a state transition rejected by a cell
	// validator. The mutation was never applied.
	CodeValidationRejected Code = "validation_rejected"

	// CodeConfiguration marks an invalid construction argument.
	CodeConfiguration Code = "configuration_error"
)

// Failure is an immutable error tree: a code, a human message, and an
// optional cause. Wrapping preserves the full chain; Flatten walks it
// exactly once per reporting path.
type Failure struct {
	code    Code
	message string
	cause   *Failure
	err     error
}

// NewFailure builds a root failure with no cause.
func NewFailure(code Code, message string) *Failure {
	return &Failure{code: code, message: message}
}

// FailureFrom lifts a foreign error into a Failure. A *Failure passes
// through untouched, context cancellation maps to CodeCancelled, and
// anything else becomes CodeUnknown with the original error retained
// for errors.Is/As.
func FailureFrom(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Failure{code: CodeCancelled, message: err.Error(), err: err}
	}
	return &Failure{code: CodeUnknown, message: err.Error(), err: err}
}

func (f *Failure) Code() Code      { return f.code }
func (f *Failure) Message() string { return f.message }
func (f *Failure) Cause() *Failure { return f.cause }

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.code, f.message)
}

// Unwrap exposes the underlying error when the failure was lifted from
// one, otherwise the cause. This keeps errors.Is working across both
// foreign errors and failure chains.
func (f *Failure) Unwrap() error {
	if f.err != nil {
		return f.err
	}
	if f.cause != nil {
		return f.cause
	}
	return nil
}

// Wrap returns a new failure with f as its cause. The receiver is never
// mutated.
func (f *Failure) Wrap(code Code, message string) *Failure {
	return &Failure{code: code, message: message, cause: f}
}

// Attach records a secondary failure alongside f without disturbing the
// cause chain. Used by bracket when a release fails after the use outcome
// has already been captured: neither failure may be dropped.
func (f *Failure) Attach(other *Failure) *Failure {
	if other == nil {
		return f
	}
	return &Failure{
		code:    f.code,
		message: f.message,
		cause:   f.cause,
		err:     multierr.Append(f.err, other),
	}
}

// Attached returns the secondary failures recorded via Attach.
func (f *Failure) Attached() []error {
	return multierr.Errors(f.err)
}

// Frame is one step of a flattened cause chain.
type Frame struct {
	Code    Code
	Message string
}

// Flatten walks the cause chain once, outermost first. Callers that
// report a failure should flatten it a single time and share the frames;
// re-flattening per consumer turns an O(n) walk into O(n^2).
func (f *Failure) Flatten() []Frame {
	n := 0
	for cur := f; cur != nil; cur = cur.cause {
		n++
	}
	frames := make([]Frame, 0, n)
	for cur := f; cur != nil; cur = cur.cause {
		frames = append(frames, Frame{Code: cur.code, Message: cur.message})
	}
	return frames
}

// Retryable reports whether a schedule should re-attempt after this
// failure. Only transient and unclassified failures qualify; validation,
// rejection, cancellation and configuration failures are final.
func (f *Failure) Retryable() bool {
	switch f.code {
	case CodeTransient, CodeUnknown:
		return true
	default:
		return false
	}
}
