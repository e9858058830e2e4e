// Package result provides a total success/failure value: every fallible
// operation in this module produces a Result, and pipelines consume it
// through Map/Bind so that failure short-circuits automatically. Match is
// the only place both arms are destructured; it belongs at a boundary.
package result

// Result holds exactly one of a success value or a *Failure. The zero
// Result is a success carrying the zero value of T; use Err to build the
// failure variant.
type Result[T any] struct {
	value   T
	failure *Failure
}

// Ok builds the success variant.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err builds the failure variant. A nil failure is replaced with an
// unclassified one so that a Result never holds neither arm.
func Err[T any](f *Failure) Result[T] {
	if f == nil {
		f = NewFailure(CodeUnknown, "failure constructed from nil")
	}
	return Result[T]{failure: f}
}

// ErrOf lifts a foreign error into the failure variant via FailureFrom.
func ErrOf[T any](err error) Result[T] {
	return Err[T](FailureFrom(err))
}

// Of folds a conventional (value, error) pair into a Result.
func Of[T any](v T, err error) Result[T] {
	if err != nil {
		return ErrOf[T](err)
	}
	return Ok(v)
}

func (r Result[T]) IsOk() bool { return r.failure == nil }

// Value returns the success value; the zero value on failure.
func (r Result[T]) Value() T { return r.value }

// Failure returns the failure arm, nil on success.
func (r Result[T]) Failure() *Failure { return r.failure }

// Map applies f to the success value. On failure f is never invoked and
// the failure propagates unchanged.
func Map[A, B any](r Result[A], f func(A) B) Result[B] {
	if r.failure != nil {
		return Err[B](r.failure)
	}
	return Ok(f(r.value))
}

// Bind chains a fallible continuation. On failure f is never invoked.
func Bind[A, B any](r Result[A], f func(A) Result[B]) Result[B] {
	if r.failure != nil {
		return Err[B](r.failure)
	}
	return f(r.value)
}

// MapError rewrites the failure arm, leaving successes untouched.
func (r Result[T]) MapError(f func(*Failure) *Failure) Result[T] {
	if r.failure == nil {
		return r
	}
	return Err[T](f(r.failure))
}

// Match destructures both arms. This is the single sanctioned dual
// destructure; inside a pipeline, prefer Map/Bind and let failure
// short-circuit.
func Match[T, R any](r Result[T], onOk func(T) R, onFail func(*Failure) R) R {
	if r.failure != nil {
		return onFail(r.failure)
	}
	return onOk(r.value)
}
