package result

// Result is a two-variant value: success carrying a value, or an error
// carrying its cause and kind. It is the primary cross-component contract;
// callers can inspect, map, and recover without unwrapping.
type Result[T any] struct {
	value T
	err   error
	kind  Kind
}

// Ok wraps a successful value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err wraps a failure with an explicit kind.
func Err[T any](kind Kind, cause error) Result[T] {
	return Result[T]{err: cause, kind: kind}
}

// Fail wraps a failure, classifying the cause.
func Fail[T any](cause error) Result[T] {
	return Result[T]{err: cause, kind: Classify(cause)}
}

// IsOk reports whether the result holds a value.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// IsErr reports whether the result holds an error.
func (r Result[T]) IsErr() bool {
	return r.err != nil
}

// Value returns the value and error in conventional Go form.
func (r Result[T]) Value() (T, error) {
	return r.value, r.err
}

// Err returns the underlying error, nil on success.
func (r Result[T]) Err() error {
	return r.err
}

// Kind returns the error kind; KindUnknown for successful results.
func (r Result[T]) Kind() Kind {
	return r.kind
}

// Recoverable reports whether the held failure may succeed on retry.
// Successful results are not recoverable (there is nothing to recover).
func (r Result[T]) Recoverable() bool {
	return r.err != nil && r.kind.Recoverable()
}

// OrElse returns the value, or def when the result is an error.
func (r Result[T]) OrElse(def T) T {
	if r.err != nil {
		return def
	}

	return r.value
}

// Recover converts an error result into a success using fn. Successful
// results pass through unchanged.
func (r Result[T]) Recover(fn func(kind Kind, cause error) T) Result[T] {
	if r.err == nil {
		return r
	}

	return Ok(fn(r.kind, r.err))
}

// Map transforms a successful result's value; error results pass through
// with their kind and cause intact.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.err != nil {
		return Err[U](r.kind, r.err)
	}

	return Ok(fn(r.value))
}
