package models

// Result always carries a usable value. Err is non-nil when Value is a default
// substituted for a failed lookup.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Degraded wraps a default value together with the failure that produced it.
func Degraded[T any](def T, err error) Result[T] {
	return Result[T]{Value: def, Err: err}
}

// IsDegraded reports whether the value is a fallback.
func (r Result[T]) IsDegraded() bool {
	return r.Err != nil
}
