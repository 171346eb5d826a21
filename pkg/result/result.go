// Package result provides a two-variant success/failure container for
// operations that report failure as a value rather than through control flow.
//
// A Result holds exactly one of a value of type T or an error of type E.
// Build one with Success or Failure; the zero Result is not valid and reports
// itself as a failure with a zero error.
package result

import (
	"fmt"
	"reflect"
)

type Result[T any, E error] struct {
	value T
	err   E
	ok    bool
}

// Success wraps a value.
func Success[T any, E error](value T) Result[T, E] {
	return Result[T, E]{value: value, ok: true}
}

// Failure wraps an error. It panics when err is nil, since a failure with no
// error would be indistinguishable from a broken Result.
func Failure[T any, E error](err E) Result[T, E] {
	if isNil(err) {
		panic("result: Failure called with nil error")
	}
	return Result[T, E]{err: err}
}

func (r Result[T, E]) IsSuccess() bool { return r.ok }

func (r Result[T, E]) IsFailure() bool { return !r.ok }

// Value returns the success value, or the zero T for a failure.
func (r Result[T, E]) Value() T { return r.value }

// Err returns the failure error, or the zero E for a success.
func (r Result[T, E]) Err() E { return r.err }

// Unpack returns both slots and whether the Result is a success.
func (r Result[T, E]) Unpack() (T, E, bool) {
	return r.value, r.err, r.ok
}

func (r Result[T, E]) String() string {
	if r.ok {
		return fmt.Sprintf("Success(%v)", r.value)
	}
	return fmt.Sprintf("Failure(%v)", r.err)
}

// Match folds a Result into a single value.
func Match[T any, E error, R any](r Result[T, E], onSuccess func(T) R, onFailure func(E) R) R {
	if r.ok {
		return onSuccess(r.value)
	}
	return onFailure(r.err)
}

// Map transforms the success value and passes failures through untouched.
func Map[T, U any, E error](r Result[T, E], fn func(T) U) Result[U, E] {
	if !r.ok {
		return Result[U, E]{err: r.err}
	}
	return Success[U, E](fn(r.value))
}

func isNil(err error) bool {
	if err == nil {
		return true
	}
	v := reflect.ValueOf(err)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
