// This file contains panic recovery utilities. Classifiers handed to classigo are
// black boxes, so a panic inside one is converted into a structured error with
// debugging information instead of tearing down the caller.

package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// PanicError is a panic recovered from a classifier, trainer or other black-box call.
type PanicError struct {
	PanicValue interface{}
	StackTrace string
	// Operation names the call that panicked, e.g. "Classifier.Score".
	Operation string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

func (e *PanicError) Unwrap() error {
	return nil
}

// String includes the stack trace captured at recovery.
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s",
		e.Operation, e.PanicValue, e.StackTrace)
}

// MarshalZerologObject logs the operation and panic value; the stack trace is
// left to String.
func (e *PanicError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Str("panic_value", fmt.Sprintf("%v", e.PanicValue)).
		Str("type", "PanicError")
}

func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover must be deferred directly. A panic becomes a *PanicError in *err;
// if *err was already set, the panic is reported alongside it and the
// original error stays reachable through Is.
//
//	func (c *scorer) Score(row []float64) (s float64, err error) {
//	    defer errors.Recover(&err, "Classifier.Score")
//	    ...
//	}
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	if *err != nil {
		*err = fmt.Errorf("panic in %s: %v (original error: %w)", operation, r, *err)
		return
	}
	*err = NewPanicError(operation, r)
}

// SafeExecute runs fn, turning a panic into a *PanicError. Errors returned by
// fn pass through unchanged.
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
