// Panic recovery utilities. Estimator Fit/Predict entry points convert
// unexpected panics (out-of-range matrix access, nil models) into structured
// errors instead of tearing down the whole benchmark run.

package errors

import (
	"fmt"
	"runtime/debug"
)

// PanicError is an error created from a recovered panic. It keeps the
// original panic value and the stack trace captured at recovery time.
type PanicError struct {
	// PanicValue is the original value passed to panic()
	PanicValue interface{}

	// StackTrace contains the stack trace at the time of panic
	StackTrace string

	// Operation identifies where the panic was recovered
	Operation string
}

// Error implements the error interface for PanicError.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// Unwrap returns nil as PanicError doesn't wrap another error.
func (e *PanicError) Unwrap() error {
	return nil
}

// String provides detailed information including the stack trace.
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s",
		e.Operation, e.PanicValue, e.StackTrace)
}

// NewPanicError creates a new PanicError for the given operation and value.
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover converts a panic into an error assigned to *errPtr. Use with defer
// on the error return of the enclosing function:
//
//	func (s *StackingRegressor) Fit(X, y mat.Matrix) (err error) {
//	    defer errors.Recover(&err, "StackingRegressor.Fit")
//	    ...
//	}
//
// An error already present in *errPtr is preserved when no panic occurred.
func Recover(errPtr *error, operation string) {
	if r := recover(); r != nil {
		panicErr := NewPanicError(operation, r)
		*errPtr = WithStack(panicErr)
	}
}
