package errors

import (
	"math"
	"strings"
	"testing"
)

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("StackingRegressor", "Predict")

	var nfe *NotFittedError
	if !As(err, &nfe) {
		t.Fatalf("expected NotFittedError, got %T", err)
	}
	if nfe.ModelName != "StackingRegressor" || nfe.Method != "Predict" {
		t.Errorf("unexpected fields: %+v", nfe)
	}
	if !strings.Contains(err.Error(), "not fitted") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestDimensionError(t *testing.T) {
	err := NewDimensionError("Fit", 8, 5, 1)

	var de *DimensionError
	if !As(err, &de) {
		t.Fatalf("expected DimensionError, got %T", err)
	}
	if de.Expected != 8 || de.Got != 5 || de.Axis != 1 {
		t.Errorf("unexpected fields: %+v", de)
	}
	if !strings.Contains(err.Error(), "features") {
		t.Errorf("axis 1 should report features: %s", err.Error())
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("NSplits", "must be >= 2", 1)
	var ve *ValidationError
	if !As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if ve.ParamName != "NSplits" {
		t.Errorf("unexpected param: %s", ve.ParamName)
	}
}

func TestModelErrorUnwrap(t *testing.T) {
	err := NewModelError("LinearRegression.Fit", "singular matrix", ErrSingularMatrix)
	if !Is(err, ErrSingularMatrix) {
		t.Error("ModelError should unwrap to ErrSingularMatrix")
	}
}

func TestUndefinedMetricWarning(t *testing.T) {
	w := NewUndefinedMetricWarning("cv_mse", "no fold-level scores", math.NaN())
	if !strings.Contains(w.Error(), "cv_mse") {
		t.Errorf("unexpected message: %s", w.Error())
	}
}

func TestWarnHandler(t *testing.T) {
	var captured error
	SetWarningHandler(func(w error) { captured = w })
	defer SetWarningHandler(nil)

	warning := NewConvergenceWarning("gbr", 100, "")
	Warn(warning)

	if captured == nil || !strings.Contains(captured.Error(), "gbr") {
		t.Errorf("warning not routed to handler: %v", captured)
	}
}

func TestRecover(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err, "test.op")
		panic("boom")
	}

	err := run()
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	var pe *PanicError
	if !As(err, &pe) {
		t.Fatalf("expected PanicError, got %T", err)
	}
	if pe.Operation != "test.op" {
		t.Errorf("unexpected operation: %s", pe.Operation)
	}
	if pe.StackTrace == "" {
		t.Error("stack trace should be captured")
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("op", []float64{1, 2, 3}, 0); err != nil {
		t.Errorf("finite values should pass: %v", err)
	}
	if err := CheckNumericalStability("op", []float64{1, math.NaN()}, 3); err == nil {
		t.Error("NaN should fail the check")
	}
	if err := CheckScalar("op", math.Inf(1), 0); err == nil {
		t.Error("Inf should fail the check")
	}
}

func TestSafeDivide(t *testing.T) {
	if got := SafeDivide(1, 0); got != 0 {
		t.Errorf("division by zero should return 0, got %v", got)
	}
	if got := SafeDivide(6, 3); got != 2 {
		t.Errorf("expected 2, got %v", got)
	}
}
