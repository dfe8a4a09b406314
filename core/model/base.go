// Package model defines the estimator contracts shared by every learner in
// stackgo, plus the BaseEstimator embedding that tracks fitted state.
package model

// EstimatorState represents the training state of an estimator.
type EstimatorState int

const (
	// NotFitted means Fit has not completed on this estimator.
	NotFitted EstimatorState = iota
	// Fitted means the estimator holds trained parameters.
	Fitted
)

// BaseEstimator is embedded by every estimator to track fitted state.
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted reports whether the estimator has been fitted.
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted marks the estimator as fitted.
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset returns the estimator to the unfitted state.
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}
