package model

import "gonum.org/v1/gonum/mat"

// Fitter is a model that can be trained on a feature matrix and target.
type Fitter interface {
	// Fit trains the model. y is an n×1 column matrix.
	Fit(X, y mat.Matrix) error
}

// Predictor is a model that produces predictions for input rows.
type Predictor interface {
	// Predict returns an n×1 column matrix of predictions.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer is a model that can score itself against held-out data.
type Scorer interface {
	// Score returns the coefficient of determination R² of the prediction.
	Score(X, y mat.Matrix) (float64, error)
}

// Regressor is the full contract expected of base and meta learners in a
// stacked ensemble.
type Regressor interface {
	Fitter
	Predictor
	Scorer
	IsFitted() bool
}

// Cloner produces a fresh, unfitted copy of a regressor with the same
// hyperparameters. Cross-validation and out-of-fold stacking fit one clone
// per fold; a regressor that cannot be cloned cannot report fold-level
// statistics.
type Cloner interface {
	CloneRegressor() Regressor
}

// Transformer is a stateful feature transformation such as scaling.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}
