package ensemble

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/core/model"
	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

// VotingRegressor averages the predictions of its base learners, optionally
// with per-learner weights. There is no meta learner; every base learner is
// fitted on the full training set.
type VotingRegressor struct {
	model.BaseEstimator

	Base []NamedRegressor

	// Weights holds one non-negative weight per base learner. Nil means
	// uniform averaging.
	Weights []float64

	fittedBase []model.Regressor
	nFeatures  int
}

// NewVotingRegressor creates a uniform-average voting regressor.
func NewVotingRegressor(base []NamedRegressor) *VotingRegressor {
	return &VotingRegressor{Base: base}
}

// WithWeights sets per-learner averaging weights.
func (v *VotingRegressor) WithWeights(weights []float64) *VotingRegressor {
	v.Weights = weights
	return v
}

// CloneRegressor returns an unfitted copy with cloned base learners.
func (v *VotingRegressor) CloneRegressor() model.Regressor {
	clone := NewVotingRegressor(cloneBase(v.Base))
	if v.Weights != nil {
		clone.Weights = make([]float64, len(v.Weights))
		copy(clone.Weights, v.Weights)
	}
	return clone
}

func (v *VotingRegressor) validateWeights() error {
	if v.Weights == nil {
		return nil
	}
	if len(v.Weights) != len(v.Base) {
		return errors.NewValidationError("Weights", "must match the number of base learners", len(v.Weights))
	}
	var sum float64
	for _, w := range v.Weights {
		if w < 0 {
			return errors.NewValidationError("Weights", "must be non-negative", w)
		}
		sum += w
	}
	if sum == 0 {
		return errors.NewValidationError("Weights", "must not all be zero", sum)
	}
	return nil
}

// Fit fits every base learner on the full training set.
func (v *VotingRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "VotingRegressor.Fit")

	if err := validateBase("VotingRegressor.Fit", v.Base); err != nil {
		return err
	}
	if err := v.validateWeights(); err != nil {
		return err
	}

	_, cols, err := checkXY("VotingRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	v.nFeatures = cols

	v.fittedBase = make([]model.Regressor, len(v.Base))
	for j, nb := range v.Base {
		est := cloneRegressor(nb.Regressor)
		if err := est.Fit(X, y); err != nil {
			return errors.Wrapf(err, "VotingRegressor.Fit: base learner %q", nb.Name)
		}
		v.fittedBase[j] = est
	}

	v.SetFitted()
	return nil
}

// Predict returns the weighted average of the base predictions.
func (v *VotingRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !v.IsFitted() {
		return nil, errors.NewNotFittedError("VotingRegressor", "Predict")
	}

	rows, cols := X.Dims()
	if cols != v.nFeatures {
		return nil, errors.NewDimensionError("VotingRegressor.Predict", v.nFeatures, cols, 1)
	}

	weights := v.Weights
	if weights == nil {
		weights = make([]float64, len(v.fittedBase))
		for j := range weights {
			weights[j] = 1
		}
	}
	var wSum float64
	for _, w := range weights {
		wSum += w
	}

	out := mat.NewDense(rows, 1, nil)
	for j, est := range v.fittedBase {
		pred, err := est.Predict(X)
		if err != nil {
			return nil, errors.Wrapf(err, "VotingRegressor.Predict: base learner %q", v.Base[j].Name)
		}
		w := weights[j] / wSum
		for i := 0; i < rows; i++ {
			out.Set(i, 0, out.At(i, 0)+w*pred.At(i, 0))
		}
	}
	return out, nil
}

// Score returns the coefficient of determination R² on the given data.
func (v *VotingRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !v.IsFitted() {
		return 0, errors.NewNotFittedError("VotingRegressor", "Score")
	}
	return scoreR2(v, X, y)
}
