// Package ensemble implements the four stacked-ensemble strategies the
// benchmark compares: out-of-fold stacking, the super learner, holdout
// blending and prediction averaging. All strategies share the same two-layer
// shape — base regressors whose predictions become the feature matrix of a
// meta regressor — and differ in how the meta features are produced.
package ensemble

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/core/model"
	"github.com/YuminosukeSato/stackgo/metrics"
	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

// NamedRegressor pairs a base learner with the name it gets in meta-feature
// column ordering, logs and reports.
type NamedRegressor struct {
	Name      string
	Regressor model.Regressor
}

// validateBase checks the base layer configuration shared by all strategies.
// Every base learner must be cloneable: strategies fit fresh copies per fold
// or per holdout, never the caller's instance.
func validateBase(op string, base []NamedRegressor) error {
	if len(base) == 0 {
		return errors.NewValidationError("base", "at least one base learner is required", len(base))
	}
	for i, b := range base {
		if b.Regressor == nil {
			return errors.NewValidationError("base", "nil regressor at index "+b.Name, i)
		}
		if _, ok := b.Regressor.(model.Cloner); !ok {
			return errors.Wrapf(errors.ErrNotCloneable, "%s: base learner %q", op, b.Name)
		}
	}
	return nil
}

// validateMeta checks the meta learner.
func validateMeta(op string, meta model.Regressor) error {
	if meta == nil {
		return errors.NewValidationError("meta", "meta learner is required", nil)
	}
	if _, ok := meta.(model.Cloner); !ok {
		return errors.Wrapf(errors.ErrNotCloneable, "%s: meta learner", op)
	}
	return nil
}

// cloneRegressor returns a fresh unfitted copy. Callers must have validated
// that est implements Cloner.
func cloneRegressor(est model.Regressor) model.Regressor {
	return est.(model.Cloner).CloneRegressor()
}

// cloneBase clones every base learner configuration.
func cloneBase(base []NamedRegressor) []NamedRegressor {
	out := make([]NamedRegressor, len(base))
	for i, b := range base {
		out[i] = NamedRegressor{Name: b.Name, Regressor: cloneRegressor(b.Regressor)}
	}
	return out
}

// checkXY validates the training input shape.
func checkXY(op string, X, y mat.Matrix) (rows, cols int, err error) {
	rows, cols = X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if yRows != rows {
		return 0, 0, errors.NewDimensionError(op, rows, yRows, 0)
	}
	if yCols != 1 {
		return 0, 0, errors.NewValueError(op, "y must be a column vector")
	}
	return rows, cols, nil
}

// subsetRows copies the selected rows of X and y into fresh matrices.
func subsetRows(X, y mat.Matrix, idx []int, cols int) (*mat.Dense, *mat.Dense) {
	outX := mat.NewDense(len(idx), cols, nil)
	outY := mat.NewDense(len(idx), 1, nil)
	for to, from := range idx {
		for j := 0; j < cols; j++ {
			outX.Set(to, j, X.At(from, j))
		}
		outY.Set(to, 0, y.At(from, 0))
	}
	return outX, outY
}

// baseMetaFeatures predicts X with every fitted base learner and assembles
// the meta-feature matrix: column j holds base learner j's predictions, with
// the raw features appended when passThrough is set.
func baseMetaFeatures(fitted []model.Regressor, X mat.Matrix, passThrough bool) (*mat.Dense, error) {
	rows, cols := X.Dims()
	width := len(fitted)
	if passThrough {
		width += cols
	}

	out := mat.NewDense(rows, width, nil)
	for j, est := range fitted {
		pred, err := est.Predict(X)
		if err != nil {
			return nil, err
		}
		for i := 0; i < rows; i++ {
			out.Set(i, j, pred.At(i, 0))
		}
	}
	if passThrough {
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				out.Set(i, len(fitted)+j, X.At(i, j))
			}
		}
	}
	return out, nil
}

// scoreR2 computes Score for the ensembles, all of which share the R²
// convention of the base learners.
func scoreR2(est model.Predictor, X, y mat.Matrix) (float64, error) {
	pred, err := est.Predict(X)
	if err != nil {
		return 0, err
	}

	rows, _ := y.Dims()
	yVec := mat.NewVecDense(rows, nil)
	predVec := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		yVec.SetVec(i, y.At(i, 0))
		predVec.SetVec(i, pred.At(i, 0))
	}
	return metrics.R2Score(yVec, predVec)
}
