package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/core/model"
	"github.com/YuminosukeSato/stackgo/metrics"
	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

// Ridge is L2-regularized least squares, w = (XᵀX + αI)⁻¹Xᵀy. It is the
// default meta learner for the stacked ensembles: the out-of-fold prediction
// columns fed to the second layer are strongly correlated, which plain OLS
// handles poorly.
type Ridge struct {
	model.BaseEstimator

	// Alpha is the L2 penalty strength. Zero recovers OLS.
	Alpha float64

	Weights   *mat.VecDense
	Intercept float64
	NFeatures int
}

// NewRidge creates an unfitted Ridge model with the given penalty.
func NewRidge(alpha float64) *Ridge {
	return &Ridge{Alpha: alpha}
}

// CloneRegressor returns a fresh unfitted copy with the same Alpha.
func (rg *Ridge) CloneRegressor() model.Regressor {
	return NewRidge(rg.Alpha)
}

// Fit trains the model. The intercept is estimated by centering and is not
// penalized.
func (rg *Ridge) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "Ridge.Fit")

	if rg.Alpha < 0 {
		return errors.NewValidationError("Alpha", "must be >= 0", rg.Alpha)
	}

	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("Ridge.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("Ridge.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("Ridge.Fit", "y must be a column vector")
	}

	rg.NFeatures = c

	// Center X and y so the intercept drops out of the penalized solve.
	colMeans := make([]float64, c)
	for j := 0; j < c; j++ {
		var sum float64
		for i := 0; i < r; i++ {
			sum += X.At(i, j)
		}
		colMeans[j] = sum / float64(r)
	}
	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(r)

	Xc := mat.NewDense(r, c, nil)
	yc := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			Xc.Set(i, j, X.At(i, j)-colMeans[j])
		}
		yc.SetVec(i, y.At(i, 0)-yMean)
	}

	var XTX mat.Dense
	XTX.Mul(Xc.T(), Xc)
	for j := 0; j < c; j++ {
		XTX.Set(j, j, XTX.At(j, j)+rg.Alpha)
	}

	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		return errors.NewModelError("Ridge.Fit", "singular matrix", errors.ErrSingularMatrix)
	}

	var XTy mat.VecDense
	XTy.MulVec(Xc.T(), yc)

	rg.Weights = mat.NewVecDense(c, nil)
	rg.Weights.MulVec(&XTXInv, &XTy)

	rg.Intercept = yMean
	for j := 0; j < c; j++ {
		rg.Intercept -= rg.Weights.AtVec(j) * colMeans[j]
	}

	rg.SetFitted()
	return nil
}

// Predict returns an n×1 matrix of predictions.
func (rg *Ridge) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !rg.IsFitted() {
		return nil, errors.NewNotFittedError("Ridge", "Predict")
	}

	r, c := X.Dims()
	if c != rg.NFeatures {
		return nil, errors.NewDimensionError("Ridge.Predict", rg.NFeatures, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		var sum float64
		for j := 0; j < c; j++ {
			sum += X.At(i, j) * rg.Weights.AtVec(j)
		}
		predictions.Set(i, 0, sum+rg.Intercept)
	}

	return predictions, nil
}

// Score returns the coefficient of determination R² on the given data.
func (rg *Ridge) Score(X, y mat.Matrix) (float64, error) {
	pred, err := rg.Predict(X)
	if err != nil {
		return 0, err
	}

	r, _ := y.Dims()
	yVec := mat.NewVecDense(r, nil)
	predVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
		predVec.SetVec(i, pred.At(i, 0))
	}
	return metrics.R2Score(yVec, predVec)
}
