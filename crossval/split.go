// Package crossval provides train/test splitting, k-fold cross-validation
// and cross-validated scoring for regressors.
package crossval

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

// TrainTestSplit shuffles the rows of X and y with the given seed and splits
// them into train and test portions. testSize is the test fraction in (0, 1).
func TrainTestSplit(X, y mat.Matrix, testSize float64, seed int) (XTrain, XTest, yTrain, yTest *mat.Dense, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, nil, nil, errors.NewValidationError("testSize", "must be in (0, 1)", testSize)
	}

	n, c := X.Dims()
	yRows, yCols := y.Dims()
	if n == 0 {
		return nil, nil, nil, nil, errors.NewModelError("TrainTestSplit", "empty data", errors.ErrEmptyData)
	}
	if yRows != n {
		return nil, nil, nil, nil, errors.NewDimensionError("TrainTestSplit", n, yRows, 0)
	}
	if yCols != 1 {
		return nil, nil, nil, nil, errors.NewValueError("TrainTestSplit", "y must be a column vector")
	}

	nTest := int(math.Round(testSize * float64(n)))
	if nTest == 0 {
		nTest = 1
	}
	if nTest >= n {
		nTest = n - 1
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	perm := rng.Perm(n)

	testIdx := perm[:nTest]
	trainIdx := perm[nTest:]

	XTrain, yTrain = takeRows(X, y, trainIdx, c)
	XTest, yTest = takeRows(X, y, testIdx, c)
	return XTrain, XTest, yTrain, yTest, nil
}

// takeRows copies the selected rows of X and y into fresh matrices.
func takeRows(X, y mat.Matrix, idx []int, cols int) (*mat.Dense, *mat.Dense) {
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
