package boosting

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

// makeData generates y = 4*x0 - 3*x1 + noise on nSamples rows of 3 features,
// so feature 2 is pure noise.
func makeData(nSamples int, noise float64, seed uint64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	X := mat.NewDense(nSamples, 3, nil)
	y := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		x0 := rng.Float64()*10 - 5
		x1 := rng.Float64()*10 - 5
		x2 := rng.Float64()*10 - 5
		X.Set(i, 0, x0)
		X.Set(i, 1, x1)
		X.Set(i, 2, x2)
		y.Set(i, 0, 4*x0-3*x1+noise*rng.NormFloat64())
	}
	return X, y
}

func TestGradientBoostingLossDecreases(t *testing.T) {
	X, y := makeData(300, 0, 7)

	gbr := NewGradientBoostingRegressor().
		WithNumIterations(50).
		WithMaxDepth(3).
		WithMinSamplesLeaf(5)

	require.NoError(t, gbr.Fit(X, y))

	loss := gbr.TrainLoss()
	require.Len(t, loss, 50)
	for i := 1; i < len(loss); i++ {
		assert.LessOrEqual(t, loss[i], loss[i-1]+1e-9,
			"train MSE should not increase on noiseless data (iter %d)", i)
	}
	assert.Less(t, loss[len(loss)-1], loss[0], "boosting should reduce the loss")
}

func TestGradientBoostingBeatsConstant(t *testing.T) {
	X, y := makeData(400, 0.5, 11)

	gbr := NewGradientBoostingRegressor().
		WithNumIterations(100).
		WithMaxDepth(4).
		WithMinSamplesLeaf(5)

	require.NoError(t, gbr.Fit(X, y))

	score, err := gbr.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, score, 0.9, "R² on training data should be high")
}

func TestGradientBoostingDeterministicUnderSeed(t *testing.T) {
	X, y := makeData(250, 1.0, 3)

	fit := func() []float64 {
		gbr := NewGradientBoostingRegressor().
			WithNumIterations(30).
			WithMinSamplesLeaf(5).
			WithSubsample(0.7).
			WithFeatureFraction(0.67).
			WithSeed(99)
		require.NoError(t, gbr.Fit(X, y))
		pred, err := gbr.Predict(X)
		require.NoError(t, err)
		rows, _ := pred.Dims()
		out := make([]float64, rows)
		for i := 0; i < rows; i++ {
			out[i] = pred.At(i, 0)
		}
		return out
	}

	first := fit()
	second := fit()
	assert.Equal(t, first, second, "same seed must reproduce predictions exactly")
}

func TestGradientBoostingFeatureImportances(t *testing.T) {
	X, y := makeData(400, 0.1, 5)

	gbr := NewGradientBoostingRegressor().
		WithNumIterations(40).
		WithMinSamplesLeaf(5)
	require.NoError(t, gbr.Fit(X, y))

	imp, err := gbr.FeatureImportances()
	require.NoError(t, err)
	require.Len(t, imp, 3)

	var total float64
	for _, v := range imp {
		total += v
	}
	assert.InDelta(t, 1.0, total, 1e-9, "importances should be normalized")
	assert.Greater(t, imp[0], imp[2], "informative feature should outrank noise")
	assert.Greater(t, imp[1], imp[2], "informative feature should outrank noise")
}

func TestGradientBoostingNotFitted(t *testing.T) {
	gbr := NewGradientBoostingRegressor()
	_, err := gbr.Predict(mat.NewDense(1, 3, nil))

	var nfe *errors.NotFittedError
	assert.True(t, errors.As(err, &nfe), "expected NotFittedError, got %v", err)
}

func TestGradientBoostingValidation(t *testing.T) {
	X, y := makeData(50, 0, 1)

	cases := []struct {
		name   string
		mutate func(*GradientBoostingRegressor)
	}{
		{"zero iterations", func(g *GradientBoostingRegressor) { g.NumIterations = 0 }},
		{"bad learning rate", func(g *GradientBoostingRegressor) { g.LearningRate = 1.5 }},
		{"zero depth", func(g *GradientBoostingRegressor) { g.MaxDepth = 0 }},
		{"bad subsample", func(g *GradientBoostingRegressor) { g.Subsample = 0 }},
		{"bad feature fraction", func(g *GradientBoostingRegressor) { g.FeatureFraction = 2 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gbr := NewGradientBoostingRegressor()
			tc.mutate(gbr)
			err := gbr.Fit(X, y)
			var ve *errors.ValidationError
			assert.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
		})
	}
}

func TestGradientBoostingDimensionChecks(t *testing.T) {
	X, y := makeData(60, 0, 2)
	gbr := NewGradientBoostingRegressor().WithNumIterations(5).WithMinSamplesLeaf(5)
	require.NoError(t, gbr.Fit(X, y))

	_, err := gbr.Predict(mat.NewDense(2, 5, nil))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de), "expected DimensionError, got %v", err)

	assert.Error(t, gbr.Fit(X, mat.NewDense(10, 1, nil)), "row mismatch should error")
}

func TestGradientBoostingClone(t *testing.T) {
	gbr := NewGradientBoostingRegressor().WithNumIterations(7).WithSeed(5)
	clone := gbr.CloneRegressor().(*GradientBoostingRegressor)

	assert.False(t, clone.IsFitted())
	assert.Equal(t, 7, clone.NumIterations)
	assert.Equal(t, 5, clone.Seed)
}

func TestGradientBoostingNaNTarget(t *testing.T) {
	X, _ := makeData(50, 0, 9)
	y := mat.NewDense(50, 1, nil)
	y.Set(3, 0, math.NaN())

	gbr := NewGradientBoostingRegressor().WithNumIterations(5).WithMinSamplesLeaf(5)
	err := gbr.Fit(X, y)
	var nie *errors.NumericalInstabilityError
	assert.True(t, errors.As(err, &nie), "NaN target should fail fast, got %v", err)
}
