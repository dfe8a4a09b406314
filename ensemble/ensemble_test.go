package ensemble

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/core/model"
	"github.com/YuminosukeSato/stackgo/crossval"
	"github.com/YuminosukeSato/stackgo/linear"
	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

// makeLinearData builds a noisy linear problem that every strategy should
// fit well.
func makeLinearData(n, seed int) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	X := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		a := rng.NormFloat64()
		b := rng.NormFloat64()
		c := rng.NormFloat64()
		X.Set(i, 0, a)
		X.Set(i, 1, b)
		X.Set(i, 2, c)
		y.Set(i, 0, 2*a-1.5*b+0.5*c+3+0.01*rng.NormFloat64())
	}
	return X, y
}

func linearBase() []NamedRegressor {
	return []NamedRegressor{
		{Name: "ols_a", Regressor: linear.NewLinearRegression()},
		{Name: "ols_b", Regressor: linear.NewRidge(0.1)},
	}
}

// constantRegressor always predicts a fixed value. Useful for checking
// averaging arithmetic exactly.
type constantRegressor struct {
	model.BaseEstimator
	value float64
}

func (c *constantRegressor) Fit(X, y mat.Matrix) error {
	c.SetFitted()
	return nil
}

func (c *constantRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, _ := X.Dims()
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		out.Set(i, 0, c.value)
	}
	return out, nil
}

func (c *constantRegressor) Score(X, y mat.Matrix) (float64, error) { return 0, nil }

func (c *constantRegressor) CloneRegressor() model.Regressor {
	return &constantRegressor{value: c.value}
}

// memorizingRegressor predicts 1 for any row it was fitted on and 0 for
// everything else, which makes out-of-fold leakage directly observable.
type memorizingRegressor struct {
	model.BaseEstimator
	seen map[[3]float64]bool
}

func (m *memorizingRegressor) Fit(X, y mat.Matrix) error {
	rows, _ := X.Dims()
	m.seen = make(map[[3]float64]bool, rows)
	for i := 0; i < rows; i++ {
		m.seen[[3]float64{X.At(i, 0), X.At(i, 1), X.At(i, 2)}] = true
	}
	m.SetFitted()
	return nil
}

func (m *memorizingRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, _ := X.Dims()
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		if m.seen[[3]float64{X.At(i, 0), X.At(i, 1), X.At(i, 2)}] {
			out.Set(i, 0, 1)
		}
	}
	return out, nil
}

func (m *memorizingRegressor) Score(X, y mat.Matrix) (float64, error) { return 0, nil }

func (m *memorizingRegressor) CloneRegressor() model.Regressor {
	return &memorizingRegressor{}
}

// frozenRegressor satisfies model.Regressor but not model.Cloner.
type frozenRegressor struct {
	model.BaseEstimator
}

func (f *frozenRegressor) Fit(X, y mat.Matrix) error                { f.SetFitted(); return nil }
func (f *frozenRegressor) Predict(X mat.Matrix) (mat.Matrix, error) { return nil, nil }
func (f *frozenRegressor) Score(X, y mat.Matrix) (float64, error)   { return 0, nil }

func TestStackingRegressorRecoversLinearSignal(t *testing.T) {
	X, y := makeLinearData(400, 7)

	stack := NewStackingRegressor(linearBase(), linear.NewRidge(0.01))
	require.NoError(t, stack.Fit(X, y))

	score, err := stack.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, score, 0.99, "stacked model should fit a near-linear target")
}

func TestStackingRegressorSingleBaseTracksBase(t *testing.T) {
	X, y := makeLinearData(300, 11)

	base := linear.NewLinearRegression()
	require.NoError(t, base.Fit(X, y))
	basePred, err := base.Predict(X)
	require.NoError(t, err)

	stack := NewStackingRegressor(
		[]NamedRegressor{{Name: "ols", Regressor: linear.NewLinearRegression()}},
		linear.NewLinearRegression(),
	)
	require.NoError(t, stack.Fit(X, y))
	stackPred, err := stack.Predict(X)
	require.NoError(t, err)

	// With one base learner and an unregularized linear meta learner the
	// stack reduces to an affine recalibration of the base predictions.
	rows, _ := basePred.Dims()
	for i := 0; i < rows; i++ {
		assert.InDelta(t, basePred.At(i, 0), stackPred.At(i, 0), 1e-2)
	}
}

func TestStackingRegressorValidation(t *testing.T) {
	X, y := makeLinearData(50, 1)

	t.Run("empty base", func(t *testing.T) {
		stack := NewStackingRegressor(nil, linear.NewLinearRegression())
		err := stack.Fit(X, y)
		require.Error(t, err)
		var ve *errors.ValidationError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("non-cloneable base", func(t *testing.T) {
		stack := NewStackingRegressor(
			[]NamedRegressor{{Name: "frozen", Regressor: &frozenRegressor{}}},
			linear.NewLinearRegression(),
		)
		err := stack.Fit(X, y)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrNotCloneable))
	})

	t.Run("predict before fit", func(t *testing.T) {
		stack := NewStackingRegressor(linearBase(), linear.NewLinearRegression())
		_, err := stack.Predict(X)
		require.Error(t, err)
		var nf *errors.NotFittedError
		assert.True(t, errors.As(err, &nf))
	})
}

func TestStackingRegressorPassThroughWidensMetaInput(t *testing.T) {
	X, y := makeLinearData(200, 3)

	plain := NewStackingRegressor(linearBase(), linear.NewRidge(0.01))
	require.NoError(t, plain.Fit(X, y))

	wide := NewStackingRegressor(linearBase(), linear.NewRidge(0.01)).WithPassThrough()
	require.NoError(t, wide.Fit(X, y))

	pred, err := wide.Predict(X)
	require.NoError(t, err)
	rows, cols := pred.Dims()
	assert.Equal(t, 200, rows)
	assert.Equal(t, 1, cols)
}

func TestBuildOOFNeverLeaksInFoldRows(t *testing.T) {
	X, y := makeLinearData(100, 23)

	base := []NamedRegressor{{Name: "memo", Regressor: &memorizingRegressor{}}}
	folds := crossval.NewKFold(5, true, 23).Split(X)

	oof, err := buildOOF(base, X, y, folds, 3)
	require.NoError(t, err)

	// A fold model saw none of the rows it predicts, so every out-of-fold
	// cell must be 0.
	rows, _ := oof.Dims()
	for i := 0; i < rows; i++ {
		assert.Equal(t, 0.0, oof.At(i, 0), "row %d was predicted by a model that trained on it", i)
	}
}

func TestSuperLearnerFoldData(t *testing.T) {
	X, y := makeLinearData(250, 5)

	sl := NewSuperLearner(linearBase(), linear.NewRidge(0.01)).WithNSplits(5)
	require.NoError(t, sl.Fit(X, y))

	stats, err := sl.FoldData()
	require.NoError(t, err)
	require.Len(t, stats, 5)

	for i, fs := range stats {
		assert.Equal(t, i, fs.Fold)
		assert.False(t, math.IsNaN(fs.MSE))
		assert.Less(t, fs.MSE, 0.05, "fold MSE should be small on a near-linear target")
		assert.Greater(t, fs.FitSeconds, 0.0)
	}
}

func TestSuperLearnerFoldDataBeforeFit(t *testing.T) {
	sl := NewSuperLearner(linearBase(), linear.NewRidge(0.01))
	_, err := sl.FoldData()
	require.Error(t, err)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
}

func TestSuperLearnerDeterministicUnderSeed(t *testing.T) {
	X, y := makeLinearData(200, 9)

	run := func() mat.Matrix {
		sl := NewSuperLearner(linearBase(), linear.NewRidge(0.01)).WithSeed(13)
		require.NoError(t, sl.Fit(X, y))
		pred, err := sl.Predict(X)
		require.NoError(t, err)
		return pred
	}

	p1 := run()
	p2 := run()
	rows, _ := p1.Dims()
	for i := 0; i < rows; i++ {
		assert.Equal(t, p1.At(i, 0), p2.At(i, 0))
	}
}

func TestBlendingRegressorFitsHoldout(t *testing.T) {
	X, y := makeLinearData(400, 17)

	blend := NewBlendingRegressor(linearBase(), linear.NewRidge(0.01))
	require.NoError(t, blend.Fit(X, y))

	score, err := blend.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, score, 0.99)
}

func TestBlendingRegressorHoldoutFractionValidation(t *testing.T) {
	X, y := makeLinearData(50, 1)

	for _, frac := range []float64{0, 1, -0.5, 1.5} {
		blend := NewBlendingRegressor(linearBase(), linear.NewRidge(0.01)).
			WithHoldoutFraction(frac)
		err := blend.Fit(X, y)
		require.Error(t, err, "fraction %v", frac)
		var ve *errors.ValidationError
		assert.True(t, errors.As(err, &ve))
	}
}

func TestVotingRegressorUniformAverage(t *testing.T) {
	X, y := makeLinearData(20, 1)

	vote := NewVotingRegressor([]NamedRegressor{
		{Name: "low", Regressor: &constantRegressor{value: 1}},
		{Name: "high", Regressor: &constantRegressor{value: 3}},
	})
	require.NoError(t, vote.Fit(X, y))

	pred, err := vote.Predict(X)
	require.NoError(t, err)
	rows, _ := pred.Dims()
	for i := 0; i < rows; i++ {
		assert.InDelta(t, 2.0, pred.At(i, 0), 1e-12)
	}
}

func TestVotingRegressorWeightedAverage(t *testing.T) {
	X, y := makeLinearData(20, 1)

	vote := NewVotingRegressor([]NamedRegressor{
		{Name: "low", Regressor: &constantRegressor{value: 1}},
		{Name: "high", Regressor: &constantRegressor{value: 3}},
	}).WithWeights([]float64{3, 1})
	require.NoError(t, vote.Fit(X, y))

	pred, err := vote.Predict(X)
	require.NoError(t, err)
	rows, _ := pred.Dims()
	for i := 0; i < rows; i++ {
		assert.InDelta(t, 1.5, pred.At(i, 0), 1e-12)
	}
}

func TestVotingRegressorWeightValidation(t *testing.T) {
	X, y := makeLinearData(20, 1)

	cases := map[string][]float64{
		"length mismatch": {1},
		"negative":        {1, -1},
		"all zero":        {0, 0},
	}
	for name, weights := range cases {
		t.Run(name, func(t *testing.T) {
			vote := NewVotingRegressor(linearBase()).WithWeights(weights)
			err := vote.Fit(X, y)
			require.Error(t, err)
			var ve *errors.ValidationError
			assert.True(t, errors.As(err, &ve))
		})
	}
}

func TestCloneRegressorProducesUnfittedCopies(t *testing.T) {
	X, y := makeLinearData(120, 21)

	ests := []model.Regressor{
		NewStackingRegressor(linearBase(), linear.NewRidge(0.01)),
		NewSuperLearner(linearBase(), linear.NewRidge(0.01)),
		NewBlendingRegressor(linearBase(), linear.NewRidge(0.01)),
		NewVotingRegressor(linearBase()),
	}
	for _, est := range ests {
		require.NoError(t, est.Fit(X, y))

		clone := est.(model.Cloner).CloneRegressor()
		assert.False(t, clone.IsFitted())

		require.NoError(t, clone.Fit(X, y))
		p1, err := est.Predict(X)
		require.NoError(t, err)
		p2, err := clone.Predict(X)
		require.NoError(t, err)
		rows, _ := p1.Dims()
		for i := 0; i < rows; i++ {
			assert.InDelta(t, p1.At(i, 0), p2.At(i, 0), 1e-9)
		}
	}
}
