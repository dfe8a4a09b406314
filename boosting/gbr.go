// Package boosting implements least-squares gradient boosting over
// regression trees, the second base learner of the benchmark. The training
// loop follows the usual boosting shape: compute residuals against the
// current ensemble, fit a shallow tree to them, and add the tree scaled by
// the learning rate.
package boosting

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/core/model"
	"github.com/YuminosukeSato/stackgo/core/parallel"
	"github.com/YuminosukeSato/stackgo/metrics"
	"github.com/YuminosukeSato/stackgo/pkg/errors"
	"github.com/YuminosukeSato/stackgo/pkg/log"
)

// GradientBoostingRegressor is a least-squares boosted tree ensemble with a
// scikit-learn compatible surface.
type GradientBoostingRegressor struct {
	model.BaseEstimator

	// Hyperparameters
	NumIterations   int     // number of boosting rounds
	LearningRate    float64 // shrinkage applied to each tree
	MaxDepth        int     // depth limit per tree
	MinSamplesLeaf  int     // minimum rows per leaf
	Subsample       float64 // row sampling fraction per tree, (0, 1]
	FeatureFraction float64 // column sampling fraction per tree, (0, 1]
	Seed            int     // RNG seed for row/column sampling
	Verbose         bool    // log training progress

	// Fitted state
	initScore  float64
	trees      []*regressionTree
	trainLoss  []float64
	nFeatures  int
}

// NewGradientBoostingRegressor creates a regressor with the defaults used
// throughout the benchmark.
func NewGradientBoostingRegressor() *GradientBoostingRegressor {
	return &GradientBoostingRegressor{
		NumIterations:   100,
		LearningRate:    0.1,
		MaxDepth:        3,
		MinSamplesLeaf:  20,
		Subsample:       1.0,
		FeatureFraction: 1.0,
		Seed:            42,
	}
}

// WithNumIterations sets the number of boosting rounds.
func (g *GradientBoostingRegressor) WithNumIterations(n int) *GradientBoostingRegressor {
	g.NumIterations = n
	return g
}

// WithLearningRate sets the shrinkage factor.
func (g *GradientBoostingRegressor) WithLearningRate(lr float64) *GradientBoostingRegressor {
	g.LearningRate = lr
	return g
}

// WithMaxDepth sets the per-tree depth limit.
func (g *GradientBoostingRegressor) WithMaxDepth(d int) *GradientBoostingRegressor {
	g.MaxDepth = d
	return g
}

// WithMinSamplesLeaf sets the minimum rows per leaf.
func (g *GradientBoostingRegressor) WithMinSamplesLeaf(n int) *GradientBoostingRegressor {
	g.MinSamplesLeaf = n
	return g
}

// WithSubsample sets the per-tree row sampling fraction.
func (g *GradientBoostingRegressor) WithSubsample(f float64) *GradientBoostingRegressor {
	g.Subsample = f
	return g
}

// WithFeatureFraction sets the per-tree column sampling fraction.
func (g *GradientBoostingRegressor) WithFeatureFraction(f float64) *GradientBoostingRegressor {
	g.FeatureFraction = f
	return g
}

// WithSeed sets the sampling seed.
func (g *GradientBoostingRegressor) WithSeed(seed int) *GradientBoostingRegressor {
	g.Seed = seed
	return g
}

// CloneRegressor returns an unfitted copy with the same hyperparameters.
func (g *GradientBoostingRegressor) CloneRegressor() model.Regressor {
	clone := NewGradientBoostingRegressor()
	clone.NumIterations = g.NumIterations
	clone.LearningRate = g.LearningRate
	clone.MaxDepth = g.MaxDepth
	clone.MinSamplesLeaf = g.MinSamplesLeaf
	clone.Subsample = g.Subsample
	clone.FeatureFraction = g.FeatureFraction
	clone.Seed = g.Seed
	clone.Verbose = g.Verbose
	return clone
}

func (g *GradientBoostingRegressor) validateParams() error {
	if g.NumIterations <= 0 {
		return errors.NewValidationError("NumIterations", "must be > 0", g.NumIterations)
	}
	if g.LearningRate <= 0 || g.LearningRate > 1 {
		return errors.NewValidationError("LearningRate", "must be in (0, 1]", g.LearningRate)
	}
	if g.MaxDepth <= 0 {
		return errors.NewValidationError("MaxDepth", "must be > 0", g.MaxDepth)
	}
	if g.MinSamplesLeaf <= 0 {
		return errors.NewValidationError("MinSamplesLeaf", "must be > 0", g.MinSamplesLeaf)
	}
	if g.Subsample <= 0 || g.Subsample > 1 {
		return errors.NewValidationError("Subsample", "must be in (0, 1]", g.Subsample)
	}
	if g.FeatureFraction <= 0 || g.FeatureFraction > 1 {
		return errors.NewValidationError("FeatureFraction", "must be in (0, 1]", g.FeatureFraction)
	}
	return nil
}

// Fit trains the boosted ensemble on X and the n×1 target y.
func (g *GradientBoostingRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "GradientBoostingRegressor.Fit")

	if err := g.validateParams(); err != nil {
		return err
	}

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()

	if rows == 0 || cols == 0 {
		return errors.NewModelError("GradientBoostingRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if rows != yRows {
		return errors.NewDimensionError("GradientBoostingRegressor.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("GradientBoostingRegressor.Fit", "y must be a column vector")
	}

	g.nFeatures = cols

	// Row-major copies; tree construction indexes rows constantly.
	data := make([][]float64, rows)
	target := make([]float64, rows)
	for i := 0; i < rows; i++ {
		data[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			data[i][j] = X.At(i, j)
		}
		target[i] = y.At(i, 0)
	}

	if err := errors.CheckNumericalStability("GradientBoostingRegressor.Fit", target, 0); err != nil {
		return err
	}

	// Initial score: the target mean, the L2-optimal constant.
	var sum float64
	for _, v := range target {
		sum += v
	}
	g.initScore = sum / float64(rows)

	current := make([]float64, rows)
	for i := range current {
		current[i] = g.initScore
	}

	residuals := make([]float64, rows)
	rng := rand.New(rand.NewPCG(uint64(g.Seed), uint64(g.Seed)))

	logger := log.GetLoggerWithName("boosting")
	if g.Verbose {
		logger.Info("training started",
			log.ModelNameKey, "GradientBoostingRegressor",
			log.SamplesKey, rows,
			log.FeaturesKey, cols)
	}

	g.trees = make([]*regressionTree, 0, g.NumIterations)
	g.trainLoss = make([]float64, 0, g.NumIterations)

	for iter := 0; iter < g.NumIterations; iter++ {
		// Negative gradient of L2 loss is the residual.
		for i := 0; i < rows; i++ {
			residuals[i] = target[i] - current[i]
		}

		rowIdx := g.sampleRows(rng, rows)
		features := g.sampleFeatures(rng, cols)

		tree := newRegressionTree(g.MaxDepth, g.MinSamplesLeaf, cols)
		tree.fit(data, residuals, rowIdx, features)
		g.trees = append(g.trees, tree)

		var loss float64
		for i := 0; i < rows; i++ {
			current[i] += g.LearningRate * tree.predict(data[i])
			d := target[i] - current[i]
			loss += d * d
		}
		loss /= float64(rows)
		g.trainLoss = append(g.trainLoss, loss)

		if err := errors.CheckScalar("GradientBoostingRegressor.Fit", loss, iter); err != nil {
			return err
		}

		if g.Verbose && (iter+1)%10 == 0 {
			logger.Info("boosting round",
				log.IterationKey, iter+1,
				log.MSEKey, loss)
		}
	}

	g.SetFitted()
	return nil
}

// sampleRows draws the per-tree row subset without replacement.
func (g *GradientBoostingRegressor) sampleRows(rng *rand.Rand, rows int) []int {
	if g.Subsample >= 1 {
		idx := make([]int, rows)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	n := int(math.Max(1, math.Round(g.Subsample*float64(rows))))
	perm := rng.Perm(rows)
	return perm[:n]
}

// sampleFeatures draws the per-tree column subset without replacement.
func (g *GradientBoostingRegressor) sampleFeatures(rng *rand.Rand, cols int) []int {
	if g.FeatureFraction >= 1 {
		features := make([]int, cols)
		for i := range features {
			features[i] = i
		}
		return features
	}

	n := int(math.Max(1, math.Round(g.FeatureFraction*float64(cols))))
	perm := rng.Perm(cols)
	return perm[:n]
}

// Predict returns an n×1 matrix of predictions.
func (g *GradientBoostingRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !g.IsFitted() {
		return nil, errors.NewNotFittedError("GradientBoostingRegressor", "Predict")
	}

	rows, cols := X.Dims()
	if cols != g.nFeatures {
		return nil, errors.NewDimensionError("GradientBoostingRegressor.Predict", g.nFeatures, cols, 1)
	}

	predictions := mat.NewDense(rows, 1, nil)
	parallel.ParallelizeWithThreshold(rows, 256, func(start, end int) {
		row := make([]float64, cols)
		for i := start; i < end; i++ {
			for j := 0; j < cols; j++ {
				row[j] = X.At(i, j)
			}
			pred := g.initScore
			for _, tree := range g.trees {
				pred += g.LearningRate * tree.predict(row)
			}
			predictions.Set(i, 0, pred)
		}
	})

	return predictions, nil
}

// Score returns the coefficient of determination R² on the given data.
func (g *GradientBoostingRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := g.Predict(X)
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

// TrainLoss returns the per-iteration training MSE recorded during Fit.
func (g *GradientBoostingRegressor) TrainLoss() []float64 {
	out := make([]float64, len(g.trainLoss))
	copy(out, g.trainLoss)
	return out
}

// FeatureImportances returns the normalized total split gain per feature.
func (g *GradientBoostingRegressor) FeatureImportances() ([]float64, error) {
	if !g.IsFitted() {
		return nil, errors.NewNotFittedError("GradientBoostingRegressor", "FeatureImportances")
	}

	importances := make([]float64, g.nFeatures)
	var total float64
	for _, tree := range g.trees {
		for j, gain := range tree.featureGain {
			importances[j] += gain
			total += gain
		}
	}
	if total > 0 {
		for j := range importances {
			importances[j] /= total
		}
	}
	return importances, nil
}
