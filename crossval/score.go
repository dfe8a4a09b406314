package crossval

import (
	"runtime"
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/core/model"
	"github.com/YuminosukeSato/stackgo/metrics"
	"github.com/YuminosukeSato/stackgo/pkg/errors"
	"github.com/YuminosukeSato/stackgo/pkg/log"
)

// Scorer computes a metric from true and predicted targets. Lower-is-better
// metrics like MSE and higher-is-better metrics like R² both fit.
type Scorer func(yTrue, yPred *mat.VecDense) (float64, error)

// MSEScorer is the benchmark's default scorer.
func MSEScorer(yTrue, yPred *mat.VecDense) (float64, error) {
	return metrics.MSE(yTrue, yPred)
}

// Result holds per-fold cross-validation outcomes.
type Result struct {
	Scores     []float64
	FitSeconds []float64
}

// Mean returns the mean fold score.
func (r *Result) Mean() float64 {
	m, err := stats.Mean(r.Scores)
	if err != nil {
		return 0
	}
	return m
}

// Std returns the sample standard deviation of fold scores.
func (r *Result) Std() float64 {
	if len(r.Scores) <= 1 {
		return 0
	}
	s, err := stats.StandardDeviationSample(r.Scores)
	if err != nil {
		return 0
	}
	return s
}

// Min returns the best (lowest) fold score.
func (r *Result) Min() float64 {
	m, err := stats.Min(r.Scores)
	if err != nil {
		return 0
	}
	return m
}

// Max returns the worst (highest) fold score.
func (r *Result) Max() float64 {
	m, err := stats.Max(r.Scores)
	if err != nil {
		return 0
	}
	return m
}

// Score runs k-fold cross-validation of est over X and y. A fresh clone is
// fitted per fold, folds run in parallel bounded by GOMAXPROCS. The
// estimator must implement model.Cloner; fold statistics are meaningless if
// every fold mutates the same instance.
func Score(est model.Regressor, X, y mat.Matrix, kf *KFold, scorer Scorer) (*Result, error) {
	cloner, ok := est.(model.Cloner)
	if !ok {
		return nil, errors.Wrap(errors.ErrNotCloneable, "crossval.Score")
	}
	if scorer == nil {
		scorer = MSEScorer
	}

	n, cols := X.Dims()
	yRows, yCols := y.Dims()
	if yRows != n {
		return nil, errors.NewDimensionError("crossval.Score", n, yRows, 0)
	}
	if yCols != 1 {
		return nil, errors.NewValueError("crossval.Score", "y must be a column vector")
	}
	if n < kf.NSplits {
		return nil, errors.NewValidationError("NSplits", "more folds than samples", kf.NSplits)
	}

	folds := kf.Split(X)
	result := &Result{
		Scores:     make([]float64, len(folds)),
		FitSeconds: make([]float64, len(folds)),
	}

	logger := log.GetLoggerWithName("crossval")

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, fold := range folds {
		g.Go(func() error {
			XTrain, yTrain := takeRows(X, y, fold.TrainIndices, cols)
			XTest, yTest := takeRows(X, y, fold.TestIndices, cols)

			clone := cloner.CloneRegressor()

			start := time.Now()
			if err := clone.Fit(XTrain, yTrain); err != nil {
				return errors.Wrapf(err, "crossval.Score: fold %d fit", i)
			}
			result.FitSeconds[i] = time.Since(start).Seconds()

			pred, err := clone.Predict(XTest)
			if err != nil {
				return errors.Wrapf(err, "crossval.Score: fold %d predict", i)
			}

			nTest := len(fold.TestIndices)
			yVec := mat.NewVecDense(nTest, nil)
			predVec := mat.NewVecDense(nTest, nil)
			for j := 0; j < nTest; j++ {
				yVec.SetVec(j, yTest.At(j, 0))
				predVec.SetVec(j, pred.At(j, 0))
			}

			score, err := scorer(yVec, predVec)
			if err != nil {
				return errors.Wrapf(err, "crossval.Score: fold %d score", i)
			}
			result.Scores[i] = score

			logger.Debug("fold scored",
				log.FoldKey, i,
				log.NSplitsKey, kf.NSplits,
				log.MSEKey, score)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
