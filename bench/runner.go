// Package bench runs a set of ensembling approaches over one train/test
// split and collects their error statistics into a comparable report.
package bench

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/core/model"
	"github.com/YuminosukeSato/stackgo/crossval"
	"github.com/YuminosukeSato/stackgo/ensemble"
	"github.com/YuminosukeSato/stackgo/metrics"
	"github.com/YuminosukeSato/stackgo/pkg/errors"
	"github.com/YuminosukeSato/stackgo/pkg/log"
)

// FoldReporter is implemented by approaches that record fold-level scores
// while fitting, sparing the runner an external cross-validation pass.
type FoldReporter interface {
	FoldData() ([]ensemble.FoldStat, error)
}

// Approach is one contender in the benchmark.
type Approach struct {
	Name      string
	Regressor model.Regressor

	// SkipCV marks approaches with no fold structure. Their CV columns are
	// reported as NaN and a warning is emitted; the run continues.
	SkipCV bool
}

// Row holds one approach's results. CVMean and CVStd are NaN when the
// approach has no fold-level statistics.
type Row struct {
	Name     string
	TrainMSE float64
	CVMean   float64
	CVStd    float64
	TestMSE  float64
	Seconds  float64
}

// Runner fits each approach on the training split and fills one Row per
// approach.
type Runner struct {
	NSplits int
	Seed    int
}

// NewRunner creates a runner with the given cross-validation fold count and
// shuffle seed.
func NewRunner(nSplits, seed int) *Runner {
	if nSplits < 2 {
		nSplits = 5
	}
	return &Runner{NSplits: nSplits, Seed: seed}
}

// Run benchmarks every approach over the given split. A failing approach
// aborts the run; missing CV statistics do not.
func (r *Runner) Run(XTrain, yTrain, XTest, yTest mat.Matrix, approaches []Approach) (*Report, error) {
	if len(approaches) == 0 {
		return nil, errors.NewValidationError("approaches", "must not be empty", 0)
	}

	logger := log.GetLoggerWithName("bench")
	report := &Report{Rows: make([]Row, 0, len(approaches))}

	for _, a := range approaches {
		if a.Regressor == nil {
			return nil, errors.NewValidationError("approaches", "nil regressor", a.Name)
		}

		start := time.Now()
		if err := a.Regressor.Fit(XTrain, yTrain); err != nil {
			return nil, errors.Wrapf(err, "bench: approach %q fit", a.Name)
		}

		trainMSE, err := datasetMSE(a.Regressor, XTrain, yTrain)
		if err != nil {
			return nil, errors.Wrapf(err, "bench: approach %q train score", a.Name)
		}
		testMSE, err := datasetMSE(a.Regressor, XTest, yTest)
		if err != nil {
			return nil, errors.Wrapf(err, "bench: approach %q test score", a.Name)
		}

		cvMean, cvStd, err := r.crossValidate(a, XTrain, yTrain)
		if err != nil {
			return nil, errors.Wrapf(err, "bench: approach %q cross-validation", a.Name)
		}

		row := Row{
			Name:     a.Name,
			TrainMSE: trainMSE,
			CVMean:   cvMean,
			CVStd:    cvStd,
			TestMSE:  testMSE,
			Seconds:  time.Since(start).Seconds(),
		}
		report.Rows = append(report.Rows, row)

		logger.Info("approach finished",
			log.ApproachKey, a.Name,
			log.MSEKey, testMSE,
			log.DurationMsKey, row.Seconds*1000)
	}

	return report, nil
}

// crossValidate picks the cheapest available source of fold statistics:
// internal fold data when the approach recorded it, an external clone-based
// pass otherwise. Approaches marked SkipCV get the NaN sentinel.
func (r *Runner) crossValidate(a Approach, XTrain, yTrain mat.Matrix) (mean, std float64, err error) {
	if a.SkipCV {
		errors.Warn(errors.NewUndefinedMetricWarning(
			"cv_mse", "approach has no fold structure", math.NaN()))
		return math.NaN(), math.NaN(), nil
	}

	if fr, ok := a.Regressor.(FoldReporter); ok {
		stats, err := fr.FoldData()
		if err != nil {
			return 0, 0, err
		}
		scores := make([]float64, len(stats))
		for i, fs := range stats {
			scores[i] = fs.MSE
		}
		res := &crossval.Result{Scores: scores}
		return res.Mean(), res.Std(), nil
	}

	kf := crossval.NewKFold(r.NSplits, true, r.Seed)
	res, err := crossval.Score(a.Regressor, XTrain, yTrain, kf, crossval.MSEScorer)
	if err != nil {
		return 0, 0, err
	}
	return res.Mean(), res.Std(), nil
}

func datasetMSE(est model.Predictor, X, y mat.Matrix) (float64, error) {
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
	return metrics.MSE(yVec, predVec)
}
