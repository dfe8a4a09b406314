// Command stackbench compares stacked-ensemble strategies on a regression
// dataset. It fits linear and gradient-boosted base learners, combines them
// with stacking, a super learner, blending and voting, and prints a table of
// train, cross-validation and test mean squared errors.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/bench"
	"github.com/YuminosukeSato/stackgo/boosting"
	"github.com/YuminosukeSato/stackgo/crossval"
	"github.com/YuminosukeSato/stackgo/datasets"
	"github.com/YuminosukeSato/stackgo/ensemble"
	"github.com/YuminosukeSato/stackgo/linear"
	"github.com/YuminosukeSato/stackgo/pkg/errors"
	"github.com/YuminosukeSato/stackgo/pkg/log"
	"github.com/YuminosukeSato/stackgo/preprocessing"
)

type options struct {
	dataPath  string
	dataURL   string
	cachePath string
	synthetic bool
	folds     int
	seed      int
	testSize  float64
	scale     bool
	plotPath  string
	predPlots string
	logLevel  string
}

func parseFlags() *options {
	opts := &options{}
	flag.StringVar(&opts.dataPath, "data", "", "path to a local cal_housing.data file")
	flag.StringVar(&opts.dataURL, "url", datasets.CaliforniaHousingURL, "dataset URL used when no local file is given")
	flag.StringVar(&opts.cachePath, "cache", filepath.Join(os.TempDir(), "cal_housing.data"), "download cache path")
	flag.BoolVar(&opts.synthetic, "synthetic", false, "use a synthetic regression dataset instead of downloading")
	flag.IntVar(&opts.folds, "folds", 5, "number of cross-validation folds")
	flag.IntVar(&opts.seed, "seed", 42, "seed for splits and subsampling")
	flag.Float64Var(&opts.testSize, "test-size", 0.25, "fraction of rows held out for testing")
	flag.BoolVar(&opts.scale, "scale", true, "standardize features before fitting")
	flag.StringVar(&opts.plotPath, "plot", "", "write a CV-vs-test comparison plot to this PNG path")
	flag.StringVar(&opts.predPlots, "pred-plots", "", "directory for per-approach predicted-vs-actual plots")
	flag.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()
	return opts
}

func main() {
	opts := parseFlags()
	log.SetupLogger(opts.logLevel)
	logger := log.GetLoggerWithName("stackbench")

	if err := run(context.Background(), opts, logger); err != nil {
		logger.Error("benchmark failed", log.ErrAttr(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options, logger log.Logger) error {
	ds, err := loadDataset(ctx, opts)
	if err != nil {
		return err
	}
	logger.Info("dataset loaded",
		log.SamplesKey, ds.NumSamples(),
		log.FeaturesKey, ds.NumFeatures())

	XTrain, XTest, yTrain, yTest, err := crossval.TrainTestSplit(ds.X, ds.YMatrix(), opts.testSize, opts.seed)
	if err != nil {
		return err
	}

	var trainX, testX mat.Matrix = XTrain, XTest
	if opts.scale {
		scaler := preprocessing.NewStandardScalerDefault()
		trainX, err = scaler.FitTransform(XTrain)
		if err != nil {
			return err
		}
		testX, err = scaler.Transform(XTest)
		if err != nil {
			return err
		}
	}

	approaches := buildApproaches(opts)
	report, err := bench.NewRunner(opts.folds, opts.seed).Run(trainX, yTrain, testX, yTest, approaches)
	if err != nil {
		return err
	}

	fmt.Print(report.String())
	summary := report.Summary()
	fmt.Printf("\nbest approach: %s (test MSE %.6f)\n", summary.Best, summary.BestTestMSE)

	if opts.plotPath != "" {
		if err := bench.ComparisonPlot(report, opts.plotPath); err != nil {
			return err
		}
		logger.Info("comparison plot written", "path", opts.plotPath)
	}
	if opts.predPlots != "" {
		if err := writePredictionPlots(opts.predPlots, approaches, testX, yTest, logger); err != nil {
			return err
		}
	}
	return nil
}

func loadDataset(ctx context.Context, opts *options) (*datasets.Dataset, error) {
	if opts.synthetic {
		return datasets.MakeRegression(5000, 8, 0.5, opts.seed)
	}
	path := opts.dataPath
	if path == "" {
		fetched, err := datasets.Fetch(ctx, opts.dataURL, opts.cachePath)
		if err != nil {
			return nil, errors.Wrap(err, "fetch dataset")
		}
		path = fetched
	}
	return datasets.LoadCaliforniaHousing(path)
}

// buildApproaches assembles the four contenders over a shared base layer of
// ordinary least squares and gradient boosting, with a ridge meta learner.
func buildApproaches(opts *options) []bench.Approach {
	base := func() []ensemble.NamedRegressor {
		return []ensemble.NamedRegressor{
			{Name: "linear", Regressor: linear.NewLinearRegression()},
			{Name: "gbr", Regressor: boosting.NewGradientBoostingRegressor().
				WithSubsample(0.8).
				WithSeed(opts.seed)},
		}
	}
	meta := func() *linear.Ridge { return linear.NewRidge(0.01) }

	return []bench.Approach{
		{
			Name: "stacking",
			Regressor: ensemble.NewStackingRegressor(base(), meta()).
				WithNSplits(opts.folds).
				WithSeed(opts.seed),
		},
		{
			Name: "super_learner",
			Regressor: ensemble.NewSuperLearner(base(), meta()).
				WithNSplits(opts.folds).
				WithSeed(opts.seed),
		},
		{
			Name: "blending",
			Regressor: ensemble.NewBlendingRegressor(base(), meta()).
				WithSeed(opts.seed),
			SkipCV: true,
		},
		{
			Name:      "voting",
			Regressor: ensemble.NewVotingRegressor(base()),
		},
	}
}

func writePredictionPlots(dir string, approaches []bench.Approach, XTest, yTest mat.Matrix, logger log.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create plot directory")
	}
	for _, a := range approaches {
		pred, err := a.Regressor.Predict(XTest)
		if err != nil {
			return errors.Wrapf(err, "predict for plot: %s", a.Name)
		}
		path := filepath.Join(dir, a.Name+".png")
		if err := bench.PredictionPlot(a.Name, yTest, pred, path); err != nil {
			return err
		}
		logger.Info("prediction plot written", log.ApproachKey, a.Name, "path", path)
	}
	return nil
}
