package ensemble

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/core/model"
	"github.com/YuminosukeSato/stackgo/crossval"
	"github.com/YuminosukeSato/stackgo/metrics"
	"github.com/YuminosukeSato/stackgo/pkg/errors"
	"github.com/YuminosukeSato/stackgo/pkg/log"
)

// FoldStat records the evaluation data the super learner collects for one
// fold while fitting: the meta-level out-of-fold MSE and how long the base
// layer took on that fold.
type FoldStat struct {
	Fold       int
	MSE        float64
	FitSeconds float64
}

// SuperLearner is out-of-fold stacking in the manner of ML-Ensemble: the
// prediction path matches StackingRegressor, but fitting additionally scores
// the meta layer fold by fold — the meta learner is refitted on the
// out-of-fold rows of the remaining folds and evaluated on the held-out
// fold — so cross-validation statistics come out of Fit itself rather than
// from an extra cross-validation pass over the whole ensemble.
type SuperLearner struct {
	model.BaseEstimator

	Base []NamedRegressor
	Meta model.Regressor

	NSplits int
	Shuffle bool
	Seed    int

	fittedBase []model.Regressor
	fittedMeta model.Regressor
	foldData   []FoldStat
	nFeatures  int
}

// NewSuperLearner creates a super learner with 5-fold shuffled
// out-of-fold prediction.
func NewSuperLearner(base []NamedRegressor, meta model.Regressor) *SuperLearner {
	return &SuperLearner{
		Base:    base,
		Meta:    meta,
		NSplits: 5,
		Shuffle: true,
		Seed:    42,
	}
}

// WithNSplits sets the number of folds.
func (s *SuperLearner) WithNSplits(n int) *SuperLearner {
	s.NSplits = n
	return s
}

// WithSeed sets the fold shuffle seed.
func (s *SuperLearner) WithSeed(seed int) *SuperLearner {
	s.Seed = seed
	return s
}

// CloneRegressor returns an unfitted copy with cloned base and meta learners.
func (s *SuperLearner) CloneRegressor() model.Regressor {
	clone := NewSuperLearner(cloneBase(s.Base), cloneRegressor(s.Meta))
	clone.NSplits = s.NSplits
	clone.Shuffle = s.Shuffle
	clone.Seed = s.Seed
	return clone
}

// Fit builds out-of-fold meta features, records per-fold meta-level scores,
// fits the meta learner on all out-of-fold rows and refits the base layer on
// the full training set.
func (s *SuperLearner) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "SuperLearner.Fit")

	if err := validateBase("SuperLearner.Fit", s.Base); err != nil {
		return err
	}
	if err := validateMeta("SuperLearner.Fit", s.Meta); err != nil {
		return err
	}

	rows, cols, err := checkXY("SuperLearner.Fit", X, y)
	if err != nil {
		return err
	}
	if rows < s.NSplits {
		return errors.NewValidationError("NSplits", "more folds than samples", s.NSplits)
	}
	s.nFeatures = cols

	logger := log.GetLoggerWithName("ensemble")

	folds := crossval.NewKFold(s.NSplits, s.Shuffle, s.Seed).Split(X)

	start := time.Now()
	oof, err := buildOOF(s.Base, X, y, folds, cols)
	if err != nil {
		return err
	}
	baseSeconds := time.Since(start).Seconds()

	// Per-fold evaluation of the meta layer on out-of-fold rows it did not
	// train on. The base OOF matrix is reused, so this costs one extra meta
	// fit per fold, not a full base-layer refit.
	s.foldData = make([]FoldStat, len(folds))
	for fi, fold := range folds {
		foldStart := time.Now()

		trainOOF, trainY := subsetRows(oof, y, fold.TrainIndices, len(s.Base))
		testOOF, testY := subsetRows(oof, y, fold.TestIndices, len(s.Base))

		foldMeta := cloneRegressor(s.Meta)
		if err := foldMeta.Fit(trainOOF, trainY); err != nil {
			return errors.Wrapf(err, "SuperLearner.Fit: fold %d meta fit", fi)
		}
		pred, err := foldMeta.Predict(testOOF)
		if err != nil {
			return errors.Wrapf(err, "SuperLearner.Fit: fold %d meta predict", fi)
		}

		nTest := len(fold.TestIndices)
		yVec := mat.NewVecDense(nTest, nil)
		predVec := mat.NewVecDense(nTest, nil)
		for k := 0; k < nTest; k++ {
			yVec.SetVec(k, testY.At(k, 0))
			predVec.SetVec(k, pred.At(k, 0))
		}
		mse, err := metrics.MSE(yVec, predVec)
		if err != nil {
			return errors.Wrapf(err, "SuperLearner.Fit: fold %d score", fi)
		}

		s.foldData[fi] = FoldStat{
			Fold:       fi,
			MSE:        mse,
			FitSeconds: baseSeconds/float64(len(folds)) + time.Since(foldStart).Seconds(),
		}

		logger.Debug("fold evaluated",
			log.ApproachKey, "super_learner",
			log.FoldKey, fi,
			log.MSEKey, mse)
	}

	meta := cloneRegressor(s.Meta)
	if err := meta.Fit(oof, y); err != nil {
		return errors.Wrap(err, "SuperLearner.Fit: meta learner")
	}
	s.fittedMeta = meta

	s.fittedBase = make([]model.Regressor, len(s.Base))
	for j, b := range s.Base {
		full := cloneRegressor(b.Regressor)
		if err := full.Fit(X, y); err != nil {
			return errors.Wrapf(err, "SuperLearner.Fit: base learner %q refit", b.Name)
		}
		s.fittedBase[j] = full
	}

	s.SetFitted()
	return nil
}

// FoldData returns the per-fold evaluation data recorded during Fit.
func (s *SuperLearner) FoldData() ([]FoldStat, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("SuperLearner", "FoldData")
	}
	out := make([]FoldStat, len(s.foldData))
	copy(out, s.foldData)
	return out, nil
}

// Predict routes base predictions through the meta learner.
func (s *SuperLearner) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("SuperLearner", "Predict")
	}

	_, cols := X.Dims()
	if cols != s.nFeatures {
		return nil, errors.NewDimensionError("SuperLearner.Predict", s.nFeatures, cols, 1)
	}

	features, err := baseMetaFeatures(s.fittedBase, X, false)
	if err != nil {
		return nil, err
	}
	return s.fittedMeta.Predict(features)
}

// Score returns the coefficient of determination R² on the given data.
func (s *SuperLearner) Score(X, y mat.Matrix) (float64, error) {
	if !s.IsFitted() {
		return 0, errors.NewNotFittedError("SuperLearner", "Score")
	}
	return scoreR2(s, X, y)
}
