package ensemble

import (
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/core/model"
	"github.com/YuminosukeSato/stackgo/crossval"
	"github.com/YuminosukeSato/stackgo/pkg/errors"
	"github.com/YuminosukeSato/stackgo/pkg/log"
)

// StackingRegressor implements out-of-fold stacking with scikit-learn
// semantics: each base learner's out-of-fold predictions form one column of
// the meta-feature matrix, the meta learner fits on those columns, and the
// base learners are refitted on the full training set for prediction time.
// Out-of-fold construction guarantees the meta learner never sees a
// prediction made by a model that trained on that row.
type StackingRegressor struct {
	model.BaseEstimator

	Base []NamedRegressor
	Meta model.Regressor

	// NSplits is the number of folds used to build out-of-fold predictions.
	NSplits int
	// Shuffle controls fold shuffling.
	Shuffle bool
	// Seed seeds the fold shuffle.
	Seed int
	// PassThrough appends the raw features to the meta-feature matrix.
	PassThrough bool

	fittedBase []model.Regressor
	fittedMeta model.Regressor
	nFeatures  int
}

// NewStackingRegressor creates a stacking ensemble with 5-fold shuffled
// out-of-fold prediction.
func NewStackingRegressor(base []NamedRegressor, meta model.Regressor) *StackingRegressor {
	return &StackingRegressor{
		Base:    base,
		Meta:    meta,
		NSplits: 5,
		Shuffle: true,
		Seed:    42,
	}
}

// WithNSplits sets the number of out-of-fold splits.
func (s *StackingRegressor) WithNSplits(n int) *StackingRegressor {
	s.NSplits = n
	return s
}

// WithSeed sets the fold shuffle seed.
func (s *StackingRegressor) WithSeed(seed int) *StackingRegressor {
	s.Seed = seed
	return s
}

// WithPassThrough appends raw features to the meta input.
func (s *StackingRegressor) WithPassThrough() *StackingRegressor {
	s.PassThrough = true
	return s
}

// CloneRegressor returns an unfitted copy with cloned base and meta learners.
func (s *StackingRegressor) CloneRegressor() model.Regressor {
	clone := NewStackingRegressor(cloneBase(s.Base), cloneRegressor(s.Meta))
	clone.NSplits = s.NSplits
	clone.Shuffle = s.Shuffle
	clone.Seed = s.Seed
	clone.PassThrough = s.PassThrough
	return clone
}

// buildOOF fits one clone of every base learner per fold and writes its
// out-of-fold predictions into the returned n×len(base) matrix. Folds run in
// parallel; each (fold, learner) pair writes a disjoint set of cells.
func buildOOF(base []NamedRegressor, X, y mat.Matrix, folds []crossval.Fold, cols int) (*mat.Dense, error) {
	rows, _ := X.Dims()
	oof := mat.NewDense(rows, len(base), nil)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for fi, fold := range folds {
		g.Go(func() error {
			XTrain, yTrain := subsetRows(X, y, fold.TrainIndices, cols)
			XTest, _ := subsetRows(X, y, fold.TestIndices, cols)

			for j, b := range base {
				sub := cloneRegressor(b.Regressor)
				if err := sub.Fit(XTrain, yTrain); err != nil {
					return errors.Wrapf(err, "fold %d: base learner %q fit", fi, b.Name)
				}
				pred, err := sub.Predict(XTest)
				if err != nil {
					return errors.Wrapf(err, "fold %d: base learner %q predict", fi, b.Name)
				}
				for k, row := range fold.TestIndices {
					oof.Set(row, j, pred.At(k, 0))
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return oof, nil
}

// metaInput widens the out-of-fold matrix with the raw features when
// passThrough is set.
func metaInput(oof *mat.Dense, X mat.Matrix, passThrough bool) *mat.Dense {
	if !passThrough {
		return oof
	}
	rows, cols := X.Dims()
	_, oofCols := oof.Dims()
	out := mat.NewDense(rows, oofCols+cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < oofCols; j++ {
			out.Set(i, j, oof.At(i, j))
		}
		for j := 0; j < cols; j++ {
			out.Set(i, oofCols+j, X.At(i, j))
		}
	}
	return out
}

// Fit builds out-of-fold meta features, fits the meta learner on them, and
// refits every base learner on the full training set.
func (s *StackingRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "StackingRegressor.Fit")

	if err := validateBase("StackingRegressor.Fit", s.Base); err != nil {
		return err
	}
	if err := validateMeta("StackingRegressor.Fit", s.Meta); err != nil {
		return err
	}

	rows, cols, err := checkXY("StackingRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	if rows < s.NSplits {
		return errors.NewValidationError("NSplits", "more folds than samples", s.NSplits)
	}
	s.nFeatures = cols

	logger := log.GetLoggerWithName("ensemble")
	logger.Debug("building out-of-fold predictions",
		log.ApproachKey, "stacking",
		log.BaseLearnersKey, len(s.Base),
		log.SamplesKey, rows,
		log.NSplitsKey, s.NSplits)

	folds := crossval.NewKFold(s.NSplits, s.Shuffle, s.Seed).Split(X)
	oof, err := buildOOF(s.Base, X, y, folds, cols)
	if err != nil {
		return err
	}

	meta := cloneRegressor(s.Meta)
	if err := meta.Fit(metaInput(oof, X, s.PassThrough), y); err != nil {
		return errors.Wrap(err, "StackingRegressor.Fit: meta learner")
	}
	s.fittedMeta = meta

	// Base learners see the whole training set for prediction time.
	s.fittedBase = make([]model.Regressor, len(s.Base))
	for j, b := range s.Base {
		full := cloneRegressor(b.Regressor)
		if err := full.Fit(X, y); err != nil {
			return errors.Wrapf(err, "StackingRegressor.Fit: base learner %q refit", b.Name)
		}
		s.fittedBase[j] = full
	}

	s.SetFitted()
	return nil
}

// Predict routes base predictions through the meta learner.
func (s *StackingRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StackingRegressor", "Predict")
	}

	_, cols := X.Dims()
	if cols != s.nFeatures {
		return nil, errors.NewDimensionError("StackingRegressor.Predict", s.nFeatures, cols, 1)
	}

	features, err := baseMetaFeatures(s.fittedBase, X, s.PassThrough)
	if err != nil {
		return nil, err
	}
	return s.fittedMeta.Predict(features)
}

// Score returns the coefficient of determination R² on the given data.
func (s *StackingRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !s.IsFitted() {
		return 0, errors.NewNotFittedError("StackingRegressor", "Score")
	}
	return scoreR2(s, X, y)
}
