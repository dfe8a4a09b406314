package ensemble

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/core/model"
	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

// BlendingRegressor stacks on a single holdout split instead of
// cross-validation: the base learners are fitted on the blend-train portion
// only, the meta learner on their holdout predictions. Cheaper than
// out-of-fold stacking and the base layer never sees the holdout rows, at
// the cost of training every learner on less data.
type BlendingRegressor struct {
	model.BaseEstimator

	Base []NamedRegressor
	Meta model.Regressor

	// HoldoutFraction is the share of training rows reserved for the meta
	// learner. Must lie in (0, 1).
	HoldoutFraction float64
	Seed            int

	fittedBase []model.Regressor
	fittedMeta model.Regressor
	nFeatures  int
}

// NewBlendingRegressor creates a blending regressor with a 25% holdout.
func NewBlendingRegressor(base []NamedRegressor, meta model.Regressor) *BlendingRegressor {
	return &BlendingRegressor{
		Base:            base,
		Meta:            meta,
		HoldoutFraction: 0.25,
		Seed:            42,
	}
}

// WithHoldoutFraction sets the share of rows held out for the meta learner.
func (b *BlendingRegressor) WithHoldoutFraction(frac float64) *BlendingRegressor {
	b.HoldoutFraction = frac
	return b
}

// WithSeed sets the holdout shuffle seed.
func (b *BlendingRegressor) WithSeed(seed int) *BlendingRegressor {
	b.Seed = seed
	return b
}

// CloneRegressor returns an unfitted copy with cloned base and meta learners.
func (b *BlendingRegressor) CloneRegressor() model.Regressor {
	clone := NewBlendingRegressor(cloneBase(b.Base), cloneRegressor(b.Meta))
	clone.HoldoutFraction = b.HoldoutFraction
	clone.Seed = b.Seed
	return clone
}

// Fit splits the training rows into a blend-train and a holdout portion,
// fits the base learners on the blend-train rows and the meta learner on
// their holdout predictions.
func (b *BlendingRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "BlendingRegressor.Fit")

	if err := validateBase("BlendingRegressor.Fit", b.Base); err != nil {
		return err
	}
	if err := validateMeta("BlendingRegressor.Fit", b.Meta); err != nil {
		return err
	}
	if b.HoldoutFraction <= 0 || b.HoldoutFraction >= 1 {
		return errors.NewValidationError("HoldoutFraction", "must lie in (0, 1)", b.HoldoutFraction)
	}

	rows, cols, err := checkXY("BlendingRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	b.nFeatures = cols

	nHoldout := int(float64(rows) * b.HoldoutFraction)
	if nHoldout < 1 || rows-nHoldout < 1 {
		return errors.NewValidationError("HoldoutFraction",
			"leaves an empty blend-train or holdout portion", b.HoldoutFraction)
	}

	perm := make([]int, rows)
	for i := range perm {
		perm[i] = i
	}
	rng := rand.New(rand.NewPCG(uint64(b.Seed), uint64(b.Seed)))
	rng.Shuffle(rows, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })

	trainIdx := perm[:rows-nHoldout]
	holdIdx := perm[rows-nHoldout:]

	XTrain, yTrain := subsetRows(X, y, trainIdx, cols)
	XHold, yHold := subsetRows(X, y, holdIdx, cols)

	b.fittedBase = make([]model.Regressor, len(b.Base))
	for j, nb := range b.Base {
		est := cloneRegressor(nb.Regressor)
		if err := est.Fit(XTrain, yTrain); err != nil {
			return errors.Wrapf(err, "BlendingRegressor.Fit: base learner %q", nb.Name)
		}
		b.fittedBase[j] = est
	}

	holdFeatures, err := baseMetaFeatures(b.fittedBase, XHold, false)
	if err != nil {
		return err
	}

	meta := cloneRegressor(b.Meta)
	if err := meta.Fit(holdFeatures, yHold); err != nil {
		return errors.Wrap(err, "BlendingRegressor.Fit: meta learner")
	}
	b.fittedMeta = meta

	b.SetFitted()
	return nil
}

// Predict routes base predictions through the meta learner.
func (b *BlendingRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !b.IsFitted() {
		return nil, errors.NewNotFittedError("BlendingRegressor", "Predict")
	}

	_, cols := X.Dims()
	if cols != b.nFeatures {
		return nil, errors.NewDimensionError("BlendingRegressor.Predict", b.nFeatures, cols, 1)
	}

	features, err := baseMetaFeatures(b.fittedBase, X, false)
	if err != nil {
		return nil, err
	}
	return b.fittedMeta.Predict(features)
}

// Score returns the coefficient of determination R² on the given data.
func (b *BlendingRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !b.IsFitted() {
		return 0, errors.NewNotFittedError("BlendingRegressor", "Score")
	}
	return scoreR2(b, X, y)
}
