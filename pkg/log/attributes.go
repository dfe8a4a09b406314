// Standard attribute keys for stacked-ensemble operations. Using these keys
// consistently keeps benchmark logs filterable by estimator, fold and metric.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "LinearRegression", "GradientBoostingRegressor", "StackingRegressor"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "score", "cross_validate"
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	// Examples: "linear", "boosting", "ensemble", "bench"
	ComponentKey = "ml.component"

	// ApproachKey names the ensembling strategy under benchmark.
	// Examples: "stacking", "super_learner", "blending", "voting"
	ApproachKey = "ensemble.approach"
)

// Data shape.
const (
	// SamplesKey is the number of samples (rows) being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of features (columns) being processed.
	FeaturesKey = "data.features"

	// BaseLearnersKey is the number of first-layer estimators in an ensemble.
	BaseLearnersKey = "ensemble.base_learners"
)

// Cross-validation context.
const (
	// FoldKey is the zero-based index of the current fold.
	FoldKey = "cv.fold"

	// NSplitsKey is the total number of folds.
	NSplitsKey = "cv.n_splits"
)

// Performance and metrics.
const (
	// DurationMsKey records execution time in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// MSEKey records a mean squared error value.
	MSEKey = "metrics.mse"

	// R2ScoreKey records an R² coefficient of determination.
	R2ScoreKey = "metrics.r2_score"

	// IterationKey records the boosting iteration during training.
	IterationKey = "training.iteration"
)
