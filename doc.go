// Package stackgo compares stacked-ensemble regression strategies in Go,
// with a scikit-learn-like estimator API built on gonum matrices.
//
// The library ships linear and gradient-boosted base learners, four ways of
// combining them (out-of-fold stacking, a super learner with internal fold
// scoring, holdout blending and prediction voting), k-fold cross-validation,
// and a benchmark runner that collects train, CV and test mean squared
// errors into one table.
//
// # Quick Start
//
// Fit a stacking regressor over two base learners:
//
//	base := []ensemble.NamedRegressor{
//	    {Name: "linear", Regressor: linear.NewLinearRegression()},
//	    {Name: "gbr", Regressor: boosting.NewGradientBoostingRegressor()},
//	}
//	stack := ensemble.NewStackingRegressor(base, linear.NewRidge(0.01))
//	if err := stack.Fit(XTrain, yTrain); err != nil {
//	    log.Fatal(err)
//	}
//	pred, err := stack.Predict(XTest)
//
// The cmd/stackbench command runs the full comparison on the California
// Housing dataset and renders the result table and plots.
package stackgo
