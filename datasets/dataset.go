// Package datasets loads the tabular data the benchmark runs on: the
// California Housing regression set, generic numeric CSV files, and a
// synthetic generator for tests and offline runs.
package datasets

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

// Dataset is a feature matrix with its target vector and column names.
type Dataset struct {
	X            *mat.Dense
	Y            *mat.VecDense
	FeatureNames []string
	Target       string
}

// NumSamples returns the number of rows.
func (d *Dataset) NumSamples() int {
	if d.X == nil {
		return 0
	}
	r, _ := d.X.Dims()
	return r
}

// NumFeatures returns the number of feature columns.
func (d *Dataset) NumFeatures() int {
	if d.X == nil {
		return 0
	}
	_, c := d.X.Dims()
	return c
}

// YMatrix returns the target as an n×1 column matrix, the shape estimators
// consume.
func (d *Dataset) YMatrix() *mat.Dense {
	n := d.Y.Len()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, d.Y.AtVec(i))
	}
	return out
}

// Describe returns a one-line human-readable summary.
func (d *Dataset) Describe() string {
	return fmt.Sprintf("%d samples × %d features → %s", d.NumSamples(), d.NumFeatures(), d.Target)
}

// validate checks internal consistency after loading.
func (d *Dataset) validate(op string) error {
	if d.NumSamples() == 0 {
		return errors.NewModelError(op, "empty dataset", errors.ErrEmptyData)
	}
	if d.Y.Len() != d.NumSamples() {
		return errors.NewDimensionError(op, d.NumSamples(), d.Y.Len(), 0)
	}
	if len(d.FeatureNames) != d.NumFeatures() {
		return errors.NewDimensionError(op, d.NumFeatures(), len(d.FeatureNames), 1)
	}
	return nil
}

// Subset returns a new Dataset containing only the given row indices.
func (d *Dataset) Subset(idx []int) (*Dataset, error) {
	n := d.NumSamples()
	out := &Dataset{
		X:            mat.NewDense(len(idx), d.NumFeatures(), nil),
		Y:            mat.NewVecDense(len(idx), nil),
		FeatureNames: d.FeatureNames,
		Target:       d.Target,
	}
	for to, from := range idx {
		if from < 0 || from >= n {
			return nil, errors.NewValueError("Dataset.Subset",
				fmt.Sprintf("index %d out of range [0, %d)", from, n))
		}
		for j := 0; j < d.NumFeatures(); j++ {
			out.X.Set(to, j, d.X.At(from, j))
		}
		out.Y.SetVec(to, d.Y.AtVec(from))
	}
	return out, nil
}
