package datasets

import (
	"math/rand/v2"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

// MakeRegression generates a random linear regression problem: features
// drawn uniformly from [-5, 5), a fixed random coefficient vector, and
// Gaussian noise scaled by noise. Deterministic under a fixed seed, so the
// benchmark can run fully offline.
func MakeRegression(nSamples, nFeatures int, noise float64, seed int) (*Dataset, error) {
	if nSamples <= 0 {
		return nil, errors.NewValidationError("nSamples", "must be > 0", nSamples)
	}
	if nFeatures <= 0 {
		return nil, errors.NewValidationError("nFeatures", "must be > 0", nFeatures)
	}
	if noise < 0 {
		return nil, errors.NewValidationError("noise", "must be >= 0", noise)
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))

	coef := make([]float64, nFeatures)
	for j := range coef {
		coef[j] = rng.Float64()*4 - 2
	}

	X := mat.NewDense(nSamples, nFeatures, nil)
	y := mat.NewVecDense(nSamples, nil)
	names := make([]string, nFeatures)
	for j := range names {
		names[j] = "x" + strconv.Itoa(j)
	}

	for i := 0; i < nSamples; i++ {
		var target float64
		for j := 0; j < nFeatures; j++ {
			v := rng.Float64()*10 - 5
			X.Set(i, j, v)
			target += coef[j] * v
		}
		y.SetVec(i, target+noise*rng.NormFloat64())
	}

	return &Dataset{
		X:            X,
		Y:            y,
		FeatureNames: names,
		Target:       "y",
	}, nil
}
