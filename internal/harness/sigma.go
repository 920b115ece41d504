package harness

import (
	"math/rand"

	"veritas/domain/core"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// EstimateSigma returns the radial kernel bandwidth as the inverse median of
// squared distances between floor(frac*m) random row pairs drawn with replacement.
// Identical pairs (distance zero) are ignored.
func EstimateSigma(X *mat.Dense, frac float64, rng *rand.Rand) (float64, error) {
	m, c := X.Dims()
	if m < 2 || c == 0 {
		return 0, core.NewTrainingFailure("sigma estimation needs at least two rows and one column")
	}
	n := int(frac * float64(m))
	if n < 1 {
		n = 1
	}

	diff := make([]float64, c)
	dists := make([]float64, 0, n)
	for k := 0; k < n; k++ {
		a := X.RawRowView(rng.Intn(m))
		b := X.RawRowView(rng.Intn(m))
		floats.SubTo(diff, a, b)
		if d := floats.Dot(diff, diff); d > 0 {
			dists = append(dists, d)
		}
	}
	if len(dists) == 0 {
		return 0, core.NewTrainingFailure("all sampled row pairs are identical")
	}

	median, err := stats.Median(dists)
	if err != nil || median <= 0 {
		return 0, core.NewTrainingFailure("median squared distance is not positive")
	}
	return 1 / median, nil
}
