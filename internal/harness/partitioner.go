// Package harness runs the repeated evaluation of a classifier family:
// seeded train/test splits, hybrid and non-hybrid fits per round, scoring with
// Wald intervals, and the paired hybrid-vs-non-hybrid comparison.
package harness

import (
	"fmt"
	"math"
	"math/rand"

	"veritas/domain/core"
	"veritas/domain/evaluation"
)

// Split partitions 0..n-1 into train and test sets of round(trainFraction*n)
// and the remainder. The same seed always yields the same split.
func Split(n int, trainFraction float64, seed int64) (evaluation.Split, error) {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	train, test, err := partition(indices, trainFraction, rand.New(rand.NewSource(seed)))
	if err != nil {
		return evaluation.Split{}, err
	}
	return evaluation.Split{Train: train, Test: test, Seed: seed}, nil
}

// partition shuffles a copy of indices with rng and cuts it at the train size
func partition(indices []int, trainFraction float64, rng *rand.Rand) ([]int, []int, error) {
	if !(trainFraction > 0 && trainFraction < 1) {
		return nil, nil, core.NewConfigurationError("train fraction", fmt.Sprintf("%g is not within (0, 1)", trainFraction))
	}
	n := len(indices)
	trainSize := int(math.Round(float64(n) * trainFraction))
	if trainSize == 0 || trainSize == n {
		return nil, nil, core.NewInsufficientDataError(fmt.Sprintf("splitting %d rows at %g leaves an empty side", n, trainFraction))
	}

	shuffled := make([]int, n)
	copy(shuffled, indices)
	rng.Shuffle(n, func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:trainSize:trainSize], shuffled[trainSize:], nil
}
