package significance

import (
	"math"

	"veritas/domain/evaluation"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sign runs the exact two-sided binomial test with p = 0.5 on the number of
// wins out of wins+losses. Ties are not passed in. With no untied pairs the
// p-value is 1.
func Sign(wins, losses int) evaluation.TestResult {
	n := wins + losses
	res := evaluation.TestResult{
		Name:      SignName,
		Statistic: float64(wins),
		N:         n,
		Method:    "exact binomial test, p = 0.5",
		PValue:    1,
	}
	if n == 0 {
		res.Note = "every paired round was tied"
		return res
	}

	tail := wins
	if losses < tail {
		tail = losses
	}
	if 2*tail == n {
		return res
	}
	dist := distuv.Binomial{N: float64(n), P: 0.5}
	res.PValue = math.Min(1, 2*dist.CDF(float64(tail)))
	return res
}
