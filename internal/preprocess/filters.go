package preprocess

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

func distinct(col []float64) int {
	seen := make(map[float64]struct{}, len(col))
	for _, v := range col {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// nearZeroVariance flags constant columns, and columns whose ratio of the
// most to the second most frequent value exceeds freqCut while at most
// uniqueCut percent of values are distinct
func nearZeroVariance(col []float64, freqCut, uniqueCut float64) (Reason, bool) {
	counts := make(map[float64]int, len(col))
	for _, v := range col {
		counts[v]++
	}
	if len(counts) < 2 {
		return ReasonZeroVariance, true
	}

	freq := make([]int, 0, len(counts))
	for _, c := range counts {
		freq = append(freq, c)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(freq)))

	ratio := float64(freq[0]) / float64(freq[1])
	percentUnique := 100 * float64(len(counts)) / float64(len(col))
	if ratio > freqCut && percentUnique <= uniqueCut {
		return ReasonNearZeroVariance, true
	}
	return "", false
}

// skewness is the moment coefficient m3 / s^3 with the sample standard deviation
func skewness(col []float64) float64 {
	if len(col) < 3 {
		return 0
	}
	mean, _ := stats.Mean(col)
	sd, _ := stats.StandardDeviationSample(col)
	if sd == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range col {
		d := (v - mean) / sd
		sum += d * d * d
	}
	return sum / float64(len(col))
}

// lambdaFudge snaps an estimated lambda to the log or identity transform
const lambdaFudge = 0.2

// estimateLambda maximizes the Box-Cox profile log-likelihood over -2..2 in
// steps of 0.1. Columns with a non-positive value have no lambda.
func estimateLambda(col []float64) (float64, bool) {
	logSum := 0.0
	for _, v := range col {
		if v <= 0 {
			return 0, false
		}
		logSum += math.Log(v)
	}

	n := float64(len(col))
	best, bestLL := 0.0, math.Inf(-1)
	for step := -20; step <= 20; step++ {
		lambda := float64(step) / 10
		z := boxCoxAll(col, lambda)
		_, variance := stat.PopMeanVariance(z, nil)
		if variance <= 0 {
			continue
		}
		ll := -n/2*math.Log(variance) + (lambda-1)*logSum
		if ll > bestLL {
			best, bestLL = lambda, ll
		}
	}
	if math.IsInf(bestLL, -1) {
		return 0, false
	}

	switch {
	case math.Abs(best) < lambdaFudge:
		best = 0
	case math.Abs(best-1) < lambdaFudge:
		return 1, false
	}
	return best, true
}

func boxCox(v, lambda float64) float64 {
	if lambda == 0 {
		return math.Log(v)
	}
	return (math.Pow(v, lambda) - 1) / lambda
}

func boxCoxAll(col []float64, lambda float64) []float64 {
	out := make([]float64, len(col))
	for i, v := range col {
		out[i] = boxCox(v, lambda)
	}
	return out
}

// findCorrelation returns the columns to remove so that no remaining pair has
// an absolute correlation above cutoff. Columns are visited in decreasing
// order of mean absolute correlation; of each offending pair the one with the
// larger mean absolute correlation to the columns still kept is removed.
func findCorrelation(cols [][]float64, cutoff float64) []bool {
	k := len(cols)
	corr := make([][]float64, k)
	for i := range corr {
		corr[i] = make([]float64, k)
	}
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			c := math.Abs(stat.Correlation(cols[i], cols[j], nil))
			if math.IsNaN(c) {
				c = 0
			}
			corr[i][j], corr[j][i] = c, c
		}
	}

	meanCorr := func(i int, removed []bool) float64 {
		sum, n := 0.0, 0
		for j := 0; j < k; j++ {
			if j != i && !removed[j] {
				sum += corr[i][j]
				n++
			}
		}
		if n == 0 {
			return 0
		}
		return sum / float64(n)
	}

	none := make([]bool, k)
	order := make([]int, k)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return meanCorr(order[a], none) > meanCorr(order[b], none)
	})

	removed := make([]bool, k)
	for a := 0; a < k-1; a++ {
		for b := a + 1; b < k; b++ {
			i, j := order[a], order[b]
			if removed[i] || removed[j] || corr[i][j] <= cutoff {
				continue
			}
			if meanCorr(i, removed) > meanCorr(j, removed) {
				removed[i] = true
			} else {
				removed[j] = true
			}
		}
	}
	return removed
}
