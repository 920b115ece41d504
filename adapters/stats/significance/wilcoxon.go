package significance

import (
	"math"
	"sort"

	"veritas/domain/evaluation"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// exactLimit is the sample size below which the exact null distribution is used
	exactLimit = 50
	tieEpsilon = 1e-9
)

// Wilcoxon runs the two-sided signed-rank test on paired differences.
// Zero differences are dropped. The statistic V is the sum of ranks of the
// positive differences. The exact distribution is used for fewer than 50
// differences when there are neither ties nor zeros; otherwise the normal
// approximation with continuity and tie corrections.
func Wilcoxon(diffs []float64) evaluation.TestResult {
	res := evaluation.TestResult{Name: WilcoxonName, PValue: 1}

	nonzero := make([]float64, 0, len(diffs))
	for _, d := range diffs {
		if math.Abs(d) > tieEpsilon {
			nonzero = append(nonzero, d)
		}
	}
	zeros := len(nonzero) < len(diffs)
	n := len(nonzero)
	res.N = n
	if n == 0 {
		res.Method = "Wilcoxon signed rank test"
		res.Note = "all paired differences are zero"
		return res
	}

	ranks, tieSizes := absRanks(nonzero)
	for i, d := range nonzero {
		if d > 0 {
			res.Statistic += ranks[i]
		}
	}

	if n < exactLimit && len(tieSizes) == 0 && !zeros {
		res.Method = "Wilcoxon signed rank exact test"
		res.PValue = exactSignedRankP(res.Statistic, n)
		return res
	}

	res.Method = "Wilcoxon signed rank test with continuity correction"
	if zeros || len(tieSizes) > 0 {
		res.Note = "normal approximation: differences contain zeros or ties"
	}
	fn := float64(n)
	z := res.Statistic - fn*(fn+1)/4
	tieAdj := 0.0
	for _, t := range tieSizes {
		ft := float64(t)
		tieAdj += ft*ft*ft - ft
	}
	sigma := math.Sqrt(fn*(fn+1)*(2*fn+1)/24 - tieAdj/48)
	if sigma == 0 {
		return res
	}
	correction := 0.0
	switch {
	case z > 0:
		correction = 0.5
	case z < 0:
		correction = -0.5
	}
	z = (z - correction) / sigma
	norm := distuv.UnitNormal
	res.PValue = math.Min(1, 2*math.Min(norm.CDF(z), norm.Survival(z)))
	return res
}

// absRanks ranks |x| with average ranks for ties and returns the size of
// every tie group larger than one
func absRanks(x []float64) ([]float64, []int) {
	n := len(x)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return math.Abs(x[order[a]]) < math.Abs(x[order[b]])
	})

	ranks := make([]float64, n)
	var ties []int
	for i := 0; i < n; {
		j := i + 1
		for j < n && math.Abs(x[order[j]])-math.Abs(x[order[i]]) <= tieEpsilon {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		if j-i > 1 {
			ties = append(ties, j-i)
		}
		i = j
	}
	return ranks, ties
}

// signedRankCounts returns the number of subsets of {1..n} summing to each value
func signedRankCounts(n int) []float64 {
	counts := make([]float64, n*(n+1)/2+1)
	counts[0] = 1
	top := 0
	for k := 1; k <= n; k++ {
		top += k
		for v := top; v >= k; v-- {
			counts[v] += counts[v-k]
		}
	}
	return counts
}

// exactSignedRankP is the two-sided exact p-value of an integer statistic v
func exactSignedRankP(v float64, n int) float64 {
	counts := signedRankCounts(n)
	total := math.Ldexp(1, n)
	stat := int(math.Round(v))

	cdf := func(x int) float64 {
		if x < 0 {
			return 0
		}
		if x >= len(counts) {
			return 1
		}
		s := 0.0
		for k := 0; k <= x; k++ {
			s += counts[k]
		}
		return s / total
	}

	var p float64
	if v > float64(n*(n+1))/4 {
		p = 1 - cdf(stat-1)
	} else {
		p = cdf(stat)
	}
	return math.Min(1, 2*p)
}
