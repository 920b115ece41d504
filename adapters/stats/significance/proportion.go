// Package significance implements the paired tests used to compare hybrid and
// non-hybrid classifiers: a two-proportion chi-squared test, the exact sign
// test and the Wilcoxon signed-rank test. Each returns a TestResult and leaves
// interpretation of the p-value to the caller.
package significance

import (
	"fmt"
	"math"

	"veritas/domain/core"
	"veritas/domain/evaluation"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	TwoProportionName = "two_proportion"
	SignName          = "sign"
	WilcoxonName      = "wilcoxon_signed_rank"
)

// TwoProportion tests equality of x1/n1 and x2/n2 with a 2x2 chi-squared
// statistic on one degree of freedom. With yates the continuity correction
// min(0.5, |p1-p2| / (1/n1 + 1/n2)) is applied.
func TwoProportion(x1, n1, x2, n2 int, yates bool) (evaluation.TestResult, error) {
	res := evaluation.TestResult{Name: TwoProportionName, N: n1 + n2}
	if n1 <= 0 || n2 <= 0 {
		return res, core.NewInsufficientDataError("two-proportion test needs positive group sizes")
	}
	if x1 < 0 || x1 > n1 || x2 < 0 || x2 > n2 {
		return res, core.NewConfigurationError("two-proportion counts", fmt.Sprintf("%d/%d and %d/%d are not proportions", x1, n1, x2, n2))
	}

	res.Method = "2-sample test for equality of proportions without continuity correction"
	correction := 0.0
	if yates {
		res.Method = "2-sample test for equality of proportions with continuity correction"
		p1, p2 := float64(x1)/float64(n1), float64(x2)/float64(n2)
		correction = math.Min(0.5, math.Abs(p1-p2)/(1/float64(n1)+1/float64(n2)))
	}

	pooled := float64(x1+x2) / float64(n1+n2)
	if pooled == 0 || pooled == 1 {
		res.PValue = 1
		res.Note = "both groups have the same degenerate proportion"
		return res, nil
	}

	observed := [4]float64{float64(x1), float64(n1 - x1), float64(x2), float64(n2 - x2)}
	expected := [4]float64{
		float64(n1) * pooled, float64(n1) * (1 - pooled),
		float64(n2) * pooled, float64(n2) * (1 - pooled),
	}
	for k := range observed {
		d := math.Abs(observed[k]-expected[k]) - correction
		res.Statistic += d * d / expected[k]
	}
	res.PValue = distuv.ChiSquared{K: 1}.Survival(res.Statistic)
	return res, nil
}
