package harness

import (
	"fmt"
	"math"

	"veritas/domain/core"
	"veritas/domain/evaluation"
	"veritas/domain/statement"
)

// Score tabulates predicted against actual labels with positive as the
// positive class. Every rate with a zero denominator is reported in a single
// UndefinedMetricError; the returned Metrics then only carry the confusion counts.
func Score(predicted, actual []statement.Label, positive statement.Label) (evaluation.Metrics, error) {
	if len(predicted) != len(actual) {
		return evaluation.Metrics{}, core.NewConfigurationError("predictions", fmt.Sprintf("have length %d but labels have %d", len(predicted), len(actual)))
	}
	if len(actual) == 0 {
		return evaluation.Metrics{}, core.NewConfigurationError("predictions", "are empty")
	}
	if !positive.Valid() {
		return evaluation.Metrics{}, core.NewConfigurationError("positive class", fmt.Sprintf("%q is not a label", positive))
	}

	var c evaluation.Confusion
	for i, want := range actual {
		got := predicted[i]
		switch {
		case got == positive && want == positive:
			c.TP++
		case got != positive && want != positive:
			c.TN++
		case got == positive:
			c.FP++
		default:
			c.FN++
		}
	}

	m := evaluation.Metrics{Confusion: c}
	var undefined []string
	rate := func(name string, k, n int) evaluation.Estimate {
		if n == 0 {
			undefined = append(undefined, name)
			return evaluation.Estimate{}
		}
		return Wald(k, n)
	}
	m.Accuracy = rate("accuracy", c.Correct(), c.Total())
	m.Sensitivity = rate("sensitivity", c.TP, c.TP+c.FN)
	m.Specificity = rate("specificity", c.TN, c.TN+c.FP)
	m.Precision = rate("precision", c.TP, c.TP+c.FP)
	m.NPV = rate("npv", c.TN, c.TN+c.FN)

	if len(undefined) > 0 {
		return evaluation.Metrics{Confusion: c}, &core.UndefinedMetricError{Metrics: undefined}
	}
	return m, nil
}

// Wald returns k/n with the unclamped interval p ± 1.96·sqrt(p(1-p)/n)
func Wald(k, n int) evaluation.Estimate {
	p := float64(k) / float64(n)
	half := evaluation.WaldZ * math.Sqrt(p*(1-p)/float64(n))
	return evaluation.Estimate{Value: p, Lower: p - half, Upper: p + half, N: n}
}
