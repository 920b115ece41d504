package harness

import (
	"math"

	"veritas/adapters/stats/significance"
	"veritas/domain/core"
	"veritas/domain/evaluation"

	"github.com/montanaflynn/stats"
)

// accuracyEpsilon separates a hybrid win from a tie
const accuracyEpsilon = 1e-12

// Comparator runs the paired hybrid vs non-hybrid tests over a Result Table
type Comparator struct {
	Yates bool
}

// NewComparator creates a comparator with the continuity correction on
func NewComparator() *Comparator {
	return &Comparator{Yates: true}
}

// Compare tests the rounds that have both variants. It reports numbers only.
func (c *Comparator) Compare(table *evaluation.ResultTable) (*evaluation.ComparisonReport, error) {
	if table == nil {
		return nil, core.NewInsufficientDataError("no result table")
	}
	pairs := table.Pairs()
	if len(pairs) == 0 {
		return nil, core.NewInsufficientDataError("no round has both a hybrid and a non-hybrid row")
	}

	report := &evaluation.ComparisonReport{
		Family:           table.Family,
		ConfiguredRounds: table.Rounds,
		EffectiveN:       len(pairs),
	}

	var hybridAcc, nonHybridAcc, diffs []float64
	var hybridCorrect, hybridN, nonCorrect, nonN, losses int
	for _, p := range pairs {
		hybridAcc = append(hybridAcc, p.Hybrid.Accuracy)
		nonHybridAcc = append(nonHybridAcc, p.NonHybrid.Accuracy)

		d := p.Hybrid.Accuracy - p.NonHybrid.Accuracy
		diffs = append(diffs, d)
		switch {
		case d > accuracyEpsilon:
			report.HybridWins++
		case d < -accuracyEpsilon:
			losses++
		default:
			report.Ties++
		}

		hybridCorrect += correctCount(p.Hybrid)
		hybridN += p.Hybrid.N
		nonCorrect += correctCount(p.NonHybrid)
		nonN += p.NonHybrid.N
	}

	report.HybridAccuracy, _ = stats.Mean(hybridAcc)
	report.NonHybridAccuracy, _ = stats.Mean(nonHybridAcc)

	prop, err := significance.TwoProportion(hybridCorrect, hybridN, nonCorrect, nonN, c.Yates)
	if err != nil {
		return nil, err
	}
	report.TwoProportion = prop
	report.Sign = significance.Sign(report.HybridWins, losses)
	report.Wilcoxon = significance.Wilcoxon(diffs)
	return report, nil
}

// correctCount recovers the correct predictions of a row, also for rows
// loaded from storage without confusion counts
func correctCount(row evaluation.ResultRow) int {
	if row.Confusion.Total() > 0 {
		return row.Confusion.Correct()
	}
	return int(math.Round(row.Accuracy * float64(row.N)))
}
