package harness

import (
	"testing"

	"veritas/domain/core"
	"veritas/domain/evaluation"
	"veritas/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pairTable(rounds int, hybrid, nonHybrid func(round int) float64) *evaluation.ResultTable {
	table := &evaluation.ResultTable{Family: model.KindSVMRadial, Rounds: rounds}
	for r := 1; r <= rounds; r++ {
		table.Rows = append(table.Rows,
			evaluation.ResultRow{Family: model.KindSVMRadial, Hybrid: true, Round: r, Accuracy: hybrid(r), N: 50},
			evaluation.ResultRow{Family: model.KindSVMRadial, Hybrid: false, Round: r, Accuracy: nonHybrid(r), N: 50},
		)
	}
	return table
}

func TestCompare_HybridWinsEveryRound(t *testing.T) {
	table := pairTable(10, func(int) float64 { return 0.8 }, func(int) float64 { return 0.7 })
	report, err := NewComparator().Compare(table)
	require.NoError(t, err)

	assert.Equal(t, 10, report.EffectiveN)
	assert.Equal(t, 10, report.ConfiguredRounds)
	assert.Equal(t, 10, report.HybridWins)
	assert.Zero(t, report.Ties)
	assert.InDelta(t, 0.8, report.HybridAccuracy, 1e-12)
	assert.InDelta(t, 0.7, report.NonHybridAccuracy, 1e-12)

	assert.InDelta(t, 0.001953125, report.Sign.PValue, 1e-12)
	assert.Equal(t, 10, report.Sign.N)
	assert.Equal(t, 1000, report.TwoProportion.N)
	assert.Less(t, report.TwoProportion.PValue, 0.001)
	assert.Equal(t, 55.0, report.Wilcoxon.Statistic)
}

func TestCompare_TiesExcludedFromSignTest(t *testing.T) {
	table := pairTable(6,
		func(r int) float64 { return 0.70 + 0.02*float64(r%3) },
		func(int) float64 { return 0.72 },
	)
	report, err := NewComparator().Compare(table)
	require.NoError(t, err)
	assert.Equal(t, 6, report.EffectiveN)
	assert.Equal(t, 2, report.Ties)
	assert.Equal(t, 2, report.HybridWins)
	assert.Equal(t, 4, report.Sign.N)
	assert.Equal(t, 4, report.Wilcoxon.N)
}

func TestCompare_OnlyCompleteRounds(t *testing.T) {
	table := pairTable(3, func(int) float64 { return 0.8 }, func(int) float64 { return 0.6 })
	table.Rows = table.Rows[:5]
	table.Failures = []evaluation.RoundFailure{{Round: 3, Variant: evaluation.NonHybrid, Error: "training failure"}}

	report, err := NewComparator().Compare(table)
	require.NoError(t, err)
	assert.Equal(t, 2, report.EffectiveN)
	assert.Equal(t, 3, report.ConfiguredRounds)
}

func TestCompare_NoPairs(t *testing.T) {
	_, err := NewComparator().Compare(&evaluation.ResultTable{Rounds: 3})
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = NewComparator().Compare(nil)
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestCorrectCount(t *testing.T) {
	assert.Equal(t, 35, correctCount(evaluation.ResultRow{Accuracy: 0.7, N: 50}))
	row := evaluation.ResultRow{Accuracy: 0.7, N: 50, Confusion: evaluation.Confusion{TP: 20, TN: 16, FP: 10, FN: 4}}
	assert.Equal(t, 36, correctCount(row))
}
