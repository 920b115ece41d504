package significance

import (
	"testing"

	"veritas/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign_AllHybridWins(t *testing.T) {
	res := Sign(10, 0)
	assert.Equal(t, 10, res.N)
	assert.Equal(t, 10.0, res.Statistic)
	assert.InDelta(t, 0.001953125, res.PValue, 1e-12)
}

func TestSign(t *testing.T) {
	tests := []struct {
		wins, losses int
		want         float64
	}{
		{7, 3, 0.34375},
		{3, 7, 0.34375},
		{5, 5, 1},
		{1, 0, 1},
	}
	for _, tt := range tests {
		res := Sign(tt.wins, tt.losses)
		assert.InDelta(t, tt.want, res.PValue, 1e-9, "wins=%d losses=%d", tt.wins, tt.losses)
	}
}

func TestSign_NoUntiedPairs(t *testing.T) {
	res := Sign(0, 0)
	assert.Equal(t, 0, res.N)
	assert.Equal(t, 1.0, res.PValue)
	assert.NotEmpty(t, res.Note)
}

func TestTwoProportion(t *testing.T) {
	res, err := TwoProportion(83, 100, 70, 100, true)
	require.NoError(t, err)
	assert.InDelta(t, 4.005006, res.Statistic, 1e-5)
	assert.InDelta(t, 0.0454, res.PValue, 1e-3)
	assert.Equal(t, 200, res.N)

	res, err = TwoProportion(83, 100, 70, 100, false)
	require.NoError(t, err)
	assert.InDelta(t, 4.700320, res.Statistic, 1e-5)
	assert.Less(t, res.PValue, 0.05)
}

func TestTwoProportion_EqualProportions(t *testing.T) {
	equal, err := TwoProportion(50, 100, 50, 100, true)
	require.NoError(t, err)
	assert.Equal(t, 0.0, equal.Statistic)
	assert.InDelta(t, 1.0, equal.PValue, 1e-12)
}

func TestTwoProportion_Errors(t *testing.T) {
	_, err := TwoProportion(1, 0, 1, 2, true)
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = TwoProportion(5, 4, 1, 2, true)
	assert.True(t, core.IsConfigurationError(err))

	res, err := TwoProportion(10, 10, 20, 20, true)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.PValue)
}

func TestWilcoxon_Exact(t *testing.T) {
	x := []float64{1.83, 0.50, 1.62, 2.48, 1.68, 1.88, 1.55, 3.06, 1.30}
	y := []float64{0.878, 0.647, 0.598, 2.05, 1.06, 1.29, 1.06, 3.14, 1.29}
	d := make([]float64, len(x))
	for i := range x {
		d[i] = x[i] - y[i]
	}

	res := Wilcoxon(d)
	assert.Equal(t, 9, res.N)
	assert.Equal(t, 40.0, res.Statistic)
	assert.InDelta(t, 0.0390625, res.PValue, 1e-9)
	assert.Contains(t, res.Method, "exact")
}

func TestWilcoxon_NormalWithTies(t *testing.T) {
	res := Wilcoxon([]float64{0.5, 0.5, -0.5, 1, 1.5})
	assert.Equal(t, 13.0, res.Statistic)
	assert.InDelta(t, 0.1696, res.PValue, 2e-3)
	assert.Contains(t, res.Method, "continuity")
}

func TestWilcoxon_DropsZeros(t *testing.T) {
	res := Wilcoxon([]float64{0, 0.02, 0.04, -0.01, 0})
	assert.Equal(t, 3, res.N)
	assert.Equal(t, 5.0, res.Statistic)
	assert.NotContains(t, res.Method, "exact")

	res = Wilcoxon([]float64{0, 0})
	assert.Equal(t, 0, res.N)
	assert.Equal(t, 1.0, res.PValue)
}

func TestSignedRankCounts(t *testing.T) {
	counts := signedRankCounts(3)
	assert.Equal(t, []float64{1, 1, 1, 2, 1, 1, 1}, counts)

	total := 0.0
	for _, c := range signedRankCounts(10) {
		total += c
	}
	assert.Equal(t, 1024.0, total)
}
