package statement

import (
	"testing"

	"veritas/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labelPtr(l Label) *Label { return &l }

func sampleDataset(t *testing.T) *Dataset {
	t.Helper()
	ds, err := NewDataset([]string{"word_count", "sentiment"}, []Statement{
		{ID: "s1", Prompt: 1, Label: Truth, Features: []float64{10, 0.2}, HumanPrediction: labelPtr(Truth)},
		{ID: "s2", Prompt: 2, Label: Lie, Features: []float64{14, -0.4}},
		{ID: "s3", Prompt: 3, Label: Lie, Features: []float64{8, 0.1}, HumanPrediction: labelPtr(Truth)},
	})
	require.NoError(t, err)
	return ds
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		in      string
		want    Label
		wantErr bool
	}{
		{"truth", Truth, false},
		{" Lie ", Lie, false},
		{"TRUE", Truth, false},
		{"0", Lie, false},
		{"maybe", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLabel(tt.in)
			if tt.wantErr {
				assert.True(t, core.IsConfigurationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDataset_HybridSubset(t *testing.T) {
	ds := sampleDataset(t)
	sub := ds.HybridSubset()

	assert.Equal(t, 2, sub.Len())
	assert.True(t, sub.FullyHybrid())
	assert.False(t, ds.FullyHybrid())
	assert.Equal(t, ds.FeatureNames, sub.FeatureNames)
}

func TestDataset_MatrixAppendsHumanPrediction(t *testing.T) {
	sub := sampleDataset(t).HybridSubset()

	hybrid, err := sub.Matrix([]int{0, 1}, true)
	require.NoError(t, err)
	r, c := hybrid.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 1.0, hybrid.At(0, 2))
	assert.Equal(t, 8.0, hybrid.At(1, 0))

	plain, err := sub.Matrix([]int{0, 1}, false)
	require.NoError(t, err)
	_, c = plain.Dims()
	assert.Equal(t, 2, c)

	assert.Equal(t, []string{"word_count", "sentiment", HumanPredictionColumn}, sub.Columns(true))
}

func TestDataset_MatrixRejectsMissingHumanPrediction(t *testing.T) {
	ds := sampleDataset(t)
	_, err := ds.Matrix([]int{1}, true)
	assert.True(t, core.IsConfigurationError(err))
}

func TestDataset_MatrixZeroColumns(t *testing.T) {
	ds, err := NewDataset(nil, []Statement{{ID: "a", Label: Truth, HumanPrediction: labelPtr(Lie)}})
	require.NoError(t, err)

	_, err = ds.Matrix([]int{0}, false)
	assert.True(t, core.IsTrainingFailure(err))

	m, err := ds.Matrix([]int{0}, true)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.At(0, 0))
}

func TestDataset_Validate(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		stmts []Statement
	}{
		{"width mismatch", []string{"a"}, []Statement{{ID: "x", Label: Truth, Features: []float64{1, 2}}}},
		{"bad label", []string{"a"}, []Statement{{ID: "x", Label: "maybe", Features: []float64{1}}}},
		{"prompt out of range", []string{"a"}, []Statement{{ID: "x", Label: Lie, Prompt: 7, Features: []float64{1}}}},
		{"duplicate feature", []string{"a", "a"}, nil},
		{"reserved feature", []string{HumanPredictionColumn}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDataset(tt.names, tt.stmts)
			assert.True(t, core.IsConfigurationError(err), "got %v", err)
		})
	}
}

func TestDataset_ClassTotals(t *testing.T) {
	ds := sampleDataset(t)
	truths, lies := ds.ClassTotals([]int{0, 1, 2})
	assert.Equal(t, 1, truths)
	assert.Equal(t, 2, lies)
	assert.Equal(t, []Label{Lie, Truth}, ds.Labels([]int{2, 0}))
}
