package harness

import (
	"context"
	"testing"

	"veritas/adapters/learners"
	"veritas/adapters/rng"
	"veritas/domain/core"
	"veritas/domain/evaluation"
	"veritas/domain/model"
	"veritas/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAggregator(factory LearnerFactory) *Aggregator {
	return NewAggregator(NewClassifier(factory, DefaultInnerConfig(), nil), rng.NewSeededAdapter(), nil)
}

func TestAggregator_EndToEnd(t *testing.T) {
	ds, err := testkit.LinearDataset(100, 2, 5)
	require.NoError(t, err)

	cfg := RunConfig{Rounds: 2, TrainFraction: 0.5, BaseSeed: 42, Policy: FailFast, Workers: 1}
	table, err := newAggregator(learners.For).Run(context.Background(), ds, model.DefaultLogistic(), cfg)
	require.NoError(t, err)

	require.Len(t, table.Rows, 4)
	assert.Empty(t, table.Failures)
	assert.Equal(t, model.KindLogistic, table.Family)
	assert.Equal(t, 2, table.Rounds)

	want := []struct {
		round  int
		hybrid bool
	}{{1, true}, {1, false}, {2, true}, {2, false}}
	for i, row := range table.Rows {
		assert.Equal(t, want[i].round, row.Round, "row %d", i)
		assert.Equal(t, want[i].hybrid, row.Hybrid, "row %d", i)
		assert.Equal(t, 50, row.N)
		assert.Equal(t, 50, row.Truths+row.Lies)
		assert.GreaterOrEqual(t, row.Accuracy, 0.0)
		assert.LessOrEqual(t, row.Accuracy, 1.0)
		assert.LessOrEqual(t, row.AccuracyLower, row.Accuracy)
	}

	// both variants of a round share the test split
	assert.Equal(t, table.Rows[0].Truths, table.Rows[1].Truths)
	assert.Equal(t, table.Rows[2].Lies, table.Rows[3].Lies)
}

func TestAggregator_Idempotent(t *testing.T) {
	ds, err := testkit.LinearDataset(80, 1, 3)
	require.NoError(t, err)
	cfg := RunConfig{Rounds: 3, TrainFraction: 0.75, BaseSeed: 7, Policy: SkipAndContinue, Workers: 1}

	a, err := newAggregator(learners.For).Run(context.Background(), ds, model.DefaultLogistic(), cfg)
	require.NoError(t, err)
	b, err := newAggregator(learners.For).Run(context.Background(), ds, model.DefaultLogistic(), cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAggregator_WorkersDoNotChangeResults(t *testing.T) {
	ds, err := testkit.LinearDataset(80, 1, 3)
	require.NoError(t, err)
	cfg := RunConfig{Rounds: 4, TrainFraction: 0.75, BaseSeed: 7, Policy: SkipAndContinue, Workers: 1}

	sequential, err := newAggregator(learners.For).Run(context.Background(), ds, model.DefaultLogistic(), cfg)
	require.NoError(t, err)
	cfg.Workers = 3
	parallel, err := newAggregator(learners.For).Run(context.Background(), ds, model.DefaultLogistic(), cfg)
	require.NoError(t, err)
	assert.Equal(t, sequential, parallel)
}

func TestAggregator_SkipAndContinue(t *testing.T) {
	ds, err := testkit.LinearDataset(40, 1, 3)
	require.NoError(t, err)
	fake := &fakeLearner{kind: model.KindLogistic, fail: func(model.Params) bool { return true }}

	cfg := RunConfig{Rounds: 3, TrainFraction: 0.5, BaseSeed: 1, Policy: SkipAndContinue, Workers: 1}
	table, err := newAggregator(fakeFactory(fake)).Run(context.Background(), ds, model.DefaultLogistic(), cfg)
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
	require.Len(t, table.Failures, 3)
	assert.Equal(t, evaluation.Hybrid, table.Failures[0].Variant)
	assert.Equal(t, 1, table.Failures[0].Round)
	assert.Contains(t, table.Failures[2].Error, "training failure")
}

func TestAggregator_FailFast(t *testing.T) {
	ds, err := testkit.LinearDataset(40, 1, 3)
	require.NoError(t, err)
	fake := &fakeLearner{kind: model.KindLogistic, fail: func(model.Params) bool { return true }}

	cfg := RunConfig{Rounds: 3, TrainFraction: 0.5, BaseSeed: 1, Policy: FailFast, Workers: 1}
	table, err := newAggregator(fakeFactory(fake)).Run(context.Background(), ds, model.DefaultLogistic(), cfg)
	require.Error(t, err)
	assert.True(t, core.IsTrainingFailure(err))
	require.NotNil(t, table)
	assert.Empty(t, table.Rows)
	assert.Len(t, table.Failures, 1)
}

func TestAggregator_UndefinedMetricFailsRound(t *testing.T) {
	ds, err := testkit.LinearDataset(40, 1, 3)
	require.NoError(t, err)
	// a constant truth prediction leaves NPV without a denominator
	fake := &fakeLearner{kind: model.KindLogistic}

	cfg := RunConfig{Rounds: 2, TrainFraction: 0.5, BaseSeed: 1, Policy: SkipAndContinue, Workers: 1}
	table, err := newAggregator(fakeFactory(fake)).Run(context.Background(), ds, model.DefaultLogistic(), cfg)
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
	require.Len(t, table.Failures, 2)
	assert.Contains(t, table.Failures[0].Error, "npv")
}

func TestAggregator_RequiresHybridData(t *testing.T) {
	cfg := testkit.DefaultCorpusConfig()
	cfg.HybridShare = 0.5
	ds, err := testkit.NewCorpusGenerator(cfg).Generate()
	require.NoError(t, err)

	_, err = newAggregator(learners.For).Run(context.Background(), ds, model.DefaultLogistic(), DefaultRunConfig())
	assert.True(t, core.IsConfigurationError(err))

	_, err = newAggregator(learners.For).Run(context.Background(), ds.HybridSubset(), model.DefaultLogistic(), RunConfig{Rounds: 1, TrainFraction: 0.75, Policy: SkipAndContinue})
	assert.NoError(t, err)
}

func TestAggregator_ConfigValidation(t *testing.T) {
	ds, err := testkit.LinearDataset(20, 1, 3)
	require.NoError(t, err)
	agg := newAggregator(learners.For)

	bad := []RunConfig{
		{Rounds: 0, TrainFraction: 0.5, Policy: FailFast},
		{Rounds: 1, TrainFraction: 1, Policy: FailFast},
		{Rounds: 1, TrainFraction: 0.5, Policy: "retry"},
		{Rounds: 1, TrainFraction: 0.5, Policy: FailFast, Workers: -1},
	}
	for _, cfg := range bad {
		_, err := agg.Run(context.Background(), ds, model.DefaultLogistic(), cfg)
		assert.True(t, core.IsConfigurationError(err), "%+v", cfg)
	}
}

func TestAggregator_Canceled(t *testing.T) {
	ds, err := testkit.LinearDataset(40, 1, 3)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table, err := newAggregator(learners.For).Run(ctx, ds, model.DefaultLogistic(), RunConfig{Rounds: 2, TrainFraction: 0.5, Policy: SkipAndContinue})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, table)
	assert.Empty(t, table.Rows)
	assert.Empty(t, table.Failures)
}
