package harness

import (
	"context"
	"math/rand"
	"testing"

	"veritas/adapters/learners"
	"veritas/domain/core"
	"veritas/domain/model"
	"veritas/domain/statement"
	"veritas/internal/testkit"
	"veritas/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// constantModel predicts the same label for every row
type constantModel struct{ label statement.Label }

func (m constantModel) Predict(X *mat.Dense) ([]statement.Label, error) {
	r, _ := X.Dims()
	out := make([]statement.Label, r)
	for i := range out {
		out[i] = m.label
	}
	return out, nil
}

// fakeLearner fails the params rejected by fail and otherwise predicts truth
type fakeLearner struct {
	kind model.Kind
	fail func(model.Params) bool
	fits int
}

func (l *fakeLearner) Kind() model.Kind { return l.kind }

func (l *fakeLearner) Fit(ctx context.Context, req ports.FitRequest) (ports.Model, error) {
	l.fits++
	if l.fail != nil && l.fail(req.Params) {
		return nil, core.NewTrainingFailure("rejected " + req.Params.String())
	}
	return constantModel{statement.Truth}, nil
}

func fakeFactory(l *fakeLearner) LearnerFactory {
	return func(model.Family) (ports.Learner, error) { return l, nil }
}

func trainingData(t *testing.T, n int) (*mat.Dense, []statement.Label) {
	t.Helper()
	ds, err := testkit.LinearDataset(n, 3, 11)
	require.NoError(t, err)
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	X, err := ds.Matrix(rows, true)
	require.NoError(t, err)
	return X, ds.Labels(rows)
}

func TestClassifier_TiesKeepEarlierCandidate(t *testing.T) {
	X, y := trainingData(t, 40)
	fake := &fakeLearner{kind: model.KindNeuralNet}
	c := NewClassifier(fakeFactory(fake), DefaultInnerConfig(), nil)

	fam := model.DefaultNeuralNet()
	_, params, err := c.Fit(context.Background(), fam, X, y, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, fam.Candidates()[0], params)
	// every candidate on every resample, then the refit
	assert.Equal(t, len(fam.Candidates())*3+1, fake.fits)
}

func TestClassifier_SkipsFailedCandidates(t *testing.T) {
	X, y := trainingData(t, 40)
	fake := &fakeLearner{kind: model.KindNeuralNet, fail: func(p model.Params) bool { return p.Size == 1 }}
	c := NewClassifier(fakeFactory(fake), DefaultInnerConfig(), nil)

	_, params, err := c.Fit(context.Background(), model.DefaultNeuralNet(), X, y, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, model.Params{Size: 2, Decay: 0}, params)
}

func TestClassifier_AllCandidatesFail(t *testing.T) {
	X, y := trainingData(t, 40)
	fake := &fakeLearner{kind: model.KindNeuralNet, fail: func(model.Params) bool { return true }}
	c := NewClassifier(fakeFactory(fake), DefaultInnerConfig(), nil)

	_, _, err := c.Fit(context.Background(), model.DefaultNeuralNet(), X, y, rand.New(rand.NewSource(1)))
	assert.True(t, core.IsTrainingFailure(err))
}

func TestClassifier_SVMPicksFromCostGrid(t *testing.T) {
	X, y := trainingData(t, 80)
	c := NewClassifier(learners.For, DefaultInnerConfig(), nil)

	fam := model.DefaultSVMRadial()
	m, params, err := c.Fit(context.Background(), fam, X, y, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	assert.Contains(t, fam.Costs, params.Cost)
	assert.Greater(t, params.Sigma, 0.0)

	pred, err := m.Predict(X)
	require.NoError(t, err)
	assert.Len(t, pred, len(y))
}

func TestClassifier_NeuralNetDeterministic(t *testing.T) {
	X, y := trainingData(t, 60)
	c := NewClassifier(learners.For, DefaultInnerConfig(), nil)

	fam := model.DefaultNeuralNet()
	fam.Sizes = []int{1, 2}
	fam.Decays = []float64{0, 0.1}

	fit := func() model.Params {
		_, params, err := c.Fit(context.Background(), fam, X, y, rand.New(rand.NewSource(9)))
		require.NoError(t, err)
		return params
	}
	first := fit()
	assert.Equal(t, first, fit())
	assert.Contains(t, fam.Candidates(), first)
}

func TestClassifier_LogisticHasNoParams(t *testing.T) {
	X, y := trainingData(t, 40)
	c := NewClassifier(learners.For, DefaultInnerConfig(), nil)
	_, params, err := c.Fit(context.Background(), model.DefaultLogistic(), X, y, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, model.Params{}, params)
	assert.Equal(t, "-", params.String())
}

func TestClassifier_SingleClass(t *testing.T) {
	X, y := trainingData(t, 20)
	for i := range y {
		y[i] = statement.Lie
	}
	c := NewClassifier(learners.For, DefaultInnerConfig(), nil)
	for _, kind := range []model.Kind{model.KindLogistic, model.KindSVMRadial, model.KindNeuralNet} {
		fam, err := model.Default(kind)
		require.NoError(t, err)
		_, _, err = c.Fit(context.Background(), fam, X, y, rand.New(rand.NewSource(1)))
		assert.True(t, core.IsTrainingFailure(err), kind)
	}
}

func TestEstimateSigma(t *testing.T) {
	X, _ := trainingData(t, 50)
	a, err := EstimateSigma(X, 0.5, rand.New(rand.NewSource(4)))
	require.NoError(t, err)
	b, err := EstimateSigma(X, 0.5, rand.New(rand.NewSource(4)))
	require.NoError(t, err)
	assert.Greater(t, a, 0.0)
	assert.Equal(t, a, b)

	same := mat.NewDense(4, 2, []float64{1, 1, 1, 1, 1, 1, 1, 1})
	_, err = EstimateSigma(same, 0.5, rand.New(rand.NewSource(1)))
	assert.True(t, core.IsTrainingFailure(err))
}
