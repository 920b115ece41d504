package harness

import (
	"context"
	"fmt"
	"math/rand"

	"veritas/domain/core"
	"veritas/domain/model"
	"veritas/domain/statement"
	"veritas/internal"
	"veritas/ports"

	"gonum.org/v1/gonum/mat"
)

// LearnerFactory resolves the learner for a family
type LearnerFactory func(family model.Family) (ports.Learner, error)

// InnerConfig controls the resampling used to pick hyperparameters
type InnerConfig struct {
	Rounds   int
	Fraction float64
}

// DefaultInnerConfig is three 50/50 resamples of the training set
func DefaultInnerConfig() InnerConfig {
	return InnerConfig{Rounds: 3, Fraction: 0.5}
}

// Classifier fits any family behind one call, running the inner grid search
// for the families that have a grid
type Classifier struct {
	learners LearnerFactory
	inner    InnerConfig
	logger   *internal.Logger
}

// NewClassifier creates the classifier adapter
func NewClassifier(learners LearnerFactory, inner InnerConfig, logger *internal.Logger) *Classifier {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Classifier{learners: learners, inner: inner, logger: logger}
}

// Fit trains family on X and y and returns the model with its chosen params.
// All randomness (sigma sample, inner resamples, initial weights) comes from rng.
func (c *Classifier) Fit(ctx context.Context, family model.Family, X *mat.Dense, y []statement.Label, rng *rand.Rand) (ports.Model, model.Params, error) {
	if err := family.Validate(); err != nil {
		return nil, model.Params{}, err
	}
	learner, err := c.learners(family)
	if err != nil {
		return nil, model.Params{}, err
	}

	var candidates []model.Params
	switch f := family.(type) {
	case model.LogisticRegression:
		candidates = []model.Params{{}}
	case model.SVMRadial:
		if err := trainable(X, y); err != nil {
			return nil, model.Params{}, err
		}
		sigma, err := EstimateSigma(X, f.SigmaFrac, rng)
		if err != nil {
			return nil, model.Params{}, err
		}
		candidates = f.Candidates(sigma)
	case model.NeuralNet1Layer:
		candidates = f.Candidates()
	default:
		return nil, model.Params{}, core.NewConfigurationError("family", fmt.Sprintf("unsupported %T", family))
	}

	best := candidates[0]
	if len(candidates) > 1 {
		if best, err = c.tune(ctx, learner, candidates, X, y, rng); err != nil {
			return nil, model.Params{}, err
		}
	}

	m, err := learner.Fit(ctx, ports.FitRequest{X: X, Y: y, Params: best, Rand: rand.New(rand.NewSource(rng.Int63()))})
	if err != nil {
		return nil, model.Params{}, err
	}
	return m, best, nil
}

type resample struct {
	trainX, testX *mat.Dense
	trainY, testY []statement.Label
}

// tune returns the candidate with the highest mean accuracy over the inner
// resamples. Resamples are drawn once and shared; ties keep the earlier
// candidate and failing candidates are skipped.
func (c *Classifier) tune(ctx context.Context, learner ports.Learner, candidates []model.Params, X *mat.Dense, y []statement.Label, rng *rand.Rand) (model.Params, error) {
	if err := trainable(X, y); err != nil {
		return model.Params{}, err
	}
	rows, _ := X.Dims()
	all := make([]int, rows)
	for i := range all {
		all[i] = i
	}

	resamples := make([]resample, c.inner.Rounds)
	for k := range resamples {
		train, test, err := partition(all, c.inner.Fraction, rng)
		if err != nil {
			return model.Params{}, err
		}
		resamples[k] = resample{
			trainX: selectRows(X, train), testX: selectRows(X, test),
			trainY: selectLabels(y, train), testY: selectLabels(y, test),
		}
	}

	seeds := make([]int64, len(candidates)*len(resamples))
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	bestIdx, bestAcc := -1, -1.0
	var lastErr error
	for ci, params := range candidates {
		if err := ctx.Err(); err != nil {
			return model.Params{}, err
		}
		acc, err := c.meanAccuracy(ctx, learner, params, resamples, seeds[ci*len(resamples):])
		if err != nil {
			c.logger.Trace("candidate %s skipped: %v", params, err)
			lastErr = err
			continue
		}
		c.logger.Trace("candidate %s mean accuracy %.4f", params, acc)
		if acc > bestAcc {
			bestIdx, bestAcc = ci, acc
		}
	}
	if bestIdx < 0 {
		return model.Params{}, core.NewTrainingFailure(fmt.Sprintf("all %d candidates failed, last: %v", len(candidates), lastErr))
	}
	c.logger.Debug("%s selected %s (inner accuracy %.4f)", learner.Kind(), candidates[bestIdx], bestAcc)
	return candidates[bestIdx], nil
}

func (c *Classifier) meanAccuracy(ctx context.Context, learner ports.Learner, params model.Params, resamples []resample, seeds []int64) (float64, error) {
	total := 0.0
	for k, rs := range resamples {
		m, err := learner.Fit(ctx, ports.FitRequest{
			X: rs.trainX, Y: rs.trainY, Params: params, Rand: rand.New(rand.NewSource(seeds[k])),
		})
		if err != nil {
			return 0, err
		}
		pred, err := m.Predict(rs.testX)
		if err != nil {
			return 0, err
		}
		correct := 0
		for i, want := range rs.testY {
			if pred[i] == want {
				correct++
			}
		}
		total += float64(correct) / float64(len(rs.testY))
	}
	return total / float64(len(resamples)), nil
}

// trainable applies the checks every learner applies, before any tuning work
func trainable(X *mat.Dense, y []statement.Label) error {
	if X == nil {
		return core.NewTrainingFailure("no training matrix")
	}
	r, c := X.Dims()
	if c == 0 {
		return core.NewTrainingFailure("feature matrix has zero columns")
	}
	if r != len(y) {
		return core.NewTrainingFailure(fmt.Sprintf("%d rows but %d labels", r, len(y)))
	}
	for _, l := range y {
		if l != y[0] {
			return nil
		}
	}
	return core.NewTrainingFailure("training labels contain a single class")
}

func selectRows(X *mat.Dense, rows []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for i, r := range rows {
		out.SetRow(i, X.RawRowView(r))
	}
	return out
}

func selectLabels(y []statement.Label, rows []int) []statement.Label {
	out := make([]statement.Label, len(rows))
	for i, r := range rows {
		out[i] = y[r]
	}
	return out
}
