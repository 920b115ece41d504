// Package learners provides the trainable binary classifiers behind the
// classifier adapter: logistic regression, a radial-kernel SVM and a single
// hidden layer network. Truth is encoded as the positive class throughout.
package learners

import (
	"fmt"
	"math"

	"veritas/domain/core"
	"veritas/domain/model"
	"veritas/domain/statement"
	"veritas/ports"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// For returns the learner configured by a family
func For(family model.Family) (ports.Learner, error) {
	switch f := family.(type) {
	case model.LogisticRegression:
		return NewLogisticLearner(f), nil
	case model.SVMRadial:
		return NewSVMLearner(f), nil
	case model.NeuralNet1Layer:
		return NewNeuralNetLearner(f), nil
	}
	return nil, core.NewConfigurationError("family", fmt.Sprintf("no learner for %T", family))
}

// checkTrainable rejects degenerate training data before any optimizer runs
func checkTrainable(req ports.FitRequest) ([]float64, error) {
	if req.X == nil {
		return nil, core.NewTrainingFailure("no training matrix")
	}
	r, c := req.X.Dims()
	if c == 0 {
		return nil, core.NewTrainingFailure("feature matrix has zero columns")
	}
	if r != len(req.Y) {
		return nil, core.NewTrainingFailure(fmt.Sprintf("%d rows but %d labels", r, len(req.Y)))
	}

	y := make([]float64, r)
	truths := 0
	for i, l := range req.Y {
		y[i] = l.Indicator()
		if l == statement.Truth {
			truths++
		}
	}
	if truths == 0 || truths == r {
		return nil, core.NewTrainingFailure("training labels contain a single class")
	}
	return y, nil
}

func checkPredictable(X *mat.Dense, width int) (int, error) {
	if X == nil {
		return 0, fmt.Errorf("no matrix to predict")
	}
	r, c := X.Dims()
	if c != width {
		return 0, fmt.Errorf("model trained on %d columns, got %d", width, c)
	}
	return r, nil
}

// minimize runs BFGS for a fixed iteration budget. Hitting the budget or a
// line-search stall is accepted; the best location found is returned.
func minimize(problem optimize.Problem, x0 []float64, maxIter int) ([]float64, error) {
	settings := &optimize.Settings{
		MajorIterations:   maxIter,
		GradientThreshold: 1e-8,
	}
	res, err := optimize.Minimize(problem, x0, settings, &optimize.BFGS{})
	if res == nil {
		return nil, core.NewTrainingFailure(fmt.Sprintf("optimizer failed: %v", err))
	}
	for _, v := range res.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, core.NewTrainingFailure("optimizer diverged to a non-finite solution")
		}
	}
	return res.X, nil
}

// softplus computes log(1+exp(x)) without overflow
func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}
