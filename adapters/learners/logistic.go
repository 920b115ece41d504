package learners

import (
	"context"

	"veritas/domain/model"
	"veritas/domain/statement"
	"veritas/ports"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// LogisticLearner fits an unpenalized logistic regression by maximum likelihood
type LogisticLearner struct {
	maxIter int
}

// NewLogisticLearner creates a logistic regression learner
func NewLogisticLearner(f model.LogisticRegression) *LogisticLearner {
	return &LogisticLearner{maxIter: f.MaxIter}
}

func (l *LogisticLearner) Kind() model.Kind { return model.KindLogistic }

// Fit minimizes the negative log-likelihood; coefficient 0 is the intercept
func (l *LogisticLearner) Fit(ctx context.Context, req ports.FitRequest) (ports.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	y, err := checkTrainable(req)
	if err != nil {
		return nil, err
	}
	r, c := req.X.Dims()
	eta := make([]float64, r)

	linear := func(w []float64) {
		for i := 0; i < r; i++ {
			eta[i] = w[0] + floats.Dot(req.X.RawRowView(i), w[1:])
		}
	}

	problem := optimize.Problem{
		Func: func(w []float64) float64 {
			linear(w)
			nll := 0.0
			for i := 0; i < r; i++ {
				nll += softplus(eta[i]) - y[i]*eta[i]
			}
			return nll
		},
		Grad: func(grad, w []float64) {
			linear(w)
			for k := range grad {
				grad[k] = 0
			}
			for i := 0; i < r; i++ {
				resid := sigmoid(eta[i]) - y[i]
				grad[0] += resid
				floats.AddScaled(grad[1:], resid, req.X.RawRowView(i))
			}
		},
	}

	w, err := minimize(problem, make([]float64, c+1), l.maxIter)
	if err != nil {
		return nil, err
	}
	return &LogisticModel{Intercept: w[0], Coefficients: w[1:]}, nil
}

// LogisticModel holds fitted coefficients
type LogisticModel struct {
	Intercept    float64
	Coefficients []float64
}

// Probabilities returns P(truth) per row
func (m *LogisticModel) Probabilities(X *mat.Dense) ([]float64, error) {
	r, err := checkPredictable(X, len(m.Coefficients))
	if err != nil {
		return nil, err
	}
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = sigmoid(m.Intercept + floats.Dot(X.RawRowView(i), m.Coefficients))
	}
	return out, nil
}

// Predict labels rows truth when P(truth) >= 0.5
func (m *LogisticModel) Predict(X *mat.Dense) ([]statement.Label, error) {
	probs, err := m.Probabilities(X)
	if err != nil {
		return nil, err
	}
	labels := make([]statement.Label, len(probs))
	for i, p := range probs {
		labels[i] = statement.FromIndicator(p)
	}
	return labels, nil
}
