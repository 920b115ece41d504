package learners

import (
	"context"
	"fmt"
	"math/rand"

	"veritas/domain/core"
	"veritas/domain/model"
	"veritas/domain/statement"
	"veritas/ports"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// NeuralNetLearner fits a single hidden layer network with logistic units,
// entropy loss and weight decay
type NeuralNetLearner struct {
	family model.NeuralNet1Layer
}

// NewNeuralNetLearner creates a network learner
func NewNeuralNetLearner(f model.NeuralNet1Layer) *NeuralNetLearner {
	return &NeuralNetLearner{family: f}
}

func (l *NeuralNetLearner) Kind() model.Kind { return model.KindNeuralNet }

// Fit runs BFGS from uniform random weights for the configured iteration budget
func (l *NeuralNetLearner) Fit(ctx context.Context, req ports.FitRequest) (ports.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	y, err := checkTrainable(req)
	if err != nil {
		return nil, err
	}
	size, decay := req.Params.Size, req.Params.Decay
	if size <= 0 || decay < 0 {
		return nil, core.NewTrainingFailure(fmt.Sprintf("invalid network params %s", req.Params))
	}

	r, p := req.X.Dims()
	count := model.WeightCount(size, p)
	if limit := l.family.WeightCap(p); count > limit {
		return nil, core.NewTrainingFailure(fmt.Sprintf("%d weights exceed the cap of %d", count, limit))
	}

	rng := req.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	w0 := make([]float64, count)
	for i := range w0 {
		w0[i] = (2*rng.Float64() - 1) * l.family.InitRange
	}

	net := &NeuralNetModel{Inputs: p, Size: size}
	hidden := make([]float64, size)
	delta := make([]float64, size)

	problem := optimize.Problem{
		Func: func(w []float64) float64 {
			net.Weights = w
			loss := decay * floats.Dot(w, w)
			for i := 0; i < r; i++ {
				z := net.forward(req.X.RawRowView(i), hidden)
				loss += softplus(z) - y[i]*z
			}
			return loss
		},
		Grad: func(grad, w []float64) {
			net.Weights = w
			for k := range grad {
				grad[k] = 2 * decay * w[k]
			}
			out := size * (p + 1)
			for i := 0; i < r; i++ {
				x := req.X.RawRowView(i)
				z := net.forward(x, hidden)
				e := sigmoid(z) - y[i]

				grad[out] += e
				for h := 0; h < size; h++ {
					grad[out+1+h] += e * hidden[h]
					delta[h] = e * w[out+1+h] * hidden[h] * (1 - hidden[h])
				}
				for h := 0; h < size; h++ {
					base := h * (p + 1)
					grad[base] += delta[h]
					floats.AddScaled(grad[base+1:base+1+p], delta[h], x)
				}
			}
		},
	}

	w, err := minimize(problem, w0, l.family.MaxIter)
	if err != nil {
		return nil, err
	}
	return &NeuralNetModel{Inputs: p, Size: size, Weights: w}, nil
}

// NeuralNetModel stores weights as size blocks of (bias, inputs...) for the
// hidden layer followed by (bias, hidden...) for the output unit
type NeuralNetModel struct {
	Inputs  int
	Size    int
	Weights []float64
}

// forward fills hidden with the hidden activations and returns the output logit
func (m *NeuralNetModel) forward(x, hidden []float64) float64 {
	p := m.Inputs
	for h := 0; h < m.Size; h++ {
		base := h * (p + 1)
		hidden[h] = sigmoid(m.Weights[base] + floats.Dot(m.Weights[base+1:base+1+p], x))
	}
	out := m.Size * (p + 1)
	return m.Weights[out] + floats.Dot(m.Weights[out+1:out+1+m.Size], hidden)
}

// Probabilities returns P(truth) per row
func (m *NeuralNetModel) Probabilities(X *mat.Dense) ([]float64, error) {
	r, err := checkPredictable(X, m.Inputs)
	if err != nil {
		return nil, err
	}
	hidden := make([]float64, m.Size)
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = sigmoid(m.forward(X.RawRowView(i), hidden))
	}
	return out, nil
}

func (m *NeuralNetModel) Predict(X *mat.Dense) ([]statement.Label, error) {
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
