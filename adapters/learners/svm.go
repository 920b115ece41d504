package learners

import (
	"context"
	"fmt"
	"math"

	"veritas/domain/core"
	"veritas/domain/model"
	"veritas/domain/statement"
	"veritas/ports"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SVMLearner trains a C-classification SVM with the kernel
// exp(-sigma*||x-z||^2) using SMO with maximal-violating-pair selection.
type SVMLearner struct {
	tolerance float64
	maxIter   int
}

// NewSVMLearner creates a radial SVM learner
func NewSVMLearner(f model.SVMRadial) *SVMLearner {
	return &SVMLearner{tolerance: f.Tolerance, maxIter: f.MaxIter}
}

func (l *SVMLearner) Kind() model.Kind { return model.KindSVMRadial }

// Fit solves the dual for the request's Cost and Sigma
func (l *SVMLearner) Fit(ctx context.Context, req ports.FitRequest) (ports.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := checkTrainable(req); err != nil {
		return nil, err
	}
	cost, sigma := req.Params.Cost, req.Params.Sigma
	if cost <= 0 || sigma <= 0 {
		return nil, core.NewTrainingFailure(fmt.Sprintf("svm needs positive cost and sigma, got %s", req.Params))
	}

	n, _ := req.X.Dims()
	y := make([]float64, n)
	for i, lbl := range req.Y {
		if lbl == statement.Truth {
			y[i] = 1
		} else {
			y[i] = -1
		}
	}

	kernel := rbfGram(req.X, sigma)
	maxIter := l.maxIter
	if maxIter == 0 {
		maxIter = 100 * n
		if maxIter < 100000 {
			maxIter = 100000
		}
	}

	alpha, rho := solveSMO(ctx, kernel, y, cost, l.tolerance, maxIter)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, c := req.X.Dims()
	svm := &SVMModel{Sigma: sigma, Rho: rho, width: c}
	for i, a := range alpha {
		if a > 0 {
			svm.Coef = append(svm.Coef, a*y[i])
			svm.Vectors = append(svm.Vectors, append([]float64(nil), req.X.RawRowView(i)...))
		}
	}
	if len(svm.Vectors) == 0 {
		return nil, core.NewTrainingFailure("svm found no support vectors")
	}
	return svm, nil
}

// rbfGram builds the kernel matrix from the Gram matrix X X^T
func rbfGram(X *mat.Dense, sigma float64) *mat.SymDense {
	n, _ := X.Dims()
	var k mat.SymDense
	k.SymOuterK(1, X)

	norms := make([]float64, n)
	for i := 0; i < n; i++ {
		norms[i] = k.At(i, i)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := norms[i] + norms[j] - 2*k.At(i, j)
			if d < 0 {
				d = 0
			}
			k.SetSym(i, j, math.Exp(-sigma*d))
		}
	}
	return &k
}

// solveSMO minimizes 0.5 a'Qa - e'a subject to 0 <= a <= C and y'a = 0,
// with Q_ij = y_i y_j K_ij. It returns the multipliers and the offset rho
// of the decision function sum(a_i y_i K(x_i, x)) - rho.
func solveSMO(ctx context.Context, K *mat.SymDense, y []float64, C, eps float64, maxIter int) ([]float64, float64) {
	const tau = 1e-12
	n := len(y)
	alpha := make([]float64, n)
	grad := make([]float64, n)
	for i := range grad {
		grad[i] = -1
	}
	q := func(i, j int) float64 { return y[i] * y[j] * K.At(i, j) }

	for iter := 0; iter < maxIter; iter++ {
		if iter%1000 == 0 && ctx.Err() != nil {
			break
		}

		// maximal violating pair
		i, j := -1, -1
		gmax, gmin := math.Inf(-1), math.Inf(1)
		for t := 0; t < n; t++ {
			v := -y[t] * grad[t]
			if inUp(alpha[t], y[t], C) && v > gmax {
				gmax, i = v, t
			}
			if inLow(alpha[t], y[t], C) && v < gmin {
				gmin, j = v, t
			}
		}
		if i < 0 || j < 0 || gmax-gmin < eps {
			break
		}

		oldI, oldJ := alpha[i], alpha[j]
		if y[i] != y[j] {
			quad := q(i, i) + q(j, j) + 2*q(i, j)
			if quad <= 0 {
				quad = tau
			}
			delta := (-grad[i] - grad[j]) / quad
			diff := alpha[i] - alpha[j]
			alpha[i] += delta
			alpha[j] += delta
			if diff > 0 {
				if alpha[j] < 0 {
					alpha[j] = 0
					alpha[i] = diff
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = -diff
			}
			if diff > 0 {
				if alpha[i] > C {
					alpha[i] = C
					alpha[j] = C - diff
				}
			} else if alpha[j] > C {
				alpha[j] = C
				alpha[i] = C + diff
			}
		} else {
			quad := q(i, i) + q(j, j) - 2*q(i, j)
			if quad <= 0 {
				quad = tau
			}
			delta := (grad[i] - grad[j]) / quad
			sum := alpha[i] + alpha[j]
			alpha[i] -= delta
			alpha[j] += delta
			if sum > C {
				if alpha[i] > C {
					alpha[i] = C
					alpha[j] = sum - C
				}
			} else if alpha[j] < 0 {
				alpha[j] = 0
				alpha[i] = sum
			}
			if sum > C {
				if alpha[j] > C {
					alpha[j] = C
					alpha[i] = sum - C
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = sum
			}
		}

		dI, dJ := alpha[i]-oldI, alpha[j]-oldJ
		for t := 0; t < n; t++ {
			grad[t] += q(t, i)*dI + q(t, j)*dJ
		}
	}

	return alpha, offset(alpha, grad, y, C)
}

func inUp(a, y, C float64) bool {
	return (y > 0 && a < C) || (y < 0 && a > 0)
}

func inLow(a, y, C float64) bool {
	return (y > 0 && a > 0) || (y < 0 && a < C)
}

// offset averages y*grad over free multipliers, or takes the bound midpoint
func offset(alpha, grad, y []float64, C float64) float64 {
	ub, lb := math.Inf(1), math.Inf(-1)
	sum, free := 0.0, 0
	for t := range alpha {
		yg := y[t] * grad[t]
		switch {
		case alpha[t] >= C:
			if y[t] < 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		case alpha[t] <= 0:
			if y[t] > 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		default:
			free++
			sum += yg
		}
	}
	if free > 0 {
		return sum / float64(free)
	}
	return (ub + lb) / 2
}

// SVMModel keeps the support vectors and their signed multipliers
type SVMModel struct {
	Sigma   float64
	Rho     float64
	Coef    []float64
	Vectors [][]float64
	width   int
}

// Decision returns the signed distance-like score per row; positive means truth
func (m *SVMModel) Decision(X *mat.Dense) ([]float64, error) {
	r, err := checkPredictable(X, m.width)
	if err != nil {
		return nil, err
	}
	out := make([]float64, r)
	diff := make([]float64, m.width)
	for i := 0; i < r; i++ {
		row := X.RawRowView(i)
		s := 0.0
		for k, sv := range m.Vectors {
			floats.SubTo(diff, row, sv)
			s += m.Coef[k] * math.Exp(-m.Sigma*floats.Dot(diff, diff))
		}
		out[i] = s - m.Rho
	}
	return out, nil
}

// Predict labels rows by the sign of the decision value
func (m *SVMModel) Predict(X *mat.Dense) ([]statement.Label, error) {
	scores, err := m.Decision(X)
	if err != nil {
		return nil, err
	}
	labels := make([]statement.Label, len(scores))
	for i, s := range scores {
		if s > 0 {
			labels[i] = statement.Truth
		} else {
			labels[i] = statement.Lie
		}
	}
	return labels, nil
}
