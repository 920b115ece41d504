package ports

import (
	"context"
	"math/rand"

	"veritas/domain/model"
	"veritas/domain/statement"

	"gonum.org/v1/gonum/mat"
)

// FitRequest carries the training data of one fit
type FitRequest struct {
	X      *mat.Dense
	Y      []statement.Label
	Params model.Params
	Rand   *rand.Rand
}

// Learner fits one classifier family with fixed hyperparameters
type Learner interface {
	Kind() model.Kind
	Fit(ctx context.Context, req FitRequest) (Model, error)
}

// Model is a trained classifier owned by the round that created it
type Model interface {
	Predict(X *mat.Dense) ([]statement.Label, error)
}
