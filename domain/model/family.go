package model

import (
	"fmt"
	"strconv"
	"strings"

	"veritas/domain/core"
)

// Kind names a classifier family in result rows and storage
type Kind string

const (
	KindLogistic  Kind = "logistic_regression"
	KindSVMRadial Kind = "svm_radial"
	KindNeuralNet Kind = "neural_net"
)

// ParseKind accepts the stored names and the short CLI aliases
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(KindLogistic), "logistic", "glm":
		return KindLogistic, nil
	case string(KindSVMRadial), "svm":
		return KindSVMRadial, nil
	case string(KindNeuralNet), "nnet", "nn":
		return KindNeuralNet, nil
	}
	return "", core.NewConfigurationError("family", fmt.Sprintf("%q is not logistic, svm or nnet", s))
}

// Params are the hyperparameters a learner is fit with. Only the fields of the
// owning family are meaningful.
type Params struct {
	Cost  float64 `json:"cost,omitempty"`
	Sigma float64 `json:"sigma,omitempty"`
	Size  int     `json:"size,omitempty"`
	Decay float64 `json:"decay,omitempty"`
}

// String renders the params as a compact key=value list
func (p Params) String() string {
	var parts []string
	if p.Sigma != 0 {
		parts = append(parts, "sigma="+strconv.FormatFloat(p.Sigma, 'g', 4, 64))
	}
	if p.Cost != 0 {
		parts = append(parts, "cost="+strconv.FormatFloat(p.Cost, 'g', -1, 64))
	}
	if p.Size != 0 {
		parts = append(parts, "size="+strconv.Itoa(p.Size))
		parts = append(parts, "decay="+strconv.FormatFloat(p.Decay, 'g', -1, 64))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

// Family is the closed set of classifier families the harness can train
type Family interface {
	Kind() Kind
	Validate() error
	isFamily()
}

// LogisticRegression is fit directly by maximum likelihood
type LogisticRegression struct {
	MaxIter int
}

// SVMRadial tunes the cost penalty; sigma comes from the median heuristic
type SVMRadial struct {
	Costs     []float64
	SigmaFrac float64
	Tolerance float64
	MaxIter   int // 0 picks max(100000, 100*n)
}

// NeuralNet1Layer tunes hidden units and weight decay
type NeuralNet1Layer struct {
	Sizes      []int
	Decays     []float64
	MaxIter    int
	MaxWeights int
	InitRange  float64
}

func (LogisticRegression) Kind() Kind { return KindLogistic }
func (SVMRadial) Kind() Kind          { return KindSVMRadial }
func (NeuralNet1Layer) Kind() Kind    { return KindNeuralNet }

func (LogisticRegression) isFamily() {}
func (SVMRadial) isFamily()          {}
func (NeuralNet1Layer) isFamily()    {}

// DefaultLogistic returns the logistic regression configuration
func DefaultLogistic() LogisticRegression {
	return LogisticRegression{MaxIter: 100}
}

// DefaultSVMRadial returns the cost grid used throughout the reports
func DefaultSVMRadial() SVMRadial {
	return SVMRadial{
		Costs:     []float64{0.25, 0.5, 1, 2, 4},
		SigmaFrac: 0.5,
		Tolerance: 1e-3,
	}
}

// DefaultNeuralNet returns the size/decay grid used throughout the reports
func DefaultNeuralNet() NeuralNet1Layer {
	return NeuralNet1Layer{
		Sizes:     []int{1, 2, 3, 4, 5, 10},
		Decays:    []float64{0, 0.05, 0.1, 1, 2},
		MaxIter:   100,
		InitRange: 0.7,
	}
}

// Default returns the default configuration of a family kind
func Default(kind Kind) (Family, error) {
	switch kind {
	case KindLogistic:
		return DefaultLogistic(), nil
	case KindSVMRadial:
		return DefaultSVMRadial(), nil
	case KindNeuralNet:
		return DefaultNeuralNet(), nil
	}
	return nil, core.NewConfigurationError("family", fmt.Sprintf("unknown kind %q", kind))
}

func (f LogisticRegression) Validate() error {
	if f.MaxIter <= 0 {
		return core.NewConfigurationError("logistic max_iter", "must be positive")
	}
	return nil
}

func (f SVMRadial) Validate() error {
	if len(f.Costs) == 0 {
		return core.NewConfigurationError("svm cost grid", "is empty")
	}
	for _, c := range f.Costs {
		if c <= 0 {
			return core.NewConfigurationError("svm cost grid", fmt.Sprintf("contains non-positive cost %g", c))
		}
	}
	if f.SigmaFrac <= 0 || f.SigmaFrac > 1 {
		return core.NewConfigurationError("svm sigma_frac", "must be within (0, 1]")
	}
	if f.Tolerance <= 0 {
		return core.NewConfigurationError("svm tolerance", "must be positive")
	}
	if f.MaxIter < 0 {
		return core.NewConfigurationError("svm max_iter", "must not be negative")
	}
	return nil
}

func (f NeuralNet1Layer) Validate() error {
	if len(f.Sizes) == 0 || len(f.Decays) == 0 {
		return core.NewConfigurationError("nnet grid", "is empty")
	}
	for _, s := range f.Sizes {
		if s <= 0 {
			return core.NewConfigurationError("nnet size grid", fmt.Sprintf("contains non-positive size %d", s))
		}
	}
	for _, d := range f.Decays {
		if d < 0 {
			return core.NewConfigurationError("nnet decay grid", fmt.Sprintf("contains negative decay %g", d))
		}
	}
	if f.MaxIter <= 0 {
		return core.NewConfigurationError("nnet max_iter", "must be positive")
	}
	if f.MaxWeights < 0 {
		return core.NewConfigurationError("nnet max_weights", "must not be negative")
	}
	return nil
}

// Candidates expands the cost grid for a fixed sigma
func (f SVMRadial) Candidates(sigma float64) []Params {
	out := make([]Params, len(f.Costs))
	for i, c := range f.Costs {
		out[i] = Params{Sigma: sigma, Cost: c}
	}
	return out
}

// Candidates expands the size x decay grid, sizes outermost
func (f NeuralNet1Layer) Candidates() []Params {
	out := make([]Params, 0, len(f.Sizes)*len(f.Decays))
	for _, s := range f.Sizes {
		for _, d := range f.Decays {
			out = append(out, Params{Size: s, Decay: d})
		}
	}
	return out
}

// WeightCount is the number of trainable weights of a size-unit network over p inputs
func WeightCount(size, p int) int {
	return size*(p+1) + size + 1
}

// WeightCap returns the configured cap, or the count for the largest grid size
func (f NeuralNet1Layer) WeightCap(p int) int {
	if f.MaxWeights > 0 {
		return f.MaxWeights
	}
	largest := 0
	for _, s := range f.Sizes {
		if s > largest {
			largest = s
		}
	}
	return WeightCount(largest, p)
}
