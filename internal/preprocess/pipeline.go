// Package preprocess cleans the feature columns of a statement dataset before
// modeling: near-zero-variance filtering, Box-Cox skew correction,
// collinearity pruning and centering/scaling. The human prediction is never
// part of the feature columns and is left untouched.
package preprocess

import (
	"fmt"
	"math"

	"veritas/domain/core"
	"veritas/domain/statement"
	"veritas/internal/config"

	"github.com/montanaflynn/stats"
)

// Options are the cleaning thresholds
type Options struct {
	FreqCut          float64 // most common / second most common value ratio
	UniqueCut        float64 // percent of distinct values
	CorrelationCut   float64
	SkewThreshold    float64
	DisableNZV       bool
	DisableSkew      bool
	DisableCollinear bool
	DisableScale     bool
}

// DefaultOptions returns the cleaning thresholds used for the reports
func DefaultOptions() Options {
	return Options{FreqCut: 95.0 / 5.0, UniqueCut: 10, CorrelationCut: 0.9, SkewThreshold: 1}
}

// OptionsFromConfig maps the environment configuration onto Options
func OptionsFromConfig(c config.CleanConfig) Options {
	return Options{
		FreqCut:          c.FreqCut,
		UniqueCut:        c.UniqueCut,
		CorrelationCut:   c.CorrelationCut,
		SkewThreshold:    c.SkewThreshold,
		DisableNZV:       c.DisableNZV,
		DisableSkew:      c.DisableSkew,
		DisableCollinear: c.DisableCollinear,
	}
}

// Reason explains why a column was removed
type Reason string

const (
	ReasonZeroVariance     Reason = "zero_variance"
	ReasonNearZeroVariance Reason = "near_zero_variance"
	ReasonCollinear        Reason = "collinear"
)

// Dropped records a removed column
type Dropped struct {
	Name   string `json:"name"`
	Reason Reason `json:"reason"`
}

// Column is the fitted transformation of one kept column
type Column struct {
	Name   string   `json:"name"`
	Source int      `json:"source"`
	Lambda *float64 `json:"lambda,omitempty"`
	Skew   float64  `json:"skew"`
	Mean   float64  `json:"mean"`
	SD     float64  `json:"sd"`
}

// Pipeline is a fitted cleaning procedure applied by column name
type Pipeline struct {
	Input   []string  `json:"input"`
	Columns []Column  `json:"columns"`
	Dropped []Dropped `json:"dropped"`
	scale   bool
}

// Fit learns the pipeline from the dataset's feature columns
func Fit(ds *statement.Dataset, opts Options) (*Pipeline, error) {
	if ds == nil || ds.Len() < 2 {
		return nil, core.NewInsufficientDataError("preprocessing needs at least two statements")
	}
	if ds.Width() == 0 {
		return nil, core.NewConfigurationError("dataset", "has no feature columns")
	}

	p := &Pipeline{Input: append([]string(nil), ds.FeatureNames...), scale: !opts.DisableScale}
	cols := make([][]float64, ds.Width())
	for j := range cols {
		cols[j] = ds.Column(j)
	}

	var kept []int
	for j, col := range cols {
		name := ds.FeatureNames[j]
		if opts.DisableNZV {
			if distinct(col) < 2 {
				p.Dropped = append(p.Dropped, Dropped{Name: name, Reason: ReasonZeroVariance})
				continue
			}
		} else if reason, drop := nearZeroVariance(col, opts.FreqCut, opts.UniqueCut); drop {
			p.Dropped = append(p.Dropped, Dropped{Name: name, Reason: reason})
			continue
		}
		kept = append(kept, j)
	}

	columns := make([]Column, 0, len(kept))
	for _, j := range kept {
		c := Column{Name: ds.FeatureNames[j], Source: j, Skew: skewness(cols[j])}
		if !opts.DisableSkew && math.Abs(c.Skew) > opts.SkewThreshold {
			if lambda, ok := estimateLambda(cols[j]); ok {
				c.Lambda = &lambda
				cols[j] = boxCoxAll(cols[j], lambda)
			}
		}
		columns = append(columns, c)
	}

	if !opts.DisableCollinear && len(columns) > 1 {
		data := make([][]float64, len(columns))
		for i, c := range columns {
			data[i] = cols[c.Source]
		}
		remove := findCorrelation(data, opts.CorrelationCut)
		filtered := columns[:0]
		for i, c := range columns {
			if remove[i] {
				p.Dropped = append(p.Dropped, Dropped{Name: c.Name, Reason: ReasonCollinear})
				continue
			}
			filtered = append(filtered, c)
		}
		columns = filtered
	}

	for i := range columns {
		col := cols[columns[i].Source]
		mean, err := stats.Mean(col)
		if err != nil {
			return nil, err
		}
		sd, err := stats.StandardDeviationSample(col)
		if err != nil {
			return nil, err
		}
		columns[i].Mean, columns[i].SD = mean, sd
	}
	p.Columns = columns

	if len(p.Columns) == 0 {
		return nil, core.NewTrainingFailure("preprocessing removed every feature column")
	}
	return p, nil
}

// Names lists the output feature names in order
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		names[i] = c.Name
	}
	return names
}

// Apply transforms a dataset with the same feature layout the pipeline was fit on.
// Statements are copied; labels and human predictions are kept.
func (p *Pipeline) Apply(ds *statement.Dataset) (*statement.Dataset, error) {
	if len(ds.FeatureNames) != len(p.Input) {
		return nil, core.NewConfigurationError("dataset", fmt.Sprintf("has %d features, pipeline expects %d", len(ds.FeatureNames), len(p.Input)))
	}
	for i, name := range p.Input {
		if ds.FeatureNames[i] != name {
			return nil, core.NewConfigurationError("dataset", fmt.Sprintf("feature %d is %q, pipeline expects %q", i, ds.FeatureNames[i], name))
		}
	}

	out := make([]statement.Statement, len(ds.Statements))
	for i, s := range ds.Statements {
		features := make([]float64, len(p.Columns))
		for k, c := range p.Columns {
			v := s.Features[c.Source]
			if c.Lambda != nil {
				if v <= 0 {
					return nil, core.NewConfigurationError(c.Name, fmt.Sprintf("value %g of statement %s is not positive for Box-Cox", v, s.ID))
				}
				v = boxCox(v, *c.Lambda)
			}
			if p.scale {
				v -= c.Mean
				if c.SD > 0 {
					v /= c.SD
				}
			}
			features[k] = v
		}
		s.Features = features
		out[i] = s
	}
	return statement.NewDataset(p.Names(), out)
}

// FitApply fits on ds and returns the transformed dataset
func FitApply(ds *statement.Dataset, opts Options) (*Pipeline, *statement.Dataset, error) {
	p, err := Fit(ds, opts)
	if err != nil {
		return nil, nil, err
	}
	cleaned, err := p.Apply(ds)
	if err != nil {
		return nil, nil, err
	}
	return p, cleaned, nil
}
