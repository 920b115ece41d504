// Package experiment runs the full study: clean the corpus, evaluate each
// classifier family on the hybrid-annotated statements, compare variants and
// write the outputs.
package experiment

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"veritas/domain/core"
	"veritas/domain/evaluation"
	"veritas/domain/model"
	"veritas/domain/statement"
	"veritas/internal"
	"veritas/internal/harness"
	"veritas/internal/preprocess"
	"veritas/internal/report"
)

// Request configures one study
type Request struct {
	Families  []model.Family
	Run       harness.RunConfig
	Clean     preprocess.Options
	SkipClean bool
}

// Result is the outcome for one family
type Result struct {
	Table      *evaluation.ResultTable
	Comparison *evaluation.ComparisonReport
}

// Outcome is everything a study produced
type Outcome struct {
	Fingerprint core.Hash
	Pipeline    *preprocess.Pipeline
	Corpus      int
	Hybrid      int
	Results     []Result
}

// Entries converts the results for the report renderer
func (o *Outcome) Entries() []report.Entry {
	entries := make([]report.Entry, len(o.Results))
	for i, r := range o.Results {
		entries[i] = report.Entry{Table: r.Table, Comparison: r.Comparison}
	}
	return entries
}

// Tables returns the result tables in family order
func (o *Outcome) Tables() []*evaluation.ResultTable {
	tables := make([]*evaluation.ResultTable, len(o.Results))
	for i, r := range o.Results {
		tables[i] = r.Table
	}
	return tables
}

// Comparisons returns the comparison reports in family order; entries may be nil
func (o *Outcome) Comparisons() []*evaluation.ComparisonReport {
	reports := make([]*evaluation.ComparisonReport, len(o.Results))
	for i, r := range o.Results {
		reports[i] = r.Comparison
	}
	return reports
}

// Runner drives the aggregator and comparator across families
type Runner struct {
	aggregator *harness.Aggregator
	comparator *harness.Comparator
	logger     *internal.Logger
}

// NewRunner creates a study runner
func NewRunner(aggregator *harness.Aggregator, comparator *harness.Comparator, logger *internal.Logger) *Runner {
	return &Runner{aggregator: aggregator, comparator: comparator, logger: logger}
}

// Run cleans ds, restricts it to the hybrid subset and evaluates every family.
// A fail-fast error stops the study; the outcome then holds the families
// evaluated so far, including the partial table of the failing one.
func (r *Runner) Run(ctx context.Context, ds *statement.Dataset, req Request) (*Outcome, error) {
	if len(req.Families) == 0 {
		return nil, core.NewConfigurationError("families", "at least one family is required")
	}
	if ds == nil || ds.Len() == 0 {
		return nil, core.NewInsufficientDataError("corpus is empty")
	}

	out := &Outcome{Corpus: ds.Len()}
	data := ds
	if !req.SkipClean {
		pipeline, cleaned, err := preprocess.FitApply(ds, req.Clean)
		if err != nil {
			return nil, fmt.Errorf("preprocessing failed: %w", err)
		}
		for _, d := range pipeline.Dropped {
			r.logger.Info("dropped feature %s (%s)", d.Name, d.Reason)
		}
		out.Pipeline = pipeline
		data = cleaned
	}

	hybrid := data.HybridSubset()
	out.Hybrid = hybrid.Len()
	if hybrid.Len() == 0 {
		return nil, core.NewInsufficientDataError("no statement carries a human prediction")
	}
	out.Fingerprint = Fingerprint(hybrid, req)
	r.logger.Info("corpus %d statements, %d hybrid-annotated, fingerprint %s", out.Corpus, out.Hybrid, out.Fingerprint.Short())

	for _, family := range req.Families {
		table, err := r.aggregator.Run(ctx, hybrid, family, req.Run)
		if table == nil {
			return out, fmt.Errorf("%s: %w", family.Kind(), err)
		}
		res := Result{Table: table}
		if cmp, cerr := r.comparator.Compare(table); cerr == nil {
			res.Comparison = cmp
		} else if stderrors.Is(cerr, core.ErrInsufficientData) {
			r.logger.Warn("%s: no paired rounds to compare", family.Kind())
		} else {
			return out, fmt.Errorf("%s: comparison failed: %w", family.Kind(), cerr)
		}
		out.Results = append(out.Results, res)
		if err != nil {
			return out, fmt.Errorf("%s: %w", family.Kind(), err)
		}
	}
	return out, nil
}

// Fingerprint hashes the settings and data shape of a study, so two runs
// with the same fingerprint are expected to reproduce each other
func Fingerprint(ds *statement.Dataset, req Request) core.Hash {
	kinds := make([]string, len(req.Families))
	for i, f := range req.Families {
		kinds[i] = string(f.Kind())
	}
	return core.NewFingerprint(map[string]string{
		"families":       strings.Join(kinds, ","),
		"rounds":         strconv.Itoa(req.Run.Rounds),
		"train_fraction": strconv.FormatFloat(req.Run.TrainFraction, 'g', -1, 64),
		"base_seed":      strconv.FormatInt(req.Run.BaseSeed, 10),
		"policy":         string(req.Run.Policy),
		"statements":     strconv.Itoa(ds.Len()),
		"features":       strings.Join(ds.FeatureNames, ","),
		"clean":          strconv.FormatBool(!req.SkipClean),
	})
}
