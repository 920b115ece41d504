package harness

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"veritas/domain/core"
	"veritas/domain/evaluation"
	"veritas/domain/model"
	"veritas/domain/statement"
	"veritas/internal"
	"veritas/ports"

	"golang.org/x/sync/errgroup"
)

// FailurePolicy decides what a failed round does to the rest of the run
type FailurePolicy string

const (
	FailFast        FailurePolicy = "fail_fast"
	SkipAndContinue FailurePolicy = "skip_and_continue"
)

// RunConfig parameterizes one repeated evaluation
type RunConfig struct {
	Rounds        int
	TrainFraction float64
	BaseSeed      int64
	Policy        FailurePolicy
	Workers       int
}

// DefaultRunConfig is ten sequential 75/25 rounds that skip failures
func DefaultRunConfig() RunConfig {
	return RunConfig{Rounds: 10, TrainFraction: 0.75, BaseSeed: 42, Policy: SkipAndContinue, Workers: 1}
}

// Validate checks the run parameters that do not depend on the data
func (c RunConfig) Validate() error {
	if c.Rounds <= 0 {
		return core.NewConfigurationError("rounds", "must be positive")
	}
	if !(c.TrainFraction > 0 && c.TrainFraction < 1) {
		return core.NewConfigurationError("train fraction", fmt.Sprintf("%g is not within (0, 1)", c.TrainFraction))
	}
	if c.Policy != FailFast && c.Policy != SkipAndContinue {
		return core.NewConfigurationError("failure policy", fmt.Sprintf("%q is unknown", c.Policy))
	}
	if c.Workers < 0 {
		return core.NewConfigurationError("workers", "must not be negative")
	}
	return nil
}

// Aggregator repeats split, fit and score over rounds and collects the rows
type Aggregator struct {
	classifier *Classifier
	rng        ports.RNGPort
	logger     *internal.Logger
}

// NewAggregator creates a round aggregator
func NewAggregator(classifier *Classifier, rng ports.RNGPort, logger *internal.Logger) *Aggregator {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Aggregator{classifier: classifier, rng: rng, logger: logger}
}

type roundOutcome struct {
	done    bool
	rows    []evaluation.ResultRow
	failure *evaluation.RoundFailure
	err     error
}

// Run evaluates family over cfg.Rounds seeded rounds. Every statement must
// carry a human prediction. Under FailFast the first failure stops the run and
// the table of completed rounds is returned together with the error.
func (a *Aggregator) Run(ctx context.Context, data *statement.Dataset, family model.Family, cfg RunConfig) (*evaluation.ResultTable, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := family.Validate(); err != nil {
		return nil, err
	}
	if data == nil || data.Len() == 0 {
		return nil, core.NewInsufficientDataError("dataset is empty")
	}
	if !data.FullyHybrid() {
		return nil, core.NewConfigurationError("dataset", "is not fully hybrid-annotated; evaluate its HybridSubset")
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	a.logger.Info("evaluating %s: %d rounds at %.2f train, seed %d, %d worker(s), %s",
		family.Kind(), cfg.Rounds, cfg.TrainFraction, cfg.BaseSeed, workers, data.Describe())

	outcomes := make([]roundOutcome, cfg.Rounds)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < cfg.Rounds; i++ {
		if gctx.Err() != nil {
			break
		}
		round := i + 1
		g.Go(func() error {
			out := a.round(gctx, data, family, cfg, round)
			outcomes[round-1] = out
			if out.err != nil && (cfg.Policy == FailFast || isCanceled(out.err)) {
				return fmt.Errorf("round %d: %w", round, out.err)
			}
			return nil
		})
	}
	runErr := g.Wait()
	if runErr == nil {
		runErr = ctx.Err()
	}

	table := &evaluation.ResultTable{Family: family.Kind(), Rounds: cfg.Rounds}
	for _, out := range outcomes {
		if !out.done {
			continue
		}
		table.Rows = append(table.Rows, out.rows...)
		if out.failure != nil && !isCanceled(out.err) {
			table.Failures = append(table.Failures, *out.failure)
		}
	}
	a.logger.Info("%s finished: %d rows, %d failed round(s)", family.Kind(), len(table.Rows), len(table.Failures))
	return table, runErr
}

// round runs one split and both variants; any failure discards the round's rows
func (a *Aggregator) round(ctx context.Context, data *statement.Dataset, family model.Family, cfg RunConfig, round int) roundOutcome {
	key := "round-" + strconv.Itoa(round)
	fail := func(v evaluation.Variant, err error) roundOutcome {
		a.logger.Warn("%s %s failed: %v", key, v, err)
		return roundOutcome{
			done:    true,
			failure: &evaluation.RoundFailure{Round: round, Variant: v, Error: err.Error()},
			err:     err,
		}
	}

	split, err := Split(data.Len(), cfg.TrainFraction, a.rng.DeriveSeed("split", key, cfg.BaseSeed))
	if err != nil {
		return fail("", err)
	}
	truths, lies := data.ClassTotals(split.Test)
	trainY := data.Labels(split.Train)
	testY := data.Labels(split.Test)

	rows := make([]evaluation.ResultRow, 0, 2)
	for _, variant := range []evaluation.Variant{evaluation.Hybrid, evaluation.NonHybrid} {
		rng, err := a.rng.Stream(ctx, "fit", key+"-"+string(variant), cfg.BaseSeed)
		if err != nil {
			return fail(variant, err)
		}
		trainX, err := data.Matrix(split.Train, variant.IsHybrid())
		if err != nil {
			return fail(variant, err)
		}
		testX, err := data.Matrix(split.Test, variant.IsHybrid())
		if err != nil {
			return fail(variant, err)
		}

		m, params, err := a.classifier.Fit(ctx, family, trainX, trainY, rng)
		if err != nil {
			return fail(variant, err)
		}
		pred, err := m.Predict(testX)
		if err != nil {
			return fail(variant, err)
		}
		metrics, err := Score(pred, testY, statement.Truth)
		if err != nil {
			return fail(variant, err)
		}
		rows = append(rows, evaluation.NewResultRow(family.Kind(), variant, round, metrics, truths, lies, params))
	}

	a.logger.Debug("%s: hybrid accuracy %.4f, non-hybrid accuracy %.4f", key, rows[0].Accuracy, rows[1].Accuracy)
	return roundOutcome{done: true, rows: rows}
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
