package ports

import (
	"context"
	"time"

	"veritas/domain/core"
	"veritas/domain/evaluation"
	"veritas/domain/model"
)

// RunRecord is a persisted evaluation run
type RunRecord struct {
	ID            core.RunID                   `json:"id"`
	Family        model.Kind                   `json:"family"`
	Fingerprint   core.Hash                    `json:"fingerprint"`
	TrainFraction float64                      `json:"train_fraction"`
	BaseSeed      int64                        `json:"base_seed"`
	Table         *evaluation.ResultTable      `json:"table,omitempty"`
	Comparison    *evaluation.ComparisonReport `json:"comparison,omitempty"`
	CreatedAt     time.Time                    `json:"created_at"`
}

// RunSummary is the listing view of a persisted run
type RunSummary struct {
	ID               core.RunID `json:"id" db:"id"`
	Family           model.Kind `json:"family" db:"family"`
	ConfiguredRounds int        `json:"configured_rounds" db:"configured_rounds"`
	EffectiveN       int        `json:"effective_n" db:"effective_n"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// ResultRepository persists evaluation runs
type ResultRepository interface {
	SaveRun(ctx context.Context, run *RunRecord) error
	GetRun(ctx context.Context, id core.RunID) (*RunRecord, error)
	ListRuns(ctx context.Context, limit, offset int) ([]RunSummary, error)
	ListRows(ctx context.Context, id core.RunID) ([]evaluation.ResultRow, error)
}
