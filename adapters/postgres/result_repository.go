package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"veritas/domain/core"
	"veritas/domain/evaluation"
	"veritas/domain/model"
	"veritas/internal/errors"
	"veritas/ports"

	"github.com/jmoiron/sqlx"
)

// ResultRepositoryImpl implements ResultRepository for PostgreSQL
type ResultRepositoryImpl struct {
	db *sqlx.DB
}

// NewResultRepository creates a new PostgreSQL result repository
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &ResultRepositoryImpl{db: db}
}

type runRecord struct {
	ID               string          `db:"id"`
	Family           model.Kind      `db:"family"`
	Fingerprint      string          `db:"fingerprint"`
	TrainFraction    float64         `db:"train_fraction"`
	BaseSeed         int64           `db:"base_seed"`
	ConfiguredRounds int             `db:"configured_rounds"`
	EffectiveN       int             `db:"effective_n"`
	Failures         []byte          `db:"failures"`
	Comparison       []byte          `db:"comparison"`
	CreatedAt        time.Time       `db:"created_at"`
}

type rowRecord struct {
	evaluation.ResultRow
	TP     int    `db:"tp"`
	TN     int    `db:"tn"`
	FP     int    `db:"fp"`
	FN     int    `db:"fn"`
	Params []byte `db:"params"`
}

// SaveRun writes the run and all of its rows in one transaction
func (r *ResultRepositoryImpl) SaveRun(ctx context.Context, run *ports.RunRecord) error {
	if run == nil || run.Table == nil {
		return errors.InvalidInput("run has no result table")
	}
	if run.ID == "" {
		run.ID = core.NewRunID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	failures, err := json.Marshal(nonNil(run.Table.Failures))
	if err != nil {
		return errors.Wrap(err, "failed to encode round failures")
	}
	var comparison []byte
	effectiveN := 0
	if run.Comparison != nil {
		if comparison, err = json.Marshal(run.Comparison); err != nil {
			return errors.Wrap(err, "failed to encode comparison report")
		}
		effectiveN = run.Comparison.EffectiveN
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO evaluation_runs (id, family, fingerprint, train_fraction, base_seed, configured_rounds, effective_n, failures, comparison, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, run.ID.String(), run.Family, string(run.Fingerprint), run.TrainFraction, run.BaseSeed,
		run.Table.Rounds, effectiveN, failures, comparison, run.CreatedAt)
	if err != nil {
		return errors.DatabaseError("failed to insert run", err)
	}

	for _, row := range run.Table.Rows {
		params, err := json.Marshal(row.Params)
		if err != nil {
			return errors.Wrap(err, "failed to encode params")
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO evaluation_rows (run_id, family, hybrid, round, accuracy, accuracy_lower, accuracy_upper,
				sensitivity, specificity, precision, npv, n, truths, lies, tp, tn, fp, fn, params)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		`, run.ID.String(), row.Family, row.Hybrid, row.Round, row.Accuracy, row.AccuracyLower, row.AccuracyUpper,
			row.Sensitivity, row.Specificity, row.Precision, row.NPV, row.N, row.Truths, row.Lies,
			row.Confusion.TP, row.Confusion.TN, row.Confusion.FP, row.Confusion.FN, params)
		if err != nil {
			return errors.DatabaseError(fmt.Sprintf("failed to insert round %d row", row.Round), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit run", err)
	}
	return nil
}

// GetRun loads a run with its rows and comparison report
func (r *ResultRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*ports.RunRecord, error) {
	var rec runRecord
	err := r.db.GetContext(ctx, &rec, `
		SELECT id, family, fingerprint, train_fraction, base_seed, configured_rounds, effective_n, failures, comparison, created_at
		FROM evaluation_runs
		WHERE id = $1
	`, id.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to get run", err)
	}

	rows, err := r.ListRows(ctx, id)
	if err != nil {
		return nil, err
	}

	table := &evaluation.ResultTable{Family: rec.Family, Rounds: rec.ConfiguredRounds, Rows: rows}
	if len(rec.Failures) > 0 {
		if err := json.Unmarshal(rec.Failures, &table.Failures); err != nil {
			return nil, errors.Wrap(err, "failed to decode round failures")
		}
	}
	run := &ports.RunRecord{
		ID:            core.RunID(rec.ID),
		Family:        rec.Family,
		Fingerprint:   core.Hash(rec.Fingerprint),
		TrainFraction: rec.TrainFraction,
		BaseSeed:      rec.BaseSeed,
		Table:         table,
		CreatedAt:     rec.CreatedAt,
	}
	if len(rec.Comparison) > 0 && string(rec.Comparison) != "null" {
		run.Comparison = &evaluation.ComparisonReport{}
		if err := json.Unmarshal(rec.Comparison, run.Comparison); err != nil {
			return nil, errors.Wrap(err, "failed to decode comparison report")
		}
	}
	return run, nil
}

// ListRuns returns run summaries, newest first
func (r *ResultRepositoryImpl) ListRuns(ctx context.Context, limit, offset int) ([]ports.RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var runs []ports.RunSummary
	err := r.db.SelectContext(ctx, &runs, `
		SELECT id, family, configured_rounds, effective_n, created_at
		FROM evaluation_runs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, errors.DatabaseError("failed to list runs", err)
	}
	return runs, nil
}

// ListRows returns the rows of a run in round-major order, hybrid first
func (r *ResultRepositoryImpl) ListRows(ctx context.Context, id core.RunID) ([]evaluation.ResultRow, error) {
	var records []rowRecord
	err := r.db.SelectContext(ctx, &records, `
		SELECT family, hybrid, round, accuracy, accuracy_lower, accuracy_upper, sensitivity, specificity,
			precision, npv, n, truths, lies, tp, tn, fp, fn, params
		FROM evaluation_rows
		WHERE run_id = $1
		ORDER BY round ASC, hybrid DESC
	`, id.String())
	if err != nil {
		return nil, errors.DatabaseError("failed to list rows", err)
	}

	rows := make([]evaluation.ResultRow, len(records))
	for i, rec := range records {
		row := rec.ResultRow
		row.Confusion = evaluation.Confusion{TP: rec.TP, TN: rec.TN, FP: rec.FP, FN: rec.FN}
		if len(rec.Params) > 0 {
			if err := json.Unmarshal(rec.Params, &row.Params); err != nil {
				return nil, errors.Wrap(err, "failed to decode params")
			}
		}
		rows[i] = row
	}
	return rows, nil
}

func nonNil(f []evaluation.RoundFailure) []evaluation.RoundFailure {
	if f == nil {
		return []evaluation.RoundFailure{}
	}
	return f
}
