package migration

import (
	"context"

	"veritas/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the evaluation result schema
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order; every statement is idempotent
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createEvaluationRunsTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create evaluation_runs table", err)
	}

	if err := r.createEvaluationRowsTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create evaluation_rows table", err)
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.DatabaseError("failed to create indexes", err)
	}

	return nil
}

func (r *MigrationRunner) createEvaluationRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS evaluation_runs (
			id UUID PRIMARY KEY,
			family VARCHAR(50) NOT NULL,
			fingerprint VARCHAR(64) NOT NULL,
			train_fraction DOUBLE PRECISION NOT NULL,
			base_seed BIGINT NOT NULL,
			configured_rounds INTEGER NOT NULL,
			effective_n INTEGER NOT NULL DEFAULT 0,
			failures JSONB NOT NULL DEFAULT '[]',
			comparison JSONB,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createEvaluationRowsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS evaluation_rows (
			run_id UUID NOT NULL REFERENCES evaluation_runs(id) ON DELETE CASCADE,
			family VARCHAR(50) NOT NULL,
			hybrid BOOLEAN NOT NULL,
			round INTEGER NOT NULL,
			accuracy DOUBLE PRECISION NOT NULL,
			accuracy_lower DOUBLE PRECISION NOT NULL,
			accuracy_upper DOUBLE PRECISION NOT NULL,
			sensitivity DOUBLE PRECISION NOT NULL,
			specificity DOUBLE PRECISION NOT NULL,
			precision DOUBLE PRECISION NOT NULL,
			npv DOUBLE PRECISION NOT NULL,
			n INTEGER NOT NULL,
			truths INTEGER NOT NULL,
			lies INTEGER NOT NULL,
			tp INTEGER NOT NULL,
			tn INTEGER NOT NULL,
			fp INTEGER NOT NULL,
			fn INTEGER NOT NULL,
			params JSONB,
			PRIMARY KEY (run_id, round, hybrid)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_evaluation_runs_created_at ON evaluation_runs(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_evaluation_runs_family ON evaluation_runs(family);
	`)
	return err
}
