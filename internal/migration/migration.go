package migration

import (
	"context"

	"github.com/jmoiron/sqlx"

	"mcnemar/internal/errors"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
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

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createResultsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create mcnemar_results table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createResultsTable(ctx context.Context, db *sqlx.DB) error {
	// Statistic columns are DOUBLE PRECISION: Postgres float8 accepts the
	// NaN marker, so degenerate results persist without special casing.
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS mcnemar_results (
			id UUID PRIMARY KEY,
			label TEXT,
			cell_a BIGINT NOT NULL,
			cell_b BIGINT NOT NULL,
			cell_c BIGINT NOT NULL,
			cell_d BIGINT NOT NULL,
			alpha DOUBLE PRECISION NOT NULL,
			chi_square DOUBLE PRECISION NOT NULL,
			df BIGINT NOT NULL DEFAULT 1,
			critical DOUBLE PRECISION NOT NULL,
			p_value DOUBLE PRECISION NOT NULL,
			z_beta DOUBLE PRECISION NOT NULL,
			power DOUBLE PRECISION NOT NULL,
			pair_count BIGINT NOT NULL,
			warnings JSONB,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_mcnemar_results_created_at ON mcnemar_results(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_mcnemar_results_label ON mcnemar_results(label) WHERE label IS NOT NULL`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
