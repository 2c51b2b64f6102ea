package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"mcnemar/domain/core"
	"mcnemar/domain/mcnemar"
	"mcnemar/ports"
)

// LedgerRepositoryImpl implements the result ledger for PostgreSQL
type LedgerRepositoryImpl struct {
	db *sqlx.DB
}

// NewLedgerRepository creates a new PostgreSQL result ledger
func NewLedgerRepository(db *sqlx.DB) ports.ResultLedger {
	return &LedgerRepositoryImpl{db: db}
}

// resultRow mirrors the mcnemar_results table. Statistic columns are float8
// on the Postgres side, which round-trips NaN markers intact.
type resultRow struct {
	ID        string         `db:"id"`
	Label     sql.NullString `db:"label"`
	CellA     int64          `db:"cell_a"`
	CellB     int64          `db:"cell_b"`
	CellC     int64          `db:"cell_c"`
	CellD     int64          `db:"cell_d"`
	Alpha     float64        `db:"alpha"`
	ChiSquare float64        `db:"chi_square"`
	DF        int            `db:"df"`
	Critical  float64        `db:"critical"`
	PValue    float64        `db:"p_value"`
	ZBeta     float64        `db:"z_beta"`
	Power     float64        `db:"power"`
	PairCount int            `db:"pair_count"`
	Warnings  []byte         `db:"warnings"`
	CreatedAt time.Time      `db:"created_at"`
}

// StoreResult appends one record
func (r *LedgerRepositoryImpl) StoreResult(ctx context.Context, record mcnemar.ResultRecord) error {
	warnings, err := json.Marshal(record.Result.Warnings)
	if err != nil {
		return fmt.Errorf("failed to marshal warnings: %w", err)
	}

	var label interface{}
	if record.Label != "" {
		label = record.Label
	}

	res := record.Result
	table := res.Table
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO mcnemar_results (id, label, cell_a, cell_b, cell_c, cell_d, alpha, chi_square, df, critical, p_value, z_beta, power, pair_count, warnings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, record.ID.String(), label,
		int64(table[0][0]), int64(table[0][1]), int64(table[1][0]), int64(table[1][1]),
		res.Alpha, res.ChiSquare, res.DF, res.Critical, res.PValue, res.ZBeta, res.Power,
		res.PairCount, warnings, record.CreatedAt.Time())

	return err
}

// GetResult retrieves a record by its ID
func (r *LedgerRepositoryImpl) GetResult(ctx context.Context, id core.ResultID) (*mcnemar.ResultRecord, error) {
	var row resultRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, label, cell_a, cell_b, cell_c, cell_d, alpha, chi_square, df, critical, p_value, z_beta, power, pair_count, warnings, created_at
		FROM mcnemar_results
		WHERE id = $1
	`, id.String())

	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("result", id.String())
	}
	if err != nil {
		return nil, err
	}

	return rowToRecord(&row)
}

// ListResults returns stored records, newest first, honoring the filters
func (r *LedgerRepositoryImpl) ListResults(ctx context.Context, filters ports.ResultFilters) ([]mcnemar.ResultRecord, error) {
	query := `
		SELECT id, label, cell_a, cell_b, cell_c, cell_d, alpha, chi_square, df, critical, p_value, z_beta, power, pair_count, warnings, created_at
		FROM mcnemar_results`
	args := []interface{}{}

	if filters.Label != "" {
		query += ` WHERE label = $1`
		args = append(args, filters.Label)
	}
	query += ` ORDER BY created_at DESC`
	if filters.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filters.Limit)
	}
	if filters.Offset > 0 {
		query += fmt.Sprintf(` OFFSET %d`, filters.Offset)
	}

	var rows []resultRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	records := make([]mcnemar.ResultRecord, 0, len(rows))
	for i := range rows {
		record, err := rowToRecord(&rows[i])
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}

func rowToRecord(row *resultRow) (*mcnemar.ResultRecord, error) {
	var warnings []mcnemar.WarningCode
	if len(row.Warnings) > 0 {
		if err := json.Unmarshal(row.Warnings, &warnings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal warnings for %s: %w", row.ID, err)
		}
	}

	table := mcnemar.TableFromCounts(
		float64(row.CellA), float64(row.CellB), float64(row.CellC), float64(row.CellD))

	return &mcnemar.ResultRecord{
		ID:    core.ResultID(row.ID),
		Label: row.Label.String,
		Result: mcnemar.TestResult{
			ChiSquare:  row.ChiSquare,
			DF:         row.DF,
			Critical:   row.Critical,
			PValue:     row.PValue,
			Alpha:      row.Alpha,
			ZBeta:      row.ZBeta,
			Power:      row.Power,
			PairCount:  row.PairCount,
			Table:      table,
			Discordant: table.Discordant(),
			Warnings:   warnings,
		},
		CreatedAt: core.NewTimestamp(row.CreatedAt),
	}, nil
}
