// Package ledger is the durable bookkeeping side of the update system:
// run records in update_runs and per-entity mutation history in the
// per-table changelog tables. It never mutates the core tables themselves.
package ledger

import (
	"context"
	"fmt"
	"log"

	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Execer is the statement surface RecordChange writes through. Passing the
// transaction explicitly ties each changelog entry to the mutation it
// records: if the row's savepoint rolls back, so does its audit entry.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Tracker is the pgx-backed change ledger.
type Tracker struct {
	pool *pgxpool.Pool
}

// NewTracker wires a ledger backed by the production pool.
func NewTracker(pool *pgxpool.Pool) *Tracker {
	return &Tracker{pool: pool}
}

// CreateRun inserts a RUNNING update_runs record and returns its id. Run
// records live outside the apply transaction so a failed apply still
// leaves its FAILED run behind.
func (t *Tracker) CreateRun(ctx context.Context, src domain.RunSource) (uuid.UUID, error) {
	runID := uuid.New()

	_, err := t.pool.Exec(ctx,
		`INSERT INTO update_runs (run_id, status, source_url, source_hash, source_size)
		 VALUES ($1, $2, $3, $4, $5)`,
		runID, domain.RunStatusRunning, nullIfEmpty(src.URL), nullIfEmpty(src.Hash), src.Size,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create update run: %w", err)
	}

	log.Printf("ledger: created update run %s", runID)
	return runID, nil
}

// CompleteRun moves a run to a terminal status with its final counts.
func (t *Tracker) CompleteRun(ctx context.Context, runID uuid.UUID, status domain.RunStatus, counts domain.RunCounts, errorMessage string) error {
	_, err := t.pool.Exec(ctx,
		`UPDATE update_runs
		 SET completed_at = CURRENT_TIMESTAMP,
		     status = $1,
		     records_added = $2,
		     records_updated = $3,
		     records_deleted = $4,
		     error_message = $5
		 WHERE run_id = $6`,
		status, counts.Added, counts.Updated, counts.Deleted, nullIfEmpty(errorMessage), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete update run %s: %w", runID, err)
	}

	log.Printf("ledger: run %s completed with status %s", runID, status)
	return nil
}

// RecordChange appends one changelog entry through the given statement
// surface, carrying the run id explicitly.
func (t *Tracker) RecordChange(ctx context.Context, db Execer, entry domain.ChangelogEntry) error {
	if !domain.IsCoreTable(entry.Table) {
		return fmt.Errorf("unknown changelog table for %q", entry.Table)
	}

	oldValues, err := marshalValues(entry.OldValues)
	if err != nil {
		return fmt.Errorf("failed to encode old values: %w", err)
	}
	newValues, err := marshalValues(entry.NewValues)
	if err != nil {
		return fmt.Errorf("failed to encode new values: %w", err)
	}

	_, err = db.Exec(ctx,
		fmt.Sprintf(
			`INSERT INTO %s (entity_id, operation_type, run_id, old_values, new_values)
			 VALUES ($1, $2, $3, $4, $5)`,
			domain.ChangelogTable(entry.Table),
		),
		entry.EntityID, entry.Operation, entry.RunID, oldValues, newValues,
	)
	if err != nil {
		return fmt.Errorf("failed to record %s change for %s: %w", entry.Table, entry.EntityID, err)
	}
	return nil
}

// GetRun fetches one run record.
func (t *Tracker) GetRun(ctx context.Context, runID uuid.UUID) (domain.UpdateRun, error) {
	row := t.pool.QueryRow(ctx,
		`SELECT run_id, started_at, completed_at, status, source_url, source_hash, source_size,
		        records_added, records_updated, records_deleted, error_message
		 FROM update_runs WHERE run_id = $1`,
		runID,
	)
	return scanRun(row)
}

// RecentRuns lists runs started within the given day window, newest first.
func (t *Tracker) RecentRuns(ctx context.Context, days, limit int) ([]domain.UpdateRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := t.pool.Query(ctx,
		`SELECT run_id, started_at, completed_at, status, source_url, source_hash, source_size,
		        records_added, records_updated, records_deleted, error_message
		 FROM update_runs
		 WHERE started_at >= CURRENT_TIMESTAMP - make_interval(days => $1)
		 ORDER BY started_at DESC
		 LIMIT $2`,
		days, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.UpdateRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// LastCompletedSource returns the source metadata of the newest COMPLETED
// run, or nil when no update has ever completed. The orchestrator uses it
// for the has-the-file-changed short circuit.
func (t *Tracker) LastCompletedSource(ctx context.Context) (*domain.RunSource, error) {
	var (
		url  pgtype.Text
		hash pgtype.Text
		size pgtype.Int8
	)
	err := t.pool.QueryRow(ctx,
		`SELECT source_url, source_hash, source_size
		 FROM update_runs
		 WHERE status = $1 AND source_hash IS NOT NULL
		 ORDER BY started_at DESC
		 LIMIT 1`,
		domain.RunStatusCompleted,
	).Scan(&url, &hash, &size)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up last completed source: %w", err)
	}

	return &domain.RunSource{URL: url.String, Hash: hash.String, Size: size.Int64}, nil
}

// ChangesByRun fetches every changelog entry tagged with a run, grouped by
// table in diff order.
func (t *Tracker) ChangesByRun(ctx context.Context, runID uuid.UUID) (map[string][]domain.ChangelogEntry, error) {
	changes := map[string][]domain.ChangelogEntry{}

	for _, table := range domain.CoreTables {
		rows, err := t.pool.Query(ctx,
			fmt.Sprintf(
				`SELECT id, entity_id, operation_type, changed_at, run_id, old_values, new_values
				 FROM %s WHERE run_id = $1 ORDER BY changed_at ASC, id ASC`,
				domain.ChangelogTable(table),
			),
			runID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to query %s changelog: %w", table, err)
		}

		entries, err := scanChangelogRows(rows, table)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			changes[table] = entries
		}
	}

	return changes, nil
}

// ChangeSummaryReport aggregates changelog counts by table and operation.
type ChangeSummaryReport struct {
	TotalChanges int
	ByTable      map[string]domain.OperationSummary
	ByOperation  domain.OperationSummary
}

// ChangeSummary computes aggregate counts either for one run (runID set)
// or over a trailing day window.
func (t *Tracker) ChangeSummary(ctx context.Context, runID *uuid.UUID, days int) (*ChangeSummaryReport, error) {
	report := &ChangeSummaryReport{
		ByTable:     map[string]domain.OperationSummary{},
		ByOperation: domain.OperationSummary{},
	}

	for _, table := range domain.CoreTables {
		var (
			sql  string
			args []any
		)
		switch {
		case runID != nil:
			sql = fmt.Sprintf(
				`SELECT operation_type, COUNT(*) FROM %s WHERE run_id = $1 GROUP BY operation_type`,
				domain.ChangelogTable(table))
			args = []any{*runID}
		default:
			sql = fmt.Sprintf(
				`SELECT operation_type, COUNT(*) FROM %s
				 WHERE changed_at >= CURRENT_TIMESTAMP - make_interval(days => $1)
				 GROUP BY operation_type`,
				domain.ChangelogTable(table))
			args = []any{days}
		}

		rows, err := t.pool.Query(ctx, sql, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize %s changelog: %w", table, err)
		}

		tableSummary := domain.OperationSummary{}
		for rows.Next() {
			var (
				op    string
				count int
			)
			if err := rows.Scan(&op, &count); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan %s summary: %w", table, err)
			}
			tableSummary[domain.Operation(op)] += count
			report.ByOperation[domain.Operation(op)] += count
			report.TotalChanges += count
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate %s summary: %w", table, err)
		}

		report.ByTable[table] = tableSummary
	}

	return report, nil
}

// CleanupOldEntries purges changelog entries (never run records) older
// than the retention window. Maintenance only; not part of the hot path.
func (t *Tracker) CleanupOldEntries(ctx context.Context, retentionDays int) (int64, error) {
	var totalDeleted int64

	for _, table := range domain.CoreTables {
		tag, err := t.pool.Exec(ctx,
			fmt.Sprintf(
				`DELETE FROM %s WHERE changed_at < CURRENT_TIMESTAMP - make_interval(days => $1)`,
				domain.ChangelogTable(table),
			),
			retentionDays,
		)
		if err != nil {
			return totalDeleted, fmt.Errorf("failed to clean up %s changelog: %w", table, err)
		}
		deleted := tag.RowsAffected()
		totalDeleted += deleted
		if deleted > 0 {
			log.Printf("ledger: deleted %d old entries from %s", deleted, domain.ChangelogTable(table))
		}
	}

	log.Printf("ledger: cleanup complete, %d entries deleted", totalDeleted)
	return totalDeleted, nil
}
