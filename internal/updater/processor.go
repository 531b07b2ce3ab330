// Package updater applies a detected change set to the production tables
// inside a single transaction, with per-row savepoints so one bad row
// cannot poison the rest of the batch.
package updater

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
	"github.com/KunevinnDokus/tourism-database-system/internal/ledger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Execer is the statement surface row mutations and their changelog
// entries go through.
type Execer = ledger.Execer

// Tx is the outer apply transaction. Savepoint runs fn inside a nested
// transaction that is released on success and rolled back on error,
// leaving the outer transaction usable either way.
type Tx interface {
	Execer
	Savepoint(ctx context.Context, fn func(Execer) error) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Beginner starts apply transactions.
type Beginner interface {
	BeginApply(ctx context.Context) (Tx, error)
}

// ChangeRecorder appends changelog entries through the apply transaction.
type ChangeRecorder interface {
	RecordChange(ctx context.Context, db ledger.Execer, entry domain.ChangelogEntry) error
}

// PoolBeginner adapts a pgx pool to the Beginner interface.
type PoolBeginner struct {
	Pool *pgxpool.Pool
}

func (b PoolBeginner) BeginApply(ctx context.Context) (Tx, error) {
	tx, err := b.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin apply transaction: %w", err)
	}
	return pgxApplyTx{tx: tx}, nil
}

type pgxApplyTx struct {
	tx pgx.Tx
}

func (t pgxApplyTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.tx.Exec(ctx, sql, args...)
}

func (t pgxApplyTx) Savepoint(ctx context.Context, fn func(Execer) error) error {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to open savepoint: %w", err)
	}
	if err := fn(pgxApplyTx{tx: sp}); err != nil {
		_ = sp.Rollback(ctx)
		return err
	}
	return sp.Commit(ctx)
}

func (t pgxApplyTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t pgxApplyTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// Processor applies change sets in dependency order.
type Processor struct {
	db        Beginner
	recorder  ChangeRecorder
	batchSize int
}

// NewProcessor wires an update processor. batchSize only controls
// progress reporting granularity; atomicity is per row and per run.
func NewProcessor(db Beginner, recorder ChangeRecorder, batchSize int) *Processor {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Processor{db: db, recorder: recorder, batchSize: batchSize}
}

// Apply executes a change set under runID. Tables are processed in
// dependency order, and within each table deletes run before updates
// before inserts. An UPDATE whose changed fields all fall to the primary
// key and audit filters is logged and skipped without counting as a
// failure. A failing row is rolled back to its savepoint, counted
// and skipped. With dryRun set the whole transaction is rolled back at
// the end, after exercising every statement for real.
func (p *Processor) Apply(ctx context.Context, runID uuid.UUID, detected *domain.ChangeDetectionResult, dryRun bool) (*domain.UpdateResult, error) {
	started := time.Now()
	result := &domain.UpdateResult{
		RunID:   runID,
		DryRun:  dryRun,
		Summary: map[string]domain.OperationSummary{},
	}

	validation := ValidateChanges(detected)
	for _, warning := range validation.Warnings {
		log.Printf("updater: warning: %s", warning)
	}
	if !validation.OK() {
		result.ErrorMessages = validation.Errors
		result.ProcessingTime = time.Since(started)
		return result, fmt.Errorf("change set failed validation with %d errors", len(validation.Errors))
	}

	tx, err := p.db.BeginApply(ctx)
	if err != nil {
		result.ProcessingTime = time.Since(started)
		return result, err
	}
	finished := false
	defer func() {
		if !finished {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, table := range domain.ApplyOrder {
		changes := detected.ChangesForTable(table)
		if len(changes) == 0 {
			continue
		}

		ordered := orderForApply(changes)
		log.Printf("updater: applying %d changes to %s", len(ordered), table)

		summary := domain.OperationSummary{}
		for i, change := range ordered {
			result.RecordsProcessed++
			if change.Operation == domain.OpUpdate && !hasUpdatableFields(change.ChangedFields) {
				log.Printf("updater: skipping no-op UPDATE on %s %s", table, change.EntityID)
				continue
			}
			if err := p.applyOne(ctx, tx, runID, table, change); err != nil {
				result.RecordsFailed++
				result.ErrorMessages = append(result.ErrorMessages,
					fmt.Sprintf("%s %s %s: %v", change.Operation, table, change.EntityID, err))
				continue
			}
			result.RecordsApplied++
			summary[change.Operation]++

			if (i+1)%p.batchSize == 0 {
				log.Printf("updater: %s progress %d/%d", table, i+1, len(ordered))
			}
		}
		if summary.Total() > 0 {
			result.Summary[table] = summary
		}
	}

	if dryRun {
		if err := tx.Rollback(ctx); err != nil {
			finished = true
			result.ProcessingTime = time.Since(started)
			return result, fmt.Errorf("failed to roll back dry run: %w", err)
		}
		log.Printf("updater: dry run rolled back, %d/%d records would apply",
			result.RecordsApplied, result.RecordsProcessed)
	} else {
		if err := tx.Commit(ctx); err != nil {
			finished = true
			result.ProcessingTime = time.Since(started)
			return result, fmt.Errorf("failed to commit apply transaction: %w", err)
		}
	}
	finished = true

	result.Success = result.RecordsFailed == 0
	result.ProcessingTime = time.Since(started)
	return result, nil
}

// applyOne runs a single mutation and its changelog entry inside one
// savepoint, so both land or neither does.
func (p *Processor) applyOne(ctx context.Context, tx Tx, runID uuid.UUID, table string, change domain.EntityChange) error {
	return tx.Savepoint(ctx, func(db Execer) error {
		var (
			sql  string
			args []any
			err  error
		)
		switch change.Operation {
		case domain.OpInsert:
			sql, args, err = buildInsert(table, change.NewValues)
		case domain.OpUpdate:
			sql, args, err = buildUpdate(table, change.EntityID, change.NewValues, change.ChangedFields)
		case domain.OpDelete:
			sql, args = buildDelete(table, change.EntityID)
		default:
			err = fmt.Errorf("unknown operation %q", change.Operation)
		}
		if err != nil {
			return err
		}

		tag, err := db.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		if change.Operation != domain.OpInsert && tag.RowsAffected() == 0 {
			log.Printf("updater: %s on %s %s matched no rows", change.Operation, table, change.EntityID)
		}

		return p.recorder.RecordChange(ctx, db, domain.ChangelogEntry{
			Table:     table,
			EntityID:  change.EntityID,
			Operation: change.Operation,
			RunID:     runID,
			OldValues: change.OldValues,
			NewValues: change.NewValues,
		})
	})
}

// orderForApply reorders one table's changes so deletes run first, then
// updates, then inserts, keeping the differ's order within each group.
func orderForApply(changes []domain.EntityChange) []domain.EntityChange {
	ordered := make([]domain.EntityChange, 0, len(changes))
	for _, op := range []domain.Operation{domain.OpDelete, domain.OpUpdate, domain.OpInsert} {
		for _, change := range changes {
			if change.Operation == op {
				ordered = append(ordered, change)
			}
		}
	}
	return ordered
}
