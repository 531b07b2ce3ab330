package detector

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
	"github.com/KunevinnDokus/tourism-database-system/internal/snapshot"
)

// RowSource yields the full row set of a table from one side of the
// comparison. Both the production store and a temp snapshot satisfy it.
type RowSource interface {
	FetchAllRows(ctx context.Context, table string) ([]domain.Row, error)
}

// PgRowSource adapts a pgx querier (pool, conn or tx) into a RowSource.
type PgRowSource struct {
	Q snapshot.Querier
}

func (s PgRowSource) FetchAllRows(ctx context.Context, table string) ([]domain.Row, error) {
	return snapshot.FetchAllRows(ctx, s.Q, table)
}

// Compare diffs every core table between a baseline and a comparison row
// source and aggregates the result. If the baseline is unreachable the
// comparison fails fast with no mutation attempted anywhere.
func Compare(ctx context.Context, baselineID string, baseline RowSource, comparisonID string, comparison RowSource) (*domain.ChangeDetectionResult, error) {
	started := time.Now()
	log.Printf("detector: comparing %s vs %s", baselineID, comparisonID)

	result := &domain.ChangeDetectionResult{
		BaselineID:     baselineID,
		ComparisonID:   comparisonID,
		ChangesByTable: map[string][]domain.EntityChange{},
		Summary:        map[string]domain.OperationSummary{},
	}

	for _, table := range domain.CoreTables {
		baselineRows, err := baseline.FetchAllRows(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("failed to read baseline %s: %w", table, err)
		}
		comparisonRows, err := comparison.FetchAllRows(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("failed to read comparison %s: %w", table, err)
		}

		changes := DiffTable(table, baselineRows, comparisonRows)
		result.ChangesByTable[table] = changes

		summary := domain.OperationSummary{domain.OpInsert: 0, domain.OpUpdate: 0, domain.OpDelete: 0}
		for _, change := range changes {
			summary[change.Operation]++
			result.TotalChanges++
		}
		result.Summary[table] = summary
		log.Printf("detector:   %s: %d changes", table, len(changes))
	}

	result.DetectionTime = time.Since(started)
	log.Printf("detector: %d changes detected in %s", result.TotalChanges, result.DetectionTime)
	return result, nil
}

// Snapshotter is the slice of the snapshot package the engine needs.
type Snapshotter interface {
	Materialize(ctx context.Context, ttlPath string) (*snapshot.Handle, *snapshot.ImportStats, error)
	Teardown(ctx context.Context, h *snapshot.Handle) error
}

// Engine wires the snapshotter and the production store into the one-call
// detection flow the orchestrator uses.
type Engine struct {
	snapshotter Snapshotter
	baselineID  string
	baseline    RowSource
}

// NewEngine creates a detection engine. baselineID names the production
// database purely for reporting.
func NewEngine(snapshotter Snapshotter, baselineID string, baseline RowSource) *Engine {
	return &Engine{snapshotter: snapshotter, baselineID: baselineID, baseline: baseline}
}

// DetectFromFile materializes the TTL file into an isolated snapshot,
// compares it against the baseline and tears the snapshot down again,
// success or failure.
func (e *Engine) DetectFromFile(ctx context.Context, ttlPath string) (*domain.ChangeDetectionResult, error) {
	handle, _, err := e.snapshotter.Materialize(ctx, ttlPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := e.snapshotter.Teardown(ctx, handle); err != nil {
			log.Printf("detector: snapshot teardown failed: %v", err)
		}
	}()

	return Compare(ctx, e.baselineID, e.baseline, handle.DBName, PgRowSource{Q: handle.Rows()})
}
