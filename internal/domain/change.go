package domain

import (
	"fmt"
	"time"
)

// Operation is the kind of row-level mutation a change describes.
type Operation string

const (
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// Operations lists every operation in summary order.
var Operations = []Operation{OpInsert, OpUpdate, OpDelete}

// EntityChange describes one entity's delta between two snapshots.
// INSERT carries only NewValues, DELETE only OldValues, UPDATE both plus
// the list of differing fields in the table's natural column order.
type EntityChange struct {
	EntityID      string
	EntityType    string
	Operation     Operation
	OldValues     Row
	NewValues     Row
	ChangedFields []string
}

func (c EntityChange) String() string {
	return fmt.Sprintf("%s %s %s", c.Operation, c.EntityType, c.EntityID)
}

// OperationSummary counts changes per operation for one table.
type OperationSummary map[Operation]int

// Total sums the per-operation counts.
func (s OperationSummary) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}

// ChangeDetectionResult aggregates the detected changes across all core
// tables for one baseline/comparison run.
type ChangeDetectionResult struct {
	BaselineID     string
	ComparisonID   string
	TotalChanges   int
	ChangesByTable map[string][]EntityChange
	Summary        map[string]OperationSummary
	DetectionTime  time.Duration
}

// ChangesForTable returns the detected changes for one table.
func (r *ChangeDetectionResult) ChangesForTable(table string) []EntityChange {
	return r.ChangesByTable[table]
}

// ChangesByOperation collects every change of the given operation across
// all tables.
func (r *ChangeDetectionResult) ChangesByOperation(op Operation) []EntityChange {
	var out []EntityChange
	for _, table := range CoreTables {
		for _, change := range r.ChangesByTable[table] {
			if change.Operation == op {
				out = append(out, change)
			}
		}
	}
	return out
}

// HasChanges reports whether any table produced a change.
func (r *ChangeDetectionResult) HasChanges() bool {
	return r != nil && r.TotalChanges > 0
}
