// Package detector implements change detection between two relational
// snapshots of the tourism dataset: a per-table differ and the engine that
// runs it across every core table.
package detector

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
)

// DiffTable compares the full row sets of one table and returns the
// entity-level changes. Only the set of changes is meaningful; callers
// must not rely on their order.
func DiffTable(table string, baseline, comparison []domain.Row) []domain.EntityChange {
	baselineByID := rowsByID(baseline)
	comparisonByID := rowsByID(comparison)

	var changes []domain.EntityChange

	for id, row := range baselineByID {
		if _, ok := comparisonByID[id]; !ok {
			changes = append(changes, domain.EntityChange{
				EntityID:   id,
				EntityType: table,
				Operation:  domain.OpDelete,
				OldValues:  row,
			})
		}
	}

	for id, row := range comparisonByID {
		if _, ok := baselineByID[id]; !ok {
			changes = append(changes, domain.EntityChange{
				EntityID:   id,
				EntityType: table,
				Operation:  domain.OpInsert,
				NewValues:  row,
			})
		}
	}

	for id, baselineRow := range baselineByID {
		comparisonRow, ok := comparisonByID[id]
		if !ok {
			continue
		}
		changed := changedFields(table, baselineRow, comparisonRow)
		if len(changed) == 0 {
			continue
		}
		// Full rows on both sides: downstream consumers want context even
		// though only the changed fields are applied.
		changes = append(changes, domain.EntityChange{
			EntityID:      id,
			EntityType:    table,
			Operation:     domain.OpUpdate,
			OldValues:     baselineRow,
			NewValues:     comparisonRow,
			ChangedFields: changed,
		})
	}

	return changes
}

func rowsByID(rows []domain.Row) map[string]domain.Row {
	byID := make(map[string]domain.Row, len(rows))
	for _, row := range rows {
		byID[fmt.Sprint(row[domain.PrimaryKeyField])] = row
	}
	return byID
}

// changedFields returns the differing field names in the table's natural
// column order. A field missing from one side compares as NULL, never as
// "ignore". Audit columns are excluded.
func changedFields(table string, old, new domain.Row) []string {
	var changed []string
	for _, field := range fieldOrder(table, old, new) {
		if field == domain.PrimaryKeyField {
			continue
		}
		if !valuesEqual(old[field], new[field]) {
			changed = append(changed, field)
		}
	}
	return changed
}

// fieldOrder yields the comparison order: the table's declared columns,
// then any stray fields either side carries, sorted for determinism.
func fieldOrder(table string, old, new domain.Row) []string {
	declared := domain.TableColumns[table]
	seen := make(map[string]bool, len(declared))
	order := make([]string, 0, len(declared))
	for _, column := range declared {
		seen[column] = true
		order = append(order, column)
	}

	var extra []string
	for _, row := range []domain.Row{old, new} {
		for field := range row {
			if seen[field] || domain.SystemColumns[field] {
				continue
			}
			seen[field] = true
			extra = append(extra, field)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch at := a.(type) {
	case time.Time:
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	case []byte:
		bb, ok := b.([]byte)
		return ok && bytes.Equal(at, bb)
	}
	// Uncomparable dynamic types (jsonb maps, arrays) would make the
	// interface comparison panic.
	if ta := reflect.TypeOf(a); ta == reflect.TypeOf(b) && !ta.Comparable() {
		return reflect.DeepEqual(a, b)
	}
	return a == b
}
