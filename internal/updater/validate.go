package updater

import (
	"fmt"

	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
)

// largeTableThreshold flags suspiciously big change sets for one table,
// usually a sign the source file regressed rather than genuinely changed.
const largeTableThreshold = 1000

// Validation is the pre-flight verdict on a change set. Errors block the
// apply; warnings are logged and carried into the result.
type Validation struct {
	Errors   []string
	Warnings []string
}

// OK reports whether the change set may be applied.
func (v *Validation) OK() bool {
	return len(v.Errors) == 0
}

// ValidateChanges checks a detected change set for malformed operations
// and referential smells before anything touches the database.
func ValidateChanges(result *domain.ChangeDetectionResult) *Validation {
	v := &Validation{}

	pendingDeletes := map[string]map[string]bool{}
	for table, changes := range result.ChangesByTable {
		for _, change := range changes {
			if change.Operation != domain.OpDelete {
				continue
			}
			if pendingDeletes[table] == nil {
				pendingDeletes[table] = map[string]bool{}
			}
			pendingDeletes[table][change.EntityID] = true
		}
	}

	for _, table := range domain.CoreTables {
		changes := result.ChangesForTable(table)
		if len(changes) > largeTableThreshold {
			v.Warnings = append(v.Warnings,
				fmt.Sprintf("%s has %d changes, above the %d threshold", table, len(changes), largeTableThreshold))
		}

		ref, hasParent := domain.ParentReferenceColumns[table]

		for _, change := range changes {
			switch change.Operation {
			case domain.OpInsert:
				if len(change.NewValues) == 0 {
					v.Errors = append(v.Errors,
						fmt.Sprintf("INSERT for %s %s has no new values", table, change.EntityID))
					continue
				}
				if hasParent {
					if parentID, ok := change.NewValues[ref.Column].(string); ok && parentID != "" {
						if pendingDeletes[ref.ParentTable][parentID] {
							v.Warnings = append(v.Warnings,
								fmt.Sprintf("INSERT for %s %s references %s %s which is being deleted",
									table, change.EntityID, ref.ParentTable, parentID))
						}
					}
				}
			case domain.OpUpdate:
				if len(change.ChangedFields) == 0 {
					v.Warnings = append(v.Warnings,
						fmt.Sprintf("UPDATE for %s %s lists no changed fields", table, change.EntityID))
				}
			case domain.OpDelete:
				if len(change.OldValues) == 0 {
					v.Warnings = append(v.Warnings,
						fmt.Sprintf("DELETE for %s %s has no prior values recorded", table, change.EntityID))
				}
			default:
				v.Errors = append(v.Errors,
					fmt.Sprintf("unknown operation %q for %s %s", change.Operation, table, change.EntityID))
			}
		}
	}

	return v
}
