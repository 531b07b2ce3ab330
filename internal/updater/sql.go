package updater

import (
	"fmt"
	"strings"

	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
)

// buildInsert renders an INSERT for the columns the row actually carries,
// in declared column order. Audit columns are left to their defaults.
func buildInsert(table string, row domain.Row) (string, []any, error) {
	declared, ok := domain.TableColumns[table]
	if !ok {
		return "", nil, fmt.Errorf("unknown table %q", table)
	}

	var (
		columns      []string
		placeholders []string
		args         []any
	)
	for _, col := range declared {
		if domain.SystemColumns[col] {
			continue
		}
		value, present := row[col]
		if !present {
			continue
		}
		columns = append(columns, col)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)+1))
		args = append(args, value)
	}

	if len(columns) == 0 {
		return "", nil, fmt.Errorf("no insertable columns for %s row", table)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	return sql, args, nil
}

// hasUpdatableFields reports whether any changed field would survive the
// primary key and audit column filters in buildUpdate.
func hasUpdatableFields(changedFields []string) bool {
	for _, col := range changedFields {
		if col != domain.PrimaryKeyField && !domain.SystemColumns[col] {
			return true
		}
	}
	return false
}

// buildUpdate renders an UPDATE touching only the changed fields, plus the
// updated_at bump. The primary key and audit columns are never set from
// the incoming row.
func buildUpdate(table, entityID string, row domain.Row, changedFields []string) (string, []any, error) {
	if _, ok := domain.TableColumns[table]; !ok {
		return "", nil, fmt.Errorf("unknown table %q", table)
	}

	var (
		assignments []string
		args        []any
	)
	for _, col := range changedFields {
		if col == domain.PrimaryKeyField || domain.SystemColumns[col] {
			continue
		}
		args = append(args, row[col])
		assignments = append(assignments, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if len(assignments) == 0 {
		return "", nil, fmt.Errorf("no updatable fields for %s %s", table, entityID)
	}

	assignments = append(assignments, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, entityID)
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		table, strings.Join(assignments, ", "), domain.PrimaryKeyField, len(args))
	return sql, args, nil
}

func buildDelete(table, entityID string) (string, []any) {
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, domain.PrimaryKeyField)
	return sql, []any{entityID}
}
