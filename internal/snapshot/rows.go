package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
	"github.com/jackc/pgx/v5"
)

// Querier is the minimal query surface shared by pgxpool.Pool, pgx.Conn
// and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// FetchAllRows loads the full row set of one table as field-name→value
// maps. Core tables are small enough (tens of thousands of rows) that the
// differ works on fully loaded sides rather than streams.
func FetchAllRows(ctx context.Context, q Querier, table string) ([]domain.Row, error) {
	if !domain.IsCoreTable(table) {
		return nil, fmt.Errorf("unknown table %q", table)
	}

	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT * FROM %s`, pgx.Identifier{table}.Sanitize()))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []domain.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		row := make(domain.Row, len(fields))
		for i, field := range fields {
			row[field.Name] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", table, err)
	}

	return out, nil
}

// normalizeValue maps driver values onto the small set of types the differ
// compares: string, int64, float64, bool, time.Time, nil. Numeric widths
// collapse so the same logical value compares equal from either side.
func normalizeValue(v any) any {
	switch typed := v.(type) {
	case nil:
		return nil
	case int16:
		return int64(typed)
	case int32:
		return int64(typed)
	case int:
		return int64(typed)
	case float32:
		return float64(typed)
	case time.Time:
		return typed.UTC()
	case [16]byte:
		// uuid columns scanned raw; render canonically
		return fmt.Sprintf("%x-%x-%x-%x-%x", typed[0:4], typed[4:6], typed[6:8], typed[8:10], typed[10:16])
	default:
		return v
	}
}
