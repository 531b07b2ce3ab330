package ledger

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// marshalValues encodes a row snapshot as jsonb, keeping NULL for absent
// sides (no old values on INSERT, no new values on DELETE).
func marshalValues(values domain.Row) (any, error) {
	if values == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return encoded, nil
}

func scanRun(row pgx.Row) (domain.UpdateRun, error) {
	var (
		run    domain.UpdateRun
		status string
		url    pgtype.Text
		hash   pgtype.Text
		size   pgtype.Int8
		done   pgtype.Timestamptz
		errMsg pgtype.Text
	)

	err := row.Scan(
		&run.RunID, &run.StartedAt, &done, &status, &url, &hash, &size,
		&run.Counts.Added, &run.Counts.Updated, &run.Counts.Deleted, &errMsg,
	)
	if err != nil {
		if isNoRows(err) {
			return domain.UpdateRun{}, fmt.Errorf("update run not found: %w", err)
		}
		return domain.UpdateRun{}, fmt.Errorf("failed to scan update run: %w", err)
	}

	run.Status = domain.RunStatus(status)
	run.Source = domain.RunSource{URL: url.String, Hash: hash.String, Size: size.Int64}
	if done.Valid {
		completed := done.Time
		run.CompletedAt = &completed
	}
	run.ErrorMsg = errMsg.String
	return run, nil
}

func scanChangelogRows(rows pgx.Rows, table string) ([]domain.ChangelogEntry, error) {
	defer rows.Close()

	var entries []domain.ChangelogEntry
	for rows.Next() {
		var (
			entry     domain.ChangelogEntry
			operation string
			oldValues []byte
			newValues []byte
		)
		err := rows.Scan(&entry.ID, &entry.EntityID, &operation, &entry.ChangedAt, &entry.RunID, &oldValues, &newValues)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s changelog entry: %w", table, err)
		}

		entry.Table = table
		entry.Operation = domain.Operation(operation)
		if len(oldValues) > 0 {
			if err := json.Unmarshal(oldValues, &entry.OldValues); err != nil {
				return nil, fmt.Errorf("failed to decode old values for %s entry %d: %w", table, entry.ID, err)
			}
		}
		if len(newValues) > 0 {
			if err := json.Unmarshal(newValues, &entry.NewValues); err != nil {
				return nil, fmt.Errorf("failed to decode new values for %s entry %d: %w", table, entry.ID, err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s changelog: %w", table, err)
	}
	return entries, nil
}
