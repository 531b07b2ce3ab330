// Package snapshot materializes a TTL file into an isolated comparison
// database so change detection can diff it against production without
// touching production. A failed materialization tears its database down.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/KunevinnDokus/tourism-database-system/internal/db"
	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
	"github.com/KunevinnDokus/tourism-database-system/internal/ttl"
	"github.com/google/uuid"
)

// ErrFileNotFound is returned when the TTL file does not exist.
var ErrFileNotFound = errors.New("ttl file not found")

// Handle is a live temp comparison database.
type Handle struct {
	DBName string
	conn   *db.Connection
}

// Rows exposes the snapshot as a row source for the differ.
func (h *Handle) Rows() Querier {
	return h.conn.Pool
}

// ImportStats summarizes what landed in the snapshot.
type ImportStats struct {
	RowsByTable map[string]int
	RowsFailed  int
	Skipped     int
}

// Snapshotter builds temp comparison databases from TTL files.
type Snapshotter struct {
	dbConfig       db.Config
	migrationsPath string
}

// New creates a Snapshotter for the given server. The migrations path must
// contain the same schema the production store runs.
func New(dbConfig db.Config, migrationsPath string) *Snapshotter {
	return &Snapshotter{dbConfig: dbConfig, migrationsPath: migrationsPath}
}

// Materialize parses the TTL file and loads it into a freshly created
// database named tourism_temp_compare_<suffix>. On any failure the partial
// database is dropped before the error propagates.
func (s *Snapshotter) Materialize(ctx context.Context, ttlPath string) (*Handle, *ImportStats, error) {
	if _, err := os.Stat(ttlPath); err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrFileNotFound, ttlPath)
		}
		return nil, nil, fmt.Errorf("failed to stat ttl file: %w", err)
	}

	// Parse before creating anything so an unparsable file costs nothing.
	subjects, err := ttl.ReadFile(ttlPath)
	if err != nil {
		return nil, nil, err
	}
	dataset := ttl.MapSubjects(subjects)

	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	dbName := "tourism_temp_compare_" + suffix
	log.Printf("snapshot: creating temporary database %s", dbName)

	if err := db.CreateDatabase(ctx, s.dbConfig, dbName); err != nil {
		return nil, nil, fmt.Errorf("comparison storage unreachable: %w", err)
	}

	conn, err := db.NewConnection(ctx, s.dbConfig.WithDatabase(dbName))
	if err != nil {
		s.dropQuietly(ctx, dbName)
		return nil, nil, fmt.Errorf("comparison storage unreachable: %w", err)
	}

	if err := db.RunMigrations(ctx, conn.Pool, s.migrationsPath); err != nil {
		conn.Close()
		s.dropQuietly(ctx, dbName)
		return nil, nil, fmt.Errorf("failed to install snapshot schema: %w", err)
	}

	stats, err := s.importDataset(ctx, conn, dataset)
	if err != nil {
		conn.Close()
		s.dropQuietly(ctx, dbName)
		return nil, nil, err
	}

	log.Printf("snapshot: %s ready (%d subjects skipped, %d rows failed)",
		dbName, dataset.SkippedSubjects, stats.RowsFailed)
	return &Handle{DBName: dbName, conn: conn}, stats, nil
}

// Teardown drops the snapshot database. Always safe to call; errors are
// returned so callers can log them, but there is nothing to recover.
func (s *Snapshotter) Teardown(ctx context.Context, h *Handle) error {
	if h == nil {
		return nil
	}
	if h.conn != nil {
		h.conn.Close()
		h.conn = nil
	}
	if err := db.DropDatabase(ctx, s.dbConfig, h.DBName); err != nil {
		return err
	}
	log.Printf("snapshot: dropped temporary database %s", h.DBName)
	return nil
}

func (s *Snapshotter) dropQuietly(ctx context.Context, dbName string) {
	if err := db.DropDatabase(ctx, s.dbConfig, dbName); err != nil {
		log.Printf("snapshot: failed to clean up %s: %v", dbName, err)
	}
}

// importDataset bulk-inserts the mapped rows in apply order so join rows
// land after the entities they reference. A row that violates a constraint
// is logged and skipped; the snapshot is best-effort by design.
func (s *Snapshotter) importDataset(ctx context.Context, conn *db.Connection, dataset *ttl.Dataset) (*ImportStats, error) {
	stats := &ImportStats{RowsByTable: map[string]int{}}

	for _, table := range domain.ApplyOrder {
		rows := dataset.Rows[table]
		if len(rows) == 0 {
			continue
		}

		columns := domain.TableColumns[table]
		sql := buildInsertSQL(table, columns)

		for _, row := range rows {
			args := make([]any, len(columns))
			for i, column := range columns {
				args[i] = row[column]
			}
			if _, err := conn.Pool.Exec(ctx, sql, args...); err != nil {
				stats.RowsFailed++
				log.Printf("snapshot: failed to insert %s row %v: %v", table, row[domain.PrimaryKeyField], err)
				continue
			}
			stats.RowsByTable[table]++
		}
		log.Printf("snapshot: imported %d rows into %s", stats.RowsByTable[table], table)
	}

	stats.Skipped = dataset.SkippedSubjects
	return stats, nil
}

func buildInsertSQL(table string, columns []string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO NOTHING`,
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "),
	)
}
