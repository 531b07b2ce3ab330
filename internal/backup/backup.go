// Package backup shells out to pg_dump for pre-update database backups
// and prunes old dump files past the retention window.
package backup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/KunevinnDokus/tourism-database-system/internal/db"
)

// Manager creates and prunes dump files in one directory.
type Manager struct {
	dbConfig      db.Config
	directory     string
	retentionDays int
}

// New builds a backup manager. retentionDays <= 0 disables pruning.
func New(dbConfig db.Config, directory string, retentionDays int) *Manager {
	return &Manager{dbConfig: dbConfig, directory: directory, retentionDays: retentionDays}
}

// Create writes a custom-format pg_dump of the configured database and
// returns the dump path.
func (m *Manager) Create(ctx context.Context) (string, error) {
	if err := os.MkdirAll(m.directory, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	path := filepath.Join(m.directory,
		fmt.Sprintf("%s-%s.dump", m.dbConfig.DBName, time.Now().Format("20060102-150405")))

	cmd := exec.CommandContext(ctx, "pg_dump",
		"--format=custom",
		"--file", path,
		"--host", m.dbConfig.Host,
		"--port", strconv.Itoa(m.dbConfig.Port),
		"--username", m.dbConfig.User,
		"--dbname", m.dbConfig.DBName,
	)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+m.dbConfig.Password)

	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("pg_dump failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("backup file missing after pg_dump: %w", err)
	}
	log.Printf("backup: wrote %s (%d bytes)", path, info.Size())
	return path, nil
}

// Prune deletes dump files older than the retention window and returns
// how many were removed.
func (m *Manager) Prune() (int, error) {
	if m.retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -m.retentionDays)

	entries, err := os.ReadDir(m.directory)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read backup directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".dump" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(m.directory, entry.Name())
			if err := os.Remove(path); err != nil {
				log.Printf("backup: failed to remove %s: %v", path, err)
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		log.Printf("backup: pruned %d dump files older than %d days", removed, m.retentionDays)
	}
	return removed, nil
}
