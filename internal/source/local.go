package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
)

// Local serves a TTL file already on disk instead of downloading one.
// The file is staged into the work directory so the workflow can clean
// up its own copy without touching the original.
type Local struct {
	path string
}

// NewLocal builds an acquirer around a local file path.
func NewLocal(path string) *Local {
	return &Local{path: path}
}

// Fetch copies the file into dir and returns the staged path plus the
// source metadata for the run record.
func (l *Local) Fetch(ctx context.Context, dir string) (string, domain.RunSource, error) {
	in, err := os.Open(l.path)
	if err != nil {
		return "", domain.RunSource{}, fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	staged := filepath.Join(dir, fmt.Sprintf("tourism-source-%d.ttl", time.Now().Unix()))
	out, err := os.Create(staged)
	if err != nil {
		return "", domain.RunSource{}, fmt.Errorf("failed to stage source file: %w", err)
	}

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(out, hasher), in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(staged)
		return "", domain.RunSource{}, fmt.Errorf("failed to stage source file: %w", err)
	}
	if size == 0 {
		_ = os.Remove(staged)
		return "", domain.RunSource{}, fmt.Errorf("source file %s is empty", l.path)
	}

	abs, err := filepath.Abs(l.path)
	if err != nil {
		abs = l.path
	}
	src := domain.RunSource{
		URL:  "file://" + abs,
		Hash: hex.EncodeToString(hasher.Sum(nil)),
		Size: size,
	}
	log.Printf("source: staged local file %s, %d bytes, sha256 %s", l.path, size, src.Hash)
	return staged, src, nil
}
