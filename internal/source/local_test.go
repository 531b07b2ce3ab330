package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalFetchStagesFile(t *testing.T) {
	original := filepath.Join(t.TempDir(), "export.ttl")
	if err := os.WriteFile(original, []byte(ttlBody), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	workDir := t.TempDir()

	staged, src, err := NewLocal(original).Fetch(context.Background(), workDir)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if filepath.Dir(staged) != workDir {
		t.Errorf("staged path %q outside work dir %q", staged, workDir)
	}
	data, err := os.ReadFile(staged)
	if err != nil {
		t.Fatalf("reading staged copy: %v", err)
	}
	if string(data) != ttlBody {
		t.Errorf("staged content differs")
	}

	sum := sha256.Sum256([]byte(ttlBody))
	if src.Hash != hex.EncodeToString(sum[:]) {
		t.Errorf("hash = %q", src.Hash)
	}
	if src.Size != int64(len(ttlBody)) {
		t.Errorf("size = %d, want %d", src.Size, len(ttlBody))
	}
	if !strings.HasPrefix(src.URL, "file://") {
		t.Errorf("url = %q", src.URL)
	}

	// The workflow removes its staged copy; the original must survive.
	os.Remove(staged)
	if _, err := os.Stat(original); err != nil {
		t.Errorf("original file gone: %v", err)
	}
}

func TestLocalFetchRejectsEmptyFile(t *testing.T) {
	original := filepath.Join(t.TempDir(), "empty.ttl")
	if err := os.WriteFile(original, nil, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	workDir := t.TempDir()

	if _, _, err := NewLocal(original).Fetch(context.Background(), workDir); err == nil {
		t.Fatal("empty file accepted")
	}

	entries, err := os.ReadDir(workDir)
	if err != nil {
		t.Fatalf("reading work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("staged leftovers after failure: %v", entries)
	}
}

func TestLocalFetchMissingFile(t *testing.T) {
	if _, _, err := NewLocal(filepath.Join(t.TempDir(), "absent.ttl")).Fetch(context.Background(), t.TempDir()); err == nil {
		t.Fatal("missing file accepted")
	}
}
