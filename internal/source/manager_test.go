package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
)

const ttlBody = `<https://example.org/id/logies/aaaaaaaa-1111-2222-3333-444444444444> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <https://data.vlaanderen.be/ns/logies#Logies> .
`

func TestFetchDownloadsAndHashes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/turtle" {
			t.Errorf("Accept header = %q", got)
		}
		w.Write([]byte(ttlBody))
	}))
	defer server.Close()

	manager := New(server.URL, time.Minute, 0, time.Millisecond)
	dir := t.TempDir()

	path, src, err := manager.Fetch(context.Background(), dir)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading download: %v", err)
	}
	if string(data) != ttlBody {
		t.Errorf("downloaded content differs")
	}

	sum := sha256.Sum256([]byte(ttlBody))
	if src.Hash != hex.EncodeToString(sum[:]) {
		t.Errorf("hash = %q", src.Hash)
	}
	if src.Size != int64(len(ttlBody)) {
		t.Errorf("size = %d, want %d", src.Size, len(ttlBody))
	}
	if src.URL != server.URL {
		t.Errorf("url = %q", src.URL)
	}
}

func TestFetchRetriesOnServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(ttlBody))
	}))
	defer server.Close()

	manager := New(server.URL, time.Minute, 3, time.Millisecond)
	_, src, err := manager.Fetch(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if attempts != 3 {
		t.Errorf("server saw %d attempts, want 3", attempts)
	}
	if src.Size == 0 {
		t.Error("empty source metadata after successful retry")
	}
}

func TestFetchGivesUpAndCleansUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "broken", http.StatusInternalServerError)
	}))
	defer server.Close()

	dir := t.TempDir()
	manager := New(server.URL, time.Minute, 1, time.Millisecond)

	if _, _, err := manager.Fetch(context.Background(), dir); err == nil {
		t.Fatal("expected failure after exhausting retries")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("partial files left behind: %v", entries)
	}
}

func TestFetchRejectsEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	manager := New(server.URL, time.Minute, 0, time.Millisecond)
	if _, _, err := manager.Fetch(context.Background(), t.TempDir()); err == nil {
		t.Fatal("empty download accepted")
	}
}

func TestUnchanged(t *testing.T) {
	current := domain.RunSource{Hash: "abc"}
	if Unchanged(current, nil) {
		t.Error("nil previous reported unchanged")
	}
	if Unchanged(current, &domain.RunSource{Hash: ""}) {
		t.Error("empty previous hash reported unchanged")
	}
	if !Unchanged(current, &domain.RunSource{Hash: "abc"}) {
		t.Error("identical hash reported changed")
	}
	if Unchanged(current, &domain.RunSource{Hash: "def"}) {
		t.Error("different hash reported unchanged")
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.ttl")
	if err := os.WriteFile(good, []byte(ttlBody), 0o644); err != nil {
		t.Fatal(err)
	}
	count, err := Validate(good)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if count != 1 {
		t.Errorf("subject count = %d, want 1", count)
	}

	// Parsable but carrying no known entity kinds.
	bad := filepath.Join(dir, "bad.ttl")
	noise := `<https://example.org/things/1> <http://schema.org/name> "Thing" .` + "\n"
	if err := os.WriteFile(bad, []byte(noise), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Validate(bad); err == nil {
		t.Error("entity-free file passed validation")
	}
}
