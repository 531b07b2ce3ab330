// Package source downloads the published TTL export and decides whether
// it differs from what the last completed run ingested.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
	"github.com/KunevinnDokus/tourism-database-system/internal/ttl"
)

// ErrEmptyDownload is returned when the remote file exists but has no content.
var ErrEmptyDownload = errors.New("downloaded file is empty")

// Manager fetches source files with bounded retries.
type Manager struct {
	url        string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
}

// New builds a manager for one source URL. maxRetries counts attempts
// after the first, so maxRetries 2 means at most three downloads.
func New(url string, timeout time.Duration, maxRetries int, retryDelay time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if retryDelay <= 0 {
		retryDelay = 5 * time.Second
	}
	return &Manager{
		url:        url,
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// Fetch downloads the source file into dir and returns its local path and
// the source metadata (hash and size) for the run record. A partially
// written file is removed before each retry and on final failure.
func (m *Manager) Fetch(ctx context.Context, dir string) (string, domain.RunSource, error) {
	path := filepath.Join(dir, fmt.Sprintf("tourism-source-%d.ttl", time.Now().Unix()))

	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("source: retrying download (attempt %d/%d)", attempt+1, m.maxRetries+1)
			select {
			case <-ctx.Done():
				return "", domain.RunSource{}, ctx.Err()
			case <-time.After(m.retryDelay):
			}
		}

		src, err := m.downloadTo(ctx, path)
		if err == nil {
			log.Printf("source: downloaded %d bytes, sha256 %s", src.Size, src.Hash)
			return path, src, nil
		}
		lastErr = err
		_ = os.Remove(path)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}

	return "", domain.RunSource{}, fmt.Errorf("failed to download %s: %w", m.url, lastErr)
}

func (m *Manager) downloadTo(ctx context.Context, path string) (domain.RunSource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		return domain.RunSource{}, err
	}
	req.Header.Set("Accept", "text/turtle")

	resp, err := m.client.Do(req)
	if err != nil {
		return domain.RunSource{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.RunSource{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	out, err := os.Create(path)
	if err != nil {
		return domain.RunSource{}, fmt.Errorf("failed to create download file: %w", err)
	}

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(out, hasher), resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return domain.RunSource{}, fmt.Errorf("failed to write download: %w", err)
	}
	if size == 0 {
		return domain.RunSource{}, ErrEmptyDownload
	}

	return domain.RunSource{
		URL:  m.url,
		Hash: hex.EncodeToString(hasher.Sum(nil)),
		Size: size,
	}, nil
}

// Unchanged reports whether the fetched file is byte-identical to what
// the previous completed run ingested.
func Unchanged(current domain.RunSource, previous *domain.RunSource) bool {
	return previous != nil && previous.Hash != "" && previous.Hash == current.Hash
}

// Validate runs a cheap sanity check over a downloaded TTL file: it must
// parse and must carry at least one persistable entity. Returns the
// number of subjects seen.
func Validate(path string) (int, error) {
	subjects, err := ttl.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("source file failed validation: %w", err)
	}

	persistable := 0
	for _, subject := range subjects {
		kind := domain.Classify(subject.URI, subject.Types())
		if kind.Persisted() {
			persistable++
		}
	}
	if persistable == 0 {
		return len(subjects), fmt.Errorf("source file contains no known entities across %d subjects", len(subjects))
	}

	log.Printf("source: validated %d subjects, %d persistable", len(subjects), persistable)
	return len(subjects), nil
}

// Describe builds a short human-readable summary of source metadata for
// status output.
func Describe(src domain.RunSource) string {
	hash := src.Hash
	if len(hash) > 12 {
		hash = hash[:12]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d bytes", src.URL, src.Size)
	if hash != "" {
		fmt.Fprintf(&b, ", sha256 %s", hash)
	}
	b.WriteString(")")
	return b.String()
}
