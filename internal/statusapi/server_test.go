package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
	"github.com/KunevinnDokus/tourism-database-system/internal/orchestrator"
	"github.com/google/uuid"
)

type fakeStatus struct{}

func (fakeStatus) Status(ctx context.Context) *orchestrator.SystemStatus {
	return &orchestrator.SystemStatus{DatabaseHealthy: true}
}

type fakeHistory struct {
	runs map[uuid.UUID]domain.UpdateRun
}

func (f *fakeHistory) GetRun(ctx context.Context, runID uuid.UUID) (domain.UpdateRun, error) {
	run, ok := f.runs[runID]
	if !ok {
		return domain.UpdateRun{}, errors.New("update run not found")
	}
	return run, nil
}

func (f *fakeHistory) RecentRuns(ctx context.Context, days, limit int) ([]domain.UpdateRun, error) {
	var runs []domain.UpdateRun
	for _, run := range f.runs {
		runs = append(runs, run)
	}
	return runs, nil
}

func (f *fakeHistory) ChangesByRun(ctx context.Context, runID uuid.UUID) (map[string][]domain.ChangelogEntry, error) {
	return map[string][]domain.ChangelogEntry{
		"logies": {{Table: "logies", EntityID: "a", Operation: domain.OpInsert, RunID: runID}},
	}, nil
}

func testServer(history *fakeHistory) *httptest.Server {
	server := New(":0", fakeStatus{}, history)
	return httptest.NewServer(server.http.Handler)
}

func TestStatusEndpoint(t *testing.T) {
	ts := testServer(&fakeHistory{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var status orchestrator.SystemStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if !status.DatabaseHealthy {
		t.Error("healthy status lost in transit")
	}
}

func TestRunEndpoints(t *testing.T) {
	runID := uuid.New()
	history := &fakeHistory{runs: map[uuid.UUID]domain.UpdateRun{
		runID: {RunID: runID, StartedAt: time.Now(), Status: domain.RunStatusCompleted},
	}}
	ts := testServer(history)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/runs/" + runID.String())
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("existing run returned %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/runs/" + uuid.NewString())
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing run returned %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/runs/not-a-uuid")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad run id returned %d", resp.StatusCode)
	}
}

func TestRunChangesEndpoint(t *testing.T) {
	runID := uuid.New()
	ts := testServer(&fakeHistory{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/runs/" + runID.String() + "/changes")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var changes map[string][]domain.ChangelogEntry
	if err := json.NewDecoder(resp.Body).Decode(&changes); err != nil {
		t.Fatal(err)
	}
	if len(changes["logies"]) != 1 {
		t.Errorf("changes = %v", changes)
	}
}

func TestListRunsNeverReturnsNull(t *testing.T) {
	ts := testServer(&fakeHistory{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/runs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var runs []domain.UpdateRun
	if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
		t.Fatal(err)
	}
	if runs == nil {
		t.Error("empty history decoded as null")
	}
}
