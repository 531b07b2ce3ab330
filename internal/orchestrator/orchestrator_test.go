package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
	"github.com/google/uuid"
)

type fakeAcquirer struct {
	src     domain.RunSource
	err     error
	fetched int
}

func (f *fakeAcquirer) Fetch(ctx context.Context, dir string) (string, domain.RunSource, error) {
	f.fetched++
	if f.err != nil {
		return "", domain.RunSource{}, f.err
	}
	path := filepath.Join(dir, "fixture.ttl")
	if err := os.WriteFile(path, []byte("fixture"), 0o644); err != nil {
		return "", domain.RunSource{}, err
	}
	return path, f.src, nil
}

type fakeDetector struct {
	result *domain.ChangeDetectionResult
	err    error
	calls  int
}

func (f *fakeDetector) DetectFromFile(ctx context.Context, ttlPath string) (*domain.ChangeDetectionResult, error) {
	f.calls++
	return f.result, f.err
}

type applyCall struct {
	runID  uuid.UUID
	dryRun bool
}

type fakeApplier struct {
	results map[bool]*domain.UpdateResult
	err     error
	calls   []applyCall
}

func (f *fakeApplier) Apply(ctx context.Context, runID uuid.UUID, detected *domain.ChangeDetectionResult, dryRun bool) (*domain.UpdateResult, error) {
	f.calls = append(f.calls, applyCall{runID: runID, dryRun: dryRun})
	if f.err != nil {
		return nil, f.err
	}
	if result, ok := f.results[dryRun]; ok {
		return result, nil
	}
	return &domain.UpdateResult{RunID: runID, Success: true, DryRun: dryRun}, nil
}

type completedRun struct {
	runID  uuid.UUID
	status domain.RunStatus
	counts domain.RunCounts
	errMsg string
}

type fakeLedger struct {
	lastSource *domain.RunSource
	created    []domain.RunSource
	completed  []completedRun
	nextRunID  uuid.UUID
}

func (f *fakeLedger) CreateRun(ctx context.Context, src domain.RunSource) (uuid.UUID, error) {
	f.created = append(f.created, src)
	if f.nextRunID == uuid.Nil {
		f.nextRunID = uuid.New()
	}
	return f.nextRunID, nil
}

func (f *fakeLedger) CompleteRun(ctx context.Context, runID uuid.UUID, status domain.RunStatus, counts domain.RunCounts, errorMessage string) error {
	f.completed = append(f.completed, completedRun{runID: runID, status: status, counts: counts, errMsg: errorMessage})
	return nil
}

func (f *fakeLedger) LastCompletedSource(ctx context.Context) (*domain.RunSource, error) {
	return f.lastSource, nil
}

func (f *fakeLedger) RecentRuns(ctx context.Context, days, limit int) ([]domain.UpdateRun, error) {
	return nil, nil
}

func detectionWithChanges(n int) *domain.ChangeDetectionResult {
	var changes []domain.EntityChange
	for i := 0; i < n; i++ {
		changes = append(changes, domain.EntityChange{
			EntityID:  uuid.NewString(),
			Operation: domain.OpInsert,
			NewValues: domain.Row{"id": uuid.NewString()},
		})
	}
	return &domain.ChangeDetectionResult{
		TotalChanges:   n,
		ChangesByTable: map[string][]domain.EntityChange{"logies": changes},
		Summary:        map[string]domain.OperationSummary{"logies": {domain.OpInsert: n}},
	}
}

func newTestOrchestrator(t *testing.T, acquirer *fakeAcquirer, det *fakeDetector, applier *fakeApplier, led *fakeLedger, opts Options) *Orchestrator {
	t.Helper()
	opts.WorkDir = t.TempDir()
	o := New(acquirer, det, applier, led, opts)
	o.validateFile = func(path string) (int, error) { return 1, nil }
	return o
}

func TestRunUpdateAppliesDetectedChanges(t *testing.T) {
	acquirer := &fakeAcquirer{src: domain.RunSource{URL: "https://example.org/x.ttl", Hash: "h1", Size: 7}}
	det := &fakeDetector{result: detectionWithChanges(2)}
	applier := &fakeApplier{results: map[bool]*domain.UpdateResult{
		false: {Success: true, RecordsProcessed: 2, RecordsApplied: 2,
			Summary: map[string]domain.OperationSummary{"logies": {domain.OpInsert: 2}}},
	}}
	led := &fakeLedger{}

	o := newTestOrchestrator(t, acquirer, det, applier, led, Options{})

	result, err := o.RunUpdate(context.Background(), false)
	if err != nil {
		t.Fatalf("RunUpdate: %v", err)
	}
	if result.Outcome != OutcomeCompleted {
		t.Errorf("outcome = %v", result.Outcome)
	}

	if len(applier.calls) != 1 || applier.calls[0].dryRun {
		t.Errorf("applier calls = %+v", applier.calls)
	}
	if applier.calls[0].runID != led.nextRunID {
		t.Error("run id was not threaded through to the applier")
	}

	if len(led.created) != 1 || led.created[0].Hash != "h1" {
		t.Errorf("created runs = %+v", led.created)
	}
	if len(led.completed) != 1 || led.completed[0].status != domain.RunStatusCompleted {
		t.Errorf("completed runs = %+v", led.completed)
	}
	if led.completed[0].counts.Added != 2 {
		t.Errorf("counts = %+v", led.completed[0].counts)
	}
}

func TestRunUpdateShortCircuitsUnchangedSource(t *testing.T) {
	acquirer := &fakeAcquirer{src: domain.RunSource{Hash: "same"}}
	det := &fakeDetector{result: detectionWithChanges(5)}
	applier := &fakeApplier{}
	led := &fakeLedger{lastSource: &domain.RunSource{Hash: "same"}}

	o := newTestOrchestrator(t, acquirer, det, applier, led, Options{})

	result, err := o.RunUpdate(context.Background(), false)
	if err != nil {
		t.Fatalf("RunUpdate: %v", err)
	}
	if result.Outcome != OutcomeNoChanges {
		t.Errorf("outcome = %v", result.Outcome)
	}
	if det.calls != 0 || len(applier.calls) != 0 || len(led.created) != 0 {
		t.Errorf("work happened despite unchanged source: detector=%d applier=%d runs=%d",
			det.calls, len(applier.calls), len(led.created))
	}
}

func TestRunUpdateForceOverridesShortCircuit(t *testing.T) {
	acquirer := &fakeAcquirer{src: domain.RunSource{Hash: "same"}}
	det := &fakeDetector{result: detectionWithChanges(1)}
	applier := &fakeApplier{}
	led := &fakeLedger{lastSource: &domain.RunSource{Hash: "same"}}

	o := newTestOrchestrator(t, acquirer, det, applier, led, Options{ForceUpdate: true})

	result, err := o.RunUpdate(context.Background(), false)
	if err != nil {
		t.Fatalf("RunUpdate: %v", err)
	}
	if result.Outcome != OutcomeCompleted || len(applier.calls) != 1 {
		t.Errorf("forced run did not apply: %v, %d calls", result.Outcome, len(applier.calls))
	}
}

func TestRunUpdateNoDetectedChanges(t *testing.T) {
	acquirer := &fakeAcquirer{src: domain.RunSource{Hash: "new"}}
	det := &fakeDetector{result: &domain.ChangeDetectionResult{}}
	applier := &fakeApplier{}
	led := &fakeLedger{}

	o := newTestOrchestrator(t, acquirer, det, applier, led, Options{})

	result, err := o.RunUpdate(context.Background(), false)
	if err != nil {
		t.Fatalf("RunUpdate: %v", err)
	}
	if result.Outcome != OutcomeNoChanges {
		t.Errorf("outcome = %v", result.Outcome)
	}
	if len(applier.calls) != 0 {
		t.Error("applier ran on an empty change set")
	}
	if len(led.completed) != 1 || led.completed[0].status != domain.RunStatusCompleted {
		t.Errorf("completed = %+v", led.completed)
	}
}

func TestRunUpdateDryRunOnly(t *testing.T) {
	acquirer := &fakeAcquirer{src: domain.RunSource{Hash: "new"}}
	det := &fakeDetector{result: detectionWithChanges(1)}
	applier := &fakeApplier{results: map[bool]*domain.UpdateResult{
		true: {Success: true, DryRun: true, RecordsProcessed: 1, RecordsApplied: 1,
			Summary: map[string]domain.OperationSummary{"logies": {domain.OpInsert: 1}}},
	}}
	led := &fakeLedger{}

	o := newTestOrchestrator(t, acquirer, det, applier, led, Options{})

	result, err := o.RunUpdate(context.Background(), true)
	if err != nil {
		t.Fatalf("RunUpdate: %v", err)
	}
	if result.Outcome != OutcomeDryRun {
		t.Errorf("outcome = %v", result.Outcome)
	}
	if len(applier.calls) != 1 || !applier.calls[0].dryRun {
		t.Errorf("applier calls = %+v", applier.calls)
	}
	if len(led.completed) != 1 || led.completed[0].status != domain.RunStatusDryRun {
		t.Errorf("completed = %+v", led.completed)
	}
}

func TestRunUpdateRehearsalFailureAbortsApply(t *testing.T) {
	acquirer := &fakeAcquirer{src: domain.RunSource{Hash: "new"}}
	det := &fakeDetector{result: detectionWithChanges(1)}
	applier := &fakeApplier{results: map[bool]*domain.UpdateResult{
		true: {Success: false, DryRun: true, RecordsProcessed: 1, RecordsFailed: 1},
	}}
	led := &fakeLedger{}

	o := newTestOrchestrator(t, acquirer, det, applier, led, Options{DryRunFirst: true})

	_, err := o.RunUpdate(context.Background(), false)
	if err == nil {
		t.Fatal("failed rehearsal did not abort the update")
	}
	if len(applier.calls) != 1 {
		t.Errorf("real apply ran after failed rehearsal: %+v", applier.calls)
	}
	if len(led.completed) != 1 || led.completed[0].status != domain.RunStatusFailed {
		t.Errorf("completed = %+v", led.completed)
	}
}

func TestRunUpdateDetectionFailureMarksRunFailed(t *testing.T) {
	acquirer := &fakeAcquirer{src: domain.RunSource{Hash: "new"}}
	det := &fakeDetector{err: errors.New("snapshot blew up")}
	led := &fakeLedger{}

	o := newTestOrchestrator(t, acquirer, det, &fakeApplier{}, led, Options{})

	_, err := o.RunUpdate(context.Background(), false)
	if err == nil {
		t.Fatal("detection failure not surfaced")
	}
	if len(led.completed) != 1 || led.completed[0].status != domain.RunStatusFailed {
		t.Errorf("completed = %+v", led.completed)
	}
}

func TestRunValidationRehearsesWithoutCommitting(t *testing.T) {
	acquirer := &fakeAcquirer{src: domain.RunSource{Hash: "new"}}
	det := &fakeDetector{result: detectionWithChanges(3)}
	applier := &fakeApplier{results: map[bool]*domain.UpdateResult{
		true: {Success: true, DryRun: true, RecordsProcessed: 3, RecordsApplied: 3,
			Summary: map[string]domain.OperationSummary{"logies": {domain.OpInsert: 3}}},
	}}
	led := &fakeLedger{}

	o := newTestOrchestrator(t, acquirer, det, applier, led, Options{})

	result, err := o.RunValidation(context.Background())
	if err != nil {
		t.Fatalf("RunValidation: %v", err)
	}
	if result.Outcome != OutcomeValidationOnly {
		t.Errorf("outcome = %v", result.Outcome)
	}
	if result.Detection.TotalChanges != 3 {
		t.Errorf("detection missing from result: %+v", result.Detection)
	}
	if result.DryRun == nil || !result.DryRun.Success {
		t.Errorf("rehearsal result = %+v", result.DryRun)
	}

	if len(applier.calls) != 1 || !applier.calls[0].dryRun {
		t.Errorf("applier calls = %+v", applier.calls)
	}
	if applier.calls[0].runID != led.nextRunID {
		t.Error("run id was not threaded through to the applier")
	}

	if len(led.created) != 1 {
		t.Fatalf("created runs = %+v", led.created)
	}
	if len(led.completed) != 1 || led.completed[0].status != domain.RunStatusDryRun {
		t.Errorf("completed = %+v", led.completed)
	}
	if led.completed[0].counts.Added != 3 {
		t.Errorf("counts = %+v", led.completed[0].counts)
	}
}

func TestRunValidationEmptyChangeSetSkipsRehearsal(t *testing.T) {
	acquirer := &fakeAcquirer{src: domain.RunSource{Hash: "new"}}
	det := &fakeDetector{result: &domain.ChangeDetectionResult{}}
	applier := &fakeApplier{}
	led := &fakeLedger{}

	o := newTestOrchestrator(t, acquirer, det, applier, led, Options{})

	result, err := o.RunValidation(context.Background())
	if err != nil {
		t.Fatalf("RunValidation: %v", err)
	}
	if result.Outcome != OutcomeValidationOnly {
		t.Errorf("outcome = %v", result.Outcome)
	}
	if len(applier.calls) != 0 {
		t.Error("applier ran on an empty change set")
	}
	if len(led.completed) != 1 || led.completed[0].status != domain.RunStatusDryRun {
		t.Errorf("completed = %+v", led.completed)
	}
}
