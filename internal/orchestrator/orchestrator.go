// Package orchestrator drives the full update workflow: acquire the
// source file, detect changes against the live database, optionally
// rehearse with a dry run, apply, and finalize the run record.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
	"github.com/KunevinnDokus/tourism-database-system/internal/source"
	"github.com/google/uuid"
)

// Phase names one workflow stage, recorded in order on the result.
type Phase string

const (
	PhaseAcquisition Phase = "acquisition"
	PhaseDetection   Phase = "detection"
	PhaseDryRun      Phase = "dry_run"
	PhaseApply       Phase = "apply"
	PhaseFinalize    Phase = "finalize"
)

// Outcome is the workflow-level verdict, distinct from the run status:
// a workflow can finish without ever opening a run.
type Outcome string

const (
	OutcomeCompleted      Outcome = "completed"
	OutcomeNoChanges      Outcome = "no_changes"
	OutcomeDryRun         Outcome = "dry_run"
	OutcomeValidationOnly Outcome = "validation_only"
	OutcomeFailed         Outcome = "failed"
)

// Acquirer fetches the source file and its metadata.
type Acquirer interface {
	Fetch(ctx context.Context, dir string) (string, domain.RunSource, error)
}

// Detector compares a source file against the live database.
type Detector interface {
	DetectFromFile(ctx context.Context, ttlPath string) (*domain.ChangeDetectionResult, error)
}

// Applier executes a change set under an explicit run id.
type Applier interface {
	Apply(ctx context.Context, runID uuid.UUID, detected *domain.ChangeDetectionResult, dryRun bool) (*domain.UpdateResult, error)
}

// RunLedger is the bookkeeping surface the workflow needs.
type RunLedger interface {
	CreateRun(ctx context.Context, src domain.RunSource) (uuid.UUID, error)
	CompleteRun(ctx context.Context, runID uuid.UUID, status domain.RunStatus, counts domain.RunCounts, errorMessage string) error
	LastCompletedSource(ctx context.Context) (*domain.RunSource, error)
	RecentRuns(ctx context.Context, days, limit int) ([]domain.UpdateRun, error)
}

// Options tune workflow behavior without touching the wiring.
type Options struct {
	// WorkDir receives downloaded source files; defaults to the OS temp dir.
	WorkDir string
	// DryRunFirst rehearses the apply and aborts if the rehearsal fails.
	DryRunFirst bool
	// ForceUpdate skips the unchanged-source short circuit.
	ForceUpdate bool
}

// Result is the workflow outcome handed to callers and the CLI.
type Result struct {
	Outcome   Outcome
	RunID     uuid.UUID
	Source    domain.RunSource
	Detection *domain.ChangeDetectionResult
	DryRun    *domain.UpdateResult
	Apply     *domain.UpdateResult
	Phases    []Phase
	Error     string
	Duration  time.Duration
}

// Orchestrator wires the workflow stages together.
type Orchestrator struct {
	source   Acquirer
	detector Detector
	applier  Applier
	ledger   RunLedger
	opts     Options

	// validateFile is swappable for tests; defaults to source.Validate.
	validateFile func(path string) (int, error)
}

// New builds an orchestrator from its stage implementations.
func New(acquirer Acquirer, detector Detector, applier Applier, runLedger RunLedger, opts Options) *Orchestrator {
	if opts.WorkDir == "" {
		opts.WorkDir = os.TempDir()
	}
	return &Orchestrator{
		source:       acquirer,
		detector:     detector,
		applier:      applier,
		ledger:       runLedger,
		opts:         opts,
		validateFile: source.Validate,
	}
}

// RunUpdate executes the full workflow. With dryRunOnly set the apply
// phase runs as a rehearsal and the run is recorded as DRY_RUN.
func (o *Orchestrator) RunUpdate(ctx context.Context, dryRunOnly bool) (*Result, error) {
	started := time.Now()
	result := &Result{Outcome: OutcomeFailed}
	defer func() { result.Duration = time.Since(started) }()

	path, src, err := o.acquire(ctx, result)
	if err != nil {
		return result, err
	}
	defer os.Remove(path)
	result.Source = src

	if !o.opts.ForceUpdate {
		previous, err := o.ledger.LastCompletedSource(ctx)
		if err != nil {
			result.Error = err.Error()
			return result, err
		}
		if source.Unchanged(src, previous) {
			log.Printf("orchestrator: source unchanged since last completed run, nothing to do")
			result.Outcome = OutcomeNoChanges
			return result, nil
		}
	}

	runID, err := o.ledger.CreateRun(ctx, src)
	if err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("failed to open run record: %w", err)
	}
	result.RunID = runID

	detection, err := o.detect(ctx, path, result)
	if err != nil {
		o.finalize(ctx, result, runID, domain.RunStatusFailed, domain.RunCounts{}, err.Error())
		return result, err
	}
	result.Detection = detection

	if !detection.HasChanges() {
		log.Printf("orchestrator: no changes detected across %d tables", len(domain.CoreTables))
		o.finalize(ctx, result, runID, domain.RunStatusCompleted, domain.RunCounts{}, "")
		result.Outcome = OutcomeNoChanges
		return result, nil
	}
	log.Printf("orchestrator: detected %d changes", detection.TotalChanges)

	if dryRunOnly || o.opts.DryRunFirst {
		result.Phases = append(result.Phases, PhaseDryRun)
		rehearsal, err := o.applier.Apply(ctx, runID, detection, true)
		result.DryRun = rehearsal
		if err != nil {
			o.finalize(ctx, result, runID, domain.RunStatusFailed, domain.RunCounts{}, err.Error())
			return result, fmt.Errorf("dry run failed: %w", err)
		}
		if dryRunOnly {
			o.finalize(ctx, result, runID, domain.RunStatusDryRun, rehearsal.Counts(), "")
			result.Outcome = OutcomeDryRun
			return result, nil
		}
		if !rehearsal.Success {
			msg := fmt.Sprintf("dry run reported %d failed records", rehearsal.RecordsFailed)
			o.finalize(ctx, result, runID, domain.RunStatusFailed, domain.RunCounts{}, msg)
			return result, fmt.Errorf("aborting apply: %s", msg)
		}
	}

	result.Phases = append(result.Phases, PhaseApply)
	applied, err := o.applier.Apply(ctx, runID, detection, false)
	result.Apply = applied
	if err != nil {
		o.finalize(ctx, result, runID, domain.RunStatusFailed, domain.RunCounts{}, err.Error())
		return result, fmt.Errorf("apply failed: %w", err)
	}

	status := domain.RunStatusCompleted
	errMsg := ""
	if !applied.Success {
		status = domain.RunStatusFailed
		errMsg = fmt.Sprintf("%d of %d records failed", applied.RecordsFailed, applied.RecordsProcessed)
	}
	o.finalize(ctx, result, runID, status, applied.Counts(), errMsg)

	if applied.Success {
		result.Outcome = OutcomeCompleted
		return result, nil
	}
	result.Error = errMsg
	return result, fmt.Errorf("update run %s: %s", runID, errMsg)
}

// RunValidation acquires the source, detects changes and rehearses the
// apply as a dry run, rolling every statement back. The run record is
// kept and finalized as DRY_RUN so validation attempts show up in the
// history; no production row survives the rehearsal.
func (o *Orchestrator) RunValidation(ctx context.Context) (*Result, error) {
	started := time.Now()
	result := &Result{Outcome: OutcomeFailed}
	defer func() { result.Duration = time.Since(started) }()

	path, src, err := o.acquire(ctx, result)
	if err != nil {
		return result, err
	}
	defer os.Remove(path)
	result.Source = src

	runID, err := o.ledger.CreateRun(ctx, src)
	if err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("failed to open run record: %w", err)
	}
	result.RunID = runID

	detection, err := o.detect(ctx, path, result)
	if err != nil {
		o.finalize(ctx, result, runID, domain.RunStatusFailed, domain.RunCounts{}, err.Error())
		return result, err
	}
	result.Detection = detection

	if !detection.HasChanges() {
		log.Printf("orchestrator: validation found no changes")
		o.finalize(ctx, result, runID, domain.RunStatusDryRun, domain.RunCounts{}, "")
		result.Outcome = OutcomeValidationOnly
		return result, nil
	}

	result.Phases = append(result.Phases, PhaseDryRun)
	rehearsal, err := o.applier.Apply(ctx, runID, detection, true)
	result.DryRun = rehearsal
	if err != nil {
		o.finalize(ctx, result, runID, domain.RunStatusFailed, domain.RunCounts{}, err.Error())
		return result, fmt.Errorf("dry run failed: %w", err)
	}

	o.finalize(ctx, result, runID, domain.RunStatusDryRun, rehearsal.Counts(), "")
	result.Outcome = OutcomeValidationOnly
	return result, nil
}

func (o *Orchestrator) acquire(ctx context.Context, result *Result) (string, domain.RunSource, error) {
	result.Phases = append(result.Phases, PhaseAcquisition)

	path, src, err := o.source.Fetch(ctx, o.opts.WorkDir)
	if err != nil {
		result.Error = err.Error()
		return "", domain.RunSource{}, err
	}

	if _, err := o.validateFile(path); err != nil {
		os.Remove(path)
		result.Error = err.Error()
		return "", domain.RunSource{}, err
	}
	return path, src, nil
}

func (o *Orchestrator) detect(ctx context.Context, path string, result *Result) (*domain.ChangeDetectionResult, error) {
	result.Phases = append(result.Phases, PhaseDetection)

	detection, err := o.detector.DetectFromFile(ctx, path)
	if err != nil {
		result.Error = err.Error()
		return nil, fmt.Errorf("change detection failed: %w", err)
	}
	return detection, nil
}

// finalize closes the run record. A bookkeeping failure here is logged
// rather than surfaced: the data outcome already happened.
func (o *Orchestrator) finalize(ctx context.Context, result *Result, runID uuid.UUID, status domain.RunStatus, counts domain.RunCounts, errMsg string) {
	result.Phases = append(result.Phases, PhaseFinalize)
	if err := o.ledger.CompleteRun(ctx, runID, status, counts, errMsg); err != nil {
		log.Printf("orchestrator: failed to finalize run %s: %v", runID, err)
	}
	if errMsg != "" {
		result.Error = errMsg
	}
}
