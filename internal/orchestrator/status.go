package orchestrator

import (
	"context"

	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
)

// SystemStatus is a point-in-time health snapshot for the status command
// and the HTTP status endpoint.
type SystemStatus struct {
	DatabaseHealthy bool
	DatabaseError   string
	LastRun         *domain.UpdateRun
	RecentRuns      []domain.UpdateRun
}

// Status reports ledger reachability and recent run history. Database
// health is judged by whether the run query itself succeeds.
func (o *Orchestrator) Status(ctx context.Context) *SystemStatus {
	status := &SystemStatus{}

	runs, err := o.ledger.RecentRuns(ctx, 30, 10)
	if err != nil {
		status.DatabaseError = err.Error()
		return status
	}

	status.DatabaseHealthy = true
	status.RecentRuns = runs
	if len(runs) > 0 {
		status.LastRun = &runs[0]
	}
	return status
}
