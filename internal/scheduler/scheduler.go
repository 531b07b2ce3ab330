// Package scheduler runs the update workflow on a cron cadence.
package scheduler

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// Runner is one scheduled job body.
type Runner func(ctx context.Context) error

// Scheduler owns the cron loop. Jobs never overlap: a tick that arrives
// while the previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	running chan struct{}
}

// New builds an idle scheduler.
func New() *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		running: make(chan struct{}, 1),
	}
}

// Add registers a job under a standard 5-field cron spec.
func (s *Scheduler) Add(spec, name string, run Runner) error {
	_, err := s.cron.AddFunc(spec, func() {
		select {
		case s.running <- struct{}{}:
		default:
			log.Printf("scheduler: skipping %s, previous run still in progress", name)
			return
		}
		defer func() { <-s.running }()

		log.Printf("scheduler: starting %s", name)
		if err := run(context.Background()); err != nil {
			log.Printf("scheduler: %s failed: %v", name, err)
			return
		}
		log.Printf("scheduler: %s finished", name)
	})
	return err
}

// Start begins firing jobs. Non-blocking.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
