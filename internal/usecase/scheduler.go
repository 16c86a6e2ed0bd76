package usecase

import (
	"context"
	"time"

	"github.com/AdrianRomo/Influencer-Automation/internal/ports"
)

// Scheduler wires the interval driver with recurring pipeline passes.
type Scheduler struct {
	driver ports.Scheduler
	pass   func(ctx context.Context, trigger time.Time)
}

// NewScheduler returns a helper to start/stop recurring passes.
func NewScheduler(driver ports.Scheduler, pass func(ctx context.Context, trigger time.Time)) *Scheduler {
	return &Scheduler{driver: driver, pass: pass}
}

// Start registers the pass with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pass == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.pass(ctx, trigger)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
