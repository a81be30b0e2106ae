package usecase

import (
	"context"
	"log/slog"
	"time"

	"SynthForge/internal/ports"
)

// Runner wires the interval driver with the pipeline so pending questions
// are drained on a schedule.
type Runner struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	request  PendingRequest
	logger   *slog.Logger
}

// NewRunner returns a helper to start/stop recurring pipeline runs.
func NewRunner(driver ports.Scheduler, pipeline *Pipeline, request PendingRequest, logger *slog.Logger) *Runner {
	return &Runner{driver: driver, pipeline: pipeline, request: request, logger: logger}
}

// Start registers the pending-question drain with the provided scheduler.
func (r *Runner) Start(ctx context.Context) error {
	if r.driver == nil || r.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		result := r.pipeline.ProcessPending(ctx, r.request)
		if r.logger != nil {
			r.logger.Info("scheduled run finished",
				"trigger", trigger.Format(time.RFC3339),
				"status", string(result.Status),
				"approved", result.Summary.Stages.Approved)
		}
	}

	return r.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (r *Runner) Stop(ctx context.Context) error {
	if r.driver == nil {
		return nil
	}

	return r.driver.Stop(ctx)
}
