package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"CodeNews/internal/engine"
	"CodeNews/internal/ports"
)

// Jobs wires the scheduler drivers with the pipeline use cases.
type Jobs struct {
	scanDriver   ports.Scheduler
	digestDriver ports.Scheduler
	pipeline     *Pipeline
	logger       *slog.Logger
}

// NewJobs returns a helper to start/stop the recurring scan and digest jobs.
func NewJobs(scanDriver, digestDriver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Jobs {
	return &Jobs{
		scanDriver:   scanDriver,
		digestDriver: digestDriver,
		pipeline:     pipeline,
		logger:       logger,
	}
}

// Start registers both jobs with their drivers.
func (j *Jobs) Start(ctx context.Context) error {
	if j.pipeline == nil {
		return nil
	}

	if j.scanDriver != nil {
		scan := func(trigger time.Time) {
			if err := j.pipeline.RunScan(ctx, trigger); err != nil {
				j.logger.Error("scan job failed", "error", err)
			}
		}
		if err := j.scanDriver.Start(ctx, scan); err != nil {
			return err
		}
	}

	if j.digestDriver != nil {
		publish := func(trigger time.Time) {
			_, err := j.pipeline.RunDigest(ctx, trigger, false)
			switch {
			case errors.Is(err, engine.ErrInsufficientContent):
				j.logger.Warn("digest deferred", "reason", err)
			case err != nil:
				j.logger.Error("digest job failed", "error", err)
			}
		}
		if err := j.digestDriver.Start(ctx, publish); err != nil {
			return err
		}
	}

	return nil
}

// Stop gracefully tears down both drivers.
func (j *Jobs) Stop(ctx context.Context) error {
	if j.scanDriver != nil {
		if err := j.scanDriver.Stop(ctx); err != nil {
			return err
		}
	}
	if j.digestDriver != nil {
		return j.digestDriver.Stop(ctx)
	}
	return nil
}
