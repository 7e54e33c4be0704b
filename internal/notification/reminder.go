// Package notification holds the SLA reminder scaffolding. Reminders are a
// stub: stalled workflows are detected and logged, nothing is sent.
package notification

import (
	"context"
	"time"

	"github.com/billerops/onboarding-workflow/internal/repository"
	"go.uber.org/zap"
)

// Reminder periodically scans for in-progress workflows that have not moved
// within the stall window.
type Reminder struct {
	workflows    *repository.WorkflowRepository
	scanInterval time.Duration
	stallAfter   time.Duration
	logger       *zap.Logger
}

// NewReminder creates a reminder scanner.
func NewReminder(workflows *repository.WorkflowRepository, scanInterval, stallAfter time.Duration, logger *zap.Logger) *Reminder {
	return &Reminder{
		workflows:    workflows,
		scanInterval: scanInterval,
		stallAfter:   stallAfter,
		logger:       logger,
	}
}

// Run scans on the configured interval until the context is cancelled.
func (r *Reminder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.scanInterval)
	defer ticker.Stop()

	r.logger.Info("SLA reminder scanner started",
		zap.Duration("scan_interval", r.scanInterval),
		zap.Duration("stall_after", r.stallAfter))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("SLA reminder scanner stopped")
			return
		case <-ticker.C:
			r.scan()
		}
	}
}

func (r *Reminder) scan() {
	cutoff := time.Now().Add(-r.stallAfter)
	count, err := r.workflows.CountStalled(cutoff)
	if err != nil {
		r.logger.Error("SLA scan failed", zap.Error(err))
		return
	}
	if count == 0 {
		return
	}
	// TODO: send reminder notifications once an outbound channel is chosen.
	r.logger.Warn("Stalled workflows detected",
		zap.Int("count", count),
		zap.Time("cutoff", cutoff))
}
