package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/hireloop/interview-engine/internal/models"
)

// Submitter turns in a submission on the candidate's behalf
type Submitter interface {
	Submit(ctx context.Context, submissionID string) (*models.Submission, error)
}

// OverdueLister finds in-progress submissions whose time limit has elapsed
type OverdueLister interface {
	GetOverdueSubmissions(ctx context.Context) ([]*models.Submission, error)
}

// Worker periodically turns in submissions whose challenge time limit has
// elapsed, so candidates who walk away still produce reviewable attempts.
type Worker struct {
	repo      OverdueLister
	submitter Submitter
	interval  time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewWorker creates an overdue-submission worker
func NewWorker(repo OverdueLister, submitter Submitter, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = time.Minute
	}

	return &Worker{
		repo:      repo,
		submitter: submitter,
		interval:  interval,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the worker loop
func (w *Worker) Start(ctx context.Context) {
	slog.Info("overdue submission worker started", "interval", w.interval)

	go func() {
		defer close(w.doneCh)

		// First pass immediately, then on the interval
		w.runOnce(ctx)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.runOnce(ctx)
			case <-w.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop shuts down the worker loop
func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.doneCh
	slog.Info("overdue submission worker stopped")
}

// runOnce finds overdue in-progress submissions and turns each one in
func (w *Worker) runOnce(ctx context.Context) {
	overdue, err := w.repo.GetOverdueSubmissions(ctx)
	if err != nil {
		slog.Error("failed to list overdue submissions", "error", err)
		return
	}

	for _, sub := range overdue {
		if _, err := w.submitter.Submit(ctx, sub.ID); err != nil {
			slog.Error("failed to auto-submit overdue attempt",
				"submission_id", sub.ID,
				"error", err)
			continue
		}

		slog.Info("overdue attempt auto-submitted",
			"submission_id", sub.ID,
			"candidate_id", sub.CandidateID)
	}
}
