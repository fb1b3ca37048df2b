package capture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hireloop/interview-engine/internal/models"
)

// RecorderConfig controls the recorder and the buffers it creates
type RecorderConfig struct {
	SnapshotInterval time.Duration
	AutoSaveInterval time.Duration
	MaxBatch         int
	Now              func() time.Time
}

// Recorder owns one capture buffer per active submission and flushes them on
// a fixed interval so a crash loses at most one interval of events.
type Recorder struct {
	sink     Sink
	cfg      RecorderConfig
	interval time.Duration

	mu      sync.Mutex
	buffers map[string]*Buffer

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewRecorder creates a recorder draining to the given sink
func NewRecorder(sink Sink, cfg RecorderConfig) *Recorder {
	if cfg.AutoSaveInterval <= 0 {
		cfg.AutoSaveInterval = 5 * time.Second
	}

	return &Recorder{
		sink:     sink,
		cfg:      cfg,
		interval: cfg.AutoSaveInterval,
		buffers:  make(map[string]*Buffer),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the periodic flush loop
func (r *Recorder) Start(ctx context.Context) {
	slog.Info("capture recorder started", "auto_save_interval", r.interval)

	go func() {
		defer close(r.doneCh)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.FlushAll(ctx)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Buffer returns the buffer for a submission, creating it if needed
func (r *Recorder) Buffer(submissionID string) *Buffer {
	r.mu.Lock()
	defer r.mu.Unlock()

	buf, ok := r.buffers[submissionID]
	if !ok {
		buf = NewBuffer(submissionID, r.sink, BufferConfig{
			SnapshotInterval: r.cfg.SnapshotInterval,
			MaxBatch:         r.cfg.MaxBatch,
			Now:              r.cfg.Now,
		})
		r.buffers[submissionID] = buf
	}
	return buf
}

// Record routes an event to the submission's buffer
func (r *Recorder) Record(ctx context.Context, submissionID string, ev models.Event) error {
	return r.Buffer(submissionID).Record(ctx, ev)
}

// Release flushes a submission's buffer one last time and forgets it.
// Called when the submission is turned in.
func (r *Recorder) Release(ctx context.Context, submissionID string) error {
	r.mu.Lock()
	buf, ok := r.buffers[submissionID]
	if ok {
		delete(r.buffers, submissionID)
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return buf.Flush(ctx)
}

// FlushAll flushes every active buffer. Failed buffers keep their events and
// are retried on the next interval.
func (r *Recorder) FlushAll(ctx context.Context) {
	r.mu.Lock()
	buffers := make([]*Buffer, 0, len(r.buffers))
	for _, buf := range r.buffers {
		buffers = append(buffers, buf)
	}
	r.mu.Unlock()

	for _, buf := range buffers {
		if err := buf.Flush(ctx); err != nil {
			slog.Warn("periodic flush failed",
				"submission_id", buf.SubmissionID(),
				"error", err)
		}
	}
}

// Close stops the flush loop and drains all remaining buffers
func (r *Recorder) Close(ctx context.Context) {
	close(r.stopCh)
	<-r.doneCh

	r.FlushAll(ctx)
	slog.Info("capture recorder stopped")
}
