package capture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hireloop/interview-engine/internal/models"
)

// Sink receives drained event batches. Implementations must tolerate
// redelivery of the same batch: a flush whose error was transient may be
// retried with the same events.
type Sink interface {
	AppendEvents(ctx context.Context, submissionID string, events []models.Event) error
}

// BufferConfig controls batching behavior
type BufferConfig struct {
	// SnapshotInterval is the minimum spacing between recorded content
	// snapshots. Snapshots arriving sooner are dropped.
	SnapshotInterval time.Duration

	// MaxBatch forces a flush when the pending batch reaches this size
	MaxBatch int

	// Now overrides the time source (used in tests)
	Now func() time.Time
}

// Buffer accumulates one submission's events in memory and drains them to a
// sink in batches. Events carry a monotonic per-buffer sequence number, so a
// batch redelivered after a failed flush deduplicates at the sink.
type Buffer struct {
	submissionID     string
	sink             Sink
	snapshotInterval time.Duration
	maxBatch         int
	now              func() time.Time

	mu           sync.Mutex
	pending      []models.Event
	seq          int64
	lastSnapshot time.Time
}

// NewBuffer creates a buffer for a single submission
func NewBuffer(submissionID string, sink Sink, cfg BufferConfig) *Buffer {
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = time.Second
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = 100
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Buffer{
		submissionID:     submissionID,
		sink:             sink,
		snapshotInterval: cfg.SnapshotInterval,
		maxBatch:         cfg.MaxBatch,
		now:              cfg.Now,
	}
}

// SubmissionID returns the submission this buffer records for
func (b *Buffer) SubmissionID() string {
	return b.submissionID
}

// Record appends an event to the pending batch, stamping its timestamp and
// sequence number. Content snapshots are throttled: one arriving within
// SnapshotInterval of the previous recorded snapshot is dropped. When the
// batch reaches MaxBatch the buffer flushes synchronously.
func (b *Buffer) Record(ctx context.Context, ev models.Event) error {
	b.mu.Lock()

	now := b.now()

	if ev.Kind == models.EventContentSnapshot {
		if !b.lastSnapshot.IsZero() && now.Sub(b.lastSnapshot) < b.snapshotInterval {
			b.mu.Unlock()
			return nil
		}
		b.lastSnapshot = now
	}

	ev.Timestamp = now
	ev.Seq = b.seq
	b.seq++
	b.pending = append(b.pending, ev)

	full := len(b.pending) >= b.maxBatch
	b.mu.Unlock()

	if full {
		return b.Flush(ctx)
	}
	return nil
}

// RecordContentChange records a full-document snapshot, subject to the
// snapshot throttle
func (b *Buffer) RecordContentChange(ctx context.Context, content string, cursorStart, cursorEnd int) error {
	return b.Record(ctx, models.Event{
		Kind:        models.EventContentSnapshot,
		Content:     models.StringPtr(content),
		CursorStart: models.IntPtr(cursorStart),
		CursorEnd:   models.IntPtr(cursorEnd),
		WindowFocus: true,
	})
}

// RecordFocusChange records a window focus transition, never throttled
func (b *Buffer) RecordFocusChange(ctx context.Context, focused bool) error {
	kind := models.EventFocusOut
	if focused {
		kind = models.EventFocusIn
	}
	return b.Record(ctx, models.Event{Kind: kind, WindowFocus: focused})
}

// RecordTyping records inserted text as telemetry
func (b *Buffer) RecordTyping(ctx context.Context, text string, cursor int) error {
	return b.recordDelta(ctx, models.EventTyping, &text, cursor, cursor)
}

// RecordDelete records a deletion as telemetry
func (b *Buffer) RecordDelete(ctx context.Context, cursorStart, cursorEnd int) error {
	return b.recordDelta(ctx, models.EventDelete, nil, cursorStart, cursorEnd)
}

// RecordPaste records pasted text as telemetry
func (b *Buffer) RecordPaste(ctx context.Context, text string, cursor int) error {
	return b.recordDelta(ctx, models.EventPaste, &text, cursor, cursor)
}

// RecordCopy records a copy of the selected range as telemetry
func (b *Buffer) RecordCopy(ctx context.Context, cursorStart, cursorEnd int) error {
	return b.recordDelta(ctx, models.EventCopy, nil, cursorStart, cursorEnd)
}

// RecordSelectionChange records a cursor or selection move as telemetry
func (b *Buffer) RecordSelectionChange(ctx context.Context, cursorStart, cursorEnd int) error {
	return b.recordDelta(ctx, models.EventSelectionChange, nil, cursorStart, cursorEnd)
}

func (b *Buffer) recordDelta(ctx context.Context, kind models.EventKind, content *string, cursorStart, cursorEnd int) error {
	return b.Record(ctx, models.Event{
		Kind:        kind,
		Content:     content,
		CursorStart: models.IntPtr(cursorStart),
		CursorEnd:   models.IntPtr(cursorEnd),
		WindowFocus: true,
	})
}

// Len returns the number of pending events
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Flush drains the pending batch to the sink. On failure the batch is placed
// back at the front of the buffer so event order survives the retry.
func (b *Buffer) Flush(ctx context.Context) error {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return nil
	}
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	if err := b.sink.AppendEvents(ctx, b.submissionID, batch); err != nil {
		b.mu.Lock()
		b.pending = append(batch, b.pending...)
		b.mu.Unlock()

		slog.Warn("event flush failed, batch retained",
			"submission_id", b.submissionID,
			"batch_size", len(batch),
			"error", err)
		return err
	}

	return nil
}
