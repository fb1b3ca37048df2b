package replay

import (
	"time"

	"github.com/hireloop/interview-engine/internal/models"
)

// State is the reconstructed editor state at one playback offset
type State struct {
	Content         string `json:"content"`
	CursorStart     int    `json:"cursor_start"`
	CursorEnd       int    `json:"cursor_end"`
	Focused         bool   `json:"focused"`
	FinalSubmission bool   `json:"final_submission"`
}

// FocusStats summarizes window focus behavior over a timeline
type FocusStats struct {
	Blurs          int     `json:"blurs"`
	TotalAwayMs    int64   `json:"total_away_ms"`
	FocusedPercent float64 `json:"focused_percent"`
}

// Timeline is an ordered, immutable view over a submission's events,
// addressed by millisecond offsets from the first event.
type Timeline struct {
	events []models.Event
	start  time.Time
}

// BuildTimeline sorts the events by (timestamp, seq) and wraps them in a
// timeline. The input slice is not modified.
func BuildTimeline(events []models.Event) *Timeline {
	sorted := make([]models.Event, len(events))
	copy(sorted, events)
	models.SortEvents(sorted)

	t := &Timeline{events: sorted}
	if len(sorted) > 0 {
		t.start = sorted[0].Timestamp
	}
	return t
}

// Len returns the number of events
func (t *Timeline) Len() int {
	return len(t.events)
}

// Events returns the ordered events
func (t *Timeline) Events() []models.Event {
	return t.events
}

// Duration returns the span in milliseconds from the first event to the
// last. Empty and single-event timelines have zero duration.
func (t *Timeline) Duration() int64 {
	if len(t.events) < 2 {
		return 0
	}
	d := t.events[len(t.events)-1].Timestamp.Sub(t.start).Milliseconds()
	if d < 0 {
		return 0
	}
	return d
}

// OffsetOf returns the millisecond offset of event i from the first event
func (t *Timeline) OffsetOf(i int) int64 {
	return t.events[i].Timestamp.Sub(t.start).Milliseconds()
}

// StateAt reconstructs the editor state at the given offset.
//
// Content comes from the latest well-formed snapshot at or before the
// offset. Focus comes from the latest focus transition at or before the
// offset, defaulting to focused. When the offset is at or past the end of
// the timeline the submission's stored final content is authoritative,
// covering events lost between the last flush and submit.
func (t *Timeline) StateAt(offsetMs int64, finalContent string) State {
	state := State{Focused: true}

	if len(t.events) == 0 {
		state.Content = finalContent
		state.CursorStart = len(finalContent)
		state.CursorEnd = len(finalContent)
		state.FinalSubmission = true
		return state
	}

	if offsetMs < 0 {
		offsetMs = 0
	}

	cutoff := t.start.Add(time.Duration(offsetMs) * time.Millisecond)

	foundSnapshot := false
	foundFocus := false

	for i := len(t.events) - 1; i >= 0; i-- {
		ev := &t.events[i]
		if ev.Timestamp.After(cutoff) {
			continue
		}

		if !foundSnapshot && ev.Kind == models.EventContentSnapshot && ev.HasContent() {
			state.Content = *ev.Content
			if ev.CursorStart != nil {
				state.CursorStart = *ev.CursorStart
			}
			if ev.CursorEnd != nil {
				state.CursorEnd = *ev.CursorEnd
			}
			foundSnapshot = true
		}

		if !foundFocus && ev.Kind.IsFocus() {
			state.Focused = ev.Kind == models.EventFocusIn
			foundFocus = true
		}

		if foundSnapshot && foundFocus {
			break
		}
	}

	if offsetMs >= t.Duration() {
		state.Content = finalContent
		state.CursorStart = len(finalContent)
		state.CursorEnd = len(finalContent)
		state.FinalSubmission = true
	}

	return state
}

// FocusStats walks the timeline counting focus-out intervals. An interval
// still open at the last event is closed against the end of the timeline.
func (t *Timeline) FocusStats() FocusStats {
	var stats FocusStats
	var awayStart *time.Time

	for i := range t.events {
		ev := &t.events[i]
		switch ev.Kind {
		case models.EventFocusOut:
			if awayStart == nil {
				ts := ev.Timestamp
				awayStart = &ts
				stats.Blurs++
			}
		case models.EventFocusIn:
			if awayStart != nil {
				stats.TotalAwayMs += ev.Timestamp.Sub(*awayStart).Milliseconds()
				awayStart = nil
			}
		}
	}

	if awayStart != nil && len(t.events) > 0 {
		end := t.events[len(t.events)-1].Timestamp
		stats.TotalAwayMs += end.Sub(*awayStart).Milliseconds()
	}

	if d := t.Duration(); d > 0 {
		stats.FocusedPercent = 100 * float64(d-stats.TotalAwayMs) / float64(d)
	} else {
		stats.FocusedPercent = 100
	}

	return stats
}
