package models

import (
	"sort"
	"time"
)

// EventKind identifies one recordable editor action
type EventKind string

const (
	EventFocusIn         EventKind = "FOCUS_IN"
	EventFocusOut        EventKind = "FOCUS_OUT"
	EventContentSnapshot EventKind = "CONTENT_SNAPSHOT"
	EventTyping          EventKind = "TYPING"
	EventDelete          EventKind = "DELETE"
	EventPaste           EventKind = "PASTE"
	EventCopy            EventKind = "COPY"
	EventSelectionChange EventKind = "SELECTION_CHANGE"
)

// Valid reports whether the kind belongs to the closed event vocabulary
func (k EventKind) Valid() bool {
	switch k {
	case EventFocusIn, EventFocusOut, EventContentSnapshot,
		EventTyping, EventDelete, EventPaste, EventCopy, EventSelectionChange:
		return true
	}
	return false
}

// IsFocus returns true for window focus transitions
func (k EventKind) IsFocus() bool {
	return k == EventFocusIn || k == EventFocusOut
}

// Event is one immutable record of an observed editor action.
//
// CursorStart, CursorEnd and Content are pointers because reconstruction
// branches on field presence: an absent content field is not the same as an
// empty document.
type Event struct {
	Seq         int64     `json:"seq"`
	Kind        EventKind `json:"kind"`
	Timestamp   time.Time `json:"timestamp"`
	CursorStart *int      `json:"cursor_start,omitempty"`
	CursorEnd   *int      `json:"cursor_end,omitempty"`
	Content     *string   `json:"content,omitempty"`
	WindowFocus bool      `json:"window_focus"`
}

// HasContent reports whether the content field was recorded at all
func (e *Event) HasContent() bool {
	return e.Content != nil
}

// SortEvents orders events by timestamp, ties broken by capture sequence.
// The sort is stable so equal (timestamp, seq) pairs keep insertion order.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Seq < events[j].Seq
		}
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}

// IntPtr is a convenience for populating optional cursor fields
func IntPtr(v int) *int { return &v }

// StringPtr is a convenience for populating the optional content field
func StringPtr(v string) *string { return &v }
