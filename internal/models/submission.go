package models

import (
	"time"
)

// SubmissionStatus represents the lifecycle state of a candidate's attempt
type SubmissionStatus string

const (
	SubmissionNotStarted  SubmissionStatus = "NOT_STARTED" // invited, nothing written yet
	SubmissionInProgress  SubmissionStatus = "IN_PROGRESS" // first content write happened
	SubmissionSubmitted   SubmissionStatus = "SUBMITTED"   // explicit or time-up submit
	SubmissionUnderReview SubmissionStatus = "UNDER_REVIEW"
	SubmissionAccepted    SubmissionStatus = "ACCEPTED"
	SubmissionRejected    SubmissionStatus = "REJECTED"
)

// IsTerminal returns true once the attempt is submitted: content is frozen
// and no further events may be appended.
func (s SubmissionStatus) IsTerminal() bool {
	switch s {
	case SubmissionSubmitted, SubmissionUnderReview, SubmissionAccepted, SubmissionRejected:
		return true
	}
	return false
}

// Valid reports whether the status is a known lifecycle state
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionNotStarted, SubmissionInProgress, SubmissionSubmitted,
		SubmissionUnderReview, SubmissionAccepted, SubmissionRejected:
		return true
	}
	return false
}

// Submission is one candidate's single attempt at one challenge.
// Content holds the authoritative latest document; after submit it is the
// ground truth for playback beyond the recorded timeline.
type Submission struct {
	ID             string           `json:"id"`
	CandidateID    string           `json:"candidate_id"`
	ChallengeID    string           `json:"challenge_id"`
	Content        string           `json:"content"`
	Status         SubmissionStatus `json:"status"`
	ReviewerID     string           `json:"reviewer_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	StartedAt      *time.Time       `json:"started_at,omitempty"`
	SubmittedAt    *time.Time       `json:"submitted_at,omitempty"`
	ReviewedAt     *time.Time       `json:"reviewed_at,omitempty"`
	TotalTimeSpent int              `json:"total_time_spent"` // focus-seconds
}

// SubmissionFilters defines filters for listing submissions
type SubmissionFilters struct {
	OrganizationID string
	ChallengeID    string
	Status         SubmissionStatus
	Limit          int
	Offset         int
}

// Comment is reviewer feedback attached to a submission
type Comment struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	AuthorID     string    `json:"author_id"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
