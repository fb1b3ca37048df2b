package interview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hireloop/interview-engine/internal/capture"
	"github.com/hireloop/interview-engine/internal/challenges"
	"github.com/hireloop/interview-engine/internal/config"
	"github.com/hireloop/interview-engine/internal/models"
	"github.com/hireloop/interview-engine/internal/presence"
	"github.com/hireloop/interview-engine/internal/replay"
	"github.com/hireloop/interview-engine/internal/storage"
)

// PresenceStore records live candidate activity
type PresenceStore interface {
	Heartbeat(ctx context.Context, submissionID string, typing bool) error
	Get(ctx context.Context, submissionID string) (*presence.Activity, error)
}

// Summary describes a submission's recorded timeline for the review UI
type Summary struct {
	EventCount       int               `json:"event_count"`
	EventsDurationMs int64             `json:"events_duration_ms"`
	TotalDurationMs  int64             `json:"total_duration_ms"`
	Focus            replay.FocusStats `json:"focus"`
	Speeds           []float64         `json:"speeds"`
}

// Service orchestrates the interview lifecycle: challenges, invites, the
// candidate's working session with event capture, and reviewer playback.
type Service struct {
	repo     storage.Repository
	recorder *capture.Recorder
	presence PresenceStore
	library  *challenges.Library
	cfg      *config.Config
	now      func() time.Time
}

// NewService creates the interview service. The presence store may be nil,
// in which case heartbeats only touch the submission lifecycle.
func NewService(repo storage.Repository, recorder *capture.Recorder, pres PresenceStore, library *challenges.Library, cfg *config.Config) *Service {
	return &Service{
		repo:     repo,
		recorder: recorder,
		presence: pres,
		library:  library,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithNow overrides the service time source (used in tests)
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// --- Challenges ---

// CreateChallenge creates a challenge, optionally seeded from a library
// template. Request fields override template fields.
func (s *Service) CreateChallenge(ctx context.Context, organizationID string, req *models.CreateChallengeRequest) (*models.Challenge, error) {
	ch := &models.Challenge{
		ID:             uuid.New().String(),
		OrganizationID: organizationID,
		Title:          req.Title,
		Instructions:   req.Instructions,
		Language:       req.Language,
		StarterCode:    req.StarterCode,
		TimeLimit:      req.TimeLimit,
		Status:         models.ChallengeActive,
		CreatedAt:      s.now(),
	}

	if req.Template != "" {
		tmpl := s.library.Get(req.Template)
		if tmpl == nil {
			return nil, ErrTemplateNotFound
		}
		if ch.Title == "" {
			ch.Title = tmpl.Title
		}
		if ch.Instructions == "" {
			ch.Instructions = tmpl.Instructions
		}
		if ch.Language == "" {
			ch.Language = tmpl.Language
		}
		if ch.StarterCode == "" {
			ch.StarterCode = tmpl.StarterCode
		}
		if ch.TimeLimit == 0 {
			ch.TimeLimit = tmpl.TimeLimit
		}
	}

	if ch.Title == "" {
		return nil, fmt.Errorf("challenge title is required")
	}
	if ch.TimeLimit < 0 {
		return nil, fmt.Errorf("time limit must not be negative")
	}

	if err := s.repo.CreateChallenge(ctx, ch); err != nil {
		return nil, err
	}

	slog.Info("challenge created", "challenge_id", ch.ID, "title", ch.Title, "organization_id", organizationID)
	return ch, nil
}

// GetChallenge returns a challenge owned by the organization
func (s *Service) GetChallenge(ctx context.Context, organizationID, id string) (*models.Challenge, error) {
	ch, err := s.repo.GetChallenge(ctx, id)
	if err != nil {
		return nil, err
	}
	if ch == nil || ch.OrganizationID != organizationID {
		return nil, ErrChallengeNotFound
	}
	return ch, nil
}

// ListChallenges returns the organization's challenges
func (s *Service) ListChallenges(ctx context.Context, organizationID string, limit, offset int) ([]*models.Challenge, error) {
	return s.repo.ListChallenges(ctx, organizationID, limit, offset)
}

// ListTemplates returns the loaded challenge library
func (s *Service) ListTemplates() []*models.Template {
	return s.library.List()
}

// --- Invites ---

// InviteCandidate creates a candidate with a fresh invite token and an
// empty submission seeded with the challenge's starter code
func (s *Service) InviteCandidate(ctx context.Context, organizationID, challengeID string, req *models.InviteRequest) (*models.InviteResponse, error) {
	ch, err := s.GetChallenge(ctx, organizationID, challengeID)
	if err != nil {
		return nil, err
	}

	if req.Name == "" || req.Email == "" {
		return nil, fmt.Errorf("candidate name and email are required")
	}

	token, err := models.GenerateInviteToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite token: %w", err)
	}

	now := s.now()
	candidate := &models.Candidate{
		ID:          uuid.New().String(),
		ChallengeID: ch.ID,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Position:    req.Position,
		Token:       token,
		CreatedAt:   now,
	}

	if err := s.repo.CreateCandidate(ctx, candidate); err != nil {
		return nil, err
	}

	submission := &models.Submission{
		ID:          uuid.New().String(),
		CandidateID: candidate.ID,
		ChallengeID: ch.ID,
		Content:     ch.StarterCode,
		Status:      models.SubmissionNotStarted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateSubmission(ctx, submission); err != nil {
		return nil, err
	}

	slog.Info("candidate invited",
		"candidate_id", candidate.ID,
		"challenge_id", ch.ID,
		"submission_id", submission.ID)

	return &models.InviteResponse{
		Candidate:    candidate,
		SubmissionID: submission.ID,
		InviteURL:    s.inviteURL(token),
	}, nil
}

func (s *Service) inviteURL(token string) string {
	base := strings.TrimSuffix(s.cfg.Server.PublicBaseURL, "/")
	return fmt.Sprintf("%s/challenge/%s", base, token)
}

// GetSessionByToken resolves an invite token to the candidate's working
// session: candidate, challenge, and current submission
func (s *Service) GetSessionByToken(ctx context.Context, token string) (*models.CandidateSession, error) {
	candidate, err := s.repo.GetCandidateByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, ErrCandidateNotFound
	}

	submission, err := s.repo.GetSubmissionByCandidate(ctx, candidate.ID)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, ErrSubmissionNotFound
	}

	challenge, err := s.repo.GetChallenge(ctx, candidate.ChallengeID)
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		return nil, ErrChallengeNotFound
	}

	return &models.CandidateSession{
		Submission: submission,
		Challenge:  challenge,
		Candidate:  candidate,
	}, nil
}

// --- Candidate session ---

// UpdateContent stores the candidate's latest document and records a
// content snapshot on the submission's timeline. The first write moves the
// attempt to IN_PROGRESS and starts the challenge clock.
func (s *Service) UpdateContent(ctx context.Context, submissionID, content string, cursorStart, cursorEnd int) (*models.Submission, error) {
	submission, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	if submission.Status.IsTerminal() {
		return nil, ErrAlreadySubmitted
	}

	now := s.now()
	if submission.Status == models.SubmissionNotStarted {
		submission.Status = models.SubmissionInProgress
		submission.StartedAt = &now
	}

	submission.Content = content
	submission.UpdatedAt = now

	if err := s.repo.UpdateSubmission(ctx, submission); err != nil {
		return nil, err
	}

	ev := models.Event{
		Kind:        models.EventContentSnapshot,
		Content:     models.StringPtr(content),
		CursorStart: models.IntPtr(cursorStart),
		CursorEnd:   models.IntPtr(cursorEnd),
		WindowFocus: true,
	}
	if err := s.recorder.Record(ctx, submissionID, ev); err != nil {
		// The document write already succeeded; a flush failure here will
		// be retried by the recorder.
		slog.Warn("snapshot record failed", "submission_id", submissionID, "error", err)
	}

	return submission, nil
}

// RecordEvents appends candidate telemetry (focus transitions, typing
// markers, paste and selection events) to the submission's timeline
func (s *Service) RecordEvents(ctx context.Context, submissionID string, events []models.Event) error {
	submission, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return err
	}

	if submission.Status.IsTerminal() {
		return ErrAlreadySubmitted
	}

	for _, ev := range events {
		if !ev.Kind.Valid() {
			return fmt.Errorf("%w: %s", ErrInvalidEventKind, ev.Kind)
		}
	}

	for _, ev := range events {
		if err := s.recorder.Record(ctx, submissionID, ev); err != nil {
			return err
		}
	}

	return nil
}

// Heartbeat marks the candidate as present. Typing heartbeats also refresh
// the short-lived typing indicator.
func (s *Service) Heartbeat(ctx context.Context, submissionID string, typing bool) error {
	if s.presence == nil {
		return nil
	}
	return s.presence.Heartbeat(ctx, submissionID, typing)
}

// Activity returns the candidate's live presence for the review dashboard
func (s *Service) Activity(ctx context.Context, submissionID string) (*presence.Activity, error) {
	if s.presence == nil {
		return &presence.Activity{}, nil
	}
	return s.presence.Get(ctx, submissionID)
}

// Submit turns in the attempt: content freezes, the capture buffer drains,
// and total focused time is computed from the recorded focus transitions.
func (s *Service) Submit(ctx context.Context, submissionID string) (*models.Submission, error) {
	submission, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	if submission.Status.IsTerminal() {
		return nil, ErrAlreadySubmitted
	}

	// Drain buffered events so the timeline is complete before accounting
	if err := s.recorder.Release(ctx, submissionID); err != nil {
		slog.Warn("final flush failed on submit", "submission_id", submissionID, "error", err)
	}

	now := s.now()
	submission.Status = models.SubmissionSubmitted
	submission.SubmittedAt = &now
	submission.UpdatedAt = now

	events, err := s.repo.ListEvents(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	submission.TotalTimeSpent = focusedSeconds(events, now)

	if err := s.repo.UpdateSubmission(ctx, submission); err != nil {
		return nil, err
	}

	slog.Info("submission turned in",
		"submission_id", submissionID,
		"total_time_spent", submission.TotalTimeSpent,
		"events", len(events))

	return submission, nil
}

// focusedSeconds sums the FOCUS_IN..FOCUS_OUT intervals over the timeline,
// in whole seconds. An interval still open at the end is closed against the
// submit time.
func focusedSeconds(events []models.Event, submittedAt time.Time) int {
	models.SortEvents(events)

	var total int
	var focusStart *time.Time

	for i := range events {
		ev := &events[i]
		switch ev.Kind {
		case models.EventFocusIn:
			if focusStart == nil {
				ts := ev.Timestamp
				focusStart = &ts
			}
		case models.EventFocusOut:
			if focusStart != nil {
				total += int(ev.Timestamp.Sub(*focusStart).Seconds())
				focusStart = nil
			}
		}
	}

	if focusStart != nil && submittedAt.After(*focusStart) {
		total += int(submittedAt.Sub(*focusStart).Seconds())
	}

	return total
}

// --- Playback ---

// GetTimeline returns the submission's ordered event timeline
func (s *Service) GetTimeline(ctx context.Context, submissionID string) (*replay.Timeline, error) {
	if _, err := s.getSubmission(ctx, submissionID); err != nil {
		return nil, err
	}

	events, err := s.repo.ListEvents(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	return replay.BuildTimeline(events), nil
}

// StateAt reconstructs the submission's editor state at a playback offset
func (s *Service) StateAt(ctx context.Context, submissionID string, offsetMs int64) (*replay.State, error) {
	submission, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	timeline, err := s.GetTimeline(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	state := timeline.StateAt(offsetMs, submission.Content)
	return &state, nil
}

// PlaybackSummary describes the recorded timeline for the review UI
func (s *Service) PlaybackSummary(ctx context.Context, submissionID string) (*Summary, error) {
	submission, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	timeline, err := s.GetTimeline(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		EventCount:       timeline.Len(),
		EventsDurationMs: timeline.Duration(),
		Focus:            timeline.FocusStats(),
		Speeds:           s.cfg.Playback.Speeds,
	}

	// Wall-clock span of the attempt, when both endpoints are known
	if submission.StartedAt != nil && submission.SubmittedAt != nil {
		summary.TotalDurationMs = submission.SubmittedAt.Sub(*submission.StartedAt).Milliseconds()
	} else {
		summary.TotalDurationMs = summary.EventsDurationMs
	}

	return summary, nil
}

// NewPlayer builds a playback clock over the submission's timeline
func (s *Service) NewPlayer(ctx context.Context, submissionID string) (*replay.Player, error) {
	submission, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	timeline, err := s.GetTimeline(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	return replay.NewPlayer(timeline, submission.Content), nil
}

// ValidSpeed reports whether the multiplier is a recognized preset
func (s *Service) ValidSpeed(speed float64) bool {
	return s.cfg.Playback.ValidSpeed(speed)
}

// --- Review ---

// GetSubmission returns a submission by ID
func (s *Service) GetSubmission(ctx context.Context, submissionID string) (*models.Submission, error) {
	return s.getSubmission(ctx, submissionID)
}

// ListSubmissions returns submissions matching the filters
func (s *Service) ListSubmissions(ctx context.Context, filters models.SubmissionFilters) ([]*models.Submission, error) {
	return s.repo.ListSubmissions(ctx, filters)
}

// StartReview claims a turned-in submission for a reviewer
func (s *Service) StartReview(ctx context.Context, submissionID, reviewerID string) (*models.Submission, error) {
	submission, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	if !submission.Status.IsTerminal() {
		return nil, ErrNotSubmitted
	}

	now := s.now()
	submission.Status = models.SubmissionUnderReview
	submission.ReviewerID = reviewerID
	submission.UpdatedAt = now

	if err := s.repo.UpdateSubmission(ctx, submission); err != nil {
		return nil, err
	}

	return submission, nil
}

// Decide records the review outcome
func (s *Service) Decide(ctx context.Context, submissionID, reviewerID string, accepted bool) (*models.Submission, error) {
	submission, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	if !submission.Status.IsTerminal() {
		return nil, ErrNotSubmitted
	}

	now := s.now()
	if accepted {
		submission.Status = models.SubmissionAccepted
	} else {
		submission.Status = models.SubmissionRejected
	}
	submission.ReviewerID = reviewerID
	submission.ReviewedAt = &now
	submission.UpdatedAt = now

	if err := s.repo.UpdateSubmission(ctx, submission); err != nil {
		return nil, err
	}

	slog.Info("review decided",
		"submission_id", submissionID,
		"reviewer_id", reviewerID,
		"status", submission.Status)

	return submission, nil
}

// AddComment attaches reviewer feedback to a submission
func (s *Service) AddComment(ctx context.Context, submissionID, authorID, content string) (*models.Comment, error) {
	if _, err := s.getSubmission(ctx, submissionID); err != nil {
		return nil, err
	}

	if content == "" {
		return nil, fmt.Errorf("comment content is required")
	}

	now := s.now()
	comment := &models.Comment{
		ID:           uuid.New().String(),
		SubmissionID: submissionID,
		AuthorID:     authorID,
		Content:      content,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

// ListComments returns a submission's comments in creation order
func (s *Service) ListComments(ctx context.Context, submissionID string) ([]*models.Comment, error) {
	if _, err := s.getSubmission(ctx, submissionID); err != nil {
		return nil, err
	}
	return s.repo.ListComments(ctx, submissionID)
}

// DeleteComment removes a comment written by the given author
func (s *Service) DeleteComment(ctx context.Context, commentID, authorID string) error {
	comment, err := s.repo.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return ErrCommentNotFound
	}
	if comment.AuthorID != authorID {
		return fmt.Errorf("comment belongs to another author")
	}
	return s.repo.DeleteComment(ctx, commentID)
}

func (s *Service) getSubmission(ctx context.Context, submissionID string) (*models.Submission, error) {
	submission, err := s.repo.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, ErrSubmissionNotFound
	}
	return submission, nil
}
