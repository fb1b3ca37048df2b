package interview

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/interview-engine/internal/capture"
	"github.com/hireloop/interview-engine/internal/challenges"
	"github.com/hireloop/interview-engine/internal/config"
	"github.com/hireloop/interview-engine/internal/models"
)

// memRepo is an in-memory Repository for service tests
type memRepo struct {
	mu          sync.Mutex
	challenges  map[string]models.Challenge
	candidates  map[string]models.Candidate
	submissions map[string]models.Submission
	comments    map[string]models.Comment
	events      map[string][]models.Event
	seen        map[string]map[int64]bool
}

func newMemRepo() *memRepo {
	return &memRepo{
		challenges:  make(map[string]models.Challenge),
		candidates:  make(map[string]models.Candidate),
		submissions: make(map[string]models.Submission),
		comments:    make(map[string]models.Comment),
		events:      make(map[string][]models.Event),
		seen:        make(map[string]map[int64]bool),
	}
}

func (r *memRepo) CreateChallenge(ctx context.Context, ch *models.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.challenges[ch.ID] = *ch
	return nil
}

func (r *memRepo) GetChallenge(ctx context.Context, id string) (*models.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.challenges[id]
	if !ok {
		return nil, nil
	}
	return &ch, nil
}

func (r *memRepo) ListChallenges(ctx context.Context, organizationID string, limit, offset int) ([]*models.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Challenge
	for _, ch := range r.challenges {
		if ch.OrganizationID == organizationID {
			c := ch
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memRepo) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidates[c.ID] = *c
	return nil
}

func (r *memRepo) GetCandidate(ctx context.Context, id string) (*models.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.candidates[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *memRepo) GetCandidateByToken(ctx context.Context, token string) (*models.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.candidates {
		if c.Token == token {
			cc := c
			return &cc, nil
		}
	}
	return nil, nil
}

func (r *memRepo) CreateSubmission(ctx context.Context, s *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submissions[s.ID] = *s
	return nil
}

func (r *memRepo) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *memRepo) GetSubmissionByCandidate(ctx context.Context, candidateID string) (*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.submissions {
		if s.CandidateID == candidateID {
			ss := s
			return &ss, nil
		}
	}
	return nil, nil
}

func (r *memRepo) UpdateSubmission(ctx context.Context, s *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submissions[s.ID] = *s
	return nil
}

func (r *memRepo) ListSubmissions(ctx context.Context, filters models.SubmissionFilters) ([]*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Submission
	for _, s := range r.submissions {
		if filters.Status != "" && s.Status != filters.Status {
			continue
		}
		ss := s
		out = append(out, &ss)
	}
	return out, nil
}

func (r *memRepo) GetOverdueSubmissions(ctx context.Context) ([]*models.Submission, error) {
	return nil, nil
}

func (r *memRepo) AppendEvents(ctx context.Context, submissionID string, events []models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[submissionID] == nil {
		r.seen[submissionID] = make(map[int64]bool)
	}
	for _, ev := range events {
		if r.seen[submissionID][ev.Seq] {
			continue
		}
		r.seen[submissionID][ev.Seq] = true
		r.events[submissionID] = append(r.events[submissionID], ev)
	}
	return nil
}

func (r *memRepo) ListEvents(ctx context.Context, submissionID string) ([]models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Event, len(r.events[submissionID]))
	copy(out, r.events[submissionID])
	models.SortEvents(out)
	return out, nil
}

func (r *memRepo) CreateComment(ctx context.Context, c *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments[c.ID] = *c
	return nil
}

func (r *memRepo) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *memRepo) ListComments(ctx context.Context, submissionID string) ([]*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Comment
	for _, c := range r.comments {
		if c.SubmissionID == submissionID {
			cc := c
			out = append(out, &cc)
		}
	}
	return out, nil
}

func (r *memRepo) UpdateComment(ctx context.Context, c *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments[c.ID] = *c
	return nil
}

func (r *memRepo) DeleteComment(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.comments, id)
	return nil
}

func (r *memRepo) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	return nil, nil
}

func (r *memRepo) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	return nil
}

func (r *memRepo) Ping(ctx context.Context) error { return nil }
func (r *memRepo) Close() error                   { return nil }

// --- harness ---

type harness struct {
	repo    *memRepo
	svc     *Service
	clock   *testClock
	library *challenges.Library
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	repo := newMemRepo()
	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}

	recorder := capture.NewRecorder(repo, capture.RecorderConfig{
		SnapshotInterval: time.Second,
		MaxBatch:         100,
		Now:              clock.Now,
	})

	library := challenges.NewLibrary()
	library.Add(&models.Template{
		Name:         "go-basics",
		Title:        "Go Basics",
		Instructions: "Solve the task.",
		Language:     "go",
		StarterCode:  "package main\n",
		TimeLimit:    60,
	})

	cfg := &config.Config{
		Server: config.ServerConfig{PublicBaseURL: "https://interviews.example.com"},
		Playback: config.PlaybackConfig{
			TickInterval: 50 * time.Millisecond,
			Speeds:       []float64{0.25, 0.5, 1, 2, 4, 8},
		},
	}

	svc := NewService(repo, recorder, nil, library, cfg).WithNow(clock.Now)

	return &harness{repo: repo, svc: svc, clock: clock, library: library}
}

// startSession creates a challenge, invites a candidate, and returns the
// submission ID
func (h *harness) startSession(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	ch, err := h.svc.CreateChallenge(ctx, "org-1", &models.CreateChallengeRequest{Template: "go-basics"})
	require.NoError(t, err)

	invite, err := h.svc.InviteCandidate(ctx, "org-1", ch.ID, &models.InviteRequest{
		Name:  "Ada Quine",
		Email: "ada@example.com",
	})
	require.NoError(t, err)

	return invite.SubmissionID
}

// --- tests ---

func TestCreateChallengeFromTemplate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ch, err := h.svc.CreateChallenge(ctx, "org-1", &models.CreateChallengeRequest{Template: "go-basics"})
	require.NoError(t, err)
	assert.Equal(t, "Go Basics", ch.Title)
	assert.Equal(t, 60, ch.TimeLimit)
	assert.Equal(t, "org-1", ch.OrganizationID)

	// Request fields override the template
	ch2, err := h.svc.CreateChallenge(ctx, "org-1", &models.CreateChallengeRequest{
		Template:  "go-basics",
		Title:     "Custom Title",
		TimeLimit: 90,
	})
	require.NoError(t, err)
	assert.Equal(t, "Custom Title", ch2.Title)
	assert.Equal(t, 90, ch2.TimeLimit)
}

func TestCreateChallengeUnknownTemplate(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.CreateChallenge(context.Background(), "org-1", &models.CreateChallengeRequest{Template: "nope"})
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestInviteAndResolveToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ch, err := h.svc.CreateChallenge(ctx, "org-1", &models.CreateChallengeRequest{Template: "go-basics"})
	require.NoError(t, err)

	invite, err := h.svc.InviteCandidate(ctx, "org-1", ch.ID, &models.InviteRequest{
		Name:  "Ada Quine",
		Email: "ada@example.com",
	})
	require.NoError(t, err)

	assert.Len(t, invite.Candidate.Token, 48)
	assert.Equal(t, "https://interviews.example.com/challenge/"+invite.Candidate.Token, invite.InviteURL)

	session, err := h.svc.GetSessionByToken(ctx, invite.Candidate.Token)
	require.NoError(t, err)
	assert.Equal(t, invite.SubmissionID, session.Submission.ID)
	assert.Equal(t, models.SubmissionNotStarted, session.Submission.Status)
	assert.Equal(t, "package main\n", session.Submission.Content)

	_, err = h.svc.GetSessionByToken(ctx, "bogus-token")
	assert.ErrorIs(t, err, ErrCandidateNotFound)
}

func TestInviteUnknownChallenge(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.InviteCandidate(context.Background(), "org-1", "missing", &models.InviteRequest{
		Name: "x", Email: "x@example.com",
	})
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestUpdateContentStartsAttempt(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subID := h.startSession(t)

	started := h.clock.Now()
	sub, err := h.svc.UpdateContent(ctx, subID, "package main\n\nfunc main() {}", 10, 10)
	require.NoError(t, err)

	assert.Equal(t, models.SubmissionInProgress, sub.Status)
	require.NotNil(t, sub.StartedAt)
	assert.Equal(t, started, *sub.StartedAt)

	// A later write keeps the original start time
	h.clock.Advance(5 * time.Second)
	sub, err = h.svc.UpdateContent(ctx, subID, "package main\n\nfunc main() { println(1) }", 20, 20)
	require.NoError(t, err)
	assert.Equal(t, started, *sub.StartedAt)
}

func TestSubmitComputesFocusedTime(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subID := h.startSession(t)

	_, err := h.svc.UpdateContent(ctx, subID, "draft", 0, 0)
	require.NoError(t, err)

	require.NoError(t, h.svc.RecordEvents(ctx, subID, []models.Event{
		{Kind: models.EventFocusIn, WindowFocus: true},
	}))

	h.clock.Advance(30 * time.Second)
	require.NoError(t, h.svc.RecordEvents(ctx, subID, []models.Event{
		{Kind: models.EventFocusOut},
	}))

	h.clock.Advance(10 * time.Second)
	require.NoError(t, h.svc.RecordEvents(ctx, subID, []models.Event{
		{Kind: models.EventFocusIn, WindowFocus: true},
	}))

	// Open interval closes at submit time: 30s + 20s focused
	h.clock.Advance(20 * time.Second)
	sub, err := h.svc.Submit(ctx, subID)
	require.NoError(t, err)

	assert.Equal(t, models.SubmissionSubmitted, sub.Status)
	require.NotNil(t, sub.SubmittedAt)
	assert.Equal(t, 50, sub.TotalTimeSpent)

	// Buffered events were drained by submit
	events, err := h.repo.ListEvents(ctx, subID)
	require.NoError(t, err)
	assert.Len(t, events, 4)
}

func TestSubmitTwiceFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subID := h.startSession(t)

	_, err := h.svc.Submit(ctx, subID)
	require.NoError(t, err)

	_, err = h.svc.Submit(ctx, subID)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	_, err = h.svc.UpdateContent(ctx, subID, "too late", 0, 0)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	err = h.svc.RecordEvents(ctx, subID, []models.Event{{Kind: models.EventFocusIn}})
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestRecordEventsRejectsUnknownKind(t *testing.T) {
	h := newHarness(t)
	subID := h.startSession(t)

	err := h.svc.RecordEvents(context.Background(), subID, []models.Event{{Kind: "MOUSE_WIGGLE"}})
	assert.ErrorIs(t, err, ErrInvalidEventKind)
}

func TestStateAtUsesStoredTimeline(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subID := h.startSession(t)

	_, err := h.svc.UpdateContent(ctx, subID, "v1", 2, 2)
	require.NoError(t, err)

	h.clock.Advance(2 * time.Second)
	_, err = h.svc.UpdateContent(ctx, subID, "v1 and v2", 9, 9)
	require.NoError(t, err)

	h.clock.Advance(time.Second)
	_, err = h.svc.Submit(ctx, subID)
	require.NoError(t, err)

	state, err := h.svc.StateAt(ctx, subID, 0)
	require.NoError(t, err)
	assert.Equal(t, "v1", state.Content)

	// At the end of the timeline the stored content is authoritative
	state, err = h.svc.StateAt(ctx, subID, 10_000)
	require.NoError(t, err)
	assert.Equal(t, "v1 and v2", state.Content)
	assert.True(t, state.FinalSubmission)
}

func TestPlaybackSummary(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subID := h.startSession(t)

	_, err := h.svc.UpdateContent(ctx, subID, "v1", 0, 0)
	require.NoError(t, err)

	h.clock.Advance(4 * time.Second)
	_, err = h.svc.UpdateContent(ctx, subID, "v2", 0, 0)
	require.NoError(t, err)

	h.clock.Advance(6 * time.Second)
	_, err = h.svc.Submit(ctx, subID)
	require.NoError(t, err)

	summary, err := h.svc.PlaybackSummary(ctx, subID)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.EventCount)
	assert.Equal(t, int64(4000), summary.EventsDurationMs)
	assert.Equal(t, int64(10000), summary.TotalDurationMs)
	assert.Equal(t, []float64{0.25, 0.5, 1, 2, 4, 8}, summary.Speeds)
}

func TestReviewLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subID := h.startSession(t)

	// Review before submit is rejected
	_, err := h.svc.StartReview(ctx, subID, "reviewer-1")
	assert.ErrorIs(t, err, ErrNotSubmitted)

	_, err = h.svc.Submit(ctx, subID)
	require.NoError(t, err)

	sub, err := h.svc.StartReview(ctx, subID, "reviewer-1")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionUnderReview, sub.Status)
	assert.Equal(t, "reviewer-1", sub.ReviewerID)

	sub, err = h.svc.Decide(ctx, subID, "reviewer-1", true)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionAccepted, sub.Status)
	require.NotNil(t, sub.ReviewedAt)
}

func TestComments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subID := h.startSession(t)

	comment, err := h.svc.AddComment(ctx, subID, "reviewer-1", "Clean solution")
	require.NoError(t, err)

	list, err := h.svc.ListComments(ctx, subID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Clean solution", list[0].Content)

	// Only the author may delete
	err = h.svc.DeleteComment(ctx, comment.ID, "reviewer-2")
	assert.Error(t, err)

	require.NoError(t, h.svc.DeleteComment(ctx, comment.ID, "reviewer-1"))

	list, err = h.svc.ListComments(ctx, subID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestValidSpeed(t *testing.T) {
	h := newHarness(t)

	assert.True(t, h.svc.ValidSpeed(1))
	assert.True(t, h.svc.ValidSpeed(0.25))
	assert.True(t, h.svc.ValidSpeed(8))
	assert.False(t, h.svc.ValidSpeed(3))
	assert.False(t, h.svc.ValidSpeed(0))
}
