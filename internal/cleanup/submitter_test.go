package cleanup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hireloop/interview-engine/internal/models"
)

type fakeLister struct {
	mu      sync.Mutex
	overdue []*models.Submission
}

func (l *fakeLister) GetOverdueSubmissions(ctx context.Context) ([]*models.Submission, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.overdue
	l.overdue = nil
	return out, nil
}

type fakeSubmitter struct {
	mu        sync.Mutex
	submitted []string
	failFor   map[string]bool
}

func (s *fakeSubmitter) Submit(ctx context.Context, submissionID string) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[submissionID] {
		return nil, errors.New("already submitted")
	}
	s.submitted = append(s.submitted, submissionID)
	return &models.Submission{ID: submissionID, Status: models.SubmissionSubmitted}, nil
}

func (s *fakeSubmitter) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.submitted))
	copy(out, s.submitted)
	return out
}

func TestRunOnceSubmitsOverdue(t *testing.T) {
	lister := &fakeLister{overdue: []*models.Submission{
		{ID: "sub-1", CandidateID: "c-1"},
		{ID: "sub-2", CandidateID: "c-2"},
	}}
	submitter := &fakeSubmitter{}

	w := NewWorker(lister, submitter, time.Minute)
	w.runOnce(context.Background())

	assert.Equal(t, []string{"sub-1", "sub-2"}, submitter.ids())
}

func TestRunOnceContinuesAfterFailure(t *testing.T) {
	lister := &fakeLister{overdue: []*models.Submission{
		{ID: "sub-1"},
		{ID: "sub-2"},
	}}
	submitter := &fakeSubmitter{failFor: map[string]bool{"sub-1": true}}

	w := NewWorker(lister, submitter, time.Minute)
	w.runOnce(context.Background())

	assert.Equal(t, []string{"sub-2"}, submitter.ids())
}

func TestWorkerStartRunsImmediately(t *testing.T) {
	lister := &fakeLister{overdue: []*models.Submission{{ID: "sub-1"}}}
	submitter := &fakeSubmitter{}

	w := NewWorker(lister, submitter, time.Hour)
	w.Start(context.Background())
	w.Stop()

	assert.Equal(t, []string{"sub-1"}, submitter.ids())
}
