package storage

import (
	"context"

	"github.com/hireloop/interview-engine/internal/models"
)

// Repository defines the interface for interview persistence.
// Lookup methods return (nil, nil) when the record does not exist.
type Repository interface {
	// Challenges
	CreateChallenge(ctx context.Context, ch *models.Challenge) error
	GetChallenge(ctx context.Context, id string) (*models.Challenge, error)
	ListChallenges(ctx context.Context, organizationID string, limit, offset int) ([]*models.Challenge, error)

	// Candidates
	CreateCandidate(ctx context.Context, c *models.Candidate) error
	GetCandidate(ctx context.Context, id string) (*models.Candidate, error)
	GetCandidateByToken(ctx context.Context, token string) (*models.Candidate, error)

	// Submissions
	CreateSubmission(ctx context.Context, s *models.Submission) error
	GetSubmission(ctx context.Context, id string) (*models.Submission, error)
	GetSubmissionByCandidate(ctx context.Context, candidateID string) (*models.Submission, error)
	UpdateSubmission(ctx context.Context, s *models.Submission) error
	ListSubmissions(ctx context.Context, filters models.SubmissionFilters) ([]*models.Submission, error)
	GetOverdueSubmissions(ctx context.Context) ([]*models.Submission, error)

	// Timeline: append-only event streams, one per submission.
	// AppendEvents is idempotent on (submission_id, seq); ListEvents returns
	// timestamp order with seq as the tie-breaker.
	AppendEvents(ctx context.Context, submissionID string, events []models.Event) error
	ListEvents(ctx context.Context, submissionID string) ([]models.Event, error)

	// Comments
	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	ListComments(ctx context.Context, submissionID string) ([]*models.Comment, error)
	UpdateComment(ctx context.Context, c *models.Comment) error
	DeleteComment(ctx context.Context, id string) error

	// API Clients
	GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error)
	UpdateClientLastUsed(ctx context.Context, apiKey string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}
