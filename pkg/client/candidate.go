package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hireloop/interview-engine/internal/models"
)

// CandidateClient drives a candidate session. The invite token is the only
// credential; no API key is involved.
type CandidateClient struct {
	inner *Client
	token string
}

// NewCandidateClient creates a client for one candidate session
func NewCandidateClient(baseURL, token string, opts ...Option) *CandidateClient {
	inner := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(inner)
	}

	return &CandidateClient{inner: inner, token: token}
}

func (c *CandidateClient) path(suffix string) string {
	return fmt.Sprintf("/challenge/%s%s", c.token, suffix)
}

// GetSession loads the candidate's challenge, submission, and profile
func (c *CandidateClient) GetSession(ctx context.Context) (*models.CandidateSession, error) {
	var session models.CandidateSession
	if err := c.inner.call(ctx, "GET", c.path(""), nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateContent saves the candidate's current document
func (c *CandidateClient) UpdateContent(ctx context.Context, content string, cursorStart, cursorEnd int) (*models.Submission, error) {
	payload := map[string]interface{}{
		"content":      content,
		"cursor_start": cursorStart,
		"cursor_end":   cursorEnd,
	}

	var sub models.Submission
	if err := c.inner.call(ctx, "PUT", c.path("/content"), payload, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// AppendEvents sends a batch of captured events. The submissionID argument
// is ignored, the token already addresses the submission; the signature
// matches the capture buffer's sink so a local buffer can drain straight
// into the API.
func (c *CandidateClient) AppendEvents(ctx context.Context, submissionID string, events []models.Event) error {
	payload := map[string]interface{}{"events": events}
	return c.inner.call(ctx, "POST", c.path("/events"), payload, nil)
}

// Heartbeat reports the candidate as present, optionally typing
func (c *CandidateClient) Heartbeat(ctx context.Context, typing bool) error {
	payload := map[string]bool{"typing": typing}
	return c.inner.call(ctx, "POST", c.path("/heartbeat"), payload, nil)
}

// Submit turns in the attempt
func (c *CandidateClient) Submit(ctx context.Context) (*models.Submission, error) {
	var sub models.Submission
	if err := c.inner.call(ctx, "POST", c.path("/submit"), struct{}{}, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}
