package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hireloop/interview-engine/internal/models"
)

// Client is a Go SDK for the interview-engine reviewer API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new interview-engine client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// envelope is the API's standard response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// call performs a request and decodes the envelope's data into out
func (c *Client) call(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if !env.Success {
		if env.Error != nil {
			return fmt.Errorf("API error: %s - %s", env.Error.Code, env.Error.Message)
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

// --- Challenges ---

// CreateChallenge creates a challenge, optionally from a library template
func (c *Client) CreateChallenge(ctx context.Context, req models.CreateChallengeRequest) (*models.Challenge, error) {
	var ch models.Challenge
	if err := c.call(ctx, "POST", "/api/v1/challenges", req, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// GetChallenge retrieves a challenge by ID
func (c *Client) GetChallenge(ctx context.Context, id string) (*models.Challenge, error) {
	var ch models.Challenge
	if err := c.call(ctx, "GET", "/api/v1/challenges/"+id, nil, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// ListChallenges retrieves the organization's challenges
func (c *Client) ListChallenges(ctx context.Context) ([]*models.Challenge, error) {
	var data struct {
		Challenges []*models.Challenge `json:"challenges"`
		Total      int                 `json:"total"`
	}
	if err := c.call(ctx, "GET", "/api/v1/challenges", nil, &data); err != nil {
		return nil, err
	}
	return data.Challenges, nil
}

// ListTemplates retrieves the challenge library
func (c *Client) ListTemplates(ctx context.Context) ([]*models.Template, error) {
	var data struct {
		Templates []*models.Template `json:"templates"`
		Total     int                `json:"total"`
	}
	if err := c.call(ctx, "GET", "/api/v1/templates", nil, &data); err != nil {
		return nil, err
	}
	return data.Templates, nil
}

// InviteCandidate invites a candidate to a challenge
func (c *Client) InviteCandidate(ctx context.Context, challengeID string, req models.InviteRequest) (*models.InviteResponse, error) {
	var invite models.InviteResponse
	if err := c.call(ctx, "POST", fmt.Sprintf("/api/v1/challenges/%s/invite", challengeID), req, &invite); err != nil {
		return nil, err
	}
	return &invite, nil
}

// --- Submissions ---

// ListOptions filters submission listings
type ListOptions struct {
	ChallengeID string
	Status      string
	Limit       int
	Offset      int
}

// ListSubmissions retrieves submissions matching the options
func (c *Client) ListSubmissions(ctx context.Context, opts ListOptions) ([]*models.Submission, error) {
	q := url.Values{}
	if opts.ChallengeID != "" {
		q.Set("challenge_id", opts.ChallengeID)
	}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", fmt.Sprintf("%d", opts.Offset))
	}

	path := "/api/v1/submissions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var data struct {
		Submissions []*models.Submission `json:"submissions"`
		Total       int                  `json:"total"`
	}
	if err := c.call(ctx, "GET", path, nil, &data); err != nil {
		return nil, err
	}
	return data.Submissions, nil
}

// GetSubmission retrieves a submission by ID
func (c *Client) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	var sub models.Submission
	if err := c.call(ctx, "GET", "/api/v1/submissions/"+id, nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetTimeline retrieves a submission's recorded events
func (c *Client) GetTimeline(ctx context.Context, id string) ([]models.Event, error) {
	var data struct {
		Events     []models.Event `json:"events"`
		Total      int            `json:"total"`
		DurationMs int64          `json:"duration_ms"`
	}
	if err := c.call(ctx, "GET", fmt.Sprintf("/api/v1/submissions/%s/timeline", id), nil, &data); err != nil {
		return nil, err
	}
	return data.Events, nil
}

// ReconstructedState is the editor state at one playback offset
type ReconstructedState struct {
	Content         string `json:"content"`
	CursorStart     int    `json:"cursor_start"`
	CursorEnd       int    `json:"cursor_end"`
	Focused         bool   `json:"focused"`
	FinalSubmission bool   `json:"final_submission"`
}

// StateAt reconstructs the submission's editor state at an offset
func (c *Client) StateAt(ctx context.Context, id string, offsetMs int64) (*ReconstructedState, error) {
	var state ReconstructedState
	path := fmt.Sprintf("/api/v1/submissions/%s/state?offset_ms=%d", id, offsetMs)
	if err := c.call(ctx, "GET", path, nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// StartReview claims a submission for review
func (c *Client) StartReview(ctx context.Context, id string) (*models.Submission, error) {
	var sub models.Submission
	if err := c.call(ctx, "POST", fmt.Sprintf("/api/v1/submissions/%s/review", id), struct{}{}, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Decide records the review outcome
func (c *Client) Decide(ctx context.Context, id string, accepted bool) (*models.Submission, error) {
	payload := map[string]bool{"accepted": accepted}
	var sub models.Submission
	if err := c.call(ctx, "POST", fmt.Sprintf("/api/v1/submissions/%s/decision", id), payload, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// AddComment attaches reviewer feedback to a submission
func (c *Client) AddComment(ctx context.Context, id, content string) (*models.Comment, error) {
	payload := map[string]string{"content": content}
	var comment models.Comment
	if err := c.call(ctx, "POST", fmt.Sprintf("/api/v1/submissions/%s/comments", id), payload, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, "GET", "/health", nil, nil)
}
