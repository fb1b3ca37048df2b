package models

import (
	"time"
)

// ChallengeStatus represents the publication state of a challenge
type ChallengeStatus string

const (
	ChallengeDraft    ChallengeStatus = "DRAFT"
	ChallengeActive   ChallengeStatus = "ACTIVE"
	ChallengeArchived ChallengeStatus = "ARCHIVED"
)

// Challenge is a take-home task owned by one organization
type Challenge struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	Title          string          `json:"title"`
	Instructions   string          `json:"instructions"`
	Language       string          `json:"language,omitempty"`
	StarterCode    string          `json:"starter_code,omitempty"`
	TimeLimit      int             `json:"time_limit"` // minutes, 0 = unlimited
	Status         ChallengeStatus `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	CreatedBy      string          `json:"created_by,omitempty"`
}

// TimeLimitDuration returns the time limit as a duration (0 if unlimited)
func (c *Challenge) TimeLimitDuration() time.Duration {
	return time.Duration(c.TimeLimit) * time.Minute
}

// Template is a reusable challenge definition loaded from the YAML library
type Template struct {
	Name         string   `yaml:"name" json:"name"`
	Title        string   `yaml:"title" json:"title"`
	Description  string   `yaml:"description" json:"description"`
	Instructions string   `yaml:"instructions" json:"instructions"`
	Language     string   `yaml:"language" json:"language"`
	StarterCode  string   `yaml:"starter_code" json:"starter_code,omitempty"`
	TimeLimit    int      `yaml:"time_limit" json:"time_limit"` // minutes
	Difficulty   string   `yaml:"difficulty" json:"difficulty,omitempty"`
	Tags         []string `yaml:"tags" json:"tags,omitempty"`
}

// CreateChallengeRequest represents a request to create a challenge,
// either from scratch or seeded from a library template.
type CreateChallengeRequest struct {
	Template     string `json:"template,omitempty"`
	Title        string `json:"title,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	Language     string `json:"language,omitempty"`
	StarterCode  string `json:"starter_code,omitempty"`
	TimeLimit    int    `json:"time_limit,omitempty"`
}
