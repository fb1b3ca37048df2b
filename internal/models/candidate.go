package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Candidate is an invited applicant, addressed by an opaque invite token
type Candidate struct {
	ID          string    `json:"id"`
	ChallengeID string    `json:"challenge_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Position    string    `json:"position,omitempty"`
	Token       string    `json:"token"`
	CreatedAt   time.Time `json:"created_at"`
	InvitedBy   string    `json:"invited_by,omitempty"`
}

// GenerateInviteToken creates a cryptographically random 48-char hex token
func GenerateInviteToken() (string, error) {
	bytes := make([]byte, 24)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// InviteRequest represents a request to invite a candidate to a challenge
type InviteRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Position string `json:"position,omitempty"`
}

// InviteResponse is returned after inviting a candidate
type InviteResponse struct {
	Candidate    *Candidate `json:"candidate"`
	SubmissionID string     `json:"submission_id"`
	InviteURL    string     `json:"invite_url"`
}

// CandidateSession is the public view served to the challenge page:
// the candidate's submission plus the challenge being attempted.
type CandidateSession struct {
	Submission *Submission `json:"submission"`
	Challenge  *Challenge  `json:"challenge"`
	Candidate  *Candidate  `json:"candidate"`
}
