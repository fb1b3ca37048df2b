package interview

import "errors"

var (
	ErrChallengeNotFound  = errors.New("challenge not found")
	ErrCandidateNotFound  = errors.New("candidate not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrTemplateNotFound   = errors.New("template not found")

	// ErrAlreadySubmitted is returned for content writes and event appends
	// against a submission whose attempt has ended.
	ErrAlreadySubmitted = errors.New("submission already turned in")

	// ErrNotSubmitted is returned for review operations on an attempt that
	// has not been turned in yet.
	ErrNotSubmitted = errors.New("submission not turned in yet")

	ErrInvalidEventKind = errors.New("invalid event kind")
	ErrInvalidSpeed     = errors.New("invalid playback speed")
)
