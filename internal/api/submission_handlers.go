package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hireloop/interview-engine/internal/models"
)

// Submission handlers (reviewer side)

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())

	filters := models.SubmissionFilters{
		OrganizationID: client.OrganizationID,
		ChallengeID:    r.URL.Query().Get("challenge_id"),
		Status:         models.SubmissionStatus(r.URL.Query().Get("status")),
	}
	filters.Limit, filters.Offset = parsePagination(r, 50)

	if filters.Status != "" && !filters.Status.Valid() {
		respondError(w, http.StatusBadRequest, "validation_error", "unknown submission status")
		return
	}

	submissions, err := s.service.ListSubmissions(r.Context(), filters)
	if err != nil {
		slog.Error("failed to list submissions", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list submissions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"submissions": submissions,
		"total":       len(submissions),
	})
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "submission id is required")
		return
	}

	submission, err := s.service.GetSubmission(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "failed to get submission")
		return
	}

	respondJSON(w, http.StatusOK, submission)
}

func (s *Server) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	timeline, err := s.service.GetTimeline(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "failed to get timeline")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events":      timeline.Events(),
		"total":       timeline.Len(),
		"duration_ms": timeline.Duration(),
	})
}

func (s *Server) handlePlaybackSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	summary, err := s.service.PlaybackSummary(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "failed to build playback summary")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleStateAt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	offsetMs := int64(0)
	if v := r.URL.Query().Get("offset_ms"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "validation_error", "offset_ms must be an integer")
			return
		}
		offsetMs = parsed
	}

	state, err := s.service.StateAt(r.Context(), id, offsetMs)
	if err != nil {
		respondServiceError(w, err, "failed to reconstruct state")
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	activity, err := s.service.Activity(r.Context(), id)
	if err != nil {
		slog.Error("failed to read presence", "error", err, "submission_id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to read presence")
		return
	}

	respondJSON(w, http.StatusOK, activity)
}

// Review handlers

type decisionRequest struct {
	Accepted bool `json:"accepted"`
}

func (s *Server) handleStartReview(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())
	id := chi.URLParam(r, "id")

	submission, err := s.service.StartReview(r.Context(), id, client.Name)
	if err != nil {
		respondServiceError(w, err, "failed to start review")
		return
	}

	respondJSON(w, http.StatusOK, submission)
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	submission, err := s.service.Decide(r.Context(), id, client.Name, req.Accepted)
	if err != nil {
		respondServiceError(w, err, "failed to record decision")
		return
	}

	respondJSON(w, http.StatusOK, submission)
}

// Comment handlers

type commentRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Content == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "content is required")
		return
	}

	comment, err := s.service.AddComment(r.Context(), id, client.Name, req.Content)
	if err != nil {
		respondServiceError(w, err, "failed to add comment")
		return
	}

	respondJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	comments, err := s.service.ListComments(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "failed to list comments")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"comments": comments,
		"total":    len(comments),
	})
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())
	commentID := chi.URLParam(r, "commentID")

	if err := s.service.DeleteComment(r.Context(), commentID, client.Name); err != nil {
		respondServiceError(w, err, "failed to delete comment")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "comment deleted",
	})
}
