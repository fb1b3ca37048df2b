package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hireloop/interview-engine/internal/interview"
	"github.com/hireloop/interview-engine/internal/models"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// respondServiceError maps service sentinel errors to HTTP responses
func respondServiceError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, interview.ErrChallengeNotFound):
		respondError(w, http.StatusNotFound, "not_found", "challenge not found")
	case errors.Is(err, interview.ErrCandidateNotFound):
		respondError(w, http.StatusNotFound, "not_found", "candidate not found")
	case errors.Is(err, interview.ErrSubmissionNotFound):
		respondError(w, http.StatusNotFound, "not_found", "submission not found")
	case errors.Is(err, interview.ErrCommentNotFound):
		respondError(w, http.StatusNotFound, "not_found", "comment not found")
	case errors.Is(err, interview.ErrTemplateNotFound):
		respondError(w, http.StatusNotFound, "template_not_found", "template not found")
	case errors.Is(err, interview.ErrAlreadySubmitted):
		respondError(w, http.StatusConflict, "already_submitted", "submission already turned in")
	case errors.Is(err, interview.ErrNotSubmitted):
		respondError(w, http.StatusConflict, "not_submitted", "submission not turned in yet")
	case errors.Is(err, interview.ErrInvalidEventKind):
		respondError(w, http.StatusBadRequest, "invalid_event", "unknown event kind")
	default:
		slog.Error(logMsg, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", logMsg)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// Challenge handlers

func (s *Server) handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())

	var req models.CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Template == "" && req.Title == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "title or template is required")
		return
	}

	ch, err := s.service.CreateChallenge(r.Context(), client.OrganizationID, &req)
	if err != nil {
		respondServiceError(w, err, "failed to create challenge")
		return
	}

	respondJSON(w, http.StatusCreated, ch)
}

func (s *Server) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "challenge id is required")
		return
	}

	ch, err := s.service.GetChallenge(r.Context(), client.OrganizationID, id)
	if err != nil {
		respondServiceError(w, err, "failed to get challenge")
		return
	}

	respondJSON(w, http.StatusOK, ch)
}

func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())

	limit, offset := parsePagination(r, 50)

	list, err := s.service.ListChallenges(r.Context(), client.OrganizationID, limit, offset)
	if err != nil {
		slog.Error("failed to list challenges", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list challenges")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"challenges": list,
		"total":      len(list),
	})
}

func (s *Server) handleInviteCandidate(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "challenge id is required")
		return
	}

	var req models.InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Name == "" || req.Email == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "name and email are required")
		return
	}

	invite, err := s.service.InviteCandidate(r.Context(), client.OrganizationID, id, &req)
	if err != nil {
		respondServiceError(w, err, "failed to invite candidate")
		return
	}

	respondJSON(w, http.StatusCreated, invite)
}

// Template handlers

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates := s.service.ListTemplates()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"templates": templates,
		"total":     len(templates),
	})
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "template name is required")
		return
	}

	for _, tmpl := range s.service.ListTemplates() {
		if tmpl.Name == name {
			respondJSON(w, http.StatusOK, tmpl)
			return
		}
	}

	respondError(w, http.StatusNotFound, "not_found", "template not found")
}

// parsePagination reads limit/offset query parameters with a default limit
func parsePagination(r *http.Request, defaultLimit int) (int, int) {
	limit := defaultLimit
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil && v > 0 {
			limit = v
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if v, err := strconv.Atoi(offsetStr); err == nil && v >= 0 {
			offset = v
		}
	}

	return limit, offset
}
