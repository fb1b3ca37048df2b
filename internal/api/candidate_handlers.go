package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hireloop/interview-engine/internal/models"
)

// Candidate session handlers. All routes resolve the invite token first;
// an unknown token gets the same 404 regardless of why.

func (s *Server) resolveSession(w http.ResponseWriter, r *http.Request) *models.CandidateSession {
	token := chi.URLParam(r, "token")
	if token == "" {
		respondError(w, http.StatusNotFound, "not_found", "unknown invite")
		return nil
	}

	session, err := s.service.GetSessionByToken(r.Context(), token)
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "unknown invite")
		return nil
	}

	return session
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session := s.resolveSession(w, r)
	if session == nil {
		return
	}

	respondJSON(w, http.StatusOK, session)
}

type contentRequest struct {
	Content     string `json:"content"`
	CursorStart int    `json:"cursor_start"`
	CursorEnd   int    `json:"cursor_end"`
}

func (s *Server) handleUpdateContent(w http.ResponseWriter, r *http.Request) {
	session := s.resolveSession(w, r)
	if session == nil {
		return
	}

	var req contentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	submission, err := s.service.UpdateContent(r.Context(), session.Submission.ID, req.Content, req.CursorStart, req.CursorEnd)
	if err != nil {
		respondServiceError(w, err, "failed to save content")
		return
	}

	respondJSON(w, http.StatusOK, submission)
}

type eventsRequest struct {
	Events []models.Event `json:"events"`
}

func (s *Server) handleRecordEvents(w http.ResponseWriter, r *http.Request) {
	session := s.resolveSession(w, r)
	if session == nil {
		return
	}

	var req eventsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if len(req.Events) == 0 {
		respondJSON(w, http.StatusOK, map[string]int{"recorded": 0})
		return
	}

	if err := s.service.RecordEvents(r.Context(), session.Submission.ID, req.Events); err != nil {
		respondServiceError(w, err, "failed to record events")
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"recorded": len(req.Events)})
}

type heartbeatRequest struct {
	Typing bool `json:"typing"`
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	session := s.resolveSession(w, r)
	if session == nil {
		return
	}

	var req heartbeatRequest
	if r.Body != nil {
		// Body is optional; a bare heartbeat means present but not typing
		json.NewDecoder(r.Body).Decode(&req)
	}

	if err := s.service.Heartbeat(r.Context(), session.Submission.ID, req.Typing); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to record heartbeat")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	session := s.resolveSession(w, r)
	if session == nil {
		return
	}

	submission, err := s.service.Submit(r.Context(), session.Submission.ID)
	if err != nil {
		respondServiceError(w, err, "failed to submit")
		return
	}

	respondJSON(w, http.StatusOK, submission)
}
