package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/executive-intake/internal/conversation"
	"github.com/jonathan/executive-intake/internal/types"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 64 << 10

// messageError is the body of a failed message post: the error plus the well-formed response
type messageError struct {
	Error    string                      `json:"error"`
	Response *types.ConversationResponse `json:"response"`
}

// handleMessage starts a conversation or continues an existing one
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req types.MessageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err).Error())
		return
	}

	resp, err := s.conversations.StartOrContinue(r.Context(), req.ConversationID, req.Message)
	if err != nil {
		status := HTTPStatus(err)
		if resp == nil {
			s.serviceError(w, err)
			return
		}
		if status >= http.StatusInternalServerError {
			s.log.Error("message processing failed", "conversation_id", resp.ConversationID, "error", err)
		}
		s.jsonResponse(w, status, messageError{Error: resp.ResponseContent, Response: resp})
		return
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// handleGetConversation returns the stored conversation entity
func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	conv, err := s.conversations.Get(r.Context(), id)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, conv)
}

// handleProgress returns the progress record for a conversation
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	progress, err := s.conversations.GetProgress(r.Context(), id)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, progress)
}

// handleSummary returns requirements and answers for a conversation
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	summary, err := s.conversations.GetSummary(r.Context(), id)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, summary)
}

// handleStatusChange pauses, resumes, or abandons a conversation
func (s *Server) handleStatusChange(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req types.StatusChangeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err).Error())
		return
	}

	conv, err := s.conversations.ChangeStatus(r.Context(), id, req.Status, req.Version)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, types.StatusChangeResponse{
		ConversationID: conv.ID,
		Phase:          conv.Phase,
		Status:         conv.Status,
		Version:        conv.Version,
		Message:        conversation.StatusMessage(conv.Status),
	})
}

// handleHealth returns server liveness
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady checks every registered dependency
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	results, err := s.health.Ready(r.Context())
	if err != nil {
		s.log.Warn("readiness check failed", "error", err)
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"checks": results,
		})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"status": "ready", "checks": results})
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid conversation ID")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) serviceError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
		s.errorResponse(w, status, "Internal server error")
		return
	}
	s.errorResponse(w, status, err.Error())
}
