package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"tripflow/pkg/domain"
)

type createMessageRequest struct {
	Role        string          `json:"role"`
	Content     string          `json:"content"`
	MessageType string          `json:"messageType"`
	Metadata    json.RawMessage `json:"metadata"`
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	tripID := strings.TrimSpace(r.URL.Query().Get("tripId"))
	if tripID == "" {
		writeError(w, http.StatusBadRequest, "tripId required")
		return
	}
	switch r.Method {
	case http.MethodGet:
		msgs, err := s.app.ListMessages(tripID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	case http.MethodPost:
		var req createMessageRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Role == "" || req.Content == "" {
			writeError(w, http.StatusBadRequest, "role and content are required")
			return
		}
		msg, err := s.app.SaveMessage(domain.Message{
			TripID:      tripID,
			Role:        req.Role,
			Content:     req.Content,
			MessageType: domain.MessageType(req.MessageType),
			Metadata:    req.Metadata,
		})
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	default:
		methodNotAllowed(w)
	}
}
