package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

type autoTitleRequest struct {
	TripID           string `json:"tripId"`
	UserMessage      string `json:"userMessage"`
	AssistantMessage string `json:"assistantMessage"`
}

func (s *Server) handleAutoTitle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req autoTitleRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.TripID) == "" {
		writeError(w, http.StatusBadRequest, "tripId required")
		return
	}
	if !s.app.HasGenerator() {
		writeError(w, http.StatusInternalServerError, "API key not configured")
		return
	}
	title, err := s.app.AutoTitle(r.Context(), req.TripID, req.UserMessage, req.AssistantMessage)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"title": title})
}
