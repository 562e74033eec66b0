package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tripflow/internal/util"
	"tripflow/pkg/domain"
)

type chatRequest struct {
	Message string               `json:"message"`
	History []domain.ChatMessage `json:"history"`
	TripID  string               `json:"tripId"`
}

// sseEvent is one wire event of the chat stream.
type sseEvent struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// handleChat relays one streaming chat turn. Failures before the stream
// opens produce a JSON error; once the first fragment has been written the
// status line is committed and errors can only travel in-band.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if !s.app.HasGenerator() {
		writeError(w, http.StatusInternalServerError, "API key not configured")
		return
	}
	if s.limiter != nil && !s.limiter.Allow(util.ClientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, _ := w.(http.Flusher)
	streaming := false
	emit := func(event sseEvent) {
		streaming = true
		data, _ := json.Marshal(event)
		fmt.Fprintf(w, "data: %s\n\n", data)
		if flusher != nil {
			flusher.Flush()
		}
	}

	ctx := r.Context()
	full, err := s.app.StreamChat(ctx, req.Message, req.History, req.TripID, func(fragment string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		emit(sseEvent{Type: "text", Content: fragment})
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			// Client went away; stop quietly and let the context tear down
			// the upstream call.
			return
		}
		if !streaming {
			// Nothing written yet, the status line is still ours.
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		emit(sseEvent{Type: "error", Content: err.Error()})
		return
	}

	emit(sseEvent{Type: "done"})

	if err := s.app.SaveAssistantReply(ctx, req.TripID, full); err != nil {
		// Events already sent cannot be retracted; surface the write failure
		// as a trailing in-band event.
		emit(sseEvent{Type: "error", Content: err.Error()})
	}
}
