package server

import (
	"net/http"

	"github.com/fakeai-dev/fakeai/internal/fakeai"
)

// handleModerations serves POST /v1/moderations.
func (s *server) handleModerations(w http.ResponseWriter, r *http.Request) {
	var req fakeai.ModerationRequest
	if err := decodeJSONBody(r, &req); err != nil {
		s.writeAPIError(w, r, err)
		return
	}

	resp, err := s.deps.Chat.Moderation(&req)
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
