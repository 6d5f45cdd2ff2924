package server

import (
	"net/http"

	"github.com/fakeai-dev/fakeai/internal/fakeai"
)

// handleCompletion serves the legacy POST /v1/completions endpoint.
func (s *server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	var req fakeai.CompletionRequest
	if err := decodeJSONBody(r, &req); err != nil {
		s.writeAPIError(w, r, err)
		return
	}

	resp, err := s.deps.Chat.Completion(r.Context(), &req)
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
