package server

import (
	"net/http"

	"github.com/fakeai-dev/fakeai/internal/fakeai"
)

// handleEmbeddings serves POST /v1/embeddings.
func (s *server) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req fakeai.EmbeddingRequest
	if err := decodeJSONBody(r, &req); err != nil {
		s.writeAPIError(w, r, err)
		return
	}

	resp, err := s.deps.Chat.Embeddings(r.Context(), &req)
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
