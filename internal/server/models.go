package server

import "net/http"

// modelEntry is one OpenAI-shaped model listing entry.
type modelEntry struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
}

// modelListResponse is the /v1/models envelope.
type modelListResponse struct {
	Object string       `json:"object"`
	Data   []modelEntry `json:"data"`
}

// handleListModels serves GET /v1/models.
func (s *server) handleListModels(w http.ResponseWriter, r *http.Request) {
	descriptors := s.deps.Models.List()
	entries := make([]modelEntry, len(descriptors))
	for i, d := range descriptors {
		entries[i] = modelEntry{ID: d.ID, Object: "model", OwnedBy: "fakeai"}
	}
	writeJSON(w, http.StatusOK, modelListResponse{Object: "list", Data: entries})
}
