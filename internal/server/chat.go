package server

import (
	"errors"
	"net/http"

	"github.com/fakeai-dev/fakeai/internal/fakeai"
)

// handleChatCompletion serves POST /v1/chat/completions, dispatching to the
// streaming or non-streaming path based on the request body's "stream" flag.
func (s *server) handleChatCompletion(w http.ResponseWriter, r *http.Request) {
	var req fakeai.ChatRequest
	if err := decodeJSONBody(r, &req); err != nil {
		s.writeAPIError(w, r, err)
		return
	}

	if req.Stream {
		s.streamChatCompletion(w, r, &req)
		return
	}

	resp, err := s.deps.Chat.ChatCompletion(r.Context(), &req)
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) streamChatCompletion(w http.ResponseWriter, r *http.Request, req *fakeai.ChatRequest) {
	chunks, err := s.deps.Chat.ChatCompletionStream(r.Context(), req)
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeAPIError(w, r, fakeai.ErrInternal)
		return
	}

	writeSSEHeaders(w)
	flusher.Flush()

	for chunk := range chunks {
		if chunk.Err != nil {
			if errors.Is(chunk.Err, fakeai.ErrCancelled) {
				return
			}
			writeSSEError(w, chunk.Err.Error())
			flusher.Flush()
			return
		}
		if chunk.Keepalive {
			writeSSEKeepAlive(w)
			flusher.Flush()
			continue
		}
		writeSSEData(w, chunk.Data)
		flusher.Flush()
	}

	writeSSEDone(w)
	flusher.Flush()
}
