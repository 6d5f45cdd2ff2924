package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fakeai-dev/fakeai/internal/fakeai"
	"github.com/fakeai-dev/fakeai/internal/latency"
)

func chatRequestBody(model string, stream bool) []byte {
	content, _ := json.Marshal("hello there")
	req := fakeai.ChatRequest{
		Model:    model,
		Messages: []fakeai.Message{{Role: "user", Content: content}},
		Stream:   stream,
	}
	b, _ := json.Marshal(req)
	return b
}

func TestHandleChatCompletionNonStreamingHappyPath(t *testing.T) {
	h := New(newTestDeps())
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(chatRequestBody("gpt-4o", false)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp fakeai.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "gpt-4o", resp.Model)
	require.NotEmpty(t, resp.Choices)
	require.NotNil(t, resp.Usage)
}

func TestHandleChatCompletionRejectsMalformedBody(t *testing.T) {
	h := New(newTestDeps())
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChatCompletionStreamingEmitsSSEFrames(t *testing.T) {
	h := New(newTestDeps())
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(chatRequestBody("gpt-4o", true)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	require.Contains(t, body, "data: ")
	require.Contains(t, body, "[DONE]")

	scanner := bufio.NewScanner(strings.NewReader(body))
	frames := 0
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "data: ") {
			frames++
		}
	}
	require.Greater(t, frames, 1)
}

func TestHandleChatCompletionStreamingEmitsKeepaliveComments(t *testing.T) {
	deps := newTestDeps()
	deps.Chat.Sampler = latency.NewSampler(1, 30, 0, 0) // 30ms ITL per token
	deps.Chat.Engine.KeepaliveInterval = 10 * time.Millisecond

	h := New(deps)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(chatRequestBody("gpt-4o", true)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), ": keep-alive")
}
