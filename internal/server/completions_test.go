package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fakeai-dev/fakeai/internal/fakeai"
)

func TestHandleCompletionHappyPath(t *testing.T) {
	h := New(newTestDeps())
	prompt, _ := json.Marshal("write a haiku")
	body, _ := json.Marshal(fakeai.CompletionRequest{Model: "gpt-3.5-turbo", Prompt: prompt})

	req := httptest.NewRequest(http.MethodPost, "/v1/completions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp fakeai.CompletionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Choices)
}
