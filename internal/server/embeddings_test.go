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

func TestHandleEmbeddingsHappyPath(t *testing.T) {
	h := New(newTestDeps())
	input, _ := json.Marshal("embed this")
	body, _ := json.Marshal(fakeai.EmbeddingRequest{Model: "text-embedding-3-small", Input: input})

	req := httptest.NewRequest(http.MethodPost, "/v1/embeddings", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp fakeai.EmbeddingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data)
	require.Equal(t, "text-embedding-3-small", resp.Model)
}
