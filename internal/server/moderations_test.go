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

func TestHandleModerationsHappyPath(t *testing.T) {
	h := New(newTestDeps())
	input, _ := json.Marshal("is this safe?")
	body, _ := json.Marshal(fakeai.ModerationRequest{Input: input})

	req := httptest.NewRequest(http.MethodPost, "/v1/moderations", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp fakeai.ModerationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Results)
}
