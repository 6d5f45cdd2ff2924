package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/fakeai-dev/fakeai/internal/fakeai"
)

func nowUnix() int64 { return time.Now().Unix() }

const maxRequestBody = 4 << 20 // 4 MiB, generous for the chat/embedding bodies FakeAI accepts

// decodeJSONBody reads and unmarshals a request body into dst, enforcing
// maxRequestBody and mapping any failure to ErrValidation.
func decodeJSONBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
	if err != nil {
		return fakeai.ErrValidation
	}
	if len(body) > maxRequestBody {
		return fakeai.ErrValidation
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fakeai.ErrValidation
	}
	return nil
}
