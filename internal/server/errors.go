package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fakeai-dev/fakeai/internal/bus"
	"github.com/fakeai-dev/fakeai/internal/fakeai"
)

// errorEnvelope is the OpenAI-compatible error body.
type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Param   string `json:"param,omitempty"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
}

func newEnvelope(message, errType, param, code string) errorEnvelope {
	var e errorEnvelope
	e.Error.Message = message
	e.Error.Type = errType
	e.Error.Param = param
	e.Error.Code = code
	return e
}

// toAPIError maps a sentinel (or wrapped sentinel) error from internal/fakeai
// to an HTTP status and OpenAI error envelope, keyed on its error-kind
// classification.
func toAPIError(err error) (int, errorEnvelope) {
	switch fakeai.Kind(err) {
	case fakeai.ErrKindValidation:
		return http.StatusBadRequest, newEnvelope(err.Error(), "invalid_request_error", "", "")
	case fakeai.ErrKindAuth:
		return http.StatusUnauthorized, newEnvelope(err.Error(), "invalid_request_error", "", "invalid_api_key")
	case fakeai.ErrKindRateLimit:
		return http.StatusTooManyRequests, newEnvelope(err.Error(), "invalid_request_error", "", "rate_limit_exceeded")
	case fakeai.ErrKindContextOverflow:
		return http.StatusBadRequest, newEnvelope(err.Error(), "invalid_request_error", "messages", "context_length_exceeded")
	case fakeai.ErrKindNotFound:
		return http.StatusNotFound, newEnvelope(err.Error(), "invalid_request_error", "", "not_found")
	case fakeai.ErrKindTimeout:
		return http.StatusGatewayTimeout, newEnvelope(err.Error(), "invalid_request_error", "", "timeout")
	case fakeai.ErrKindCancelled:
		return http.StatusRequestTimeout, newEnvelope(err.Error(), "invalid_request_error", "", "cancelled")
	case fakeai.ErrKindOverload:
		return http.StatusServiceUnavailable, newEnvelope(err.Error(), "invalid_request_error", "", "overloaded")
	default:
		return http.StatusInternalServerError, newEnvelope("internal error", "internal_error", "", "internal_error")
	}
}

// writeAPIError logs the error server-side, publishes it to the bus so
// ErrorTracker sees every HTTP-boundary failure (auth, validation, rate
// limit, not just handler-level errors), and writes its mapped envelope.
func (s *server) writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status, env := toAPIError(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "error", err.Error(), "status", status)
	}
	if s.deps.Bus != nil {
		s.deps.Bus.Publish(bus.NewError(bus.KindErrorOccurred, requestIDFromContext(r.Context()), bus.ErrorPayload{
			Endpoint: r.URL.Path,
			Kind:     string(fakeai.Kind(err)),
			Detail:   err.Error(),
		}))
	}
	writeJSON(w, status, env)
}

// jsonCT is a pre-allocated header value slice. Direct map assignment
// (w.Header()["Content-Type"] = jsonCT) avoids the []string{v} alloc
// that Header.Set creates on every call.
var jsonCT = []string{"application/json"}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		return
	}
	w.Header()["Content-Type"] = jsonCT
	w.WriteHeader(status)
	w.Write(data)
}
