package server

import "net/http"

var (
	notReadyBody = []byte(`{"status":"not_ready","ready":false}`)
	okBody       = []byte(`ok`)
	plainCT      = []string{"text/plain; charset=utf-8"}
)

// handleHealth reports overall system health and readiness.
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.ReadyCheck != nil {
		if err := s.deps.ReadyCheck(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, healthPayload(false))
			return
		}
	}
	writeJSON(w, http.StatusOK, healthPayload(true))
}

func healthPayload(ready bool) map[string]any {
	status := "healthy"
	if !ready {
		status = "not_ready"
	}
	return map[string]any{
		"status":    status,
		"ready":     ready,
		"timestamp": nowUnix(),
	}
}

// handleHealthz is the ops-facing liveness alias: plain 200 if the process
// is up at all, regardless of readiness.
func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header()["Content-Type"] = plainCT
	w.WriteHeader(http.StatusOK)
	w.Write(okBody)
}

// handleReadyz is the ops-facing readiness alias.
func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.deps.ReadyCheck != nil {
		if err := s.deps.ReadyCheck(r.Context()); err != nil {
			w.Header()["Content-Type"] = plainCT
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write(notReadyBody)
			return
		}
	}
	w.Header()["Content-Type"] = plainCT
	w.WriteHeader(http.StatusOK)
	w.Write(okBody)
}
