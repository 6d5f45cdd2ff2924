package server

import "net/http"

// metricsPayload is the JSON shape returned by GET /metrics.
type metricsPayload struct {
	Requests  []any `json:"requests"`
	Streaming any   `json:"streaming,omitempty"`
	Models    []any `json:"models"`
	Errors    []any `json:"errors,omitempty"`
	KVCache   []any `json:"kv_cache,omitempty"`
}

// handleMetricsJSON dumps every tracker's aggregate snapshot as plain JSON.
// Unlike /metrics/prometheus this is not a Prometheus exposition format.
func (s *server) handleMetricsJSON(w http.ResponseWriter, r *http.Request) {
	t := s.deps.Trackers
	if t == nil {
		writeJSON(w, http.StatusOK, metricsPayload{})
		return
	}

	requests := t.Request.SnapshotAll()
	reqs := make([]any, len(requests))
	for i, rs := range requests {
		reqs[i] = rs
	}

	models := t.Model.SnapshotAll()
	mods := make([]any, len(models))
	for i, ms := range models {
		mods[i] = ms
	}

	errs := t.Error.SnapshotAll()
	errorsOut := make([]any, len(errs))
	for i, es := range errs {
		errorsOut[i] = es
	}

	kvSnaps := t.KVCache.SnapshotAll()
	kvOut := make([]any, len(kvSnaps))
	for i, ks := range kvSnaps {
		kvOut[i] = ks
	}

	writeJSON(w, http.StatusOK, metricsPayload{
		Requests:  reqs,
		Streaming: t.Streaming.Snapshot(),
		Models:    mods,
		Errors:    errorsOut,
		KVCache:   kvOut,
	})
}

// handleDynamoMetrics dumps the Dynamo-style latency-breakdown tracker.
func (s *server) handleDynamoMetrics(w http.ResponseWriter, r *http.Request) {
	if s.deps.Trackers == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Trackers.Dynamo.Snapshot())
}

// handleKVCacheMetrics dumps the KV-cache hit-rate tracker. Endpoint is
// optional; "" aggregates across all.
func (s *server) handleKVCacheMetrics(w http.ResponseWriter, r *http.Request) {
	if s.deps.Trackers == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	endpoint := r.URL.Query().Get("endpoint")
	writeJSON(w, http.StatusOK, s.deps.Trackers.KVCache.Snapshot(endpoint))
}
