// Package trackers holds the seven specialized metric aggregators. Each
// tracker except DynamoTracker is updated only by its bound subscriber
// (internal/subscribers); DynamoTracker is recorded directly by
// internal/chatcore. Readers call accessor methods that return value-type snapshots, never
// live references.
package trackers

import (
	"sync"

	"github.com/fakeai-dev/fakeai/internal/metricswindow"
)

// RequestSnapshot is a point-in-time copy of one endpoint's request stats.
type RequestSnapshot struct {
	Endpoint     string
	RPS          float64
	ResponseRate float64
	ErrorRate    float64
	P50Ms        float64
	P90Ms        float64
	P99Ms        float64
	Total        int64
	Errors       int64
}

type endpointStats struct {
	mu      sync.Mutex
	total   int64
	errors  int64
	rps     *metricswindow.Window
	latency *metricswindow.Window
}

// RequestTracker aggregates per-endpoint RPS, response/error rate, and
// latency percentiles.
type RequestTracker struct {
	mu        sync.Mutex
	endpoints map[string]*endpointStats
}

// NewRequestTracker constructs an empty tracker.
func NewRequestTracker() *RequestTracker {
	return &RequestTracker{endpoints: make(map[string]*endpointStats)}
}

func (t *RequestTracker) stats(endpoint string) *endpointStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.endpoints[endpoint]
	if !ok {
		s = &endpointStats{
			rps:     metricswindow.New(60, 10_000),
			latency: metricswindow.New(300, 10_000),
		}
		t.endpoints[endpoint] = s
	}
	return s
}

// Record registers one completed request against endpoint.
func (t *RequestTracker) Record(endpoint string, durationMs float64, isError bool) {
	s := t.stats(endpoint)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	if isError {
		s.errors++
	}
	s.rps.Record(1)
	s.latency.Record(durationMs)
}

// Snapshot returns a copy of the current stats for endpoint.
func (t *RequestTracker) Snapshot(endpoint string) RequestSnapshot {
	s := t.stats(endpoint)
	s.mu.Lock()
	defer s.mu.Unlock()
	rate := s.rps.Rate()
	errRate := 0.0
	if s.total > 0 {
		errRate = float64(s.errors) / float64(s.total)
	}
	return RequestSnapshot{
		Endpoint:     endpoint,
		RPS:          rate,
		ResponseRate: 1 - errRate,
		ErrorRate:    errRate,
		P50Ms:        s.latency.Percentile(50),
		P90Ms:        s.latency.Percentile(90),
		P99Ms:        s.latency.Percentile(99),
		Total:        s.total,
		Errors:       s.errors,
	}
}

// SnapshotAll returns a copy of stats for every observed endpoint.
func (t *RequestTracker) SnapshotAll() []RequestSnapshot {
	t.mu.Lock()
	endpoints := make([]string, 0, len(t.endpoints))
	for e := range t.endpoints {
		endpoints = append(endpoints, e)
	}
	t.mu.Unlock()
	out := make([]RequestSnapshot, 0, len(endpoints))
	for _, e := range endpoints {
		out = append(out, t.Snapshot(e))
	}
	return out
}
