package trackers

import "sync"

// ErrorSnapshot is a per-endpoint error-kind breakdown copy.
type ErrorSnapshot struct {
	Endpoint string
	Counts   map[string]int64
	Total    int64
}

type endpointErrors struct {
	counts map[string]int64
	total  int64
}

// ErrorTracker classifies error-kind counts per endpoint and tallies
// abuse-pattern hits (rate-limit vs validation vs overload etc).
type ErrorTracker struct {
	mu        sync.Mutex
	endpoints map[string]*endpointErrors
	patterns  map[string]int64
}

// NewErrorTracker constructs an empty tracker.
func NewErrorTracker() *ErrorTracker {
	return &ErrorTracker{endpoints: make(map[string]*endpointErrors), patterns: make(map[string]int64)}
}

// Record accounts for one error of kind against endpoint.
func (t *ErrorTracker) Record(endpoint, kind string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.endpoints[endpoint]
	if !ok {
		s = &endpointErrors{counts: make(map[string]int64)}
		t.endpoints[endpoint] = s
	}
	s.counts[kind]++
	s.total++
}

// RecordPattern increments a named abuse-pattern hit counter (e.g. "burst",
// "sustained_violation", "endpoint_diversity").
func (t *ErrorTracker) RecordPattern(pattern string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.patterns[pattern]++
}

// Snapshot returns a copy of endpoint's error-kind counts.
func (t *ErrorTracker) Snapshot(endpoint string) ErrorSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.endpoints[endpoint]
	if !ok {
		return ErrorSnapshot{Endpoint: endpoint, Counts: map[string]int64{}}
	}
	counts := make(map[string]int64, len(s.counts))
	for k, v := range s.counts {
		counts[k] = v
	}
	return ErrorSnapshot{Endpoint: endpoint, Counts: counts, Total: s.total}
}

// SnapshotAll returns a copy of error-kind counts for every observed
// endpoint.
func (t *ErrorTracker) SnapshotAll() []ErrorSnapshot {
	t.mu.Lock()
	endpoints := make([]string, 0, len(t.endpoints))
	for e := range t.endpoints {
		endpoints = append(endpoints, e)
	}
	t.mu.Unlock()
	out := make([]ErrorSnapshot, 0, len(endpoints))
	for _, e := range endpoints {
		out = append(out, t.Snapshot(e))
	}
	return out
}

// PatternCounts returns a copy of abuse-pattern hit counters.
func (t *ErrorTracker) PatternCounts() map[string]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int64, len(t.patterns))
	for k, v := range t.patterns {
		out[k] = v
	}
	return out
}
