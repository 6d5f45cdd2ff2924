package trackers

import "sync"

// KVCacheSnapshot is a per-endpoint cache-hit summary copy.
type KVCacheSnapshot struct {
	Endpoint          string
	TotalLookups      int64
	TotalCacheHits    int64
	CacheHitRate      float64
	AvgTokensMatched  float64
	TTFTSpeedupAvgPct float64
}

type kvCacheStats struct {
	lookups       int64
	hits          int64
	matchedTokens int64
	speedupSum    float64
	speedupCount  int64
}

// KVCacheTracker aggregates KV-cache router outcomes per endpoint.
type KVCacheTracker struct {
	mu        sync.Mutex
	endpoints map[string]*kvCacheStats
}

// NewKVCacheTracker constructs an empty tracker.
func NewKVCacheTracker() *KVCacheTracker {
	return &KVCacheTracker{endpoints: make(map[string]*kvCacheStats)}
}

// Record accounts for one cache lookup outcome.
func (t *KVCacheTracker) Record(endpoint string, matchedTokens, totalTokens int, ttftSpeedupPct float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.endpoints[endpoint]
	if !ok {
		s = &kvCacheStats{}
		t.endpoints[endpoint] = s
	}
	s.lookups++
	if matchedTokens > 0 {
		s.hits++
	}
	s.matchedTokens += int64(matchedTokens)
	if matchedTokens > 0 {
		s.speedupSum += ttftSpeedupPct
		s.speedupCount++
	}
}

// Snapshot returns a copy of endpoint's current cache stats.
func (t *KVCacheTracker) Snapshot(endpoint string) KVCacheSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.endpoints[endpoint]
	if !ok {
		return KVCacheSnapshot{Endpoint: endpoint}
	}
	hitRate := 0.0
	if s.lookups > 0 {
		hitRate = float64(s.hits) / float64(s.lookups)
	}
	avgMatched := 0.0
	if s.lookups > 0 {
		avgMatched = float64(s.matchedTokens) / float64(s.lookups)
	}
	avgSpeedup := 0.0
	if s.speedupCount > 0 {
		avgSpeedup = t.avgSpeedup(s)
	}
	return KVCacheSnapshot{
		Endpoint:          endpoint,
		TotalLookups:      s.lookups,
		TotalCacheHits:    s.hits,
		CacheHitRate:      hitRate,
		AvgTokensMatched:  avgMatched,
		TTFTSpeedupAvgPct: avgSpeedup,
	}
}

func (t *KVCacheTracker) avgSpeedup(s *kvCacheStats) float64 {
	return s.speedupSum / float64(s.speedupCount)
}

// SnapshotAll returns a copy of cache stats for every observed endpoint.
func (t *KVCacheTracker) SnapshotAll() []KVCacheSnapshot {
	t.mu.Lock()
	endpoints := make([]string, 0, len(t.endpoints))
	for e := range t.endpoints {
		endpoints = append(endpoints, e)
	}
	t.mu.Unlock()
	out := make([]KVCacheSnapshot, 0, len(endpoints))
	for _, e := range endpoints {
		out = append(out, t.Snapshot(e))
	}
	return out
}
