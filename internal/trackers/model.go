package trackers

import "sync"

// ModelSnapshot is a per-model usage copy.
type ModelSnapshot struct {
	Model         string
	RequestCount  int64
	MeanLatencyMs float64
	InputTokens   int64
	OutputTokens  int64
}

type modelStats struct {
	count        int64
	latencySum   float64
	inputTokens  int64
	outputTokens int64
}

// ModelTracker aggregates per-model request count, mean latency, and token
// totals.
type ModelTracker struct {
	mu     sync.Mutex
	models map[string]*modelStats
}

// NewModelTracker constructs an empty tracker.
func NewModelTracker() *ModelTracker {
	return &ModelTracker{models: make(map[string]*modelStats)}
}

// Record accounts for one completed request against model.
func (t *ModelTracker) Record(model string, latencyMs float64, inputTokens, outputTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.models[model]
	if !ok {
		s = &modelStats{}
		t.models[model] = s
	}
	s.count++
	s.latencySum += latencyMs
	s.inputTokens += int64(inputTokens)
	s.outputTokens += int64(outputTokens)
}

// Snapshot returns a copy of model's current stats.
func (t *ModelTracker) Snapshot(model string) ModelSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.models[model]
	if !ok {
		return ModelSnapshot{Model: model}
	}
	mean := 0.0
	if s.count > 0 {
		mean = s.latencySum / float64(s.count)
	}
	return ModelSnapshot{
		Model:         model,
		RequestCount:  s.count,
		MeanLatencyMs: mean,
		InputTokens:   s.inputTokens,
		OutputTokens:  s.outputTokens,
	}
}

// SnapshotAll returns a copy of stats for every observed model.
func (t *ModelTracker) SnapshotAll() []ModelSnapshot {
	t.mu.Lock()
	models := make([]string, 0, len(t.models))
	for m := range t.models {
		models = append(models, m)
	}
	t.mu.Unlock()
	out := make([]ModelSnapshot, 0, len(models))
	for _, m := range models {
		out = append(out, t.Snapshot(m))
	}
	return out
}
