package trackers

import (
	"sync"

	"github.com/fakeai-dev/fakeai/internal/metricswindow"
)

// StreamingSnapshot summarizes completed-stream behavior.
type StreamingSnapshot struct {
	CompletedStreams int64
	ActiveStreams    int64
	TTFTMsP50        float64
	TTFTMsP90        float64
	TTFTMsP99        float64
	TokensPerSecAvg  float64
}

// StreamingTracker aggregates TTFT and tokens-per-second across streams.
// TTFT_ms = (first_token_time-start_time)*1000;
// TPS = tokens / (end_time-first_token_time).
type StreamingTracker struct {
	mu        sync.Mutex
	completed int64
	active    int64
	ttft      *metricswindow.Window
	tpsSum    float64
	tpsCount  int64
}

// NewStreamingTracker constructs an empty tracker.
func NewStreamingTracker() *StreamingTracker {
	return &StreamingTracker{ttft: metricswindow.New(300, 10_000)}
}

// StreamStarted increments the active-stream count.
func (t *StreamingTracker) StreamStarted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active++
}

// RecordFirstToken records one TTFT sample in ms.
func (t *StreamingTracker) RecordFirstToken(ttftMs float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ttft.Record(ttftMs)
}

// StreamCompleted records a finished stream's throughput and decrements the
// active-stream count.
func (t *StreamingTracker) StreamCompleted(tokensPerSec float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active > 0 {
		t.active--
	}
	t.completed++
	t.tpsSum += tokensPerSec
	t.tpsCount++
}

// StreamEnded decrements active count for failed/cancelled streams that
// never reach StreamCompleted.
func (t *StreamingTracker) StreamEnded() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active > 0 {
		t.active--
	}
}

// Snapshot returns a copy of the current streaming stats.
func (t *StreamingTracker) Snapshot() StreamingSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	avg := 0.0
	if t.tpsCount > 0 {
		avg = t.tpsSum / float64(t.tpsCount)
	}
	return StreamingSnapshot{
		CompletedStreams: t.completed,
		ActiveStreams:    t.active,
		TTFTMsP50:        t.ttft.Percentile(50),
		TTFTMsP90:        t.ttft.Percentile(90),
		TTFTMsP99:        t.ttft.Percentile(99),
		TokensPerSecAvg:  avg,
	}
}
