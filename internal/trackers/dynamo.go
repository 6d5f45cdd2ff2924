package trackers

import (
	"sync"
	"time"

	"github.com/fakeai-dev/fakeai/internal/metricswindow"
)

// LatencyBreakdown is one request's phase timings in ms.
type LatencyBreakdown struct {
	RequestID string
	Status    string
	QueueMs   float64
	PrefillMs float64
	DecodeMs  float64
	TotalMs   float64
	OutputTokens int
}

// DynamoSnapshot mirrors the Dynamo inference-server style latency-breakdown
// dump: per-phase percentiles, queue-depth/batch-size samples, and the last
// 100 request lifecycles.
type DynamoSnapshot struct {
	QueueMsP50    float64
	PrefillMsP50  float64
	DecodeMsP50   float64
	TotalMsP50    float64
	QueueDepthAvg float64
	BatchSizeAvg  float64
	RequestLifecycles []LatencyBreakdown
}

const dynamoHistoryCap = 100

// DynamoTracker records per-request latency breakdowns and resource samples.
type DynamoTracker struct {
	mu         sync.Mutex
	queue      *metricswindow.Window
	prefill    *metricswindow.Window
	decode     *metricswindow.Window
	total      *metricswindow.Window
	queueDepth *metricswindow.Window
	batchSize  *metricswindow.Window
	history    []LatencyBreakdown
	buckets    *metricswindow.Window // 1-minute bucketed totals, sample value = total ms
}

// NewDynamoTracker constructs an empty tracker.
func NewDynamoTracker() *DynamoTracker {
	return &DynamoTracker{
		queue:      metricswindow.New(300, 10_000),
		prefill:    metricswindow.New(300, 10_000),
		decode:     metricswindow.New(300, 10_000),
		total:      metricswindow.New(300, 10_000),
		queueDepth: metricswindow.New(300, 10_000),
		batchSize:  metricswindow.New(300, 10_000),
		buckets:    metricswindow.New(60, 10_000),
	}
}

// Record appends a completed request's latency breakdown.
func (t *DynamoTracker) Record(b LatencyBreakdown) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queue.Record(b.QueueMs)
	t.prefill.Record(b.PrefillMs)
	t.decode.Record(b.DecodeMs)
	t.total.Record(b.TotalMs)
	t.buckets.Record(b.TotalMs)
	t.history = append(t.history, b)
	if len(t.history) > dynamoHistoryCap {
		t.history = t.history[len(t.history)-dynamoHistoryCap:]
	}
}

// RecordResourceSample records an instantaneous queue-depth/batch-size pair.
func (t *DynamoTracker) RecordResourceSample(queueDepth, batchSize int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queueDepth.Record(float64(queueDepth))
	t.batchSize.Record(float64(batchSize))
}

func avg(w *metricswindow.Window) float64 {
	vals := w.Samples()
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// Snapshot returns a copy of the tracker's current state.
func (t *DynamoTracker) Snapshot() DynamoSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	history := make([]LatencyBreakdown, len(t.history))
	copy(history, t.history)
	return DynamoSnapshot{
		QueueMsP50:        t.queue.Percentile(50),
		PrefillMsP50:      t.prefill.Percentile(50),
		DecodeMsP50:       t.decode.Percentile(50),
		TotalMsP50:        t.total.Percentile(50),
		QueueDepthAvg:     avg(t.queueDepth),
		BatchSizeAvg:      avg(t.batchSize),
		RequestLifecycles: history,
	}
}

// nowMs is a package-level helper for callers computing durations.
func nowMs() float64 { return float64(time.Now().UnixNano()) / 1e6 }
