// Package subscribers binds bus events to tracker mutations. Each subscriber
// is a thin adapter: translate one event kind into tracker calls, nothing
// else -- explicit, ordered registration, no reflection-based
// auto-registration.
package subscribers

import (
	"context"

	"github.com/fakeai-dev/fakeai/internal/bus"
	"github.com/fakeai-dev/fakeai/internal/trackers"
)

// Trackers bundles the seven tracker instances subscribers mutate.
type Trackers struct {
	Request   *trackers.RequestTracker
	Streaming *trackers.StreamingTracker
	Dynamo    *trackers.DynamoTracker
	Cost      *trackers.CostTracker
	Model     *trackers.ModelTracker
	Error     *trackers.ErrorTracker
	KVCache   *trackers.KVCacheTracker
}

// NewTrackers constructs a fresh, empty Trackers bundle.
func NewTrackers() *Trackers {
	return &Trackers{
		Request:   trackers.NewRequestTracker(),
		Streaming: trackers.NewStreamingTracker(),
		Dynamo:    trackers.NewDynamoTracker(),
		Cost:      trackers.NewCostTracker(),
		Model:     trackers.NewModelTracker(),
		Error:     trackers.NewErrorTracker(),
		KVCache:   trackers.NewKVCacheTracker(),
	}
}

// Register wires every subscriber onto b. Priorities: request (which also
// feeds the model tracker) and error run at 100, cost and streaming at 50,
// KV-cache last at 10. The dynamo tracker has no subscriber here.
func Register(b *bus.Bus, t *Trackers) {
	b.Subscribe(bus.KindRequestCompleted, 100, "request-tracker", func(_ context.Context, e bus.Event) error {
		p, ok := e.Payload.(bus.RequestLifecyclePayload)
		if !ok {
			return nil
		}
		t.Request.Record(p.Endpoint, p.DurationMs, false)
		t.Model.Record(p.Model, p.DurationMs, p.InputTokens, p.OutputTokens)
		return nil
	})
	b.Subscribe(bus.KindRequestFailed, 100, "request-tracker-failed", func(_ context.Context, e bus.Event) error {
		p, ok := e.Payload.(bus.RequestLifecyclePayload)
		if !ok {
			return nil
		}
		t.Request.Record(p.Endpoint, p.DurationMs, true)
		return nil
	})
	b.Subscribe(bus.KindErrorOccurred, 100, "error-tracker", func(_ context.Context, e bus.Event) error {
		p, ok := e.Payload.(bus.ErrorPayload)
		if !ok {
			return nil
		}
		t.Error.Record(p.Endpoint, p.Kind)
		return nil
	})
	b.Subscribe(bus.KindErrorPatternDetected, 100, "error-pattern-tracker", func(_ context.Context, e bus.Event) error {
		p, ok := e.Payload.(bus.ErrorPayload)
		if !ok {
			return nil
		}
		t.Error.RecordPattern(p.Kind)
		return nil
	})

	b.Subscribe(bus.KindUsageRecorded, 50, "cost-tracker", func(_ context.Context, e bus.Event) error {
		p, ok := e.Payload.(bus.UsagePayload)
		if !ok {
			return nil
		}
		t.Cost.Record(p.APIKey, p.Model, p.InputTokens, p.OutputTokens, p.CachedTokens)
		return nil
	})
	b.Subscribe(bus.KindStreamStarted, 50, "streaming-tracker-started", func(_ context.Context, e bus.Event) error {
		t.Streaming.StreamStarted()
		return nil
	})
	b.Subscribe(bus.KindStreamFirstToken, 50, "streaming-tracker-ttft", func(_ context.Context, e bus.Event) error {
		p, ok := e.Payload.(bus.StreamPayload)
		if !ok {
			return nil
		}
		t.Streaming.RecordFirstToken(p.TTFTMs)
		return nil
	})
	b.Subscribe(bus.KindStreamCompleted, 50, "streaming-tracker-completed", func(_ context.Context, e bus.Event) error {
		p, ok := e.Payload.(bus.StreamPayload)
		if !ok {
			return nil
		}
		t.Streaming.StreamCompleted(p.TokensPerS)
		return nil
	})
	b.Subscribe(bus.KindStreamFailed, 50, "streaming-tracker-ended-failed", func(_ context.Context, e bus.Event) error {
		t.Streaming.StreamEnded()
		return nil
	})
	b.Subscribe(bus.KindStreamCancelled, 50, "streaming-tracker-ended-cancelled", func(_ context.Context, e bus.Event) error {
		t.Streaming.StreamEnded()
		return nil
	})

	b.Subscribe(bus.KindCacheLookup, 10, "kvcache-tracker", func(_ context.Context, e bus.Event) error {
		p, ok := e.Payload.(bus.CachePayload)
		if !ok {
			return nil
		}
		speedupPct := 0.0
		if p.TotalTokens > 0 {
			speedupPct = float64(p.MatchedTokens) / float64(p.TotalTokens) * 100
		}
		t.KVCache.Record(p.Endpoint, p.MatchedTokens, p.TotalTokens, speedupPct)
		return nil
	})
}
