package bus

import (
	"sync"
	"time"
)

// State is a circuit breaker state.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// breakerConfig holds the circuit breaker's tunables, retuned
// for subscriber handler health instead of upstream HTTP error rate.
type breakerConfig struct {
	ErrorThreshold float64
	MinSamples     int
	WindowSeconds  int
	OpenTimeout    time.Duration
}

func defaultBreakerConfig() breakerConfig {
	return breakerConfig{
		ErrorThreshold: 0.5,
		MinSamples:     5,
		WindowSeconds:  30,
		OpenTimeout:    10 * time.Second,
	}
}

type bucket struct {
	errors int
	total  int
}

// slidingWindow is a fixed-bucket sliding window, adapted
// verbatim in shape from internal/circuitbreaker/circuitbreaker.go.
type slidingWindow struct {
	buckets  []bucket
	size     int
	head     int
	headTime int64
}

func newSlidingWindow(seconds int) *slidingWindow {
	if seconds < 1 {
		seconds = 1
	}
	return &slidingWindow{buckets: make([]bucket, seconds), size: seconds, headTime: time.Now().Unix()}
}

func (w *slidingWindow) advance(now int64) {
	delta := now - w.headTime
	if delta <= 0 {
		return
	}
	if delta >= int64(w.size) {
		for i := range w.buckets {
			w.buckets[i] = bucket{}
		}
		w.head = 0
		w.headTime = now
		return
	}
	for i := int64(0); i < delta; i++ {
		w.head = (w.head + 1) % w.size
		w.buckets[w.head] = bucket{}
	}
	w.headTime = now
}

func (w *slidingWindow) record(isErr bool) {
	now := time.Now().Unix()
	w.advance(now)
	w.buckets[w.head].total++
	if isErr {
		w.buckets[w.head].errors++
	}
}

func (w *slidingWindow) errorRate() (rate float64, total int) {
	w.advance(time.Now().Unix())
	var errs int
	for _, b := range w.buckets {
		errs += b.errors
		total += b.total
	}
	if total == 0 {
		return 0, 0
	}
	return float64(errs) / float64(total), total
}

func (w *slidingWindow) reset() {
	for i := range w.buckets {
		w.buckets[i] = bucket{}
	}
}

// breaker trips dispatch to a misbehaving subscriber for a cooldown window,
// then probes it in half-open state.
type breaker struct {
	mu         sync.Mutex
	cfg        breakerConfig
	state      State
	window     *slidingWindow
	openedAt   time.Time
	lastUsed   time.Time
	halfOpenOK bool
}

func newBreaker(cfg breakerConfig) *breaker {
	return &breaker{cfg: cfg, window: newSlidingWindow(cfg.WindowSeconds)}
}

// Allow reports whether a dispatch to this subscriber should proceed.
func (b *breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastUsed = time.Now()
	switch b.state {
	case Open:
		if time.Since(b.openedAt) >= b.cfg.OpenTimeout {
			b.state = HalfOpen
			b.halfOpenOK = false
			return true
		}
		return false
	case HalfOpen:
		// allow exactly one probe at a time; further callers wait for the
		// probe's result, but since dispatch is concurrent we simply allow
		// a single additional trial per RecordSuccess/RecordError cycle.
		return true
	default:
		return true
	}
}

func (b *breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.window.record(false)
	if b.state == HalfOpen {
		b.state = Closed
		b.window.reset()
	}
}

func (b *breaker) RecordError() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.window.record(true)
	if b.state == HalfOpen {
		b.state = Open
		b.openedAt = time.Now()
		return
	}
	rate, total := b.window.errorRate()
	if total >= b.cfg.MinSamples && rate >= b.cfg.ErrorThreshold {
		b.state = Open
		b.openedAt = time.Now()
	}
}

func (b *breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
