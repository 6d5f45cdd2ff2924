// Package metricswindow stores timestamped samples and answers rate and
// percentile queries over a trailing window, keeping raw float64 samples
// rather than fixed buckets because percentiles need the values themselves,
// not just a count.
package metricswindow

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	at  time.Time
	val float64
}

// Window is a sliding window of (timestamp, value) samples bounded by a
// duration and an optional max sample count.
type Window struct {
	mu         sync.Mutex
	windowSecs float64
	maxSamples int
	samples    []sample
	now        func() time.Time
}

// New constructs a Window covering windowSeconds of history, optionally
// capped at maxSamples (0 = unbounded count, still pruned by age).
func New(windowSeconds float64, maxSamples int) *Window {
	if windowSeconds <= 0 {
		windowSeconds = 60
	}
	return &Window{windowSecs: windowSeconds, maxSamples: maxSamples, now: time.Now}
}

// Record appends a sample at the current time.
func (w *Window) Record(v float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = append(w.samples, sample{at: w.now(), val: v})
	w.prune()
}

// prune drops samples older than now-window and, if maxSamples is set,
// trims the oldest excess. Caller must hold w.mu.
func (w *Window) prune() {
	cutoff := w.now().Add(-time.Duration(w.windowSecs * float64(time.Second)))
	i := 0
	for i < len(w.samples) && w.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		w.samples = w.samples[i:]
	}
	if w.maxSamples > 0 && len(w.samples) > w.maxSamples {
		w.samples = w.samples[len(w.samples)-w.maxSamples:]
	}
}

// Count returns the number of live samples.
func (w *Window) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune()
	return len(w.samples)
}

// Rate returns count / window_seconds after pruning.
func (w *Window) Rate() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune()
	if w.windowSecs <= 0 {
		return 0
	}
	return float64(len(w.samples)) / w.windowSecs
}

// Percentile returns the p-th percentile (0 < p <= 100) of live samples
// using nearest-rank. Fewer than 20 samples returns the max; for p==100
// requests with fewer than 100 samples, also returns the max.
func (w *Window) Percentile(p float64) float64 {
	w.mu.Lock()
	w.prune()
	vals := make([]float64, len(w.samples))
	for i, s := range w.samples {
		vals[i] = s.val
	}
	w.mu.Unlock()
	if len(vals) == 0 {
		return 0
	}
	sort.Float64s(vals)
	if len(vals) < 20 {
		return vals[len(vals)-1]
	}
	if p >= 100 && len(vals) < 100 {
		return vals[len(vals)-1]
	}
	rank := int((p/100)*float64(len(vals)) + 0.9999999)
	if rank < 1 {
		rank = 1
	}
	if rank > len(vals) {
		rank = len(vals)
	}
	return vals[rank-1]
}

// Samples returns a copy of the live sample values, oldest first.
func (w *Window) Samples() []float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune()
	out := make([]float64, len(w.samples))
	for i, s := range w.samples {
		out[i] = s.val
	}
	return out
}
