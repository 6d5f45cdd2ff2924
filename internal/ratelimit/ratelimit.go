// Package ratelimit implements per-key RPM and TPM rate limiting with lazy-refill token buckets.
package ratelimit

import (
	"sync"
	"time"
)

// Limits holds the effective RPM, TPM, and RPD limits for a key.
// A value of 0 means unlimited.
type Limits struct {
	RPM int64
	TPM int64
	RPD int64
}

// Tier is a named preset of (rpm, tpm, rpd) ceilings.
type Tier string

const (
	TierFree  Tier = "free"
	TierOne   Tier = "tier-1"
	TierTwo   Tier = "tier-2"
	TierThree Tier = "tier-3"
	TierFour  Tier = "tier-4"
	TierFive  Tier = "tier-5"
)

// TierLimits is the per-tier RPM/TPM/RPD limit table.
var TierLimits = map[Tier]Limits{
	TierFree:  {RPM: 3, TPM: 40_000, RPD: 200},
	TierOne:   {RPM: 10, TPM: 200_000, RPD: 1_000},
	TierTwo:   {RPM: 50, TPM: 500_000, RPD: 5_000},
	TierThree: {RPM: 200, TPM: 1_000_000, RPD: 10_000},
	TierFour:  {RPM: 500, TPM: 2_000_000, RPD: 50_000},
	TierFive:  {RPM: 10_000, TPM: 10_000_000, RPD: 100_000},
}

// Result is the outcome of a rate limit check.
type Result struct {
	Allowed           bool
	Limit             int64
	Remaining         int64
	RetryAfterSeconds float64
}

// Bucket is a token bucket with lazy refill (no background goroutine).
type Bucket struct {
	tokens   float64
	max      float64
	rate     float64 // tokens per second
	lastFill time.Time
}

func newBucket(limit int64, windowSeconds float64) *Bucket {
	return &Bucket{
		tokens:   float64(limit),
		max:      float64(limit),
		rate:     float64(limit) / windowSeconds,
		lastFill: time.Now(),
	}
}

// refill adds tokens based on elapsed time since last refill.
func (b *Bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastFill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens = min(b.max, b.tokens+elapsed*b.rate)
	b.lastFill = now
}

// tryConsume attempts to consume n tokens. Returns remaining and whether allowed.
func (b *Bucket) tryConsume(n float64, now time.Time) (remaining int64, allowed bool) {
	b.refill(now)
	if b.tokens >= n {
		b.tokens -= n
		return int64(b.tokens), true
	}
	return 0, false
}

// retryAfter returns seconds until n tokens are available.
func (b *Bucket) retryAfter(n float64) float64 {
	if b.tokens >= n {
		return 0
	}
	deficit := n - b.tokens
	return deficit / b.rate
}

// remaining returns current token count.
func (b *Bucket) remaining() int64 {
	return int64(b.tokens)
}

// adjust adds or removes tokens (for post-response correction).
func (b *Bucket) adjust(delta float64) {
	b.tokens = min(b.max, max(0, b.tokens+delta))
}

// Limiter holds RPM + TPM + RPD buckets for a single key.
type Limiter struct {
	mu       sync.Mutex
	rpm      *Bucket // nil if RPM unlimited
	tpm      *Bucket // nil if TPM unlimited
	rpd      *Bucket // nil if RPD unlimited
	limits   Limits
	lastUsed time.Time
}

const secondsPerDay = 86400.0

// newLimiter creates a Limiter with the given limits.
func newLimiter(limits Limits) *Limiter {
	l := &Limiter{limits: limits, lastUsed: time.Now()}
	if limits.RPM > 0 {
		l.rpm = newBucket(limits.RPM, 60)
	}
	if limits.TPM > 0 {
		l.tpm = newBucket(limits.TPM, 60)
	}
	if limits.RPD > 0 {
		l.rpd = newBucket(limits.RPD, secondsPerDay)
	}
	return l
}

// AllowRPM consumes 1 RPM token.
func (l *Limiter) AllowRPM() Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	l.lastUsed = now

	if l.rpm == nil {
		return Result{Allowed: true}
	}

	remaining, ok := l.rpm.tryConsume(1, now)
	if ok {
		return Result{
			Allowed:   true,
			Limit:     l.limits.RPM,
			Remaining: remaining,
		}
	}
	return Result{
		Allowed:           false,
		Limit:             l.limits.RPM,
		Remaining:         0,
		RetryAfterSeconds: l.rpm.retryAfter(1),
	}
}

// ConsumeTPM consumes estimated TPM tokens.
func (l *Limiter) ConsumeTPM(estimated int64) Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	l.lastUsed = now

	if l.tpm == nil {
		return Result{Allowed: true}
	}

	remaining, ok := l.tpm.tryConsume(float64(estimated), now)
	if ok {
		return Result{
			Allowed:   true,
			Limit:     l.limits.TPM,
			Remaining: remaining,
		}
	}
	return Result{
		Allowed:           false,
		Limit:             l.limits.TPM,
		Remaining:         0,
		RetryAfterSeconds: l.tpm.retryAfter(float64(estimated)),
	}
}

// AdjustTPM corrects the TPM bucket by delta (estimated - actual).
// Positive delta refunds tokens; negative consumes more.
func (l *Limiter) AdjustTPM(delta int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tpm != nil {
		l.tpm.adjust(float64(delta))
	}
}

// AdmitResult is the outcome of a joint RPM+TPM+RPD admission check.
type AdmitResult struct {
	Allowed           bool
	RPM               Result
	TPM               Result
	RPD               Result
	RetryAfterSeconds float64
}

// Admit performs the combined admission check: refill all
// three counters, and either all three are sufficient and all three are
// decremented, or none are mutated and the request is rejected with the
// retry-after of the most-restricted axis.
func (l *Limiter) Admit(estimatedTokens int64) AdmitResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	l.lastUsed = now

	if l.rpm != nil {
		l.rpm.refill(now)
	}
	if l.tpm != nil {
		l.tpm.refill(now)
	}
	if l.rpd != nil {
		l.rpd.refill(now)
	}

	rpmOK := l.rpm == nil || l.rpm.tokens >= 1
	tpmOK := l.tpm == nil || l.tpm.tokens >= float64(estimatedTokens)
	rpdOK := l.rpd == nil || l.rpd.tokens >= 1

	if !rpmOK || !tpmOK || !rpdOK {
		retryAfter := 0.0
		rejected := AdmitResult{Allowed: false}
		if l.rpm != nil {
			rejected.RPM = Result{Allowed: rpmOK, Limit: l.limits.RPM, Remaining: l.rpm.remaining()}
			if !rpmOK {
				retryAfter = max(retryAfter, l.rpm.retryAfter(1))
			}
		}
		if l.tpm != nil {
			rejected.TPM = Result{Allowed: tpmOK, Limit: l.limits.TPM, Remaining: l.tpm.remaining()}
			if !tpmOK {
				retryAfter = max(retryAfter, l.tpm.retryAfter(float64(estimatedTokens)))
			}
		}
		if l.rpd != nil {
			rejected.RPD = Result{Allowed: rpdOK, Limit: l.limits.RPD, Remaining: l.rpd.remaining()}
			if !rpdOK {
				retryAfter = max(retryAfter, l.rpd.retryAfter(1))
			}
		}
		rejected.RetryAfterSeconds = retryAfter
		return rejected
	}

	if l.rpm != nil {
		l.rpm.tokens -= 1
	}
	if l.tpm != nil {
		l.tpm.tokens -= float64(estimatedTokens)
	}
	if l.rpd != nil {
		l.rpd.tokens -= 1
	}

	result := AdmitResult{Allowed: true}
	if l.rpm != nil {
		result.RPM = Result{Allowed: true, Limit: l.limits.RPM, Remaining: l.rpm.remaining()}
	}
	if l.tpm != nil {
		result.TPM = Result{Allowed: true, Limit: l.limits.TPM, Remaining: l.tpm.remaining()}
	}
	if l.rpd != nil {
		result.RPD = Result{Allowed: true, Limit: l.limits.RPD, Remaining: l.rpd.remaining()}
	}
	return result
}

// AdjustTokens corrects the TPM bucket after actual usage is known (estimated
// minus actual; positive refunds, negative consumes more). Actual completion
// tokens are never re-charged against RPD/RPM.
func (l *Limiter) AdjustTokens(delta int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tpm != nil {
		l.tpm.adjust(float64(delta))
	}
}

// RPMResult returns current RPM state without consuming.
func (l *Limiter) RPMResult() Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rpm == nil {
		return Result{Allowed: true}
	}
	l.rpm.refill(time.Now())
	return Result{
		Allowed:   true,
		Limit:     l.limits.RPM,
		Remaining: l.rpm.remaining(),
	}
}

// Registry manages per-key Limiters.
type Registry struct {
	mu       sync.RWMutex
	limiters map[string]*Limiter
}

// NewRegistry creates a new rate limiter registry.
func NewRegistry() *Registry {
	return &Registry{
		limiters: make(map[string]*Limiter),
	}
}

// GetOrCreate returns the limiter for keyID, creating one if needed.
// If the key's limits have changed, a new limiter is created.
func (r *Registry) GetOrCreate(keyID string, limits Limits) *Limiter {
	r.mu.RLock()
	l, ok := r.limiters[keyID]
	r.mu.RUnlock()
	if ok && l.limits == limits {
		return l
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Double-check after acquiring write lock.
	if l, ok := r.limiters[keyID]; ok && l.limits == limits {
		return l
	}
	l = newLimiter(limits)
	r.limiters[keyID] = l
	return l
}

// EvictStale removes limiters not used since cutoff.
func (r *Registry) EvictStale(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for k, l := range r.limiters {
		l.mu.Lock()
		stale := l.lastUsed.Before(cutoff)
		l.mu.Unlock()
		if stale {
			delete(r.limiters, k)
			evicted++
		}
	}
	return evicted
}
