// Package latency fabricates TTFT/ITL delays using parameterized variance
// sampling around a calibrated mean. There is no real hardware to model, so
// a uniform jitter sampler stands in for a GPU roofline model, combined with
// a KV-cache-driven speedup curve.
package latency

import (
	"math/rand/v2"
	"strconv"
)

// DefaultSpeedupWeight is how strongly KV-cache overlap reduces TTFT:
// ttft *= 1 - (matched/total)*speedupWeight.
const DefaultSpeedupWeight = 0.8

// MinTTFTFloorFraction bounds how far the cache speedup can shrink TTFT:
// it never drops below this fraction of the configured baseline.
const MinTTFTFloorFraction = 0.10

// Sampler draws TTFT/ITL samples around configured means with uniform
// percentage variance, per-request, using the request id to seed a PCG
// source so results are reproducible given the same request id.
type Sampler struct {
	TTFTMeanMs       float64
	ITLMeanMs        float64
	TTFTVariancePct  float64
	ITLVariancePct   float64
	SpeedupWeight    float64
}

// NewSampler constructs a Sampler, defaulting SpeedupWeight when zero.
func NewSampler(ttftMeanMs, itlMeanMs, ttftVariancePct, itlVariancePct float64) *Sampler {
	return &Sampler{
		TTFTMeanMs:      ttftMeanMs,
		ITLMeanMs:       itlMeanMs,
		TTFTVariancePct: ttftVariancePct,
		ITLVariancePct:  itlVariancePct,
		SpeedupWeight:   DefaultSpeedupWeight,
	}
}

// rngFor derives a per-request PCG source from a string seed (e.g. a
// request id), so repeated calls for the same request produce the same
// jitter sequence while different requests diverge.
func rngFor(seed string) *rand.Rand {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(seed); i++ {
		h ^= uint64(seed[i])
		h *= 1099511628211
	}
	return rand.New(rand.NewPCG(h, h>>1|1))
}

// sample implements the jitter formula:
// mean * (1 + uniform(-variancePct, variancePct)/100), clamped non-negative.
func sample(rng *rand.Rand, mean, variancePct float64) float64 {
	if variancePct <= 0 {
		if mean < 0 {
			return 0
		}
		return mean
	}
	jitter := (rng.Float64()*2 - 1) * variancePct
	v := mean * (1 + jitter/100)
	if v < 0 {
		return 0
	}
	return v
}

// TTFT draws a time-to-first-token sample in milliseconds for requestID,
// applying the cache-driven speedup curve for matchedTokens/totalTokens
// overlap (both zero means "no cache lookup performed").
func (s *Sampler) TTFT(requestID string, matchedTokens, totalTokens int) float64 {
	rng := rngFor(requestID + ":ttft")
	base := sample(rng, s.TTFTMeanMs, s.TTFTVariancePct)

	if totalTokens <= 0 || matchedTokens <= 0 {
		return base
	}
	weight := s.SpeedupWeight
	if weight == 0 {
		weight = DefaultSpeedupWeight
	}
	overlap := float64(matchedTokens) / float64(totalTokens)
	if overlap > 1 {
		overlap = 1
	}
	reduced := base * (1 - overlap*weight)
	floor := s.TTFTMeanMs * MinTTFTFloorFraction
	if reduced < floor {
		reduced = floor
	}
	return reduced
}

// ITL draws one inter-token-latency sample in milliseconds for the tokenSeq-th
// token of requestID.
func (s *Sampler) ITL(requestID string, tokenSeq int) float64 {
	rng := rngFor(requestID + ":itl:" + strconv.Itoa(tokenSeq))
	return sample(rng, s.ITLMeanMs, s.ITLVariancePct)
}
