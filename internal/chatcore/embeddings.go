package chatcore

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
)

// decodeEmbeddingInput accepts either a single string or an array of
// strings for the OpenAI "input" field.
func decodeEmbeddingInput(raw json.RawMessage) ([]string, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}
	return nil, fmt.Errorf("input must be a string or array of strings")
}

// fabricateVector derives a deterministic, non-semantic unit-ish vector
// from text, seeded from its FNV-1a hash so identical inputs always embed
// to the same vector.
func fabricateVector(text string, dims int) []float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	out := make([]float64, dims)
	for i := range out {
		seed = seed*6364136223846793005 + 1442695040888963407
		// map to [-1, 1)
		out[i] = float64(int64(seed>>11))/(1<<52) - 1
	}
	return out
}
