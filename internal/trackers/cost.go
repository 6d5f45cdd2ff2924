package trackers

import "sync"

// ModelPrice is the static per-1k-token price table entry for a model family.
type ModelPrice struct {
	InputPer1K     float64
	OutputPer1K    float64
	CachedDiscount float64 // fraction off input price for cached tokens, e.g. 0.5
}

// DefaultModelPrices is a representative static price table; unknown models
// fall back to DefaultPrice.
var DefaultModelPrices = map[string]ModelPrice{
	"gpt-4":              {InputPer1K: 0.03, OutputPer1K: 0.06, CachedDiscount: 0.5},
	"gpt-4o":             {InputPer1K: 0.005, OutputPer1K: 0.015, CachedDiscount: 0.5},
	"gpt-3.5-turbo":       {InputPer1K: 0.0005, OutputPer1K: 0.0015, CachedDiscount: 0.5},
	"openai/gpt-oss-120b": {InputPer1K: 0.0009, OutputPer1K: 0.0045, CachedDiscount: 0.5},
}

// DefaultPrice is used for models absent from DefaultModelPrices.
var DefaultPrice = ModelPrice{InputPer1K: 0.001, OutputPer1K: 0.002, CachedDiscount: 0.5}

// CostSnapshot is a per-api-key cost copy.
type CostSnapshot struct {
	APIKey        string
	TotalCostUSD  float64
	BudgetUSD     float64
	OverBudget    bool
}

type keyCost struct {
	total  float64
	budget float64
}

// CostTracker accumulates per-api-key cost using the static price table.
type CostTracker struct {
	mu     sync.Mutex
	prices map[string]ModelPrice
	keys   map[string]*keyCost
}

// NewCostTracker constructs a tracker using DefaultModelPrices.
func NewCostTracker() *CostTracker {
	return &CostTracker{prices: DefaultModelPrices, keys: make(map[string]*keyCost)}
}

func (t *CostTracker) priceFor(model string) ModelPrice {
	if p, ok := t.prices[model]; ok {
		return p
	}
	return DefaultPrice
}

// SetBudget sets the USD budget threshold for an api-key (0 = unlimited).
func (t *CostTracker) SetBudget(apiKey string, budgetUSD float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := t.key(apiKey)
	k.budget = budgetUSD
}

func (t *CostTracker) key(apiKey string) *keyCost {
	k, ok := t.keys[apiKey]
	if !ok {
		k = &keyCost{}
		t.keys[apiKey] = k
	}
	return k
}

// Record accounts for one completed request's token usage against apiKey.
// Returns true if recording this usage crossed the configured budget.
func (t *CostTracker) Record(apiKey, model string, inputTokens, outputTokens, cachedTokens int) (costUSD float64, crossedBudget bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	price := t.priceFor(model)
	billableInput := inputTokens - cachedTokens
	if billableInput < 0 {
		billableInput = 0
	}
	cost := float64(billableInput)/1000*price.InputPer1K +
		float64(cachedTokens)/1000*price.InputPer1K*(1-price.CachedDiscount) +
		float64(outputTokens)/1000*price.OutputPer1K
	k := t.key(apiKey)
	before := k.total
	k.total += cost
	crossedBudget = k.budget > 0 && before < k.budget && k.total >= k.budget
	return cost, crossedBudget
}

// Snapshot returns a copy of apiKey's accumulated cost state.
func (t *CostTracker) Snapshot(apiKey string) CostSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := t.key(apiKey)
	return CostSnapshot{
		APIKey:       apiKey,
		TotalCostUSD: k.total,
		BudgetUSD:    k.budget,
		OverBudget:   k.budget > 0 && k.total >= k.budget,
	}
}
