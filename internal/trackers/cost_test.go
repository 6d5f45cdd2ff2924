package trackers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCostTrackerUsesPriceTableAndCachedDiscount(t *testing.T) {
	tr := NewCostTracker()
	cost, crossed := tr.Record("key-a", "gpt-4", 1000, 1000, 0)
	require.False(t, crossed)
	require.InDelta(t, 0.03+0.06, cost, 1e-9)

	// Cached tokens are billed at the cached discount, not full input price.
	cost2, _ := tr.Record("key-a", "gpt-4", 1000, 0, 1000)
	require.InDelta(t, 0.03*0.5, cost2, 1e-9)
}

func TestCostTrackerUnknownModelFallsBackToDefaultPrice(t *testing.T) {
	tr := NewCostTracker()
	cost, _ := tr.Record("key-a", "some-unlisted-model", 1000, 1000, 0)
	require.InDelta(t, DefaultPrice.InputPer1K+DefaultPrice.OutputPer1K, cost, 1e-9)
}

func TestCostTrackerBudgetCrossingFiresOnce(t *testing.T) {
	tr := NewCostTracker()
	tr.SetBudget("key-a", 0.05)

	_, crossed1 := tr.Record("key-a", "gpt-4", 1000, 0, 0) // costs 0.03, under budget
	require.False(t, crossed1)

	_, crossed2 := tr.Record("key-a", "gpt-4", 1000, 0, 0) // pushes total to 0.06, over
	require.True(t, crossed2)

	_, crossed3 := tr.Record("key-a", "gpt-4", 1000, 0, 0) // already over, no new crossing
	require.False(t, crossed3)

	snap := tr.Snapshot("key-a")
	require.True(t, snap.OverBudget)
	require.Equal(t, 0.05, snap.BudgetUSD)
}

func TestCostTrackerZeroBudgetIsUnlimited(t *testing.T) {
	tr := NewCostTracker()
	_, crossed := tr.Record("key-a", "gpt-4", 100000, 100000, 0)
	require.False(t, crossed)
	require.False(t, tr.Snapshot("key-a").OverBudget)
}
