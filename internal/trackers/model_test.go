package trackers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModelTrackerAggregatesLatencyAndTokens(t *testing.T) {
	tr := NewModelTracker()
	tr.Record("gpt-4o", 100, 10, 20)
	tr.Record("gpt-4o", 200, 5, 15)

	s := tr.Snapshot("gpt-4o")
	require.Equal(t, int64(2), s.RequestCount)
	require.InDelta(t, 150, s.MeanLatencyMs, 1e-9)
	require.Equal(t, int64(15), s.InputTokens)
	require.Equal(t, int64(35), s.OutputTokens)
}

func TestModelTrackerUnseenModelIsZeroValue(t *testing.T) {
	tr := NewModelTracker()
	s := tr.Snapshot("unseen-model")
	require.Equal(t, int64(0), s.RequestCount)
	require.Equal(t, 0.0, s.MeanLatencyMs)
}

func TestModelTrackerSnapshotAllCoversEveryModel(t *testing.T) {
	tr := NewModelTracker()
	tr.Record("gpt-4o", 100, 1, 1)
	tr.Record("gpt-3.5-turbo", 50, 1, 1)

	all := tr.SnapshotAll()
	require.Len(t, all, 2)
}
