package trackers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestTrackerRecordsRateAndErrors(t *testing.T) {
	tr := NewRequestTracker()
	tr.Record("/v1/chat/completions", 100, false)
	tr.Record("/v1/chat/completions", 200, true)

	s := tr.Snapshot("/v1/chat/completions")
	require.Equal(t, int64(2), s.Total)
	require.Equal(t, int64(1), s.Errors)
	require.InDelta(t, 0.5, s.ErrorRate, 0.001)
	require.InDelta(t, 0.5, s.ResponseRate, 0.001)
}

func TestRequestTrackerSnapshotAllCoversEveryEndpoint(t *testing.T) {
	tr := NewRequestTracker()
	tr.Record("/v1/chat/completions", 50, false)
	tr.Record("/v1/embeddings", 10, false)

	all := tr.SnapshotAll()
	require.Len(t, all, 2)
}

func TestRequestTrackerUnseenEndpointIsZeroValue(t *testing.T) {
	tr := NewRequestTracker()
	s := tr.Snapshot("/unused")
	require.Equal(t, int64(0), s.Total)
	require.Equal(t, 0.0, s.ErrorRate)
}
