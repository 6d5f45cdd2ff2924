package trackers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorTrackerRecordsCountsPerKindAndEndpoint(t *testing.T) {
	tr := NewErrorTracker()
	tr.Record("/v1/chat/completions", "rate_limit")
	tr.Record("/v1/chat/completions", "rate_limit")
	tr.Record("/v1/chat/completions", "validation")
	tr.Record("/v1/embeddings", "validation")

	chat := tr.Snapshot("/v1/chat/completions")
	require.Equal(t, int64(3), chat.Total)
	require.Equal(t, int64(2), chat.Counts["rate_limit"])
	require.Equal(t, int64(1), chat.Counts["validation"])

	embeddings := tr.Snapshot("/v1/embeddings")
	require.Equal(t, int64(1), embeddings.Total)
}

func TestErrorTrackerUnseenEndpointReturnsEmptySnapshot(t *testing.T) {
	tr := NewErrorTracker()
	s := tr.Snapshot("/unused")
	require.Equal(t, int64(0), s.Total)
	require.Empty(t, s.Counts)
}

func TestErrorTrackerSnapshotAllCoversEveryEndpoint(t *testing.T) {
	tr := NewErrorTracker()
	tr.Record("/v1/chat/completions", "rate_limit")
	tr.Record("/v1/embeddings", "validation")

	all := tr.SnapshotAll()
	require.Len(t, all, 2)

	byEndpoint := map[string]ErrorSnapshot{}
	for _, s := range all {
		byEndpoint[s.Endpoint] = s
	}
	require.Equal(t, int64(1), byEndpoint["/v1/chat/completions"].Total)
	require.Equal(t, int64(1), byEndpoint["/v1/embeddings"].Total)
}

func TestErrorTrackerPatternCounts(t *testing.T) {
	tr := NewErrorTracker()
	tr.RecordPattern("burst")
	tr.RecordPattern("burst")
	tr.RecordPattern("sustained_violation")

	counts := tr.PatternCounts()
	require.Equal(t, int64(2), counts["burst"])
	require.Equal(t, int64(1), counts["sustained_violation"])

	// Returned map must be a copy, not a live reference.
	counts["burst"] = 999
	require.Equal(t, int64(2), tr.PatternCounts()["burst"])
}
