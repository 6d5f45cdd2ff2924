package trackers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDynamoTrackerRecordsLatencyBreakdown(t *testing.T) {
	tr := NewDynamoTracker()
	tr.Record(LatencyBreakdown{RequestID: "r1", Status: "completed", QueueMs: 5, PrefillMs: 10, DecodeMs: 50, TotalMs: 65, OutputTokens: 20})

	snap := tr.Snapshot()
	require.Len(t, snap.RequestLifecycles, 1)
	require.Equal(t, "r1", snap.RequestLifecycles[0].RequestID)
	require.InDelta(t, 65, snap.TotalMsP50, 1e-9)
}

func TestDynamoTrackerHistoryCapsAtHundred(t *testing.T) {
	tr := NewDynamoTracker()
	for i := 0; i < dynamoHistoryCap+25; i++ {
		tr.Record(LatencyBreakdown{RequestID: "r", TotalMs: 1})
	}
	snap := tr.Snapshot()
	require.Len(t, snap.RequestLifecycles, dynamoHistoryCap)
}

func TestDynamoTrackerResourceSampleAverages(t *testing.T) {
	tr := NewDynamoTracker()
	tr.RecordResourceSample(10, 4)
	tr.RecordResourceSample(20, 8)

	snap := tr.Snapshot()
	require.InDelta(t, 15, snap.QueueDepthAvg, 1e-9)
	require.InDelta(t, 6, snap.BatchSizeAvg, 1e-9)
}

func TestDynamoTrackerEmptySnapshotHasZeroPercentiles(t *testing.T) {
	tr := NewDynamoTracker()
	snap := tr.Snapshot()
	require.Equal(t, 0.0, snap.TotalMsP50)
	require.Empty(t, snap.RequestLifecycles)
}
