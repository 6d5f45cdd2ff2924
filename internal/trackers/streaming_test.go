package trackers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreamingTrackerTracksActiveAndCompletedCounts(t *testing.T) {
	tr := NewStreamingTracker()
	tr.StreamStarted()
	tr.StreamStarted()
	require.Equal(t, int64(2), tr.Snapshot().ActiveStreams)

	tr.RecordFirstToken(25)
	tr.StreamCompleted(40)

	snap := tr.Snapshot()
	require.Equal(t, int64(1), snap.ActiveStreams)
	require.Equal(t, int64(1), snap.CompletedStreams)
	require.InDelta(t, 40, snap.TokensPerSecAvg, 1e-9)
	require.InDelta(t, 25, snap.TTFTMsP50, 1e-9)
}

func TestStreamingTrackerStreamEndedDecrementsWithoutCompleting(t *testing.T) {
	tr := NewStreamingTracker()
	tr.StreamStarted()
	tr.StreamEnded()

	snap := tr.Snapshot()
	require.Equal(t, int64(0), snap.ActiveStreams)
	require.Equal(t, int64(0), snap.CompletedStreams)
}

func TestStreamingTrackerActiveCountNeverGoesNegative(t *testing.T) {
	tr := NewStreamingTracker()
	tr.StreamEnded()
	require.Equal(t, int64(0), tr.Snapshot().ActiveStreams)
}

func TestStreamingTrackerTokensPerSecAverages(t *testing.T) {
	tr := NewStreamingTracker()
	tr.StreamCompleted(20)
	tr.StreamCompleted(40)
	require.InDelta(t, 30, tr.Snapshot().TokensPerSecAvg, 1e-9)
}
