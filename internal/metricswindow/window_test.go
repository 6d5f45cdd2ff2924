package metricswindow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPercentileFewerThan20ReturnsMax(t *testing.T) {
	w := New(60, 0)
	for _, v := range []float64{1, 5, 3, 9, 2} {
		w.Record(v)
	}
	require.Equal(t, 9.0, w.Percentile(50))
	require.Equal(t, 9.0, w.Percentile(99))
}

func TestPercentileP100FewerThan100ReturnsMax(t *testing.T) {
	w := New(60, 0)
	for i := 0; i < 50; i++ {
		w.Record(float64(i))
	}
	require.Equal(t, 49.0, w.Percentile(100))
}

func TestPercentileOrdering(t *testing.T) {
	w := New(60, 0)
	for i := 1; i <= 200; i++ {
		w.Record(float64(i))
	}
	p50 := w.Percentile(50)
	p90 := w.Percentile(90)
	p99 := w.Percentile(99)
	require.LessOrEqual(t, p50, p90)
	require.LessOrEqual(t, p90, p99)
}

func TestPruneDropsOldSamples(t *testing.T) {
	w := New(1, 0)
	fixed := time.Now()
	w.now = func() time.Time { return fixed.Add(-2 * time.Second) }
	w.Record(100)
	w.now = func() time.Time { return fixed }
	w.Record(200)
	require.Equal(t, []float64{200}, w.Samples())
}

func TestRate(t *testing.T) {
	w := New(10, 0)
	for i := 0; i < 5; i++ {
		w.Record(1)
	}
	require.InDelta(t, 0.5, w.Rate(), 0.001)
}
