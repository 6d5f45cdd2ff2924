// Package telemetry provides observability primitives for the FakeAI server:
// Prometheus collectors plus OpenTelemetry tracing setup, grounded on the
// teacher's per-concern collector struct registered in one place.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors exposed on /metrics/prometheus.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	ActiveRequests   prometheus.Gauge
	ActiveStreams    prometheus.Gauge
	TTFTSeconds      *prometheus.HistogramVec
	TokensProcessed  *prometheus.CounterVec
	RateLimitRejects *prometheus.CounterVec
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	BusEventsDropped prometheus.Counter
}

// NewMetrics creates and registers all collectors with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fakeai",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:                       "fakeai",
			Name:                            "request_duration_seconds",
			Help:                            "HTTP request duration in seconds.",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 0,
		}, []string{"method", "path"}),

		ActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fakeai",
			Name:      "active_requests",
			Help:      "Number of currently in-flight requests.",
		}),

		ActiveStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fakeai",
			Name:      "active_streams",
			Help:      "Number of currently open SSE streams.",
		}),

		TTFTSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fakeai",
			Name:      "ttft_seconds",
			Help:      "Time to first token in seconds, per model.",
		}, []string{"model"}),

		TokensProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fakeai",
			Name:      "tokens_processed_total",
			Help:      "Total fabricated tokens, by model and direction.",
		}, []string{"model", "type"}),

		RateLimitRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fakeai",
			Name:      "ratelimit_rejects_total",
			Help:      "Total rate limit rejections, by axis.",
		}, []string{"type"}),

		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fakeai",
			Name:      "kv_cache_hits_total",
			Help:      "Total KV-cache router lookups with nonzero overlap.",
		}),

		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fakeai",
			Name:      "kv_cache_misses_total",
			Help:      "Total KV-cache router lookups with zero overlap.",
		}),

		BusEventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fakeai",
			Name:      "bus_events_dropped_total",
			Help:      "Total events dropped because the bus queue was full.",
		}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.ActiveRequests,
		m.ActiveStreams,
		m.TTFTSeconds,
		m.TokensProcessed,
		m.RateLimitRejects,
		m.CacheHits,
		m.CacheMisses,
		m.BusEventsDropped,
	)

	return m
}

// DCGMGauges simulates the subset of NVIDIA DCGM exporter gauges exposed
// by the `/dcgm/metrics` endpoint, one series per simulated worker.
// There is no real GPU behind FakeAI; values are synthesized from current
// tracker load rather than read off hardware.
type DCGMGauges struct {
	GPUUtilization *prometheus.GaugeVec
	MemoryUsedMiB  *prometheus.GaugeVec
	TemperatureC   *prometheus.GaugeVec
	PowerWatts     *prometheus.GaugeVec
}

// NewDCGMGauges creates and registers the simulated DCGM gauge vectors,
// labeled by worker id to mirror dcgm-exporter's `gpu` label.
func NewDCGMGauges(reg prometheus.Registerer) *DCGMGauges {
	g := &DCGMGauges{
		GPUUtilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "DCGM_FI_DEV",
			Name:      "GPU_UTIL",
			Help:      "Simulated GPU utilization percent.",
		}, []string{"gpu"}),
		MemoryUsedMiB: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "DCGM_FI_DEV",
			Name:      "FB_USED",
			Help:      "Simulated GPU framebuffer memory used, MiB.",
		}, []string{"gpu"}),
		TemperatureC: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "DCGM_FI_DEV",
			Name:      "GPU_TEMP",
			Help:      "Simulated GPU temperature, Celsius.",
		}, []string{"gpu"}),
		PowerWatts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "DCGM_FI_DEV",
			Name:      "POWER_USAGE",
			Help:      "Simulated GPU power draw, watts.",
		}, []string{"gpu"}),
	}
	reg.MustRegister(g.GPUUtilization, g.MemoryUsedMiB, g.TemperatureC, g.PowerWatts)
	return g
}

// Sample derives synthetic DCGM gauge values for worker id from its current
// queue depth (0-100 scaled into a plausible range), since there is no real
// GPU load to sample.
func (g *DCGMGauges) Sample(workerID string, queueDepth int) {
	util := float64(queueDepth) * 8
	if util > 100 {
		util = 100
	}
	g.GPUUtilization.WithLabelValues(workerID).Set(util)
	g.MemoryUsedMiB.WithLabelValues(workerID).Set(4096 + util*200)
	g.TemperatureC.WithLabelValues(workerID).Set(40 + util*0.4)
	g.PowerWatts.WithLabelValues(workerID).Set(100 + util*2.5)
}
