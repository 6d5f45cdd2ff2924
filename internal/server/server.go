// Package server implements the HTTP transport layer for the FakeAI server.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go.opentelemetry.io/otel/trace"

	"github.com/fakeai-dev/fakeai/internal/auth"
	"github.com/fakeai-dev/fakeai/internal/bus"
	"github.com/fakeai-dev/fakeai/internal/chatcore"
	"github.com/fakeai-dev/fakeai/internal/models"
	"github.com/fakeai-dev/fakeai/internal/ratelimit"
	"github.com/fakeai-dev/fakeai/internal/subscribers"
	"github.com/fakeai-dev/fakeai/internal/telemetry"
)

// ReadyChecker reports whether the system is ready to serve traffic.
type ReadyChecker func(ctx context.Context) error

// Deps holds all dependencies for the HTTP server.
type Deps struct {
	Auth       *auth.AllowlistAuth
	Chat       *chatcore.Service
	Models     *models.Registry
	Trackers   *subscribers.Trackers
	Bus        *bus.Bus            // nil = no event publishing at the HTTP boundary
	RateLimit  *ratelimit.Registry // nil = no rate limiting
	Tier       ratelimit.Tier      // applied to every key when RateLimit != nil

	Metrics     *telemetry.Metrics  // nil = no Prometheus metrics
	DCGM        *telemetry.DCGMGauges
	MetricsReg  http.Handler // /metrics/prometheus exposition
	DCGMReg     http.Handler // /dcgm/metrics exposition
	Tracer      trace.Tracer // nil = no distributed tracing
	ReadyCheck  ReadyChecker // nil = always ready (for tests)

	StreamIntervalSeconds int // /metrics/stream push interval, default 1
}

// New creates an http.Handler with all routes and middleware wired.
func New(deps Deps) http.Handler {
	// chatcore.NewService constructs its own DynamoTracker by default;
	// replace it with the one the Trackers bundle holds so that
	// /dynamo/metrics/json reads what ChatCompletion actually recorded.
	if deps.Chat != nil && deps.Trackers != nil {
		deps.Chat.Dynamo = deps.Trackers.Dynamo
	}

	s := &server{deps: deps}

	r := chi.NewRouter()

	r.Use(s.securityHeaders)
	r.Use(s.recovery)
	r.Use(s.requestID)
	r.Use(s.logging)
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}
	if deps.Tracer != nil {
		r.Use(tracingMiddleware(deps.Tracer))
	}

	// System endpoints (no auth).
	r.Get("/health", s.handleHealth)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/metrics", s.handleMetricsJSON)
	r.Get("/dynamo/metrics/json", s.handleDynamoMetrics)
	r.Get("/kv-cache/metrics", s.handleKVCacheMetrics)
	if deps.MetricsReg != nil {
		r.Handle("/metrics/prometheus", deps.MetricsReg)
	}
	if deps.DCGMReg != nil {
		r.Handle("/dcgm/metrics", deps.DCGMReg)
	}
	r.Get("/metrics/stream", s.handleMetricsStream)

	// Client-facing API (auth required) -- OpenAI wire format.
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Use(s.rateLimit)
		r.Post("/v1/chat/completions", s.handleChatCompletion)
		r.Post("/v1/completions", s.handleCompletion)
		r.Post("/v1/embeddings", s.handleEmbeddings)
		r.Post("/v1/moderations", s.handleModerations)
		r.Get("/v1/models", s.handleListModels)
	})

	return r
}

type server struct {
	deps Deps
}
