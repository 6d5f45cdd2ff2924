package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fakeai-dev/fakeai/internal/fakeai"
	"github.com/fakeai-dev/fakeai/internal/ratelimit"
	"github.com/fakeai-dev/fakeai/internal/telemetry"
)

// securityHeaders sets the standard hardening headers on every response.
func (s *server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// recovery converts a panic in any downstream handler into a 500 response
// instead of taking down the whole server.
func (s *server) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered", "error", rec, "stack", string(debug.Stack()))
				s.writeAPIError(w, r, fakeai.ErrInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type requestIDKey struct{}

// requestID assigns every request a short random id, used for correlating
// log lines and propagated back via the X-Request-Id response header.
func (s *server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = newRequestID()
		}
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newRequestID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// statusWriter wraps http.ResponseWriter to capture the status code for
// logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

var statusWriterPool = sync.Pool{New: func() any { return &statusWriter{} }}

// logging emits one structured log line per request on completion.
func (s *server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := statusWriterPool.Get().(*statusWriter)
		sw.ResponseWriter = w
		sw.status = 0
		defer statusWriterPool.Put(sw)

		start := time.Now()
		next.ServeHTTP(sw, r)

		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestIDFromContext(r.Context()),
		)
	})
}

// tracingMiddleware starts a span per request, named after the route.
func tracingMiddleware(tracer trace.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path)
			span.SetAttributes(attribute.String("http.method", r.Method), attribute.String("http.path", r.URL.Path))
			defer span.End()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// metricsMiddleware records request counts, durations, and in-flight gauges.
func metricsMiddleware(m *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.ActiveRequests.Inc()
			defer m.ActiveRequests.Dec()

			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			status := strconv.Itoa(sw.status)
			m.RequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			m.RequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
		})
	}
}

type apiKeyContextKey struct{}

// authenticate extracts and validates the bearer API key. No-op when
// deps.Auth is nil (auth disabled).
func (s *server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Auth == nil {
			next.ServeHTTP(w, r)
			return
		}
		key, err := s.deps.Auth.Authenticate(r.Context(), r)
		if err != nil {
			s.writeAPIError(w, r, fakeai.ErrUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), apiKeyContextKey{}, key)
		ctx = fakeai.ContextWithAPIKey(ctx, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func apiKeyFromContext(ctx context.Context) string {
	key, _ := ctx.Value(apiKeyContextKey{}).(string)
	if key == "" {
		return "anonymous"
	}
	return key
}

// estimatedRequestTokens is a coarse pre-admission estimate charged against
// TPM for every request; it is not reconciled with the actual token count
// after generation.
const estimatedRequestTokens = 512

// rateLimit enforces the per-key RPM/TPM/RPD budget via a joint admission
// check, setting the standard x-ratelimit-* response headers either way.
// No-op when deps.RateLimit is nil (rate limiting disabled).
func (s *server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.deps.RateLimit == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := apiKeyFromContext(r.Context())
		limiter := s.deps.RateLimit.GetOrCreate(key, ratelimit.TierLimits[s.deps.Tier])
		result := limiter.Admit(estimatedRequestTokens)

		setRateLimitHeaders(w, result)

		if !result.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfterSeconds))))
			s.writeAPIError(w, r, fakeai.ErrRateLimited)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func setRateLimitHeaders(w http.ResponseWriter, result ratelimit.AdmitResult) {
	h := w.Header()
	h.Set("x-ratelimit-limit-requests", strconv.FormatInt(result.RPM.Limit, 10))
	h.Set("x-ratelimit-remaining-requests", strconv.FormatInt(result.RPM.Remaining, 10))
	h.Set("x-ratelimit-reset-requests", fmt.Sprintf("%.0fs", result.RPM.RetryAfterSeconds))
	h.Set("x-ratelimit-limit-tokens", strconv.FormatInt(result.TPM.Limit, 10))
	h.Set("x-ratelimit-remaining-tokens", strconv.FormatInt(result.TPM.Remaining, 10))
	h.Set("x-ratelimit-reset-tokens", fmt.Sprintf("%.0fs", result.TPM.RetryAfterSeconds))
}
