package server

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fakeai-dev/fakeai/internal/auth"
	"github.com/fakeai-dev/fakeai/internal/ratelimit"
)

func TestAuthenticateRejectsMissingKeyWhenRequired(t *testing.T) {
	deps := newTestDeps()
	deps.Auth = auth.NewAllowlistAuth(true, []string{"sk-test"})
	h := New(deps)

	rec := doJSON(t, h, http.MethodGet, "/v1/models", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateAcceptsValidBearerKey(t *testing.T) {
	deps := newTestDeps()
	deps.Auth = auth.NewAllowlistAuth(true, []string{"sk-test"})
	h := New(deps)

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	req.Header.Set("Authorization", "Bearer sk-test")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitRejectsOverLimitAndSetsHeaders(t *testing.T) {
	deps := newTestDeps()
	deps.RateLimit = ratelimit.NewRegistry()
	deps.Tier = ratelimit.TierFree // 3 RPM
	h := New(deps)

	var last *httptest.ResponseRecorder
	for i := 0; i < 4; i++ {
		last = doJSON(t, h, http.MethodGet, "/v1/models", nil)
	}

	require.Equal(t, http.StatusTooManyRequests, last.Code)
	require.NotEmpty(t, last.Header().Get("Retry-After"))
	require.NotEmpty(t, last.Header().Get("x-ratelimit-limit-requests"))

	limit, err := strconv.ParseInt(last.Header().Get("x-ratelimit-limit-requests"), 10, 64)
	require.NoError(t, err)
	require.Equal(t, ratelimit.TierLimits[ratelimit.TierFree].RPM, limit)
	require.Equal(t, "0", last.Header().Get("x-ratelimit-remaining-requests"))
}

func TestRateLimitAllowsWithinBudget(t *testing.T) {
	deps := newTestDeps()
	deps.RateLimit = ratelimit.NewRegistry()
	deps.Tier = ratelimit.TierFive
	h := New(deps)

	rec := doJSON(t, h, http.MethodGet, "/v1/models", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	limit, err := strconv.ParseInt(rec.Header().Get("x-ratelimit-limit-requests"), 10, 64)
	require.NoError(t, err)
	require.Equal(t, ratelimit.TierLimits[ratelimit.TierFive].RPM, limit)
}

func TestSecurityHeadersAreSetOnEveryResponse(t *testing.T) {
	h := New(newTestDeps())
	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRequestIDHeaderIsEchoedOrAssigned(t *testing.T) {
	h := New(newTestDeps())
	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
