package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryWriteLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
	scopes []string
}

func newMemoryLimiter() *memoryWriteLimiter {
	return &memoryWriteLimiter{counts: map[string]int64{}}
}

func (m *memoryWriteLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, 0, m.err
	}
	m.counts[scope]++
	m.scopes = append(m.scopes, scope)
	count := m.counts[scope]
	return count <= limit, count, nil
}

func newRateLimitRouter(limiter WriteLimiter, limit int64, calls *int) http.Handler {
	r := chi.NewRouter()
	r.Use(RateLimit(limiter, limit, time.Minute, nil))
	r.Post("/inventory/update", func(w http.ResponseWriter, req *http.Request) {
		*calls++
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	limiter := newMemoryLimiter()
	calls := 0
	router := newRateLimitRouter(limiter, 3, &calls)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/inventory/update", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 3, calls)
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	limiter := newMemoryLimiter()
	calls := 0
	router := newRateLimitRouter(limiter, 2, &calls)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/inventory/update", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/inventory/update", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, 2, calls, "handler must not run once the window is exhausted")
}

func TestRateLimitScopesByActor(t *testing.T) {
	limiter := newMemoryLimiter()
	calls := 0
	router := newRateLimitRouter(limiter, 1, &calls)

	for _, actor := range []string{"clerk-1", "clerk-2"} {
		req := httptest.NewRequest(http.MethodPost, "/inventory/update", nil)
		req = req.WithContext(WithActor(req.Context(), actor))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, actor)
	}

	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"writes|clerk-1", "writes|clerk-2"}, limiter.scopes)
}

func TestRateLimitNilLimiterPassesThrough(t *testing.T) {
	calls := 0
	router := newRateLimitRouter(nil, 1, &calls)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/inventory/update", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 3, calls)
}

func TestRateLimitZeroLimitPassesThrough(t *testing.T) {
	limiter := newMemoryLimiter()
	calls := 0
	router := newRateLimitRouter(limiter, 0, &calls)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/inventory/update", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calls)
	assert.Empty(t, limiter.scopes, "disabled limiter must not count")
}

func TestRateLimitFailsOpenOnCounterError(t *testing.T) {
	limiter := newMemoryLimiter()
	limiter.err = errors.New("connection refused")
	calls := 0
	router := newRateLimitRouter(limiter, 1, &calls)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/inventory/update", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 2, calls)
}
