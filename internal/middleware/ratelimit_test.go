package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/storehub/storehub-auth/internal/middleware"
)

func newLimitedRouter(t *testing.T, requestsPerMinute int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(middleware.NewRateLimiter(requestsPerMinute).Handler())
	r.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func fire(r *gin.Engine, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterRejectsBurstOverBudget(t *testing.T) {
	// 60 rpm: 1 token per second, burst of 6. A back-to-back burst from
	// one client must exhaust the bucket and start drawing 429s.
	r := newLimitedRouter(t, 60)

	var ok, rejected int
	for i := 0; i < 100; i++ {
		switch fire(r, "203.0.113.7:40000") {
		case http.StatusOK:
			ok++
		case http.StatusTooManyRequests:
			rejected++
		}
	}

	require.GreaterOrEqual(t, ok, 6, "burst allowance should admit the first requests")
	require.Greater(t, rejected, 80, "sustained burst should be throttled")
}

func TestRateLimiterAllowsWithinBudget(t *testing.T) {
	r := newLimitedRouter(t, 600)

	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, fire(r, "203.0.113.8:40000"))
	}
}

func TestRateLimiterTracksClientsIndependently(t *testing.T) {
	// Exhausting one client's bucket must not throttle another.
	r := newLimitedRouter(t, 60)

	for i := 0; i < 20; i++ {
		fire(r, "203.0.113.9:40000")
	}
	require.Equal(t, http.StatusTooManyRequests, fire(r, "203.0.113.9:40000"))
	require.Equal(t, http.StatusOK, fire(r, "203.0.113.10:40000"))
}

func TestRateLimiterDisabledBudgetPassesThrough(t *testing.T) {
	r := newLimitedRouter(t, 0)

	for i := 0; i < 50; i++ {
		require.Equal(t, http.StatusOK, fire(r, "203.0.113.11:40000"))
	}
}
