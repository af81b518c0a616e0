package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contatogonetwork/urban-space-broccoli/internal/telemetry"
)

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(handlers...)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"request_id": telemetry.RequestID(c.Request.Context()),
		})
	})
	return router
}

func get(router *gin.Engine, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestInternalAuth(t *testing.T) {
	router := newRouter(InternalAuth("s3cret"))

	tests := []struct {
		name   string
		key    string
		status int
	}{
		{"missing key", "", http.StatusUnauthorized},
		{"wrong key", "nope", http.StatusUnauthorized},
		{"valid key", "s3cret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, APIKeyHeader, tt.key)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestInternalAuthMisconfigured(t *testing.T) {
	router := newRouter(InternalAuth(""))

	w := get(router, APIKeyHeader, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServiceRateLimit(t *testing.T) {
	router := newRouter(ServiceRateLimit(RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 2}))

	assert.Equal(t, http.StatusOK, get(router, "", "").Code)
	assert.Equal(t, http.StatusOK, get(router, "", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(router, "", "").Code)
}

func TestRateLimitPerClient(t *testing.T) {
	done := make(chan struct{})
	defer close(done)
	router := newRouter(RateLimit(RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 1}, done))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"), "other clients have their own bucket")
}

func TestIPRateLimiterPrune(t *testing.T) {
	rl := NewIPRateLimiter(DefaultRateLimiterConfig())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	first := rl.Limiter("a")
	assert.Same(t, first, rl.Limiter("a"))

	now = now.Add(time.Hour)
	rl.Limiter("b")

	assert.Equal(t, 1, rl.Prune(10*time.Minute))
	assert.NotSame(t, first, rl.Limiter("a"), "pruned clients get a fresh limiter")
}

func TestRequestID(t *testing.T) {
	router := newRouter(RequestID())

	t.Run("generated", func(t *testing.T) {
		w := get(router, "", "")
		require.Equal(t, http.StatusOK, w.Code)

		id := w.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		assert.NoError(t, err)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, id, body["request_id"])
	})

	t.Run("propagated", func(t *testing.T) {
		w := get(router, RequestIDHeader, "abc-123")
		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	router := newRouter(RequestID(), AccessLog(logger))

	w := get(router, RequestIDHeader, "req-1")
	require.Equal(t, http.StatusOK, w.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/ping", entry["path"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "HTTP request", entry["message"])
}

func TestAccessLogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	router := newRouter(AccessLog(logger))

	w := get(router, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	buf.Reset()

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, float64(404), entry["status"])
}
