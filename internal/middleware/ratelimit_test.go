package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLimitedHandler(t *testing.T, limit int, window time.Duration) (http.Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	config := RateLimitConfig{
		RequestsPerWindow: limit,
		Window:            window,
		KeyPrefix:         "test_rate_limit",
	}

	return RateLimitMiddleware(redisClient, config, zap.NewNop())(okHandler()), mr
}

func TestProperty_RateLimitingBlocksExcessiveRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("excessive requests are blocked with 429", prop.ForAll(
		func(requestsPerWindow int, excessRequests int) bool {
			handler, _ := newLimitedHandler(t, requestsPerWindow, time.Minute)

			successCount := 0
			blockedCount := 0

			for i := 0; i < requestsPerWindow+excessRequests; i++ {
				req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
				// The port changes per connection and must not reset the window
				req.RemoteAddr = "192.168.1.100:" + strconv.Itoa(40000+i)
				w := httptest.NewRecorder()

				handler.ServeHTTP(w, req)

				switch w.Code {
				case http.StatusOK:
					successCount++
				case http.StatusTooManyRequests:
					blockedCount++
				}
			}

			return successCount == requestsPerWindow && blockedCount == excessRequests
		},
		gen.IntRange(5, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_RateLimitHeadersAreSet(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("rate limit headers are present in responses", prop.ForAll(
		func(requestsPerWindow int) bool {
			handler, _ := newLimitedHandler(t, requestsPerWindow, time.Minute)

			req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
			req.RemoteAddr = "192.168.1.101:5000"
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			return w.Header().Get("X-RateLimit-Limit") == strconv.Itoa(requestsPerWindow) &&
				w.Header().Get("X-RateLimit-Remaining") == strconv.Itoa(requestsPerWindow-1)
		},
		gen.IntRange(5, 50),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimitMiddleware_BlockedResponse(t *testing.T) {
	handler, _ := newLimitedHandler(t, 1, 30*time.Second)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusOK, send().Code)

	w := send()
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, CodeRateLimited, body.Error.Code)
}

func TestRateLimitMiddleware_ClientsAreIndependent(t *testing.T) {
	handler, _ := newLimitedHandler(t, 1, time.Minute)

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1", "[::1]:8080"} {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, addr)
	}
}

func TestRateLimitMiddleware_WindowExpires(t *testing.T) {
	handler, mr := newLimitedHandler(t, 1, time.Minute)

	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.RemoteAddr = "10.0.0.3:1"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusOK, send())
	require.Equal(t, http.StatusTooManyRequests, send())

	mr.FastForward(time.Minute + time.Second)

	assert.Equal(t, http.StatusOK, send())
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	t.Run("redis unavailable", func(t *testing.T) {
		handler, mr := newLimitedHandler(t, 1, time.Minute)
		mr.Close()

		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
			req.RemoteAddr = "10.0.0.4:1"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})

	t.Run("no redis client", func(t *testing.T) {
		config := RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute}
		handler := RateLimitMiddleware(nil, config, zap.NewNop())(okHandler())

		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"192.168.1.1:5000", "192.168.1.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"203.0.113.9", "203.0.113.9"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remoteAddr
		assert.Equal(t, tt.want, clientIP(req))
	}
}
