package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abnamro/repository-scanner/internal/config"
	"github.com/abnamro/repository-scanner/pkg/logger"
)

func TestRequestID(t *testing.T) {
	t.Run("generates an id when absent", func(t *testing.T) {
		var captured string
		h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetRequestID(r.Context())
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		assert.NotEmpty(t, captured)
		assert.Equal(t, captured, w.Header().Get("X-Request-ID"))
	})

	t.Run("propagates the caller's id", func(t *testing.T) {
		var captured string
		h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetRequestID(r.Context())
		}))

		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("X-Request-ID", "req-123")
		h.ServeHTTP(httptest.NewRecorder(), r)

		assert.Equal(t, "req-123", captured)
	})
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.NewDefault(), true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRateLimiter(t *testing.T) {
	t.Run("limits per client ip", func(t *testing.T) {
		rl := NewRateLimiter(&config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 2}, logger.NewDefault())
		defer rl.Stop()

		h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		statuses := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = "10.0.0.1:1234"
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			statuses = append(statuses, w.Code)
		}

		assert.Equal(t, []int{200, 200, 429}, statuses)
	})

	t.Run("separate clients get separate budgets", func(t *testing.T) {
		rl := NewRateLimiter(&config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1}, logger.NewDefault())
		defer rl.Stop()

		h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		for i, addr := range []string{"10.0.0.1:1", "10.0.0.2:1", "10.0.0.3:1"} {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = addr
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			require.Equal(t, http.StatusOK, w.Code, "client %d", i)
		}
	})

	t.Run("disabled config yields no-op middleware", func(t *testing.T) {
		mw, stop := RateLimitWithStop(&config.RateLimitConfig{Enabled: false}, logger.NewDefault())
		defer stop()

		h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		for i := 0; i < 50; i++ {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
			require.Equal(t, http.StatusOK, w.Code)
		}
	})
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		realIP     string
		forwarded  string
		want       string
	}{
		{"remote addr fallback", "192.168.1.5:8080", "", "", "192.168.1.5"},
		{"x-real-ip wins", "192.168.1.5:8080", "203.0.113.7", "198.51.100.1", "203.0.113.7"},
		{"first forwarded hop", "192.168.1.5:8080", "", "198.51.100.1, 10.0.0.1", "198.51.100.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			assert.Equal(t, tt.want, getClientIP(r))
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/v1/scans/42", "/api/v1/scans/{id}"},
		{"/api/v1/scans/42/findings", "/api/v1/scans/{id}/findings"},
		{"/api/v1/findings", "/api/v1/findings"},
		{"/health", "/health"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizePath(tt.in))
	}
}

func TestBodyLimit(t *testing.T) {
	h := BodyLimit(10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("small body passes", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("POST", "/", strings.NewReader("tiny")))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("oversized body fails to read", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("POST", "/", strings.NewReader(strings.Repeat("x", 100))))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("get requests pass through untouched", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
