package handler

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Pinger is a health-checkable dependency.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db    Pinger
	redis Pinger
}

// NewHealthHandler creates a new health handler. Either dependency may be
// nil, in which case it is skipped during readiness checks.
func NewHealthHandler(db, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Health handles GET /health (liveness probe).
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

// CheckResult represents a single dependency check result.
type CheckResult struct {
	Status   string `json:"status"`
	Duration string `json:"duration,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Ready handles GET /health/ready (readiness probe). Dependencies are
// checked concurrently; any failure yields a 503.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	type namedPinger struct {
		name   string
		pinger Pinger
	}

	pingers := []namedPinger{}
	if h.db != nil {
		pingers = append(pingers, namedPinger{"database", h.db})
	}
	if h.redis != nil {
		pingers = append(pingers, namedPinger{"redis", h.redis})
	}

	checks := make(map[string]CheckResult, len(pingers))
	var mu sync.Mutex
	var wg sync.WaitGroup
	healthy := true

	for _, np := range pingers {
		wg.Add(1)
		go func(np namedPinger) {
			defer wg.Done()

			start := time.Now()
			err := np.pinger.HealthCheck(ctx)
			result := CheckResult{
				Status:   "healthy",
				Duration: time.Since(start).String(),
			}
			if err != nil {
				result.Status = "unhealthy"
				result.Error = err.Error()
			}

			mu.Lock()
			checks[np.name] = result
			if err != nil {
				healthy = false
			}
			mu.Unlock()
		}(np)
	}
	wg.Wait()

	status := http.StatusOK
	response := ReadyResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}
	if !healthy {
		status = http.StatusServiceUnavailable
		response.Status = "not ready"
	}

	respondJSON(w, status, response)
}
