package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/mealmesh/marketplace/pkg/httputil"
)

const checkTimeout = 5 * time.Second

// Checker reports whether a dependency is healthy.
type Checker func(ctx context.Context) error

// Handler aggregates dependency health checks.
type Handler struct {
	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewHandler creates an empty health handler.
func NewHandler() *Handler {
	return &Handler{checkers: make(map[string]Checker)}
}

// Register adds a named dependency check.
func (h *Handler) Register(name string, c Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = c
}

// LivenessHandler always reports the process as alive.
func (h *Handler) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessHandler runs all registered checks; any failure returns 503.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	h.mu.RLock()
	checkers := make(map[string]Checker, len(h.checkers))
	for name, c := range h.checkers {
		checkers[name] = c
	}
	h.mu.RUnlock()

	results := make(map[string]string, len(checkers))
	healthy := true
	for name, check := range checkers {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			healthy = false
		} else {
			results[name] = "ok"
		}
	}

	status := http.StatusOK
	overall := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "not ready"
	}
	httputil.WriteJSON(w, status, map[string]any{
		"status": overall,
		"checks": results,
	})
}
