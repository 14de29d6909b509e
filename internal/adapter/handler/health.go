package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HealthHandler handles liveness requests.
type HealthHandler struct {
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
	}
}

// ServeHTTP handles GET /health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.startTime).String(),
	})
}

// ReadinessChecker reports whether a dependency can serve requests.
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

type namedChecker struct {
	name    string
	checker ReadinessChecker
}

type checkResult struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// ReadyHandler handles readiness requests by pinging every registered dependency.
type ReadyHandler struct {
	mu       sync.RWMutex
	checkers []namedChecker
	timeout  time.Duration
}

// NewReadyHandler creates a new ready handler.
func NewReadyHandler() *ReadyHandler {
	return &ReadyHandler{timeout: 2 * time.Second}
}

// AddChecker registers a dependency under name.
func (h *ReadyHandler) AddChecker(name string, checker ReadinessChecker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers = append(h.checkers, namedChecker{name: name, checker: checker})
}

// ServeHTTP handles GET /ready
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.mu.RLock()
	checkers := h.checkers
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ready := true
	checks := make(map[string]checkResult, len(checkers))
	for _, c := range checkers {
		if err := c.checker.Ping(ctx); err != nil {
			ready = false
			checks[c.name] = checkResult{Ready: false, Error: err.Error()}
			continue
		}
		checks[c.name] = checkResult{Ready: true}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{
		"ready":  ready,
		"checks": checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
