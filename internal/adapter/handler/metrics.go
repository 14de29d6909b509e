package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves Prometheus metrics.
type MetricsHandler struct {
	handler http.Handler
}

// NewMetricsHandler creates a metrics handler for gatherer.
// A nil gatherer serves the default registry.
func NewMetricsHandler(gatherer prometheus.Gatherer) *MetricsHandler {
	if gatherer == nil {
		return &MetricsHandler{handler: promhttp.Handler()}
	}
	return &MetricsHandler{
		handler: promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
	}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.handler.ServeHTTP(w, r)
}
