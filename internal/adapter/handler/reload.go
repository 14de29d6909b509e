package handler

import (
	"errors"
	"net/http"

	"github.com/qj0r9j0vc2/modmail/internal/domain/logger"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/config"
)

// Reloader re-reads configuration on demand.
type Reloader interface {
	TryReload() error
}

// ReloadHandler handles configuration reload requests.
type ReloadHandler struct {
	reloader Reloader
	logger   logger.Logger
}

// NewReloadHandler creates a new reload handler.
func NewReloadHandler(reloader Reloader, log logger.Logger) *ReloadHandler {
	return &ReloadHandler{
		reloader: reloader,
		logger:   log,
	}
}

// ServeHTTP handles POST /-/reload requests.
func (h *ReloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.reloader.TryReload(); err != nil {
		if errors.Is(err, config.ErrRequiresRestart) {
			// Reloadable keys were applied; the rest waits for a restart.
			writeJSON(w, http.StatusOK, map[string]any{
				"reloaded":         true,
				"restart_required": true,
				"message":          err.Error(),
			})
			return
		}

		h.logger.Error("manual reload failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"reloaded": false,
			"message":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reloaded":         true,
		"restart_required": false,
	})
}
