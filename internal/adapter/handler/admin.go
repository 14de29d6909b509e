package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/qj0r9j0vc2/modmail/internal/adapter/dto"
	"github.com/qj0r9j0vc2/modmail/internal/domain/logger"
	"github.com/qj0r9j0vc2/modmail/internal/usecase/prompt"
)

// PromptManager posts and replaces the public prompt.
type PromptManager interface {
	PostPrompt(ctx context.Context, channelID string) (*prompt.Result, error)
	ReplacePrompt(ctx context.Context, channelID, messageID string) (*prompt.Result, error)
}

// PromptHandler handles the administrative prompt endpoints.
// NOTE: Authentication is handled by middleware.AdminAuth.
type PromptHandler struct {
	prompts PromptManager
	logger  logger.Logger
}

// NewPromptHandler creates a new prompt handler.
func NewPromptHandler(prompts PromptManager, log logger.Logger) *PromptHandler {
	return &PromptHandler{
		prompts: prompts,
		logger:  log,
	}
}

// ServeHTTP handles POST /admin/prompt (post a new prompt) and
// PUT /admin/prompt (edit the existing prompt in place).
func (h *PromptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		w.Header().Set("Allow", "POST, PUT")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var (
		result *prompt.Result
		err    error
	)
	if r.Method == http.MethodPost {
		result, err = h.prompts.PostPrompt(r.Context(), req.ChannelID)
	} else {
		result, err = h.prompts.ReplacePrompt(r.Context(), req.ChannelID, req.MessageID)
	}

	if err != nil {
		if errors.Is(err, prompt.ErrNoChannel) || errors.Is(err, prompt.ErrNoMessage) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("prompt update failed",
			"method", r.Method,
			"error", err,
		)
		http.Error(w, "failed to update prompt", http.StatusBadGateway)
		return
	}

	status := http.StatusCreated
	if result.Replaced {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}
