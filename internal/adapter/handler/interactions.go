package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/qj0r9j0vc2/modmail/internal/adapter/dto"
	"github.com/qj0r9j0vc2/modmail/internal/domain/entity"
	domainerrors "github.com/qj0r9j0vc2/modmail/internal/domain/errors"
	"github.com/qj0r9j0vc2/modmail/internal/domain/logger"
)

// Dispatcher handles one verified interaction.
type Dispatcher interface {
	Dispatch(ctx context.Context, in entity.Interaction) (entity.InteractionResponse, error)
}

// InteractionHandler handles interaction webhooks.
// NOTE: Signature verification is handled by middleware.DiscordAuth.
type InteractionHandler struct {
	dispatcher Dispatcher
	logger     logger.Logger
}

// NewInteractionHandler creates a new interaction handler.
func NewInteractionHandler(dispatcher Dispatcher, log logger.Logger) *InteractionHandler {
	return &InteractionHandler{
		dispatcher: dispatcher,
		logger:     log,
	}
}

// ServeHTTP handles POST /interactions
func (h *InteractionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.InteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode interaction", "error", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	in, err := req.ToEntity()
	if err != nil {
		h.logger.Warn("rejected interaction",
			"interaction_id", req.ID,
			"type", req.Type,
			"error", err,
		)
		http.Error(w, "unrecognized interaction", http.StatusBadRequest)
		return
	}

	resp, err := h.dispatcher.Dispatch(r.Context(), in)
	if err != nil {
		if errors.Is(err, domainerrors.ErrUnrecognizedInteraction) {
			http.Error(w, "unrecognized interaction", http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to handle interaction",
			"interaction_id", req.ID,
			"transient", domainerrors.IsTransientError(err),
			"error", err,
		)
		http.Error(w, "failed to handle interaction", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewInteractionResponse(resp))
}
