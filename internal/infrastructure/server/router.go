package server

import (
	"net/http"
	"time"

	"github.com/qj0r9j0vc2/modmail/internal/adapter/handler"
	"github.com/qj0r9j0vc2/modmail/internal/adapter/handler/middleware"
	"github.com/qj0r9j0vc2/modmail/internal/domain/logger"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/discord"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/observability"
)

// Handlers holds all HTTP handlers.
type Handlers struct {
	Interactions *handler.InteractionHandler
	Health       *handler.HealthHandler
	Ready        *handler.ReadyHandler
	Metrics      *handler.MetricsHandler
	Reload       *handler.ReloadHandler
	Prompt       *handler.PromptHandler
}

// RouterConfig holds what the router needs besides handlers.
type RouterConfig struct {
	Verifier       *discord.SignatureVerifier
	AdminSecret    string
	RequestTimeout time.Duration
	Metrics        *observability.Metrics
}

// NewRouter creates the HTTP router with all handlers.
// Admin routes are only registered when an admin secret is configured.
func NewRouter(handlers *Handlers, cfg RouterConfig, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /health", handlers.Health)
	if handlers.Ready != nil {
		mux.Handle("GET /ready", handlers.Ready)
	}
	if handlers.Metrics != nil {
		mux.Handle("GET /metrics", handlers.Metrics)
	}

	// Method is matched before the signature is checked, so a GET gets 405.
	mux.Handle("POST /interactions", middleware.DiscordAuth(cfg.Verifier, log)(handlers.Interactions))

	if cfg.AdminSecret != "" {
		adminAuth := middleware.AdminAuth(cfg.AdminSecret, log)
		if handlers.Reload != nil {
			mux.Handle("POST /-/reload", adminAuth(handlers.Reload))
		}
		if handlers.Prompt != nil {
			prompt := adminAuth(handlers.Prompt)
			mux.Handle("POST /admin/prompt", prompt)
			mux.Handle("PUT /admin/prompt", prompt)
		}
	}

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logging(log),
		middleware.Recovery(log),
		middleware.Observability(cfg.Metrics),
		middleware.Timeout(cfg.RequestTimeout, log),
	)
}
