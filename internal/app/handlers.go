package app

import (
	"fmt"

	"github.com/qj0r9j0vc2/modmail/internal/adapter/handler"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/discord"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/server"
)

func (app *Application) initializeHandlers() error {
	readyHandler := handler.NewReadyHandler()
	if app.storage.Pinger != nil {
		readyHandler.AddChecker("database", app.storage.Pinger)
	}
	if app.clients.Broker != nil {
		readyHandler.AddChecker("events", app.clients.Broker)
	}

	app.handlers = &server.Handlers{
		Interactions: handler.NewInteractionHandler(app.useCases.Dispatcher, app.logger),
		Health:       handler.NewHealthHandler(),
		Ready:        readyHandler,
		Metrics:      handler.NewMetricsHandler(app.telemetry.Registry),
	}

	if app.config.IsAdminEnabled() {
		app.handlers.Reload = handler.NewReloadHandler(app.configManager, app.logger)
		app.handlers.Prompt = handler.NewPromptHandler(app.useCases.Prompts, app.logger)
	}

	return nil
}

func (app *Application) setupServer() error {
	verifier, err := discord.NewSignatureVerifier(app.config.Discord.PublicKey)
	if err != nil {
		return fmt.Errorf("interaction verifier: %w", err)
	}

	router := server.NewRouter(app.handlers, server.RouterConfig{
		Verifier:       verifier,
		AdminSecret:    app.config.Admin.Secret,
		RequestTimeout: app.config.Server.RequestTimeout,
		Metrics:        app.telemetry.Metrics,
	}, app.logger)

	app.server = server.New(app.config.Server, router, app.logger)
	return nil
}
