package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/config"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/observability"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/server"
)

// Application holds all application dependencies and lifecycle
type Application struct {
	config        *config.Config
	configPath    string
	configManager *config.ConfigManager
	logger        *AtomicLogger
	logOutput     io.Writer
	telemetry     *observability.Telemetry

	storage  *Storage
	clients  *Clients
	useCases *UseCases

	// HTTP layer
	handlers *server.Handlers
	server   *server.Server
}

// Option configures an Application.
type Option func(*Application)

// WithLogOutput sends logs to w instead of stdout.
func WithLogOutput(w io.Writer) Option {
	return func(app *Application) {
		app.logOutput = w
	}
}

// New creates a new Application instance
func New(configPath string, opts ...Option) (*Application, error) {
	app := &Application{configPath: configPath}
	for _, opt := range opts {
		opt(app)
	}

	if err := app.bootstrap(); err != nil {
		app.closeResources()
		return nil, err
	}

	return app, nil
}

// Start runs the HTTP server, the config watcher and the ledger janitor
// until ctx is cancelled or one of them fails.
func (app *Application) Start(ctx context.Context) error {
	app.logger.Info("starting modmail",
		"port", app.config.Server.Port,
		"storage", app.config.Storage.Type,
		"admin_enabled", app.config.IsAdminEnabled(),
		"events_enabled", app.config.IsEventsEnabled(),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.server.Run(ctx)
	})

	g.Go(func() error {
		if err := app.configManager.Watch(ctx); err != nil {
			// Hot reload is optional; the server keeps running without it.
			app.logger.Warn("configuration watcher stopped", "error", err)
		}
		return nil
	})

	if app.config.DeduplicationEnabled() {
		g.Go(func() error {
			app.runLedgerJanitor(ctx)
			return nil
		})
	}

	return g.Wait()
}

// Shutdown gracefully stops the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down modmail")

	err := app.closeResources()

	app.logger.Info("modmail stopped")
	return err
}

func (app *Application) closeResources() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error

	if app.telemetry != nil {
		if err := app.telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry: %w", err))
		}
	}

	if app.clients != nil && app.clients.Publisher != nil {
		if err := app.clients.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event publisher: %w", err))
		}
	}

	if app.storage != nil && app.storage.Closer != nil {
		if err := app.storage.Closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		if app.logger != nil {
			app.logger.Error("failed to release resources", "error", err)
		}
		return err
	}
	return nil
}
