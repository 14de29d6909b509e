package app

import (
	"log/slog"

	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/config"
)

func (app *Application) setupConfigManager() error {
	app.configManager = config.NewConfigManager(app.configPath, app.config, app.logger)
	app.configManager.OnReload(app.applyReload)
	return nil
}

// applyReload pushes reloadable settings into the running components.
func (app *Application) applyReload(cfg *config.Config) {
	logger := NewLogger(app.logOutput, cfg.Logging.Level, cfg.Logging.Format)
	app.logger.Set(logger)
	slog.SetDefault(logger)

	app.useCases.Dispatcher.UpdateConfig(dispatcherConfig(cfg))
	app.useCases.Prompts.UpdateDefaults(promptTarget(cfg))

	app.logger.Info("reloadable settings applied",
		"log_level", cfg.Logging.Level,
		"log_format", cfg.Logging.Format,
		"moderator_role_id", cfg.Discord.ModeratorRoleID,
	)
}
