package app

import (
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/config"
	"github.com/qj0r9j0vc2/modmail/internal/usecase/interaction"
	"github.com/qj0r9j0vc2/modmail/internal/usecase/prompt"
)

// UseCases holds the application use cases.
type UseCases struct {
	Dispatcher *interaction.Dispatcher
	Prompts    *prompt.ManagePromptUseCase
}

func (app *Application) initializeUseCases() error {
	app.useCases = &UseCases{
		Dispatcher: interaction.NewDispatcher(
			dispatcherConfig(app.config),
			app.clients.Discord,
			app.clients.Messages,
			interaction.NewThreadNamer(app.storage.ThreadCounter),
			app.storage.Ledger,
			app.clients.Publisher,
			app.telemetry.Metrics,
			app.logger,
		),
		Prompts: prompt.NewManagePromptUseCase(
			app.clients.Discord,
			app.clients.Messages,
			promptTarget(app.config),
			app.logger,
		),
	}
	return nil
}

func dispatcherConfig(cfg *config.Config) interaction.Config {
	return interaction.Config{
		ModeratorRoleID:  cfg.Discord.ModeratorRoleID,
		ThreadNamePrefix: cfg.Discord.ThreadNamePrefix,
		Deduplicate:      cfg.DeduplicationEnabled(),
	}
}

func promptTarget(cfg *config.Config) prompt.Target {
	return prompt.Target{
		ChannelID: cfg.Discord.Prompt.ChannelID,
		MessageID: cfg.Discord.Prompt.MessageID,
	}
}
