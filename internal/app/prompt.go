package app

import (
	"fmt"

	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/config"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/discord"
	"github.com/qj0r9j0vc2/modmail/internal/usecase/prompt"
)

// NewPromptManager builds only what the prompt commands need: configuration,
// logging and the Discord client. Storage and the HTTP server are not opened.
func NewPromptManager(configPath string, opts ...Option) (*prompt.ManagePromptUseCase, error) {
	app := &Application{configPath: configPath}
	for _, opt := range opts {
		opt(app)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	app.config = cfg

	if err := app.setupLogger(); err != nil {
		return nil, fmt.Errorf("setting up logger: %w", err)
	}

	return prompt.NewManagePromptUseCase(
		newDiscordClient(&cfg.Discord, nil),
		discord.NewMessageBuilder(),
		promptTarget(cfg),
		app.logger,
	), nil
}
