package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/qj0r9j0vc2/modmail/internal/app"
	"github.com/qj0r9j0vc2/modmail/internal/usecase/prompt"
)

const defaultConfigPath = "config/config.yaml"

func newCLI() *cli.App {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to the YAML configuration file",
		EnvVars: []string{"CONFIG_PATH"},
		Value:   defaultConfigPath,
	}

	return &cli.App{
		Name:   "modmail",
		Usage:  "Discord interactions webhook for private moderator threads",
		Flags:  []cli.Flag{configFlag},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:        "serve",
				Usage:       "Start the interactions webhook server",
				Category:    "Server",
				Description: "Serves /interactions, health, readiness and metrics endpoints until SIGINT or SIGTERM.",
				Action:      serve,
			},
			{
				Name:     "prompt",
				Usage:    "Manage the public open-thread prompt",
				Category: "Admin",
				Subcommands: []*cli.Command{
					{
						Name:  "post",
						Usage: "Post a new prompt message",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "channel", Usage: "channel id (defaults to discord.prompt.channel_id)"},
						},
						Action: postPrompt,
					},
					{
						Name:  "replace",
						Usage: "Edit the existing prompt message in place",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "channel", Usage: "channel id (defaults to discord.prompt.channel_id)"},
							&cli.StringFlag{Name: "message", Usage: "message id (defaults to discord.prompt.message_id)"},
						},
						Action: replacePrompt,
					},
				},
			},
		},
	}
}

func serve(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	runErr := application.Start(ctx)
	if err := application.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func postPrompt(c *cli.Context) error {
	return runPrompt(c, func(ctx context.Context, uc *prompt.ManagePromptUseCase) (*prompt.Result, error) {
		return uc.PostPrompt(ctx, c.String("channel"))
	})
}

func replacePrompt(c *cli.Context) error {
	return runPrompt(c, func(ctx context.Context, uc *prompt.ManagePromptUseCase) (*prompt.Result, error) {
		return uc.ReplacePrompt(ctx, c.String("channel"), c.String("message"))
	})
}

func runPrompt(c *cli.Context, fn func(context.Context, *prompt.ManagePromptUseCase) (*prompt.Result, error)) error {
	uc, err := app.NewPromptManager(c.String("config"), app.WithLogOutput(c.App.ErrWriter))
	if err != nil {
		return err
	}

	result, err := fn(c.Context, uc)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
