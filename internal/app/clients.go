package app

import (
	"context"
	"fmt"

	"github.com/qj0r9j0vc2/modmail/internal/domain/entity"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/config"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/discord"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/events"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/observability"
)

// EventPublisher is the moderation event sink owned by the application.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.ModerationEvent) error
	Close() error
}

// Clients holds all external integration clients
type Clients struct {
	Discord   *discord.Client
	Messages  *discord.MessageBuilder
	Publisher EventPublisher

	// Broker is set only when events are published over AMQP.
	Broker *events.AMQPPublisher
}

func (app *Application) initializeClients() error {
	app.clients = &Clients{
		Discord:   newDiscordClient(&app.config.Discord, app.telemetry.Metrics),
		Messages:  discord.NewMessageBuilder(),
		Publisher: events.NoopPublisher{},
	}

	app.logger.Info("Discord client initialized",
		"api_base_url", app.config.Discord.APIBaseURL,
		"timeout", app.config.Discord.Timeout,
	)

	if app.config.IsEventsEnabled() {
		broker, err := events.NewAMQPPublisher(
			app.config.Events.URL,
			app.config.Events.Exchange,
			app.config.Events.RoutingKey,
			app.logger,
			app.telemetry.Metrics,
		)
		if err != nil {
			return fmt.Errorf("event publisher: %w", err)
		}
		app.clients.Broker = broker
		app.clients.Publisher = broker

		app.logger.Info("moderation event publishing enabled",
			"exchange", app.config.Events.Exchange,
			"routing_key", app.config.Events.RoutingKey,
		)
	}

	return nil
}

func newDiscordClient(cfg *config.DiscordConfig, metrics *observability.Metrics) *discord.Client {
	return discord.NewClient(cfg.BotToken,
		discord.WithBaseURL(cfg.APIBaseURL),
		discord.WithTimeout(cfg.Timeout),
		discord.WithMetrics(metrics),
		discord.WithCircuitBreaker(cfg.CircuitBreaker.MaxFailures, cfg.CircuitBreaker.OpenTimeout),
	)
}
