package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/qj0r9j0vc2/modmail/internal/domain/entity"
	"github.com/qj0r9j0vc2/modmail/internal/domain/logger"
)

// PublishRecorder receives publish outcomes. *observability.Metrics implements it.
type PublishRecorder interface {
	RecordEventPublished(ctx context.Context, eventType string, success bool)
}

// AMQPPublisher publishes moderation events to a topic exchange.
// Each publish waits for the broker confirm.
type AMQPPublisher struct {
	conn       *amqp091.Connection
	exchange   string
	routingKey string
	logger     logger.Logger
	metrics    PublishRecorder

	mu     sync.Mutex
	closed bool
}

// NewAMQPPublisher dials the broker and declares a durable topic exchange.
func NewAMQPPublisher(url, exchange, routingKey string, log logger.Logger, metrics PublishRecorder) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declaring exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{
		conn:       conn,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     log,
		metrics:    metrics,
	}, nil
}

// Publish sends one event. A channel is opened per publish so that
// concurrent requests never share channel state.
func (p *AMQPPublisher) Publish(ctx context.Context, event entity.ModerationEvent) (err error) {
	defer func() {
		if p.metrics != nil {
			p.metrics.RecordEventPublished(ctx, string(event.Type), err == nil)
		}
	}()

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return errors.New("publisher closed")
	}

	envelope := NewEnvelope(event)
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("opening channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("enabling confirms: %w", err)
	}

	key := RoutingKey(p.routingKey, event.Type)
	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx, p.exchange, key, false, false,
		amqp091.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp091.Persistent,
			MessageId:     envelope.ID,
			CorrelationId: event.InteractionID,
			Type:          envelope.Type,
			Timestamp:     time.Now(),
			Body:          body,
		},
	)
	if err != nil {
		return fmt.Errorf("publishing %s: %w", key, err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("waiting for confirm: %w", err)
	}
	if !acked {
		return fmt.Errorf("broker nacked %s", key)
	}

	p.logger.Debug("event published", "exchange", p.exchange, "key", key, "id", envelope.ID)
	return nil
}

// Ping reports whether the broker connection is still open.
func (p *AMQPPublisher) Ping(context.Context) error {
	if p.conn.IsClosed() {
		return errors.New("broker connection closed")
	}
	return nil
}

// Close closes the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.conn.Close()
}

// NoopPublisher drops every event. Used when publishing is disabled.
type NoopPublisher struct{}

// Publish implements the publisher port.
func (NoopPublisher) Publish(context.Context, entity.ModerationEvent) error { return nil }

// Close implements io.Closer.
func (NoopPublisher) Close() error { return nil }
