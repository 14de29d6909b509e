package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/qj0r9j0vc2/modmail/internal/domain/entity"
)

// Envelope is the JSON document published for every moderation event.
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       EventData `json:"data"`
}

// EventData carries the event details.
type EventData struct {
	InteractionID string `json:"interaction_id"`
	ThreadID      string `json:"thread_id"`
	ThreadName    string `json:"thread_name,omitempty"`
	ActorID       string `json:"actor_id"`
}

// NewEnvelope wraps an event with a fresh message ID.
func NewEnvelope(event entity.ModerationEvent) Envelope {
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	return Envelope{
		ID:         uuid.NewString(),
		Type:       string(event.Type),
		OccurredAt: occurredAt.UTC(),
		Data: EventData{
			InteractionID: event.InteractionID,
			ThreadID:      event.ThreadID,
			ThreadName:    event.ThreadName,
			ActorID:       event.ActorID,
		},
	}
}

// RoutingKey joins the configured prefix and the event type,
// e.g. "modmail.thread.locked".
func RoutingKey(prefix string, eventType entity.ModerationEventType) string {
	if prefix == "" {
		return string(eventType)
	}
	return prefix + "." + string(eventType)
}
