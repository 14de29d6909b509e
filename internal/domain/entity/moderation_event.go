package entity

import "time"

// ModerationEventType names what happened to a thread.
type ModerationEventType string

const (
	ModerationEventThreadOpened   ModerationEventType = "thread.opened"
	ModerationEventThreadArchived ModerationEventType = "thread.archived"
	ModerationEventThreadLocked   ModerationEventType = "thread.locked"
)

// ModerationEvent is emitted after a successful thread mutation.
type ModerationEvent struct {
	Type          ModerationEventType
	InteractionID string
	ThreadID      string
	ThreadName    string
	ActorID       string
	OccurredAt    time.Time
}

// EventTypeFor maps a button action to the event it produces.
func EventTypeFor(action ButtonAction) ModerationEventType {
	switch action {
	case ButtonActionArchiveThread:
		return ModerationEventThreadArchived
	case ButtonActionLockThread:
		return ModerationEventThreadLocked
	default:
		return ModerationEventThreadOpened
	}
}
