package interaction

import (
	"context"
	"time"

	"github.com/qj0r9j0vc2/modmail/internal/domain/entity"
)

// ThreadClient defines the platform calls a dispatch may make.
type ThreadClient interface {
	CreateMessage(ctx context.Context, channelID string, msg entity.OutboundMessage) (string, error)
	CreatePrivateThread(ctx context.Context, parentID, name string) (entity.Thread, error)
	ModifyThread(ctx context.Context, threadID string, state entity.ThreadState, reason string) error
}

// MessageBuilder builds the messages and notices sent by the dispatcher.
type MessageBuilder interface {
	ThreadStart(openerID, moderatorRoleID string) entity.OutboundMessage
	ThreadClosed(actorID string, action entity.ButtonAction) entity.OutboundMessage
	Ephemeral(text string) entity.InteractionResponse
}

// EventPublisher receives an event after every successful thread mutation.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.ModerationEvent) error
}

// Recorder receives per-interaction metrics.
type Recorder interface {
	RecordInteraction(ctx context.Context, kind, action, outcome string, duration time.Duration)
}

// Interaction outcomes reported to the Recorder.
const (
	OutcomeOK        = "ok"
	OutcomeRejected  = "rejected"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
)
