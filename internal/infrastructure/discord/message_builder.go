package discord

import (
	"fmt"

	"github.com/qj0r9j0vc2/modmail/internal/domain/entity"
)

const (
	openPromptText  = "Need to talk to the moderators privately? Press the button below to open a private thread."
	threadStartText = "Hello %s, thanks for reaching out. %s will be with you shortly.\nModerators can archive or lock this thread with the buttons below."
	threadCloseText = "This thread has been %s by %s"
)

// MessageBuilder builds the messages posted by the bot.
// Every message suppresses implicit mentions; only the thread start message
// lists the opener and the moderator role explicitly.
type MessageBuilder struct{}

// NewMessageBuilder creates a new message builder.
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{}
}

// OpenPrompt builds the public prompt carrying the "open thread" button.
func (b *MessageBuilder) OpenPrompt() entity.OutboundMessage {
	return entity.OutboundMessage{
		Content: openPromptText,
		Components: []entity.ActionRow{{
			Buttons: []entity.Button{{
				Label:  "Open thread",
				Style:  entity.ButtonStylePrimary,
				Action: entity.ButtonActionOpenThread,
			}},
		}},
	}
}

// ThreadStart builds the first message of a new thread.
func (b *MessageBuilder) ThreadStart(openerID, moderatorRoleID string) entity.OutboundMessage {
	return entity.OutboundMessage{
		Content: fmt.Sprintf(threadStartText, entity.UserMention(openerID), entity.RoleMention(moderatorRoleID)),
		Components: []entity.ActionRow{{
			Buttons: []entity.Button{
				{
					Label:  "Archive",
					Style:  entity.ButtonStyleSecondary,
					Action: entity.ButtonActionArchiveThread,
				},
				{
					Label:  "Lock",
					Style:  entity.ButtonStyleDanger,
					Action: entity.ButtonActionLockThread,
				},
			},
		}},
		Mentions: entity.MentionPolicy{
			Users: []string{openerID},
			Roles: []string{moderatorRoleID},
		},
	}
}

// ThreadClosed builds the confirmation posted before a thread is archived or locked.
func (b *MessageBuilder) ThreadClosed(actorID string, action entity.ButtonAction) entity.OutboundMessage {
	return entity.OutboundMessage{
		Content: fmt.Sprintf(threadCloseText, action.Verb(), entity.UserMention(actorID)),
	}
}

// Ephemeral builds a notice visible only to the actor.
func (b *MessageBuilder) Ephemeral(text string) entity.InteractionResponse {
	return entity.EphemeralResponse(text)
}
