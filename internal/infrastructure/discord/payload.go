package discord

import "github.com/qj0r9j0vc2/modmail/internal/domain/entity"

// Component types.
const (
	componentTypeActionRow = 1
	componentTypeButton    = 2
)

// Channel types.
const (
	channelTypePrivateThread = 12
)

// MessageFlagEphemeral hides a response from everyone but the actor.
const MessageFlagEphemeral = 1 << 6

// MessagePayload is the JSON body of a create or edit message call, and the
// data of a message interaction response.
type MessagePayload struct {
	Content         string             `json:"content"`
	Components      []ComponentPayload `json:"components"`
	AllowedMentions AllowedMentions    `json:"allowed_mentions"`
	Flags           int                `json:"flags,omitempty"`
}

// ComponentPayload is an action row or a button.
type ComponentPayload struct {
	Type       int                `json:"type"`
	Style      int                `json:"style,omitempty"`
	Label      string             `json:"label,omitempty"`
	CustomID   string             `json:"custom_id,omitempty"`
	Components []ComponentPayload `json:"components,omitempty"`
}

// AllowedMentions restricts which mentions in content actually ping.
// An empty Parse list disables implicit resolution of @everyone, roles and users.
type AllowedMentions struct {
	Parse []string `json:"parse"`
	Users []string `json:"users,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// NewMessagePayload converts a domain message to its wire form.
// Components is always a list so that an edit clears stale buttons.
func NewMessagePayload(msg entity.OutboundMessage) MessagePayload {
	rows := make([]ComponentPayload, 0, len(msg.Components))
	for _, row := range msg.Components {
		buttons := make([]ComponentPayload, 0, len(row.Buttons))
		for _, b := range row.Buttons {
			buttons = append(buttons, ComponentPayload{
				Type:     componentTypeButton,
				Style:    int(b.Style),
				Label:    b.Label,
				CustomID: b.Action.String(),
			})
		}
		rows = append(rows, ComponentPayload{
			Type:       componentTypeActionRow,
			Components: buttons,
		})
	}

	return MessagePayload{
		Content:    msg.Content,
		Components: rows,
		AllowedMentions: AllowedMentions{
			Parse: []string{},
			Users: msg.Mentions.Users,
			Roles: msg.Mentions.Roles,
		},
	}
}

type messageResponse struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

type startThreadRequest struct {
	Name      string `json:"name"`
	Type      int    `json:"type"`
	Invitable bool   `json:"invitable"`
}

type channelResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id"`
}

type modifyThreadRequest struct {
	Archived bool `json:"archived"`
	Locked   bool `json:"locked"`
}

type apiErrorResponse struct {
	Code       int     `json:"code"`
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"`
}
