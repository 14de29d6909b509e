package dto

import (
	"fmt"

	"github.com/qj0r9j0vc2/modmail/internal/domain/entity"
	domainerrors "github.com/qj0r9j0vc2/modmail/internal/domain/errors"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/discord"
)

// InteractionRequest is the JSON body of an inbound interaction webhook.
// Only the fields the dispatcher reads are decoded.
type InteractionRequest struct {
	ID            string           `json:"id"`
	ApplicationID string           `json:"application_id"`
	Type          int              `json:"type"`
	Token         string           `json:"token"`
	Data          *InteractionData `json:"data,omitempty"`
	GuildID       string           `json:"guild_id,omitempty"`
	ChannelID     string           `json:"channel_id,omitempty"`
	Channel       *ChannelDTO      `json:"channel,omitempty"`
	Member        *MemberDTO       `json:"member,omitempty"`
	User          *UserDTO         `json:"user,omitempty"`
}

// InteractionData carries the component that was clicked.
type InteractionData struct {
	CustomID      string `json:"custom_id"`
	ComponentType int    `json:"component_type"`
}

// ChannelDTO is the partial channel the interaction happened in.
type ChannelDTO struct {
	ID             string             `json:"id"`
	Type           int                `json:"type"`
	ThreadMetadata *ThreadMetadataDTO `json:"thread_metadata,omitempty"`
}

// ThreadMetadataDTO is present only when the channel is a thread.
type ThreadMetadataDTO struct {
	Archived bool `json:"archived"`
	Locked   bool `json:"locked"`
}

// MemberDTO is the guild member who clicked. Absent outside guilds.
type MemberDTO struct {
	User  *UserDTO `json:"user,omitempty"`
	Roles []string `json:"roles"`
}

// UserDTO identifies a user.
type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

// ToEntity validates the request and converts it to a domain interaction.
// The id is optional; without one the click cannot be deduplicated.
// Unknown types and custom ids wrap ErrUnrecognizedInteraction; requests
// missing fields their type needs wrap ErrMalformedInteraction.
func (r *InteractionRequest) ToEntity() (entity.Interaction, error) {
	switch entity.InteractionKind(r.Type) {
	case entity.InteractionKindPing:
		return entity.Ping{ID: r.ID}, nil
	case entity.InteractionKindComponentClick:
		return r.toComponentClick()
	default:
		return nil, fmt.Errorf("%w: interaction type %d", domainerrors.ErrUnrecognizedInteraction, r.Type)
	}
}

func (r *InteractionRequest) toComponentClick() (entity.Interaction, error) {
	if r.Data == nil || r.Data.CustomID == "" {
		return nil, fmt.Errorf("%w: missing data.custom_id", domainerrors.ErrMalformedInteraction)
	}

	actor, err := r.actor()
	if err != nil {
		return nil, err
	}

	channelID := r.ChannelID
	if channelID == "" && r.Channel != nil {
		channelID = r.Channel.ID
	}
	if channelID == "" {
		return nil, fmt.Errorf("%w: missing channel_id", domainerrors.ErrMalformedInteraction)
	}

	action, err := entity.ParseButtonAction(r.Data.CustomID)
	if err != nil {
		return nil, err
	}

	click := entity.ComponentClick{
		ID:        r.ID,
		Action:    action,
		Actor:     actor,
		ChannelID: channelID,
	}
	if r.Channel != nil && r.Channel.ThreadMetadata != nil {
		click.Thread = &entity.ThreadState{
			Archived: r.Channel.ThreadMetadata.Archived,
			Locked:   r.Channel.ThreadMetadata.Locked,
		}
	}
	return click, nil
}

// actor prefers the guild member; a bare user (direct message) has no roles.
func (r *InteractionRequest) actor() (entity.Actor, error) {
	switch {
	case r.Member != nil && r.Member.User != nil && r.Member.User.ID != "":
		return entity.Actor{ID: r.Member.User.ID, Roles: r.Member.Roles}, nil
	case r.User != nil && r.User.ID != "":
		return entity.Actor{ID: r.User.ID}, nil
	default:
		return entity.Actor{}, fmt.Errorf("%w: missing member.user.id", domainerrors.ErrMalformedInteraction)
	}
}

// InteractionResponseDTO is the JSON body answered to the platform.
type InteractionResponseDTO struct {
	Type int                     `json:"type"`
	Data *discord.MessagePayload `json:"data,omitempty"`
}

// NewInteractionResponse converts a dispatcher response to its wire form.
func NewInteractionResponse(resp entity.InteractionResponse) *InteractionResponseDTO {
	out := &InteractionResponseDTO{Type: int(resp.Kind)}
	if resp.Message != nil {
		payload := discord.NewMessagePayload(*resp.Message)
		if resp.Kind == entity.ResponseEphemeral {
			payload.Flags = discord.MessageFlagEphemeral
		}
		out.Data = &payload
	}
	return out
}
