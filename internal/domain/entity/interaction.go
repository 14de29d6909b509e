package entity

import "slices"

// InteractionKind is the interaction type as declared by the platform.
type InteractionKind int

const (
	InteractionKindPing           InteractionKind = 1
	InteractionKindComponentClick InteractionKind = 3
)

// String returns a readable name for logs and metric attributes.
func (k InteractionKind) String() string {
	switch k {
	case InteractionKindPing:
		return "ping"
	case InteractionKindComponentClick:
		return "component_click"
	default:
		return "unknown"
	}
}

// Interaction is a verified inbound event, already validated at the boundary.
// It is one of Ping or ComponentClick.
type Interaction interface {
	Kind() InteractionKind
	InteractionID() string
}

// Ping is the liveness check sent by the platform.
type Ping struct {
	ID string
}

// Kind implements Interaction.
func (p Ping) Kind() InteractionKind { return InteractionKindPing }

// InteractionID implements Interaction.
func (p Ping) InteractionID() string { return p.ID }

// ComponentClick is a button press on one of our messages.
type ComponentClick struct {
	ID        string
	Action    ButtonAction
	Actor     Actor
	ChannelID string

	// Thread is set when the click happened inside a thread channel.
	Thread *ThreadState
}

// Kind implements Interaction.
func (c ComponentClick) Kind() InteractionKind { return InteractionKindComponentClick }

// InteractionID implements Interaction.
func (c ComponentClick) InteractionID() string { return c.ID }

// ThreadOrOpen returns the observed thread state, treating a missing one as open.
func (c ComponentClick) ThreadOrOpen() ThreadState {
	if c.Thread == nil {
		return ThreadState{}
	}
	return *c.Thread
}

// Actor is the guild member who triggered the interaction.
type Actor struct {
	ID    string
	Roles []string
}

// HasRole is a flat membership check; there is no role hierarchy.
func (a Actor) HasRole(roleID string) bool {
	if roleID == "" {
		return false
	}
	return slices.Contains(a.Roles, roleID)
}

// Mention renders the actor as a user mention.
func (a Actor) Mention() string {
	return UserMention(a.ID)
}
