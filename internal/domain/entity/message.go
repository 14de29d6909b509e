package entity

// ButtonStyle mirrors the platform's button colour styles.
type ButtonStyle int

const (
	ButtonStylePrimary   ButtonStyle = 1
	ButtonStyleSecondary ButtonStyle = 2
	ButtonStyleSuccess   ButtonStyle = 3
	ButtonStyleDanger    ButtonStyle = 4
)

// Button is a clickable component bound to exactly one action.
type Button struct {
	Label  string
	Style  ButtonStyle
	Action ButtonAction
}

// ActionRow groups buttons displayed on one line.
type ActionRow struct {
	Buttons []Button
}

// MentionPolicy lists the only users and roles a message may ping.
// The zero value suppresses every mention, including @everyone.
type MentionPolicy struct {
	Users []string
	Roles []string
}

// OutboundMessage is a message body sent to a channel or thread.
// Messages are built fresh for each call and never mutated afterwards.
type OutboundMessage struct {
	Content    string
	Components []ActionRow
	Mentions   MentionPolicy
}

// UserMention formats a user mention.
func UserMention(userID string) string {
	return "<@" + userID + ">"
}

// RoleMention formats a role mention.
func RoleMention(roleID string) string {
	return "<@&" + roleID + ">"
}
