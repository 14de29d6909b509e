package entity

import (
	"fmt"

	domainerrors "github.com/qj0r9j0vc2/modmail/internal/domain/errors"
)

// ButtonAction identifies what a button component does when clicked.
// The value doubles as the component custom_id on the wire.
type ButtonAction string

const (
	ButtonActionOpenThread    ButtonAction = "open_thread"
	ButtonActionArchiveThread ButtonAction = "archive_thread"
	ButtonActionLockThread    ButtonAction = "lock_thread"
)

// ParseButtonAction maps a component custom_id to a ButtonAction.
func ParseButtonAction(customID string) (ButtonAction, error) {
	switch ButtonAction(customID) {
	case ButtonActionOpenThread, ButtonActionArchiveThread, ButtonActionLockThread:
		return ButtonAction(customID), nil
	default:
		return "", fmt.Errorf("%w: custom id %q", domainerrors.ErrUnrecognizedInteraction, customID)
	}
}

// RequiresModerator reports whether only moderators may trigger the action.
func (a ButtonAction) RequiresModerator() bool {
	return a.IsClose()
}

// IsClose reports whether the action closes a thread (archive or lock).
func (a ButtonAction) IsClose() bool {
	return a == ButtonActionArchiveThread || a == ButtonActionLockThread
}

// ClosedState returns the thread state written by a close action.
// Both close actions archive; only lock sets the locked flag.
func (a ButtonAction) ClosedState() ThreadState {
	return ThreadState{
		Archived: true,
		Locked:   a == ButtonActionLockThread,
	}
}

// Verb is the past-tense wording used in confirmation messages and audit reasons.
func (a ButtonAction) Verb() string {
	switch a {
	case ButtonActionArchiveThread:
		return "archived"
	case ButtonActionLockThread:
		return "locked"
	case ButtonActionOpenThread:
		return "opened"
	default:
		return string(a)
	}
}

// String returns the custom_id form of the action.
func (a ButtonAction) String() string {
	return string(a)
}
