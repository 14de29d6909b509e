package dto

// PromptRequest is the optional body of the admin prompt endpoints.
// Empty fields fall back to the configured prompt location.
type PromptRequest struct {
	ChannelID string `json:"channel_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}
