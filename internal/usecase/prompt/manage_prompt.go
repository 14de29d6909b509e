// Package prompt posts and maintains the public "open thread" prompt.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/qj0r9j0vc2/modmail/internal/domain/entity"
	"github.com/qj0r9j0vc2/modmail/internal/domain/logger"
)

var (
	// ErrNoChannel is returned when neither the request nor the configuration names a channel.
	ErrNoChannel = errors.New("prompt channel id is required")

	// ErrNoMessage is returned when a replace has no message to edit.
	ErrNoMessage = errors.New("prompt message id is required")
)

// MessageClient defines the platform calls needed to publish the prompt.
type MessageClient interface {
	CreateMessage(ctx context.Context, channelID string, msg entity.OutboundMessage) (string, error)
	EditMessage(ctx context.Context, channelID, messageID string, msg entity.OutboundMessage) error
}

// PromptBuilder builds the prompt message.
type PromptBuilder interface {
	OpenPrompt() entity.OutboundMessage
}

// Target identifies where the prompt lives.
type Target struct {
	ChannelID string
	MessageID string
}

// Result describes a posted or replaced prompt.
type Result struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
	Replaced  bool   `json:"replaced"`
}

// ManagePromptUseCase posts a new prompt or edits an existing one in place.
type ManagePromptUseCase struct {
	client   MessageClient
	builder  PromptBuilder
	logger   logger.Logger
	defaults atomic.Pointer[Target]
}

// NewManagePromptUseCase creates a new manage prompt use case.
// defaults supplies the channel and message used when a request leaves them empty.
func NewManagePromptUseCase(client MessageClient, builder PromptBuilder, defaults Target, log logger.Logger) *ManagePromptUseCase {
	uc := &ManagePromptUseCase{
		client:  client,
		builder: builder,
		logger:  log,
	}
	uc.defaults.Store(&defaults)
	return uc
}

// UpdateDefaults swaps the configured prompt location.
func (uc *ManagePromptUseCase) UpdateDefaults(t Target) {
	uc.defaults.Store(&t)
}

// Defaults returns the configured prompt location.
func (uc *ManagePromptUseCase) Defaults() Target {
	return *uc.defaults.Load()
}

// PostPrompt posts a fresh prompt to channelID, or to the configured channel if empty.
func (uc *ManagePromptUseCase) PostPrompt(ctx context.Context, channelID string) (*Result, error) {
	if channelID == "" {
		channelID = uc.Defaults().ChannelID
	}
	if channelID == "" {
		return nil, ErrNoChannel
	}

	messageID, err := uc.client.CreateMessage(ctx, channelID, uc.builder.OpenPrompt())
	if err != nil {
		return nil, fmt.Errorf("posting prompt: %w", err)
	}

	uc.logger.Info("prompt posted",
		"channel", channelID,
		"message_id", messageID,
	)

	return &Result{ChannelID: channelID, MessageID: messageID}, nil
}

// ReplacePrompt rewrites an existing prompt so its content and buttons match
// the current build. Empty arguments fall back to the configured location.
func (uc *ManagePromptUseCase) ReplacePrompt(ctx context.Context, channelID, messageID string) (*Result, error) {
	defaults := uc.Defaults()
	if channelID == "" {
		channelID = defaults.ChannelID
	}
	if messageID == "" {
		messageID = defaults.MessageID
	}
	if channelID == "" {
		return nil, ErrNoChannel
	}
	if messageID == "" {
		return nil, ErrNoMessage
	}

	if err := uc.client.EditMessage(ctx, channelID, messageID, uc.builder.OpenPrompt()); err != nil {
		return nil, fmt.Errorf("replacing prompt: %w", err)
	}

	uc.logger.Info("prompt replaced",
		"channel", channelID,
		"message_id", messageID,
	)

	return &Result{ChannelID: channelID, MessageID: messageID, Replaced: true}, nil
}
