// Package interaction dispatches verified interactions to thread operations.
package interaction

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/qj0r9j0vc2/modmail/internal/domain/entity"
	domainerrors "github.com/qj0r9j0vc2/modmail/internal/domain/errors"
	"github.com/qj0r9j0vc2/modmail/internal/domain/logger"
	"github.com/qj0r9j0vc2/modmail/internal/domain/repository"
)

// Notices shown to the actor when a close action is refused.
const (
	NoticeNotAllowed      = "You are not allowed to do that."
	NoticeAlreadyLocked   = "This thread is already locked."
	NoticeAlreadyArchived = "This thread is already archived."
)

// defaultPublishTimeout bounds event publishing so that a slow broker cannot
// push the response past the platform's acknowledgement window.
const defaultPublishTimeout = time.Second

// Config is the dispatcher configuration.
type Config struct {
	// ModeratorRoleID is the role allowed to archive and lock threads.
	ModeratorRoleID string

	// ThreadNamePrefix is prepended to the thread sequence number.
	ThreadNamePrefix string

	// Deduplicate suppresses redelivered interactions by ID.
	Deduplicate bool
}

// Dispatcher maps interactions to outbound calls and a response.
//
//	Ping                          -> Pong
//	Click open_thread             -> create thread, post start message -> DeferredUpdate
//	Click archive/lock, refused   -> ephemeral notice
//	Click archive/lock            -> post closed message, modify thread -> DeferredUpdate
//	anything else                 -> ErrUnrecognizedInteraction
type Dispatcher struct {
	config    atomic.Pointer[Config]
	client    ThreadClient
	messages  MessageBuilder
	namer     *ThreadNamer
	ledger    repository.InteractionLedger
	publisher EventPublisher
	metrics   Recorder
	logger    logger.Logger
	now       func() time.Time

	publishTimeout time.Duration
}

// NewDispatcher creates a new Dispatcher.
// ledger may be nil when cfg.Deduplicate is false; publisher and metrics may be nil.
func NewDispatcher(
	cfg Config,
	client ThreadClient,
	messages MessageBuilder,
	namer *ThreadNamer,
	ledger repository.InteractionLedger,
	publisher EventPublisher,
	metrics Recorder,
	log logger.Logger,
) *Dispatcher {
	d := &Dispatcher{
		client:    client,
		messages:  messages,
		namer:     namer,
		ledger:    ledger,
		publisher: publisher,
		metrics:   metrics,
		logger:    log,
		now:       time.Now,

		publishTimeout: defaultPublishTimeout,
	}
	d.config.Store(&cfg)
	return d
}

// UpdateConfig swaps the configuration for subsequent dispatches.
func (d *Dispatcher) UpdateConfig(cfg Config) {
	d.config.Store(&cfg)
}

// Config returns the current configuration.
func (d *Dispatcher) Config() Config {
	return *d.config.Load()
}

// Dispatch handles one verified interaction.
// Errors wrapping ErrUnrecognizedInteraction mean the request was not
// understood; any other error is an upstream failure.
func (d *Dispatcher) Dispatch(ctx context.Context, in entity.Interaction) (entity.InteractionResponse, error) {
	start := d.now()
	cfg := d.Config()

	var (
		resp    entity.InteractionResponse
		outcome string
		err     error
		action  string
	)

	switch i := in.(type) {
	case entity.Ping:
		resp, outcome = entity.PongResponse(), OutcomeOK

	case entity.ComponentClick:
		action = i.Action.String()
		resp, outcome, err = d.dispatchClick(ctx, cfg, i)

	default:
		err = fmt.Errorf("%w: unsupported interaction %T", domainerrors.ErrUnrecognizedInteraction, in)
		outcome = OutcomeRejected
	}

	kind := "unknown"
	if in != nil {
		kind = in.Kind().String()
	}
	if d.metrics != nil {
		d.metrics.RecordInteraction(ctx, kind, action, outcome, d.now().Sub(start))
	}

	return resp, err
}

func (d *Dispatcher) dispatchClick(ctx context.Context, cfg Config, click entity.ComponentClick) (entity.InteractionResponse, string, error) {
	var steps []step
	switch {
	case click.Action == entity.ButtonActionOpenThread:
		steps = d.openThreadSteps(cfg, click)

	case click.Action.IsClose():
		if notice := closeRefusal(cfg, click); notice != "" {
			d.logger.Info("close action refused",
				"interaction_id", click.ID,
				"action", click.Action,
				"actor", click.Actor.ID,
				"channel", click.ChannelID,
				"thread_closed", click.ThreadOrOpen().IsClosed(),
				"reason", notice,
			)
			return d.messages.Ephemeral(notice), OutcomeRejected, nil
		}
		steps = d.closeThreadSteps(click)

	default:
		return entity.InteractionResponse{}, OutcomeRejected,
			fmt.Errorf("%w: custom id %q", domainerrors.ErrUnrecognizedInteraction, click.Action)
	}

	if d.deduplicates(cfg, click.ID) {
		claimed, err := d.ledger.Claim(ctx, click.ID, d.now())
		if err != nil {
			return entity.InteractionResponse{}, OutcomeError, fmt.Errorf("claiming interaction: %w", err)
		}
		if !claimed {
			d.logger.Info("duplicate interaction delivery ignored",
				"interaction_id", click.ID,
				"action", click.Action,
			)
			return entity.DeferredUpdateResponse(), OutcomeDuplicate, nil
		}
	}

	st := &pipelineState{}
	if err := runPipeline(ctx, st, steps...); err != nil {
		d.release(ctx, cfg, click.ID)
		d.logger.Error("interaction dispatch failed",
			"interaction_id", click.ID,
			"action", click.Action,
			"channel", click.ChannelID,
			"error", err,
		)
		return entity.InteractionResponse{}, OutcomeError, err
	}

	d.publish(ctx, click, st)

	d.logger.Info("interaction handled",
		"interaction_id", click.ID,
		"action", click.Action,
		"actor", click.Actor.ID,
		"channel", click.ChannelID,
		"thread", st.thread.ID,
	)

	return entity.DeferredUpdateResponse(), OutcomeOK, nil
}

// closeRefusal evaluates the close guards in order: role, locked, archived.
// It returns the notice to show, or "" when the action may proceed.
func closeRefusal(cfg Config, click entity.ComponentClick) string {
	if click.Action.RequiresModerator() && !click.Actor.HasRole(cfg.ModeratorRoleID) {
		return NoticeNotAllowed
	}

	state := click.ThreadOrOpen()
	if state.Locked {
		return NoticeAlreadyLocked
	}
	if click.Action == entity.ButtonActionArchiveThread && state.Archived {
		return NoticeAlreadyArchived
	}
	return ""
}

func (d *Dispatcher) openThreadSteps(cfg Config, click entity.ComponentClick) []step {
	var name string
	return []step{
		{
			name: "allocate thread name",
			run: func(ctx context.Context, _ *pipelineState) error {
				var err error
				name, err = d.namer.Next(ctx, cfg.ThreadNamePrefix, click.ChannelID)
				return err
			},
		},
		{
			name: "create thread",
			run: func(ctx context.Context, st *pipelineState) error {
				thread, err := d.client.CreatePrivateThread(ctx, click.ChannelID, name)
				if err != nil {
					return err
				}
				st.thread = thread
				return nil
			},
		},
		{
			name: "post thread start message",
			run: func(ctx context.Context, st *pipelineState) error {
				msg := d.messages.ThreadStart(click.Actor.ID, cfg.ModeratorRoleID)
				_, err := d.client.CreateMessage(ctx, st.thread.ID, msg)
				return err
			},
		},
	}
}

// closeThreadSteps is shared by archive and lock; the action decides the
// locked flag and the wording.
func (d *Dispatcher) closeThreadSteps(click entity.ComponentClick) []step {
	return []step{
		{
			name: "post closed message",
			run: func(ctx context.Context, st *pipelineState) error {
				st.thread = entity.Thread{ID: click.ChannelID}
				_, err := d.client.CreateMessage(ctx, click.ChannelID, d.messages.ThreadClosed(click.Actor.ID, click.Action))
				return err
			},
		},
		{
			name: "modify thread",
			run: func(ctx context.Context, _ *pipelineState) error {
				reason := fmt.Sprintf("Thread %s by %s", click.Action.Verb(), click.Actor.ID)
				return d.client.ModifyThread(ctx, click.ChannelID, click.Action.ClosedState(), reason)
			},
		},
	}
}

// deduplicates reports whether a click takes part in the ledger. Clicks
// delivered without an id are always processed.
func (d *Dispatcher) deduplicates(cfg Config, interactionID string) bool {
	return cfg.Deduplicate && d.ledger != nil && interactionID != ""
}

// release forgets a claim after a failed dispatch so that the platform's
// redelivery is processed instead of being acknowledged as a duplicate.
func (d *Dispatcher) release(ctx context.Context, cfg Config, interactionID string) {
	if !d.deduplicates(cfg, interactionID) {
		return
	}
	if err := d.ledger.Release(context.WithoutCancel(ctx), interactionID); err != nil {
		d.logger.Warn("failed to release interaction claim",
			"interaction_id", interactionID,
			"error", err,
		)
	}
}

// publish is detached from the request context and bounded by
// publishTimeout. Failures are logged and never fail the interaction.
func (d *Dispatcher) publish(ctx context.Context, click entity.ComponentClick, st *pipelineState) {
	if d.publisher == nil {
		return
	}

	event := entity.ModerationEvent{
		Type:          entity.EventTypeFor(click.Action),
		InteractionID: click.ID,
		ThreadID:      st.thread.ID,
		ThreadName:    st.thread.Name,
		ActorID:       click.Actor.ID,
		OccurredAt:    d.now(),
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.publishTimeout)
	defer cancel()
	if err := d.publisher.Publish(ctx, event); err != nil {
		d.logger.Warn("failed to publish moderation event",
			"type", event.Type,
			"interaction_id", click.ID,
			"error", err,
		)
	}
}
