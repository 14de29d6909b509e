package interaction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qj0r9j0vc2/modmail/internal/domain/entity"
	domainerrors "github.com/qj0r9j0vc2/modmail/internal/domain/errors"
	"github.com/qj0r9j0vc2/modmail/internal/domain/logger"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/discord"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/persistence/memory"
)

type call struct {
	Op        string
	ChannelID string
	Name      string
	Content   string
	State     entity.ThreadState
	Reason    string
}

type mockClient struct {
	mu    sync.Mutex
	calls []call

	createThreadErr  error
	createMessageErr error
	modifyErr        error
}

func (m *mockClient) record(c call) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
}

func (m *mockClient) Calls() []call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]call(nil), m.calls...)
}

func (m *mockClient) CreateMessage(ctx context.Context, channelID string, msg entity.OutboundMessage) (string, error) {
	m.record(call{Op: "create_message", ChannelID: channelID, Content: msg.Content})
	if m.createMessageErr != nil {
		return "", m.createMessageErr
	}
	return "M1", nil
}

func (m *mockClient) CreatePrivateThread(ctx context.Context, parentID, name string) (entity.Thread, error) {
	m.record(call{Op: "create_thread", ChannelID: parentID, Name: name})
	if m.createThreadErr != nil {
		return entity.Thread{}, m.createThreadErr
	}
	return entity.Thread{ID: "T1", Name: name, ParentID: parentID}, nil
}

func (m *mockClient) ModifyThread(ctx context.Context, threadID string, state entity.ThreadState, reason string) error {
	m.record(call{Op: "modify_thread", ChannelID: threadID, State: state, Reason: reason})
	return m.modifyErr
}

type mockPublisher struct {
	mu     sync.Mutex
	events []entity.ModerationEvent
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, event entity.ModerationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

type mockRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (m *mockRecorder) RecordInteraction(ctx context.Context, kind, action, outcome string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

type fixture struct {
	dispatcher *Dispatcher
	client     *mockClient
	publisher  *mockPublisher
	recorder   *mockRecorder
	ledger     *memory.InteractionLedger
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		client:    &mockClient{},
		publisher: &mockPublisher{},
		recorder:  &mockRecorder{},
		ledger:    memory.NewInteractionLedger(),
	}
	f.dispatcher = NewDispatcher(
		cfg,
		f.client,
		discord.NewMessageBuilder(),
		NewThreadNamer(memory.NewThreadCounterRepository()),
		f.ledger,
		f.publisher,
		f.recorder,
		logger.Nop{},
	)
	return f
}

func defaultConfig() Config {
	return Config{ModeratorRoleID: "MOD", ThreadNamePrefix: "support", Deduplicate: true}
}

func closeClick(id string, action entity.ButtonAction, roles []string, state *entity.ThreadState) entity.ComponentClick {
	return entity.ComponentClick{
		ID:        id,
		Action:    action,
		Actor:     entity.Actor{ID: "U1", Roles: roles},
		ChannelID: "C1",
		Thread:    state,
	}
}

func TestDispatch_Ping(t *testing.T) {
	f := newFixture(t, defaultConfig())

	resp, err := f.dispatcher.Dispatch(context.Background(), entity.Ping{ID: "I1"})
	require.NoError(t, err)

	assert.Equal(t, entity.ResponsePong, resp.Kind)
	assert.Empty(t, f.client.Calls())
	assert.Equal(t, []string{OutcomeOK}, f.recorder.outcomes)
}

func TestDispatch_OpenThread(t *testing.T) {
	f := newFixture(t, defaultConfig())
	click := entity.ComponentClick{
		ID:        "I1",
		Action:    entity.ButtonActionOpenThread,
		Actor:     entity.Actor{ID: "U7"},
		ChannelID: "P1",
	}

	resp, err := f.dispatcher.Dispatch(context.Background(), click)
	require.NoError(t, err)
	assert.Equal(t, entity.ResponseDeferredUpdate, resp.Kind)

	calls := f.client.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "create_thread", calls[0].Op)
	assert.Equal(t, "P1", calls[0].ChannelID)
	assert.Equal(t, "support-0001", calls[0].Name)
	assert.Equal(t, "create_message", calls[1].Op)
	assert.Equal(t, "T1", calls[1].ChannelID)
	assert.Contains(t, calls[1].Content, "<@U7>")
	assert.Contains(t, calls[1].Content, "<@&MOD>")

	require.Len(t, f.publisher.events, 1)
	event := f.publisher.events[0]
	assert.Equal(t, entity.ModerationEventThreadOpened, event.Type)
	assert.Equal(t, "T1", event.ThreadID)
	assert.Equal(t, "support-0001", event.ThreadName)
	assert.Equal(t, "U7", event.ActorID)
}

func TestDispatch_OpenThreadNamesAreSequential(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	for _, id := range []string{"I1", "I2"} {
		_, err := f.dispatcher.Dispatch(ctx, entity.ComponentClick{
			ID: id, Action: entity.ButtonActionOpenThread, Actor: entity.Actor{ID: "U1"}, ChannelID: "P1",
		})
		require.NoError(t, err)
	}

	calls := f.client.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, "support-0001", calls[0].Name)
	assert.Equal(t, "support-0002", calls[2].Name)
}

func TestDispatch_CloseGuards(t *testing.T) {
	moderator := []string{"MOD"}
	tests := []struct {
		name   string
		action entity.ButtonAction
		roles  []string
		state  *entity.ThreadState
		notice string
	}{
		{name: "archive by non-moderator", action: entity.ButtonActionArchiveThread, roles: []string{"R1"}, notice: NoticeNotAllowed},
		{name: "lock by non-moderator", action: entity.ButtonActionLockThread, roles: nil, notice: NoticeNotAllowed},
		{name: "non-moderator on locked thread", action: entity.ButtonActionLockThread, roles: nil, state: &entity.ThreadState{Archived: true, Locked: true}, notice: NoticeNotAllowed},
		{name: "archive on locked thread", action: entity.ButtonActionArchiveThread, roles: moderator, state: &entity.ThreadState{Locked: true}, notice: NoticeAlreadyLocked},
		{name: "archive on archived and locked thread", action: entity.ButtonActionArchiveThread, roles: moderator, state: &entity.ThreadState{Archived: true, Locked: true}, notice: NoticeAlreadyLocked},
		{name: "lock on locked thread", action: entity.ButtonActionLockThread, roles: moderator, state: &entity.ThreadState{Archived: true, Locked: true}, notice: NoticeAlreadyLocked},
		{name: "archive on archived thread", action: entity.ButtonActionArchiveThread, roles: moderator, state: &entity.ThreadState{Archived: true}, notice: NoticeAlreadyArchived},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, defaultConfig())

			resp, err := f.dispatcher.Dispatch(context.Background(), closeClick("I1", tt.action, tt.roles, tt.state))
			require.NoError(t, err)

			assert.Equal(t, entity.ResponseEphemeral, resp.Kind)
			require.NotNil(t, resp.Message)
			assert.Equal(t, tt.notice, resp.Message.Content)
			assert.Empty(t, f.client.Calls())
			assert.Empty(t, f.publisher.events)
			assert.Equal(t, 0, f.ledger.Len())
		})
	}
}

func TestDispatch_CloseThread(t *testing.T) {
	tests := []struct {
		name    string
		action  entity.ButtonAction
		state   *entity.ThreadState
		content string
		want    entity.ThreadState
		verb    string
		event   entity.ModerationEventType
	}{
		{
			name:    "archive open thread",
			action:  entity.ButtonActionArchiveThread,
			content: "This thread has been archived by <@U1>",
			want:    entity.ThreadState{Archived: true, Locked: false},
			verb:    "archived",
			event:   entity.ModerationEventThreadArchived,
		},
		{
			name:    "lock open thread",
			action:  entity.ButtonActionLockThread,
			state:   &entity.ThreadState{},
			content: "This thread has been locked by <@U1>",
			want:    entity.ThreadState{Archived: true, Locked: true},
			verb:    "locked",
			event:   entity.ModerationEventThreadLocked,
		},
		{
			name:    "lock archived thread",
			action:  entity.ButtonActionLockThread,
			state:   &entity.ThreadState{Archived: true},
			content: "This thread has been locked by <@U1>",
			want:    entity.ThreadState{Archived: true, Locked: true},
			verb:    "locked",
			event:   entity.ModerationEventThreadLocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, defaultConfig())

			resp, err := f.dispatcher.Dispatch(context.Background(), closeClick("I1", tt.action, []string{"R1", "MOD"}, tt.state))
			require.NoError(t, err)
			assert.Equal(t, entity.ResponseDeferredUpdate, resp.Kind)

			calls := f.client.Calls()
			require.Len(t, calls, 2)
			assert.Equal(t, call{Op: "create_message", ChannelID: "C1", Content: tt.content}, calls[0])
			assert.Equal(t, "modify_thread", calls[1].Op)
			assert.Equal(t, "C1", calls[1].ChannelID)
			assert.Equal(t, tt.want, calls[1].State)
			assert.Contains(t, calls[1].Reason, tt.verb)

			require.Len(t, f.publisher.events, 1)
			assert.Equal(t, tt.event, f.publisher.events[0].Type)
			assert.Equal(t, "C1", f.publisher.events[0].ThreadID)
		})
	}
}

func TestDispatch_LockExample(t *testing.T) {
	f := newFixture(t, Config{ModeratorRoleID: "MOD"})

	resp, err := f.dispatcher.Dispatch(context.Background(), entity.ComponentClick{
		ID:        "I1",
		Action:    entity.ButtonActionLockThread,
		Actor:     entity.Actor{ID: "U1", Roles: []string{"MOD"}},
		ChannelID: "C1",
		Thread:    &entity.ThreadState{Archived: false, Locked: false},
	})
	require.NoError(t, err)

	assert.Equal(t, []call{
		{Op: "create_message", ChannelID: "C1", Content: "This thread has been locked by <@U1>"},
		{Op: "modify_thread", ChannelID: "C1", State: entity.ThreadState{Archived: true, Locked: true}, Reason: "Thread locked by U1"},
	}, f.client.Calls())
	assert.Equal(t, entity.ResponseDeferredUpdate, resp.Kind)
}

func TestDispatch_Unrecognized(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	_, err := f.dispatcher.Dispatch(ctx, entity.ComponentClick{ID: "I1", Action: "delete_thread", ChannelID: "C1"})
	assert.ErrorIs(t, err, domainerrors.ErrUnrecognizedInteraction)

	_, err = f.dispatcher.Dispatch(ctx, nil)
	assert.ErrorIs(t, err, domainerrors.ErrUnrecognizedInteraction)

	assert.Empty(t, f.client.Calls())
	assert.Equal(t, []string{OutcomeRejected, OutcomeRejected}, f.recorder.outcomes)
}

func TestDispatch_OpenThreadShortCircuits(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.client.createThreadErr = domainerrors.NewPermanentError("create thread", errors.New("missing access"))

	click := entity.ComponentClick{ID: "I1", Action: entity.ButtonActionOpenThread, Actor: entity.Actor{ID: "U1"}, ChannelID: "P1"}
	_, err := f.dispatcher.Dispatch(context.Background(), click)
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "create thread", stepErr.Step)
	assert.NotErrorIs(t, err, domainerrors.ErrUnrecognizedInteraction)

	calls := f.client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "create_thread", calls[0].Op)
	assert.Empty(t, f.publisher.events)
	assert.Equal(t, []string{OutcomeError}, f.recorder.outcomes)

	// The claim was released, so a redelivery is processed again.
	assert.Equal(t, 0, f.ledger.Len())
}

func TestDispatch_CloseShortCircuits(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.client.createMessageErr = errors.New("boom")

	_, err := f.dispatcher.Dispatch(context.Background(), closeClick("I1", entity.ButtonActionLockThread, []string{"MOD"}, nil))
	require.Error(t, err)

	calls := f.client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "create_message", calls[0].Op)
}

func TestDispatch_DuplicateDelivery(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	click := entity.ComponentClick{ID: "I1", Action: entity.ButtonActionOpenThread, Actor: entity.Actor{ID: "U1"}, ChannelID: "P1"}

	_, err := f.dispatcher.Dispatch(ctx, click)
	require.NoError(t, err)

	resp, err := f.dispatcher.Dispatch(ctx, click)
	require.NoError(t, err)
	assert.Equal(t, entity.ResponseDeferredUpdate, resp.Kind)

	assert.Len(t, f.client.Calls(), 2, "replay must not repeat outbound calls")
	assert.Equal(t, []string{OutcomeOK, OutcomeDuplicate}, f.recorder.outcomes)
}

func TestDispatch_DeduplicationDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.Deduplicate = false
	f := newFixture(t, cfg)
	ctx := context.Background()
	click := entity.ComponentClick{ID: "I1", Action: entity.ButtonActionOpenThread, Actor: entity.Actor{ID: "U1"}, ChannelID: "P1"}

	_, err := f.dispatcher.Dispatch(ctx, click)
	require.NoError(t, err)
	_, err = f.dispatcher.Dispatch(ctx, click)
	require.NoError(t, err)

	assert.Len(t, f.client.Calls(), 4)
	assert.Equal(t, 0, f.ledger.Len())
}

func TestDispatch_PublishFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.publisher.err = errors.New("broker down")

	resp, err := f.dispatcher.Dispatch(context.Background(), closeClick("I1", entity.ButtonActionArchiveThread, []string{"MOD"}, nil))
	require.NoError(t, err)
	assert.Equal(t, entity.ResponseDeferredUpdate, resp.Kind)
}

type blockingPublisher struct {
	done chan error
}

func (b *blockingPublisher) Publish(ctx context.Context, event entity.ModerationEvent) error {
	<-ctx.Done()
	b.done <- ctx.Err()
	return ctx.Err()
}

func TestDispatch_SlowPublisherDoesNotHoldResponse(t *testing.T) {
	f := newFixture(t, defaultConfig())
	pub := &blockingPublisher{done: make(chan error, 1)}
	f.dispatcher.publisher = pub
	f.dispatcher.publishTimeout = 20 * time.Millisecond

	start := time.Now()
	resp, err := f.dispatcher.Dispatch(context.Background(), closeClick("I1", entity.ButtonActionLockThread, []string{"MOD"}, nil))
	require.NoError(t, err)
	assert.Equal(t, entity.ResponseDeferredUpdate, resp.Kind)
	assert.Less(t, time.Since(start), time.Second)
	assert.ErrorIs(t, <-pub.done, context.DeadlineExceeded)
	assert.Len(t, f.client.Calls(), 2)
}

func TestDispatch_PublishOutlivesCancelledRequest(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The pipeline is stopped by the cancelled context, so drive publish directly.
	f.dispatcher.publish(ctx, closeClick("I1", entity.ButtonActionArchiveThread, nil, nil), &pipelineState{thread: entity.Thread{ID: "C1"}})

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, "C1", f.publisher.events[0].ThreadID)
}

func TestDispatch_ClickWithoutIDSkipsLedger(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	click := closeClick("", entity.ButtonActionLockThread, []string{"MOD"}, nil)

	for i := 0; i < 2; i++ {
		resp, err := f.dispatcher.Dispatch(ctx, click)
		require.NoError(t, err)
		assert.Equal(t, entity.ResponseDeferredUpdate, resp.Kind)
	}

	assert.Len(t, f.client.Calls(), 4)
	assert.Equal(t, 0, f.ledger.Len())
	assert.Equal(t, []string{OutcomeOK, OutcomeOK}, f.recorder.outcomes)
}

func TestCloseRefusal(t *testing.T) {
	cfg := defaultConfig()
	locked := &entity.ThreadState{Locked: true}
	archived := &entity.ThreadState{Archived: true}

	tests := []struct {
		name  string
		click entity.ComponentClick
		want  string
	}{
		{"open needs no role", closeClick("I1", entity.ButtonActionOpenThread, nil, nil), ""},
		{"close needs moderator", closeClick("I1", entity.ButtonActionArchiveThread, nil, nil), NoticeNotAllowed},
		{"role checked before state", closeClick("I1", entity.ButtonActionLockThread, nil, locked), NoticeNotAllowed},
		{"locked", closeClick("I1", entity.ButtonActionArchiveThread, []string{"MOD"}, locked), NoticeAlreadyLocked},
		{"archived", closeClick("I1", entity.ButtonActionArchiveThread, []string{"MOD"}, archived), NoticeAlreadyArchived},
		{"lock archived thread", closeClick("I1", entity.ButtonActionLockThread, []string{"MOD"}, archived), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, closeRefusal(cfg, tt.click))
		})
	}
}

func TestDispatch_UpdateConfig(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	f.dispatcher.UpdateConfig(Config{ModeratorRoleID: "NEWMOD", Deduplicate: true})
	assert.Equal(t, "NEWMOD", f.dispatcher.Config().ModeratorRoleID)

	resp, err := f.dispatcher.Dispatch(ctx, closeClick("I1", entity.ButtonActionArchiveThread, []string{"MOD"}, nil))
	require.NoError(t, err)
	assert.Equal(t, NoticeNotAllowed, resp.Message.Content)

	resp, err = f.dispatcher.Dispatch(ctx, closeClick("I2", entity.ButtonActionArchiveThread, []string{"NEWMOD"}, nil))
	require.NoError(t, err)
	assert.Equal(t, entity.ResponseDeferredUpdate, resp.Kind)
}

func TestRunPipeline_StopsAtFirstFailure(t *testing.T) {
	var ran []string
	mk := func(name string, err error) step {
		return step{name: name, run: func(context.Context, *pipelineState) error {
			ran = append(ran, name)
			return err
		}}
	}

	err := runPipeline(context.Background(), &pipelineState{},
		mk("first", nil),
		mk("second", errors.New("fail")),
		mk("third", nil),
	)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "second", stepErr.Step)
	assert.Equal(t, "second: fail", err.Error())
	assert.Equal(t, []string{"first", "second"}, ran)
}

func TestRunPipeline_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := runPipeline(ctx, &pipelineState{}, step{name: "only", run: func(context.Context, *pipelineState) error {
		ran = true
		return nil
	}})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}
