package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qj0r9j0vc2/modmail/internal/domain/logger"
	"github.com/qj0r9j0vc2/modmail/internal/usecase/prompt"
)

type mockPromptManager struct {
	posted   []string
	replaced [][2]string
	err      error
}

func (m *mockPromptManager) PostPrompt(ctx context.Context, channelID string) (*prompt.Result, error) {
	m.posted = append(m.posted, channelID)
	if m.err != nil {
		return nil, m.err
	}
	return &prompt.Result{ChannelID: "P1", MessageID: "M1"}, nil
}

func (m *mockPromptManager) ReplacePrompt(ctx context.Context, channelID, messageID string) (*prompt.Result, error) {
	m.replaced = append(m.replaced, [2]string{channelID, messageID})
	if m.err != nil {
		return nil, m.err
	}
	return &prompt.Result{ChannelID: "P1", MessageID: "M1", Replaced: true}, nil
}

func TestPromptHandler_Post(t *testing.T) {
	m := &mockPromptManager{}
	h := NewPromptHandler(m, logger.Nop{})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/prompt", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{""}, m.posted)

	var result prompt.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, prompt.Result{ChannelID: "P1", MessageID: "M1"}, result)
}

func TestPromptHandler_PostWithChannel(t *testing.T) {
	m := &mockPromptManager{}
	w := httptest.NewRecorder()
	NewPromptHandler(m, logger.Nop{}).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/prompt", strings.NewReader(`{"channel_id":"P7"}`)))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"P7"}, m.posted)
}

func TestPromptHandler_Replace(t *testing.T) {
	m := &mockPromptManager{}
	w := httptest.NewRecorder()
	NewPromptHandler(m, logger.Nop{}).ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/admin/prompt", strings.NewReader(`{"channel_id":"P1","message_id":"M9"}`)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, [][2]string{{"P1", "M9"}}, m.replaced)
}

func TestPromptHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		err    error
		want   int
	}{
		{name: "GET not allowed", method: http.MethodGet, want: http.StatusMethodNotAllowed},
		{name: "invalid body", method: http.MethodPost, body: `{`, want: http.StatusBadRequest},
		{name: "no channel configured", method: http.MethodPost, err: prompt.ErrNoChannel, want: http.StatusBadRequest},
		{name: "no message configured", method: http.MethodPut, err: prompt.ErrNoMessage, want: http.StatusBadRequest},
		{name: "upstream failure", method: http.MethodPut, err: errors.New("missing access"), want: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h := NewPromptHandler(&mockPromptManager{err: tt.err}, logger.Nop{})
			h.ServeHTTP(w, httptest.NewRequest(tt.method, "/admin/prompt", strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
