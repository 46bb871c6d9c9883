package aianthropic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/providers/aianthropic"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messagesRequest struct {
	Model       string   `json:"model"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature *float64 `json:"temperature"`
	System      []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

func newProvider(t *testing.T, status int, body string, got *messagesRequest) (*aianthropic.AnthropicProvider, *atomic.Int32) {
	t.Helper()
	calls := new(atomic.Int32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return aianthropic.NewAnthropicProvider("test-key", option.WithBaseURL(srv.URL)), calls
}

func TestComplete(t *testing.T) {
	var got messagesRequest
	p, _ := newProvider(t, http.StatusOK, `{
		"id": "msg_01",
		"type": "message",
		"role": "assistant",
		"model": "claude-3-5-haiku-latest",
		"content": [{"type": "text", "text": "Hello "}, {"type": "text", "text": "there."}],
		"stop_reason": "end_turn",
		"stop_sequence": null,
		"usage": {"input_tokens": 20, "output_tokens": 3}
	}`, &got)

	resp, err := p.Complete(context.Background(), []llm.Message{
		llm.NewSystemMessage("You are helpful."),
		llm.NewAssistantMessage("orphaned answer"),
		llm.NewUserMessage("first"),
		llm.NewUserMessage("second"),
	}, llm.DefaultParams("claude-3-5-haiku-latest"))
	require.NoError(t, err)

	assert.Equal(t, "Hello there.", resp.Text())
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, 23, resp.Usage.TotalTokens)

	assert.Equal(t, "claude-3-5-haiku-latest", got.Model)
	assert.Equal(t, 1024, got.MaxTokens)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.7, *got.Temperature, 1e-9)
	require.Len(t, got.System, 1)
	assert.Equal(t, "You are helpful.", got.System[0].Text)

	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	require.Len(t, got.Messages[0].Content, 1)
	assert.Equal(t, "first\n\nsecond", got.Messages[0].Content[0].Text)
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   *errx.ErrorCode
	}{
		{"unauthorized", http.StatusUnauthorized, `{"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`, aianthropic.ErrAPIUnauthorized},
		{"rate limited", http.StatusTooManyRequests, `{"type": "error", "error": {"type": "rate_limit_error", "message": "slow down"}}`, aianthropic.ErrAPIRateLimit},
		{"overloaded", 529, `{"type": "error", "error": {"type": "overloaded_error", "message": "Overloaded"}}`, aianthropic.ErrAPIOverloaded},
		{"bad request", http.StatusBadRequest, `{"type": "error", "error": {"type": "invalid_request_error", "message": "max_tokens: field required"}}`, aianthropic.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, calls := newProvider(t, tt.status, tt.body, nil)
			_, err := p.Complete(context.Background(),
				[]llm.Message{llm.NewUserMessage("hi")},
				llm.DefaultParams("claude-3-5-haiku-latest"))
			require.Error(t, err)
			assert.True(t, errx.HasCode(err, tt.want), "got %v", err)
			assert.Equal(t, int32(1), calls.Load(), "the client must not retry on its own")
		})
	}
}

func TestCompleteNeedsUserTurn(t *testing.T) {
	p, calls := newProvider(t, http.StatusOK, `{}`, nil)

	_, err := p.Complete(context.Background(), []llm.Message{
		llm.NewSystemMessage("only a system prompt"),
	}, llm.DefaultParams("claude-3-5-haiku-latest"))
	assert.True(t, errx.HasCode(err, aianthropic.ErrEmptyMessages))
	assert.Zero(t, calls.Load())
}
