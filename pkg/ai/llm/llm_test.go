package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
)

func ptr(f float64) *float64 { return &f }

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  llm.Params
		wantErr bool
	}{
		{name: "defaults", params: llm.DefaultParams("gpt-3.5-turbo")},
		{name: "missing model", params: llm.Params{MaxTokens: 10}, wantErr: true},
		{name: "zero max tokens", params: llm.Params{Model: "m"}, wantErr: true},
		{name: "temperature too high", params: llm.Params{Model: "m", MaxTokens: 1, Temperature: ptr(2.5)}, wantErr: true},
		{name: "temperature bound", params: llm.Params{Model: "m", MaxTokens: 1, Temperature: ptr(2)}},
		{name: "top_p out of range", params: llm.Params{Model: "m", MaxTokens: 1, TopP: ptr(1.2)}, wantErr: true},
		{name: "both sampling knobs", params: llm.Params{Model: "m", MaxTokens: 1, Temperature: ptr(0.5), TopP: ptr(0.5)}, wantErr: true},
		{name: "too many stops", params: llm.Params{Model: "m", MaxTokens: 1, Stop: []string{"a", "b", "c", "d", "e"}}, wantErr: true},
		{name: "four stops", params: llm.Params{Model: "m", MaxTokens: 1, Stop: []string{"a", "b", "c", "d"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errx.HasCode(err, llm.ErrInvalidParams), "got %v", err)
		})
	}
}

func TestDefaultParams(t *testing.T) {
	p := llm.DefaultParams("gpt-3.5-turbo")
	assert.Equal(t, 1024, p.MaxTokens)
	require.NotNil(t, p.Temperature)
	assert.InDelta(t, 0.7, *p.Temperature, 1e-9)
}

func TestRetryingGatewayRetriesExternalErrors(t *testing.T) {
	calls := 0
	inner := llm.GatewayFunc(func(ctx context.Context, msgs []llm.Message, p llm.Params) (llm.Response, error) {
		calls++
		if calls < 3 {
			return llm.Response{}, errx.External("upstream hiccup")
		}
		return llm.Response{Message: llm.NewAssistantMessage("hi")}, nil
	})

	gw := llm.NewRetryingGateway(inner, llm.RetryOptions{Attempts: 3, InitialDelay: time.Millisecond})
	resp, err := gw.Complete(context.Background(), []llm.Message{llm.NewUserMessage("q")}, llm.DefaultParams("m"))

	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Text())
	assert.Equal(t, 3, calls)
}

func TestRetryingGatewayRejectsInvalidParamsWithoutCalling(t *testing.T) {
	called := false
	inner := llm.GatewayFunc(func(context.Context, []llm.Message, llm.Params) (llm.Response, error) {
		called = true
		return llm.Response{}, nil
	})

	gw := llm.NewRetryingGateway(inner, llm.RetryOptions{Attempts: 3})
	_, err := gw.Complete(context.Background(), []llm.Message{llm.NewUserMessage("q")}, llm.Params{Model: "m"})

	assert.True(t, errx.HasCode(err, llm.ErrInvalidParams))
	assert.False(t, called)
}

func TestRetryingGatewayDefaultsToSingleAttempt(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	inner := llm.GatewayFunc(func(context.Context, []llm.Message, llm.Params) (llm.Response, error) {
		calls++
		return llm.Response{}, boom
	})

	gw := llm.NewRetryingGateway(inner, llm.RetryOptions{})
	_, err := gw.Complete(context.Background(), []llm.Message{llm.NewUserMessage("q")}, llm.DefaultParams("m"))

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetryableClassification(t *testing.T) {
	assert.False(t, llm.Retryable(errx.Validation("bad")))
	assert.False(t, llm.Retryable(context.Canceled))
	assert.True(t, llm.Retryable(errx.External("503")))
	assert.True(t, llm.Retryable(context.DeadlineExceeded))
}

func TestSplitSystem(t *testing.T) {
	sys, rest := llm.SplitSystem([]llm.Message{
		llm.NewSystemMessage("rules"),
		llm.NewUserMessage("q"),
		llm.NewAssistantMessage("a"),
	})
	assert.Equal(t, []string{"rules"}, sys)
	assert.Len(t, rest, 2)
	assert.Equal(t, llm.RoleUser, rest[0].Role)
}

func TestAlternate(t *testing.T) {
	got := llm.Alternate([]llm.Message{
		llm.NewAssistantMessage("stale answer"),
		llm.NewUserMessage("q1"),
		llm.NewUserMessage("q2"),
		llm.NewAssistantMessage("a1"),
		llm.NewAssistantMessage("a2"),
		llm.NewUserMessage("q3"),
	})

	assert.Equal(t, []llm.Message{
		llm.NewUserMessage("q1\n\nq2"),
		llm.NewAssistantMessage("a1\n\na2"),
		llm.NewUserMessage("q3"),
	}, got)
}
