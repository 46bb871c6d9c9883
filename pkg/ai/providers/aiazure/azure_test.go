package aiazure_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/providers/aiazure"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteRoutesToDeployment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/gpt-35-turbo/chat/completions", r.URL.Path)
		assert.Equal(t, aiazure.DefaultAPIVersion, r.URL.Query().Get("api-version"))
		assert.Equal(t, "azure-key", r.Header.Get("Api-Key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-35-turbo",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4}
		}`))
	}))
	defer srv.Close()

	p := aiazure.NewAzureOpenAIProvider(srv.URL, "azure-key")

	resp, err := p.Complete(context.Background(),
		[]llm.Message{llm.NewUserMessage("hi")},
		llm.DefaultParams("gpt-35-turbo"))
	require.NoError(t, err)
	assert.Equal(t, "Hello", resp.Text())
	assert.Equal(t, 4, resp.Usage.TotalTokens)
}

func TestCompleteRequiresEndpointAndDeployment(t *testing.T) {
	_, err := aiazure.NewAzureOpenAIProvider("", "k").Complete(context.Background(),
		[]llm.Message{llm.NewUserMessage("hi")}, llm.DefaultParams("gpt-35-turbo"))
	assert.True(t, errx.HasCode(err, aiazure.ErrMissingEndpoint))

	_, err = aiazure.NewAzureOpenAIProvider("https://example.openai.azure.com", "k").Complete(context.Background(),
		[]llm.Message{llm.NewUserMessage("hi")}, llm.Params{MaxTokens: 10})
	assert.True(t, errx.HasCode(err, aiazure.ErrMissingDeployment))
}

func TestCompleteMakesSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": {"message": "busy", "type": "server_error"}}`))
	}))
	defer srv.Close()

	_, err := aiazure.NewAzureOpenAIProvider(srv.URL, "azure-key").Complete(context.Background(),
		[]llm.Message{llm.NewUserMessage("hi")}, llm.DefaultParams("gpt-35-turbo"))
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
