package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm/memoryx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm/promptx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/tokenx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/assistant"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/config"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/search"
)

type words struct{}

func (words) Encode(text string, _, _ []string) []int {
	return make([]int, len(strings.Fields(text)))
}

// newTestContainer wires the assistant against in-process fakes. The
// gateway answers with the number of messages it was sent.
func newTestContainer(t *testing.T) (*Container, *memoryx.InMemoryStore) {
	t.Helper()

	meter := tokenx.NewMeter(tokenx.WithResolver(func(string) (tokenx.Encoding, error) { return words{}, nil }))
	assembler, err := promptx.NewAssembler(meter, promptx.Config{Model: "test"})
	require.NoError(t, err)

	gateway := llm.GatewayFunc(func(_ context.Context, messages []llm.Message, _ llm.Params) (llm.Response, error) {
		return llm.Response{Message: llm.NewAssistantMessage(strings.Repeat("*", len(messages)))}, nil
	})

	store := memoryx.NewInMemoryStore()
	svc := assistant.NewService(store, search.None{}, assembler, gateway, llm.NewSystemMessage("sys"), assistant.Config{
		Params:       llm.DefaultParams("test"),
		AtomicAppend: true,
	})

	cfg := &config.Config{Server: config.ServerConfig{CORSOrigins: "*"}}
	return &Container{Config: cfg, Store: store, Assistant: svc}, store
}

func get(t *testing.T, container *Container, target string) (*http.Response, string) {
	t.Helper()
	resp, err := newApp(container).Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestAnswerRoute(t *testing.T) {
	container, store := newTestContainer(t)
	app := newApp(container)

	ask := func() (*http.Response, string) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/sunbird-assistant/answer?q=What+is+X%3F&session_id=abc", nil), -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp, string(body)
	}

	resp, body := ask()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "**", body)

	// second turn sees the stored history
	_, body = ask()
	assert.Equal(t, "****", body)

	history, err := store.Read(context.Background(), "abc")
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestAnswerRouteDefaultsSession(t *testing.T) {
	container, store := newTestContainer(t)

	resp, _ := get(t, container, "/sunbird-assistant/answer?q=hello")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	history, err := store.Read(context.Background(), "default")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestAnswerRouteMissingQuestion(t *testing.T) {
	container, _ := newTestContainer(t)

	resp, body := get(t, container, "/sunbird-assistant/answer")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var payload errx.HTTPErrorResponse
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.Equal(t, assistant.ErrEmptyQuestion.Code, payload.Code)
	assert.Equal(t, string(errx.TypeValidation), payload.Type)
}

func TestHealthWithoutBackingStores(t *testing.T) {
	container, _ := newTestContainer(t)

	resp, body := get(t, container, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"healthy"`)
}

func TestUnknownRoute(t *testing.T) {
	container, _ := newTestContainer(t)

	resp, body := get(t, container, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, `"code":"NOT_FOUND"`)
}
