package tokenx_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/tokenx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
)

// wordEncoding yields one token per whitespace separated word
type wordEncoding struct{}

func (wordEncoding) Encode(text string, _, _ []string) []int {
	return make([]int, len(strings.Fields(text)))
}

func wordMeter(opts ...tokenx.Option) *tokenx.Meter {
	opts = append([]tokenx.Option{tokenx.WithResolver(func(string) (tokenx.Encoding, error) {
		return wordEncoding{}, nil
	})}, opts...)
	return tokenx.NewMeter(opts...)
}

func TestCountMessagesEmptyList(t *testing.T) {
	n, err := wordMeter().CountMessages(nil, "any")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCountMessagesReferenceChargesRole(t *testing.T) {
	m := wordMeter()
	n, err := m.CountMessages([]llm.Message{llm.NewUserMessage("one two three")}, "any")
	require.NoError(t, err)
	// 2 list + 4 message + 1 role + 3 content
	assert.Equal(t, 10, n)
}

func TestCountMessagesContentOnly(t *testing.T) {
	m := wordMeter(tokenx.WithCostMode(tokenx.CostModeContentOnly))
	n, err := m.CountMessages([]llm.Message{
		llm.NewSystemMessage("be nice"),
		llm.NewUserMessage("hi"),
	}, "any")
	require.NoError(t, err)
	assert.Equal(t, 2+(4+2)+(4+1), n)
}

func TestCountMessagesIsAdditiveBeyondListOverhead(t *testing.T) {
	m := wordMeter()
	a := llm.NewUserMessage("alpha beta")
	b := llm.NewAssistantMessage("gamma")

	ab, err := m.CountMessages([]llm.Message{a, b}, "any")
	require.NoError(t, err)
	ca, _ := m.CountMessages([]llm.Message{a}, "any")
	cb, _ := m.CountMessages([]llm.Message{b}, "any")

	assert.Equal(t, ca+cb-2, ab)
}

func TestResolverCalledOncePerModel(t *testing.T) {
	var mu sync.Mutex
	calls := map[string]int{}
	m := tokenx.NewMeter(tokenx.WithResolver(func(model string) (tokenx.Encoding, error) {
		mu.Lock()
		calls[model]++
		mu.Unlock()
		return wordEncoding{}, nil
	}))

	for range 3 {
		_, err := m.CountText("a b", "gpt")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls["gpt"])
}

func TestTiktokenCounts(t *testing.T) {
	m := tokenx.NewMeter()

	n, err := m.CountText("", "gpt-3.5-turbo")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = m.CountText("hello world", "gpt-3.5-turbo")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = m.CountMessages([]llm.Message{llm.NewUserMessage("hello world")}, "gpt-3.5-turbo")
	require.NoError(t, err)
	assert.Equal(t, 2+4+1+2, n)
}

func TestTiktokenSpecialTokensAreText(t *testing.T) {
	m := tokenx.NewMeter()
	n, err := m.CountText("<|endoftext|>", "gpt-3.5-turbo")
	require.NoError(t, err)
	assert.Greater(t, n, 1)
}

func TestUnknownModel(t *testing.T) {
	m := tokenx.NewMeter()
	_, err := m.CountText("hello", "gpt-3.5")
	assert.True(t, errx.HasCode(err, tokenx.ErrUnknownModel))
	assert.True(t, errx.IsType(err, errx.TypeValidation))
}

func TestEncodingOverride(t *testing.T) {
	m := tokenx.NewMeter(tokenx.WithEncodingOverrides(map[string]string{"gpt-3.5": "cl100k_base"}))
	require.NoError(t, m.Preload("gpt-3.5"))

	n, err := m.CountText("hello world", "gpt-3.5")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEncodingOverrideIgnoresCase(t *testing.T) {
	// configuration keys arrive lower-cased while deployment names keep their case
	m := tokenx.NewMeter(tokenx.WithEncodingOverrides(map[string]string{"mygpt4": "cl100k_base"}))
	require.NoError(t, m.Preload("MyGpt4"))

	n, err := m.CountText("hello world", "MyGpt4")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	m = tokenx.NewMeter(tokenx.WithEncodingOverrides(map[string]string{"Claude-3": "cl100k_base"}))
	assert.NoError(t, m.Preload("claude-3"))
}
