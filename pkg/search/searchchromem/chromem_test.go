package searchchromem_test

import (
	"context"
	"strings"
	"testing"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/search"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/search/searchchromem"
	chromem "github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var vocab = []string{"redis", "token", "budget", "session", "python"}

// keywordEmbedding counts vocabulary words; the last dimension keeps the
// vector non-zero.
func keywordEmbedding(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, len(vocab)+1)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		for i, v := range vocab {
			if w == v {
				vec[i]++
			}
		}
	}
	vec[len(vocab)] = 0.01
	return vec, nil
}

func corpus() []search.Document {
	return []search.Document{
		{Source: "a.md", Chunk: 1, Content: "session ttl redis"},
		{Source: "a.md", Chunk: 0, Content: "redis session store"},
		{Source: "b.md", Chunk: 0, Content: "token budget"},
		{Source: "c.md", Chunk: 0, Content: "python redis"},
	}
}

func newSearcher(t *testing.T) *searchchromem.Searcher {
	t.Helper()
	s, err := searchchromem.New(chromem.NewDB(), "docs", keywordEmbedding)
	require.NoError(t, err)
	return s
}

func TestSearchGroupsBySource(t *testing.T) {
	s := newSearcher(t)
	require.NoError(t, s.Index(context.Background(), corpus()...))
	assert.Equal(t, 4, s.Count())

	res, err := s.Search(context.Background(), "redis session", 2)
	require.NoError(t, err)

	assert.Equal(t, search.Results{
		{"redis session store", "session ttl redis"},
		{"python redis"},
	}, res)
}

func TestSearchLimitCapsGroups(t *testing.T) {
	s := newSearcher(t)
	require.NoError(t, s.Index(context.Background(), corpus()...))

	res, err := s.Search(context.Background(), "redis session", 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Len(t, res[0], 2)
}

func TestSearchEmptyCollection(t *testing.T) {
	res, err := newSearcher(t).Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestSearchEmptyQuery(t *testing.T) {
	_, err := newSearcher(t).Search(context.Background(), "  ", 5)
	assert.True(t, errx.HasCode(err, search.ErrEmptyQuery))
}

func TestOpenPersists(t *testing.T) {
	dir := t.TempDir()

	s, err := searchchromem.Open(dir, "docs", keywordEmbedding)
	require.NoError(t, err)
	require.NoError(t, s.Index(context.Background(), corpus()...))

	reopened, err := searchchromem.Open(dir, "docs", keywordEmbedding)
	require.NoError(t, err)
	assert.Equal(t, 4, reopened.Count())
}
