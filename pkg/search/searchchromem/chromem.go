// Package searchchromem implements search.Searcher over an embedded
// chromem-go vector collection.
package searchchromem

import (
	"context"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/search"
	chromem "github.com/philippgille/chromem-go"
)

const (
	metaSource = "source"
	metaChunk  = "chunk"

	// chunks fetched per requested group
	overfetch = 4
)

// Searcher ranks chunks by embedding similarity and groups hits per source
type Searcher struct {
	collection *chromem.Collection
}

// Open opens (or creates) a persistent database under dir and the named
// collection inside it.
func Open(dir, collection string, embed chromem.EmbeddingFunc) (*Searcher, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, search.ErrRegistry.NewWithCause(search.ErrIndex, err).WithDetail("path", dir)
	}
	db, err := chromem.NewPersistentDB(dir, true)
	if err != nil {
		return nil, search.ErrRegistry.NewWithCause(search.ErrIndex, err).WithDetail("path", dir)
	}
	return New(db, collection, embed)
}

// New uses the named collection of db, creating it when missing
func New(db *chromem.DB, collection string, embed chromem.EmbeddingFunc) (*Searcher, error) {
	col, err := db.GetOrCreateCollection(collection, nil, embed)
	if err != nil {
		return nil, search.ErrRegistry.NewWithCause(search.ErrIndex, err).WithDetail("collection", collection)
	}
	return &Searcher{collection: col}, nil
}

// Count returns the number of indexed chunks
func (s *Searcher) Count() int { return s.collection.Count() }

// Index embeds and stores docs. Re-indexing a chunk ID replaces it.
func (s *Searcher) Index(ctx context.Context, docs ...search.Document) error {
	if len(docs) == 0 {
		return nil
	}

	batch := make([]chromem.Document, 0, len(docs))
	for _, d := range docs {
		batch = append(batch, chromem.Document{
			ID:      d.ID(),
			Content: d.Content,
			Metadata: map[string]string{
				metaSource: d.Source,
				metaChunk:  strconv.Itoa(d.Chunk),
			},
		})
	}

	if err := s.collection.AddDocuments(ctx, batch, runtime.NumCPU()); err != nil {
		return search.ErrRegistry.NewWithCause(search.ErrIndex, err).WithDetail("documents", len(docs))
	}
	return nil
}

// Search returns up to limit groups. Groups are ordered by their best hit;
// snippets inside a group follow chunk order.
func (s *Searcher) Search(ctx context.Context, question string, limit int) (search.Results, error) {
	if strings.TrimSpace(question) == "" {
		return nil, search.ErrRegistry.New(search.ErrEmptyQuery)
	}
	if limit <= 0 {
		limit = search.DefaultLimit
	}

	n := min(limit*overfetch, s.collection.Count())
	if n == 0 {
		return search.Results{}, nil
	}

	hits, err := s.collection.Query(ctx, question, n, nil, nil)
	if err != nil {
		return nil, search.ErrRegistry.NewWithCause(search.ErrBackend, err).WithDetail("backend", "chromem")
	}

	return groupHits(hits, limit), nil
}

type hit struct {
	chunk   int
	content string
}

func groupHits(results []chromem.Result, limit int) search.Results {
	var order []string
	bySource := make(map[string][]hit)

	for _, r := range results {
		src := r.Metadata[metaSource]
		if src == "" {
			src = r.ID
		}
		if _, seen := bySource[src]; !seen {
			if len(order) == limit {
				continue
			}
			order = append(order, src)
		}
		chunk, _ := strconv.Atoi(r.Metadata[metaChunk])
		bySource[src] = append(bySource[src], hit{chunk: chunk, content: r.Content})
	}

	out := make(search.Results, 0, len(order))
	for _, src := range order {
		hits := bySource[src]
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].chunk < hits[j].chunk })
		group := make(search.Group, 0, len(hits))
		for _, h := range hits {
			group = append(group, h.content)
		}
		out = append(out, group)
	}
	return out
}
