// Package search defines the reference-document lookup used to ground
// answers. Backends live in sub-packages; this package only fixes the
// contract.
package search

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
)

// DefaultLimit is how many groups a search returns unless configured otherwise
const DefaultLimit = 5

// Group is an ordered list of snippets taken from one source document
type Group []string

// Results are groups in ranked order, best first
type Results []Group

// Snippets returns the number of snippets across all groups
func (r Results) Snippets() int {
	n := 0
	for _, g := range r {
		n += len(g)
	}
	return n
}

// Searcher finds reference documents for a question
type Searcher interface {
	Search(ctx context.Context, question string, limit int) (Results, error)
}

// None is the searcher used when no backend is configured. It finds nothing.
type None struct{}

func (None) Search(context.Context, string, int) (Results, error) { return Results{}, nil }

// Document is one chunk of a source document, as handed to an Indexer.
// Chunks of one source share Source and are ordered by Chunk.
type Document struct {
	Source  string
	Chunk   int
	Content string
}

// ID identifies the chunk within an index
func (d Document) ID() string { return fmt.Sprintf("%s#%d", d.Source, d.Chunk) }

// Indexer adds documents to a searchable index
type Indexer interface {
	Index(ctx context.Context, docs ...Document) error
}

// Func adapts a function to Searcher
type Func func(ctx context.Context, question string, limit int) (Results, error)

func (f Func) Search(ctx context.Context, question string, limit int) (Results, error) {
	return f(ctx, question, limit)
}

var ErrRegistry = errx.NewRegistry("SEARCH")

var (
	ErrBackend     = ErrRegistry.Register("BACKEND", errx.TypeExternal, http.StatusBadGateway, "Document search failed")
	ErrEmptyQuery  = ErrRegistry.Register("EMPTY_QUERY", errx.TypeValidation, http.StatusBadRequest, "Search query is empty")
	ErrIndex       = ErrRegistry.Register("INDEX", errx.TypeInternal, http.StatusInternalServerError, "Failed to index documents")
	ErrUnsupported = ErrRegistry.Register("UNSUPPORTED", errx.TypeValidation, http.StatusBadRequest, "Unsupported search backend")
)
