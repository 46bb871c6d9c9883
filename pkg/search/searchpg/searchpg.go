// Package searchpg implements search.Searcher with PostgreSQL full-text
// search over a table of document chunks.
package searchpg

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/search"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	DefaultTable            = "reference_chunks"
	DefaultTextSearchConfig = "english"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Option configures a Searcher
type Option func(*Searcher)

// WithTable sets the (optionally schema-qualified) chunk table
func WithTable(name string) Option {
	return func(s *Searcher) { s.table = name }
}

// WithTextSearchConfig sets the text search configuration, such as "simple"
func WithTextSearchConfig(cfg string) Option {
	return func(s *Searcher) { s.config = cfg }
}

// Searcher ranks chunks with ts_rank_cd and groups them per document
type Searcher struct {
	db     *sqlx.DB
	table  string
	config string
}

// Connect opens a pooled connection and pings it within timeout
func Connect(ctx context.Context, dsn string, maxConns int, timeout time.Duration) (*sqlx.DB, error) {
	dbx, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, search.ErrRegistry.NewWithCause(search.ErrBackend, err).WithDetail("backend", "postgres")
	}

	if maxConns > 0 {
		dbx.SetMaxOpenConns(maxConns)
		dbx.SetMaxIdleConns(max(maxConns/2, 1))
	}
	dbx.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := dbx.PingContext(ctx); err != nil {
		dbx.Close()
		return nil, search.ErrRegistry.NewWithCause(search.ErrBackend, err).WithDetail("backend", "postgres")
	}
	return dbx, nil
}

// New builds a Searcher. Table and configuration names are validated as
// SQL identifiers since they are interpolated into statements.
func New(db *sqlx.DB, opts ...Option) (*Searcher, error) {
	s := &Searcher{
		db:     db,
		table:  DefaultTable,
		config: DefaultTextSearchConfig,
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, name := range []string{s.table, s.config} {
		if !identifier.MatchString(name) {
			return nil, search.ErrRegistry.NewWithMessage(search.ErrUnsupported, "invalid SQL identifier").
				WithDetail("identifier", name)
		}
	}
	return s, nil
}

// EnsureSchema creates the chunk table and its GIN index when missing
func (s *Searcher) EnsureSchema(ctx context.Context) error {
	index := strings.ReplaceAll(s.table, ".", "_") + "_tsv_idx"
	stmts := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				document_id TEXT NOT NULL,
				chunk_index INTEGER NOT NULL,
				content TEXT NOT NULL,
				tsv TSVECTOR GENERATED ALWAYS AS (to_tsvector('%s', content)) STORED,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				PRIMARY KEY (document_id, chunk_index)
			)`, s.table, s.config),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING GIN (tsv)`, index, s.table),
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return search.ErrRegistry.NewWithCause(search.ErrIndex, err).WithDetail("table", s.table)
		}
	}
	return nil
}

// Index upserts docs in one transaction
func (s *Searcher) Index(ctx context.Context, docs ...search.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return search.ErrRegistry.NewWithCause(search.ErrIndex, err).WithDetail("table", s.table)
	}
	defer tx.Rollback()

	stmt := fmt.Sprintf(`
		INSERT INTO %s (document_id, chunk_index, content)
		VALUES ($1, $2, $3)
		ON CONFLICT (document_id, chunk_index)
		DO UPDATE SET content = EXCLUDED.content, updated_at = now()`, s.table)

	for _, d := range docs {
		if _, err := tx.ExecContext(ctx, stmt, d.Source, d.Chunk, d.Content); err != nil {
			return search.ErrRegistry.NewWithCause(search.ErrIndex, err).
				WithDetail("table", s.table).
				WithDetail("document", d.ID())
		}
	}

	if err := tx.Commit(); err != nil {
		return search.ErrRegistry.NewWithCause(search.ErrIndex, err).WithDetail("table", s.table)
	}
	return nil
}

type chunkRow struct {
	DocumentID string  `db:"document_id"`
	ChunkIndex int     `db:"chunk_index"`
	Content    string  `db:"content"`
	Rank       float64 `db:"rank"`
}

// Search returns up to limit documents ranked by their best matching
// chunk. Each group lists that document's matching chunks in order.
func (s *Searcher) Search(ctx context.Context, question string, limit int) (search.Results, error) {
	if strings.TrimSpace(question) == "" {
		return nil, search.ErrRegistry.New(search.ErrEmptyQuery)
	}
	if limit <= 0 {
		limit = search.DefaultLimit
	}

	query := fmt.Sprintf(`
		WITH q AS (
			SELECT websearch_to_tsquery($1::regconfig, $2) AS query
		),
		hits AS (
			SELECT c.document_id, c.chunk_index, c.content, ts_rank_cd(c.tsv, q.query) AS rank
			FROM %s c, q
			WHERE c.tsv @@ q.query
		),
		top AS (
			SELECT document_id, max(rank) AS best
			FROM hits
			GROUP BY document_id
			ORDER BY best DESC, document_id
			LIMIT $3
		)
		SELECT h.document_id, h.chunk_index, h.content, t.best AS rank
		FROM hits h
		JOIN top t USING (document_id)
		ORDER BY t.best DESC, h.document_id, h.chunk_index`, s.table)

	var rows []chunkRow
	if err := s.db.SelectContext(ctx, &rows, query, s.config, question, limit); err != nil {
		return nil, search.ErrRegistry.NewWithCause(search.ErrBackend, err).WithDetail("backend", "postgres")
	}

	return groupRows(rows), nil
}

func groupRows(rows []chunkRow) search.Results {
	out := search.Results{}
	last := ""
	for i, r := range rows {
		if i == 0 || r.DocumentID != last {
			out = append(out, search.Group{})
			last = r.DocumentID
		}
		out[len(out)-1] = append(out[len(out)-1], r.Content)
	}
	return out
}
