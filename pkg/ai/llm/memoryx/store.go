// Package memoryx persists conversation history per session.
//
// A history is the complete ordered list of turns for one session id. It
// is stored as a single opaque payload (see Codec) under
// "<prefix>:<session id>" with a sliding TTL: every write resets it.
// Windowing for the prompt happens elsewhere; the store never trims.
package memoryx

import (
	"context"
	"time"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/kernel"
)

const (
	// DefaultKeyPrefix namespaces session keys
	DefaultKeyPrefix = "messages"
	// DefaultTTL is how long an idle session survives
	DefaultTTL = 12 * time.Hour
	// DefaultAppendRetries bounds optimistic-lock retries in Append
	DefaultAppendRetries = 5
)

// Store reads and writes session histories
type Store interface {
	// Read returns the stored history, or an empty slice when the session
	// is absent or expired.
	Read(ctx context.Context, id kernel.SessionID) ([]llm.Message, error)

	// Write replaces the history and resets its TTL. ttl <= 0 selects the
	// store default. Concurrent writers race; the last one wins.
	Write(ctx context.Context, id kernel.SessionID, history []llm.Message, ttl time.Duration) error

	// Append adds messages to the end of the history as one atomic
	// read-modify-write and resets the TTL.
	Append(ctx context.Context, id kernel.SessionID, ttl time.Duration, messages ...llm.Message) error
}

// Options are shared by the Store implementations
type Options struct {
	KeyPrefix     string
	DefaultTTL    time.Duration
	Codec         Codec
	AppendRetries int
}

// Option configures a store
type Option func(*Options)

func WithKeyPrefix(prefix string) Option {
	return func(o *Options) { o.KeyPrefix = prefix }
}

func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *Options) { o.DefaultTTL = ttl }
}

func WithCodec(c Codec) Option {
	return func(o *Options) { o.Codec = c }
}

func WithAppendRetries(n int) Option {
	return func(o *Options) { o.AppendRetries = n }
}

func buildOptions(opts []Option) Options {
	o := Options{
		KeyPrefix:     DefaultKeyPrefix,
		DefaultTTL:    DefaultTTL,
		Codec:         NewCodec(CompressionZlib),
		AppendRetries: DefaultAppendRetries,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.KeyPrefix == "" {
		o.KeyPrefix = DefaultKeyPrefix
	}
	if o.DefaultTTL <= 0 {
		o.DefaultTTL = DefaultTTL
	}
	if o.AppendRetries <= 0 {
		o.AppendRetries = DefaultAppendRetries
	}
	return o
}

// Key returns the storage key of a session
func (o Options) Key(id kernel.SessionID) string {
	return o.KeyPrefix + ":" + id.String()
}

func (o Options) ttl(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return o.DefaultTTL
	}
	return ttl
}
