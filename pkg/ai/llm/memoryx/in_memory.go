package memoryx

import (
	"context"
	"sync"
	"time"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/kernel"
)

// InMemoryStore implements Store in process memory. Payloads go through the
// same Codec as RedisStore and expire the same way. Expired entries are
// dropped lazily on access.
type InMemoryStore struct {
	mu      sync.Mutex
	opts    Options
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty store
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	return &InMemoryStore{
		opts:    buildOptions(opts),
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// WithClock replaces time.Now, for tests
func (s *InMemoryStore) WithClock(now func() time.Time) *InMemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *InMemoryStore) Read(ctx context.Context, id kernel.SessionID) ([]llm.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrRegistry.NewWithCause(ErrStoreUnavailable, err)
	}

	s.mu.Lock()
	payload, ok := s.lookup(s.opts.Key(id))
	s.mu.Unlock()

	if !ok {
		return []llm.Message{}, nil
	}
	return s.opts.Codec.Decode(payload)
}

func (s *InMemoryStore) Write(ctx context.Context, id kernel.SessionID, history []llm.Message, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return ErrRegistry.NewWithCause(ErrStoreUnavailable, err)
	}

	payload, err := s.opts.Codec.Encode(history)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(s.opts.Key(id), payload, ttl)
	return nil
}

// Append holds the store lock for the whole read-modify-write
func (s *InMemoryStore) Append(ctx context.Context, id kernel.SessionID, ttl time.Duration, messages ...llm.Message) error {
	if err := ctx.Err(); err != nil {
		return ErrRegistry.NewWithCause(ErrStoreUnavailable, err)
	}

	key := s.opts.Key(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	var history []llm.Message
	if payload, ok := s.lookup(key); ok {
		if decoded, err := s.opts.Codec.Decode(payload); err == nil {
			history = decoded
		}
	}

	payload, err := s.opts.Codec.Encode(append(history, messages...))
	if err != nil {
		return err
	}
	s.store(key, payload, ttl)
	return nil
}

// Len returns the number of live sessions
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key := range s.entries {
		if _, ok := s.lookup(key); ok {
			n++
		}
	}
	return n
}

// lookup must be called with mu held
func (s *InMemoryStore) lookup(key string) ([]byte, bool) {
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return e.payload, true
}

// store must be called with mu held
func (s *InMemoryStore) store(key string, payload []byte, ttl time.Duration) {
	s.entries[key] = memoryEntry{
		payload:   payload,
		expiresAt: s.now().Add(s.opts.ttl(ttl)),
	}
}

// SetRaw stores payload verbatim under id, for tests that need a damaged entry
func (s *InMemoryStore) SetRaw(id kernel.SessionID, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(s.opts.Key(id), payload, 0)
}
