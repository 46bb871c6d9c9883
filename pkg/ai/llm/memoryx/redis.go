package memoryx

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/kernel"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/logx"
)

// RedisStore implements Store with one string key per session
type RedisStore struct {
	rdb  redis.UniversalClient
	opts Options
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a store on a shared client. The caller owns the client.
func NewRedisStore(rdb redis.UniversalClient, opts ...Option) *RedisStore {
	return &RedisStore{rdb: rdb, opts: buildOptions(opts)}
}

// Key returns the Redis key of a session
func (s *RedisStore) Key(id kernel.SessionID) string { return s.opts.Key(id) }

func (s *RedisStore) Read(ctx context.Context, id kernel.SessionID) ([]llm.Message, error) {
	key := s.Key(id)

	payload, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return []llm.Message{}, nil
	}
	if err != nil {
		return nil, ErrRegistry.NewWithCause(ErrStoreUnavailable, err).WithDetail("key", key)
	}

	history, err := s.opts.Codec.Decode(payload)
	if err != nil {
		return nil, withKey(err, key)
	}
	return history, nil
}

func (s *RedisStore) Write(ctx context.Context, id kernel.SessionID, history []llm.Message, ttl time.Duration) error {
	key := s.Key(id)

	payload, err := s.opts.Codec.Encode(history)
	if err != nil {
		return withKey(err, key)
	}

	if err := s.rdb.Set(ctx, key, payload, s.opts.ttl(ttl)).Err(); err != nil {
		return ErrRegistry.NewWithCause(ErrStoreUnavailable, err).WithDetail("key", key)
	}
	return nil
}

// Append runs the read-modify-write under WATCH so a concurrent turn on the
// same session aborts the transaction instead of being overwritten. Aborted
// transactions are retried up to AppendRetries times.
//
// A history that fails to decode is replaced by messages alone; readers
// already treat it as empty.
func (s *RedisStore) Append(ctx context.Context, id kernel.SessionID, ttl time.Duration, messages ...llm.Message) error {
	key := s.Key(id)
	ttl = s.opts.ttl(ttl)

	txf := func(tx *redis.Tx) error {
		var history []llm.Message

		payload, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
		case err != nil:
			return err
		default:
			history, err = s.opts.Codec.Decode(payload)
			if err != nil {
				logx.WithFields(logx.Fields{"key": key}).WithError(err).Warn("replacing undecodable session history")
				history = nil
			}
		}

		next := make([]llm.Message, 0, len(history)+len(messages))
		next = append(next, history...)
		next = append(next, messages...)

		encoded, err := s.opts.Codec.Encode(next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, ttl)
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= s.opts.AppendRetries; attempt++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			logx.WithFields(logx.Fields{"key": key, "attempt": attempt}).Debug("session append lost a race, retrying")
			continue
		}
		var e *errx.Error
		if errors.As(err, &e) {
			return withKey(e, key)
		}
		return ErrRegistry.NewWithCause(ErrStoreUnavailable, err).WithDetail("key", key)
	}

	return ErrRegistry.New(ErrStoreConflict).
		WithDetail("key", key).
		WithDetail("attempts", s.opts.AppendRetries)
}

// Ping reports whether the backend is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return ErrRegistry.NewWithCause(ErrStoreUnavailable, err)
	}
	return nil
}

func withKey(err error, key string) error {
	var e *errx.Error
	if errors.As(err, &e) {
		return e.WithDetail("key", key)
	}
	return err
}
