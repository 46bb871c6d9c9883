package memoryx_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm/memoryx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/kernel"
)

func newRedisStore(t *testing.T, opts ...memoryx.Option) (*memoryx.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return memoryx.NewRedisStore(rdb, opts...), mr
}

func turn(q, a string) []llm.Message {
	return []llm.Message{llm.NewUserMessage(q), llm.NewAssistantMessage(a)}
}

func TestRedisStore_ReadAbsentIsEmpty(t *testing.T) {
	store, _ := newRedisStore(t)

	got, err := store.Read(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil history, got %#v", got)
	}
}

func TestRedisStore_WriteThenRead(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	if err := store.Write(ctx, "abc", turn("hi", "hello"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !mr.Exists("messages:abc") {
		t.Fatalf("expected key messages:abc, have %v", mr.Keys())
	}

	got, err := store.Read(ctx, "abc")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[0].Content != "hi" || got[1].Role != llm.RoleAssistant {
		t.Fatalf("unexpected history %+v", got)
	}
}

func TestRedisStore_KeysAreDistinctPerSession(t *testing.T) {
	store, _ := newRedisStore(t, memoryx.WithKeyPrefix("va"))
	ctx := context.Background()

	_ = store.Write(ctx, "a", turn("qa", "aa"), 0)
	_ = store.Write(ctx, "b", turn("qb", "ab"), 0)

	if store.Key("a") != "va:a" {
		t.Fatalf("unexpected key %q", store.Key("a"))
	}
	got, _ := store.Read(ctx, "a")
	if got[0].Content != "qa" {
		t.Fatalf("session a sees %+v", got)
	}
}

func TestRedisStore_TTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	if err := store.Write(ctx, "s", turn("q", "a"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if ttl := mr.TTL("messages:s"); ttl != memoryx.DefaultTTL {
		t.Fatalf("expected default ttl %v, got %v", memoryx.DefaultTTL, ttl)
	}

	mr.FastForward(11 * time.Hour)
	// A write resets the TTL.
	if err := store.Write(ctx, "s", turn("q2", "a2"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	mr.FastForward(11 * time.Hour)
	if got, _ := store.Read(ctx, "s"); len(got) != 2 {
		t.Fatalf("session expired too early: %+v", got)
	}

	mr.FastForward(2 * time.Hour)
	got, err := store.Read(ctx, "s")
	if err != nil || len(got) != 0 {
		t.Fatalf("expected expired session to read empty, got %+v %v", got, err)
	}
}

func TestRedisStore_CustomTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	if err := store.Write(context.Background(), "s", turn("q", "a"), time.Minute); err != nil {
		t.Fatalf("write: %v", err)
	}
	if ttl := mr.TTL("messages:s"); ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %v", ttl)
	}
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	store, mr := newRedisStore(t)
	if err := mr.Set("messages:bad", "\x01not zlib at all"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := store.Read(context.Background(), "bad")
	if !errx.HasCode(err, memoryx.ErrStoreCorruption) {
		t.Fatalf("expected corruption, got %v", err)
	}
}

func TestRedisStore_Unavailable(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	_, err := store.Read(context.Background(), "s")
	if !errx.HasCode(err, memoryx.ErrStoreUnavailable) {
		t.Fatalf("expected unavailable on read, got %v", err)
	}
	err = store.Write(context.Background(), "s", turn("q", "a"), 0)
	if !errx.HasCode(err, memoryx.ErrStoreUnavailable) {
		t.Fatalf("expected unavailable on write, got %v", err)
	}
}

func TestRedisStore_AppendExtendsHistory(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, "s", 0, turn("q1", "a1")...); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, "s", 0, turn("q2", "a2")...); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, _ := store.Read(ctx, "s")
	if len(got) != 4 || got[0].Content != "q1" || got[3].Content != "a2" {
		t.Fatalf("unexpected history %+v", got)
	}
	if ttl := mr.TTL("messages:s"); ttl != memoryx.DefaultTTL {
		t.Fatalf("append should reset ttl, got %v", ttl)
	}
}

func TestRedisStore_AppendReplacesCorruptHistory(t *testing.T) {
	store, mr := newRedisStore(t)
	_ = mr.Set("messages:s", "garbage")

	if err := store.Append(context.Background(), "s", 0, turn("q", "a")...); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, err := store.Read(context.Background(), "s")
	if err != nil || len(got) != 2 {
		t.Fatalf("expected fresh history, got %+v %v", got, err)
	}
}

func TestRedisStore_ConcurrentAppendsKeepEveryTurn(t *testing.T) {
	store, _ := newRedisStore(t, memoryx.WithAppendRetries(100))
	ctx := context.Background()
	const writers = 8

	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Append(ctx, kernel.SessionID("shared"), 0, turn(fmt.Sprintf("q%d", i), "a")...); err != nil {
				t.Errorf("append %d: %v", i, err)
			}
		}()
	}
	wg.Wait()

	got, err := store.Read(ctx, "shared")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2*writers {
		t.Fatalf("expected %d messages, got %d", 2*writers, len(got))
	}
	for i := 0; i < len(got); i += 2 {
		if got[i].Role != llm.RoleUser || got[i+1].Role != llm.RoleAssistant {
			t.Fatalf("turns interleaved at %d: %+v", i, got[i:i+2])
		}
	}
}
