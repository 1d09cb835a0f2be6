package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedis struct {
	keys    map[string]time.Duration
	failing bool
}

func (f *fakeRedis) Set(_ context.Context, key string, _ any, expiration time.Duration) *redis.StatusCmd {
	if f.failing {
		return redis.NewStatusResult("", errors.New("connection refused"))
	}
	f.keys[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	if f.failing {
		return redis.NewIntResult(0, errors.New("connection refused"))
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRedis{keys: map[string]time.Duration{}}
	store := &RedisStore{client: fake, prefix: "medibook:revoked:"}

	if err := store.Revoke(ctx, "abc", time.Minute); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if ttl := fake.keys["medibook:revoked:abc"]; ttl != time.Minute {
		t.Errorf("stored ttl = %v, want 1m under prefixed key", ttl)
	}

	revoked, err := store.IsRevoked(ctx, "abc")
	if err != nil || !revoked {
		t.Errorf("IsRevoked(abc) = %v, %v; want true, nil", revoked, err)
	}
	revoked, err = store.IsRevoked(ctx, "other")
	if err != nil || revoked {
		t.Errorf("IsRevoked(other) = %v, %v; want false, nil", revoked, err)
	}

	fake.failing = true
	if _, err := store.IsRevoked(ctx, "abc"); err == nil {
		t.Error("IsRevoked() expected error from failing client")
	}
	if err := store.Revoke(ctx, "abc", time.Minute); err == nil {
		t.Error("Revoke() expected error from failing client")
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	if err := store.Revoke(ctx, "a", time.Minute); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if revoked, _ := store.IsRevoked(ctx, "a"); !revoked {
		t.Fatal("IsRevoked(a) = false right after revoke")
	}

	now = now.Add(2 * time.Minute)
	if revoked, _ := store.IsRevoked(ctx, "a"); revoked {
		t.Error("IsRevoked(a) = true after expiry")
	}

	// Revoking again prunes expired entries.
	if err := store.Revoke(ctx, "b", time.Minute); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if _, ok := store.revoked["a"]; ok {
		t.Error("expired entry was not pruned")
	}
}
