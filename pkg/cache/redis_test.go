package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis starts an in-memory Redis server for unit tests.
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func TestNewRedisStore_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewRedisStore should panic with nil redis client")
		}
	}()
	NewRedisStore(nil)
}

func TestRedisStore_SetAndGet(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	if err := store.Set(ctx, "api:search:trending", []byte(`{"data":[]}`), 5*time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx, "api:search:trending")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `{"data":[]}` {
		t.Errorf("Get() = %s", got)
	}

	if ttl := mr.TTL("api:search:trending"); ttl != 5*time.Minute {
		t.Errorf("Redis TTL = %v, want 5m", ttl)
	}
}

func TestRedisStore_Miss(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewRedisStore(client)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestRedisStore_Expiry(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	store.Set(ctx, "k", []byte("v"), 10*time.Second)
	mr.FastForward(11 * time.Second)

	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after expiry, got %v", err)
	}
}

func TestRedisStore_NonPositiveTTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client)

	if err := store.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if mr.Exists("k") {
		t.Error("key stored despite zero TTL")
	}
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()
	mr.Close()

	_, err := store.Get(ctx, "k")
	if !errors.Is(err, ErrStore) {
		t.Errorf("Get: expected ErrStore, got %v", err)
	}
	if errors.Is(err, ErrCacheMiss) {
		t.Error("Get: store failure must not look like a miss")
	}

	err = store.Set(ctx, "k", []byte("v"), time.Minute)
	var se *StoreError
	if !errors.As(err, &se) || se.Op != "set" {
		t.Errorf("Set: expected *StoreError{Op: set}, got %v", err)
	}
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("NewRedisClient failed: %v", err)
	}
	client.Close()

	if _, err := NewRedisClient(context.Background(), "not-a-url"); err == nil {
		t.Error("Expected error for invalid URL")
	}
}
