//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer starts a Redis container for integration testing.
func setupRedisContainer(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	t.Cleanup(func() { container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client, err := NewRedisClient(ctx, "redis://"+host+":"+port.Port()+"/0")
	if err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return client
}

func TestRedisStore_Integration(t *testing.T) {
	client := setupRedisContainer(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	if err := store.Set(ctx, "api:coins:bitcoin:chart:days=7", []byte(`{"data":{}}`), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx, "api:coins:bitcoin:chart:days=7")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `{"data":{}}` {
		t.Errorf("Get() = %s", got)
	}

	ttl, err := client.TTL(ctx, "api:coins:bitcoin:chart:days=7").Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("Redis TTL = %v, want (0, 1m]", ttl)
	}
}

func TestOrchestrator_RedisIntegration(t *testing.T) {
	client := setupRedisContainer(t)
	o := NewOrchestrator(NewRedisStore(client), WithLogger(zerolog.Nop()))
	ctx := context.Background()

	calls := 0
	compute := func(context.Context) ([]string, error) {
		calls++
		return []string{"bitcoin", "ethereum"}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := GetOrCompute(ctx, o, "api:search:query=coin", time.Minute, compute)
		if err != nil {
			t.Fatalf("GetOrCompute %d failed: %v", i, err)
		}
		if len(got) != 2 || got[0] != "bitcoin" {
			t.Errorf("GetOrCompute %d = %v", i, got)
		}
	}

	if calls != 1 {
		t.Errorf("compute calls = %d, want 1", calls)
	}
}
