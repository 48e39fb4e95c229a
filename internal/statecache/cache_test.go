package statecache

import (
	"context"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/config"
)

// connectTestRedis skips unless a Redis server is reachable.
func connectTestRedis(t *testing.T) *Cache {
	t.Helper()
	addr := os.Getenv("GRAYLOGIC_ZIGBEE_TEST_REDIS")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	c, err := Connect(ctx, config.RedisConfig{Addr: addr, DB: 15, TTL: time.Minute})
	if err != nil {
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { c.Close() }) //nolint:errcheck // test cleanup
	return c
}

func TestCache_SetGetDelete(t *testing.T) {
	c := connectTestRedis(t)
	ctx := context.Background()

	if err := c.Set(ctx, "test-lamp", []byte(`{"id":"test-lamp"}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := c.Get(ctx, "test-lamp")
	if err != nil || string(got) != `{"id":"test-lamp"}` {
		t.Errorf("Get() = %s, %v", got, err)
	}

	if err := c.Delete(ctx, "test-lamp"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	got, err = c.Get(ctx, "test-lamp")
	if err != nil || got != nil {
		t.Errorf("Get() after Delete = %s, %v; want nil, nil", got, err)
	}
}

func TestCache_RemoveAllExcept(t *testing.T) {
	c := connectTestRedis(t)
	ctx := context.Background()

	for _, id := range []string{"keep-a", "drop-b", "drop-c"} {
		if err := c.Set(ctx, id, []byte(`{}`)); err != nil {
			t.Fatalf("Set(%s) error = %v", id, err)
		}
	}

	removed, err := c.RemoveAllExcept(ctx, []string{"keep-a"})
	if err != nil {
		t.Fatalf("RemoveAllExcept() error = %v", err)
	}
	if !slices.Contains(removed, "drop-b") || !slices.Contains(removed, "drop-c") || slices.Contains(removed, "keep-a") {
		t.Errorf("removed = %v", removed)
	}
	c.Delete(ctx, "keep-a") //nolint:errcheck // test cleanup
}

func TestNewCache_DefaultTTL(t *testing.T) {
	c := NewCache(nil, 0)
	if c.ttl != defaultTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, defaultTTL)
	}
}
