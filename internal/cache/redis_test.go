package cache

import (
	"fmt"
	"os"
	"testing"
	"time"
)

// newTestRedis connects to REDIS_ADDR, skipping when no server is available.
func newTestRedis(t *testing.T) *RedisStore {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping Redis tests")
	}

	prefix := fmt.Sprintf("newsfeed-test-%d:", time.Now().UnixNano())
	s, err := NewRedis(RedisConfig{Addr: addr, Prefix: prefix, MaxAge: time.Minute})
	if err != nil {
		t.Skipf("Redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() {
		_ = s.DeleteByPrefix("")
		s.Close()
	})
	return s
}

func TestRedisStore_Contract(t *testing.T) {
	storeContract(t, newTestRedis(t))
}

func TestRedisStore_KeysAreNamespaced(t *testing.T) {
	s := newTestRedis(t)

	if err := s.Set("feed-cache:ns", Entry{Data: []byte("v"), Timestamp: time.Now()}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got := s.key("feed-cache:ns"); got != s.prefix+"feed-cache:ns" {
		t.Errorf("key() = %q", got)
	}
	raw, err := s.client.Exists(testContext(t), s.prefix+"feed-cache:ns").Result()
	if err != nil || raw != 1 {
		t.Errorf("namespaced key missing in Redis: %d, %v", raw, err)
	}
}
