package ratelimit

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRedisLimiter_Window(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR_TEST"))
	if addr == "" {
		t.Skip("REDIS_ADDR_TEST not set")
	}
	limiter, err := NewRedisLimiter(context.Background(), RedisLimiterConfig{Addr: addr})
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	t.Cleanup(func() { _ = limiter.Close() })

	key := "test:" + uuid.NewString()
	for i := 0; i < 3; i++ {
		decision, err := limiter.Allow(context.Background(), key, 3, time.Minute)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !decision.Allowed {
			t.Fatalf("expected request %d to be allowed", i+1)
		}
	}
	decision, err := limiter.Allow(context.Background(), key, 3, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if decision.Allowed || decision.Remaining != 0 {
		t.Fatalf("expected limit reached, got %+v", decision)
	}
}

func TestNewRedisLimiter_RequiresAddr(t *testing.T) {
	if _, err := NewRedisLimiter(context.Background(), RedisLimiterConfig{}); err == nil {
		t.Fatalf("expected error without addr")
	}
}
