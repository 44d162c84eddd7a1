// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestRedisLimiter(t *testing.T, limit int) (*RedisRateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewRedisRateLimiterWithClient(client, limit)
	t.Cleanup(func() { _ = limiter.Close() })
	return limiter, mr
}

func TestRedisRateLimiterEnforcesLimit(t *testing.T) {
	limiter, _ := newTestRedisLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !limiter.Allow(ctx, "garage-1") {
			t.Fatalf("request %d unexpectedly denied", i+1)
		}
	}
	if limiter.Allow(ctx, "garage-1") {
		t.Error("request over the limit allowed")
	}
}

func TestRedisRateLimiterIsolatesTenants(t *testing.T) {
	limiter, _ := newTestRedisLimiter(t, 1)
	ctx := context.Background()

	if !limiter.Allow(ctx, "garage-1") {
		t.Fatal("first request denied")
	}
	if limiter.Allow(ctx, "garage-1") {
		t.Error("garage-1 over limit allowed")
	}
	if !limiter.Allow(ctx, "garage-2") {
		t.Error("garage-2 throttled by garage-1's window")
	}
}

func TestRedisRateLimiterSlidingWindow(t *testing.T) {
	limiter, _ := newTestRedisLimiter(t, 2)
	ctx := context.Background()

	now := time.Now()
	limiter.now = func() time.Time { return now }

	_ = limiter.Allow(ctx, "garage-1")
	_ = limiter.Allow(ctx, "garage-1")
	if limiter.Allow(ctx, "garage-1") {
		t.Fatal("over limit allowed")
	}

	// Entries older than one minute fall out of the window.
	now = now.Add(61 * time.Second)
	if !limiter.Allow(ctx, "garage-1") {
		t.Error("request after window slide denied")
	}
}

func TestRedisRateLimiterFailsOpen(t *testing.T) {
	limiter, mr := newTestRedisLimiter(t, 1)
	ctx := context.Background()

	_ = limiter.Allow(ctx, "garage-1")

	// A dead Redis must not block requests: the limit is advisory.
	mr.Close()
	if !limiter.Allow(ctx, "garage-1") {
		t.Error("expected fail-open allow when Redis is unreachable")
	}
}

func TestRedisRateLimiterFlush(t *testing.T) {
	limiter, _ := newTestRedisLimiter(t, 1)
	ctx := context.Background()

	_ = limiter.Allow(ctx, "garage-1")
	if limiter.Allow(ctx, "garage-1") {
		t.Fatal("over limit allowed")
	}

	if err := limiter.Flush(ctx, "garage-1"); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if !limiter.Allow(ctx, "garage-1") {
		t.Error("request after flush denied")
	}
}
