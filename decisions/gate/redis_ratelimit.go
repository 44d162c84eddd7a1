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
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisRateLimiter is a Redis-backed sliding-window limiter for deployments
// running more than one instance. On any Redis error it fails open: a broken
// limiter store must never block real traffic.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	logger *log.Logger
	now    func() time.Time
	seq    uint64
}

// NewRedisRateLimiter connects to the given Redis URL
// (format: redis://host:port or redis://host:port/db).
func NewRedisRateLimiter(redisURL string, limit int) (*RedisRateLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if limit <= 0 {
		limit = DefaultRequestsPerWindow
	}

	return &RedisRateLimiter{
		client: client,
		limit:  limit,
		logger: log.New(os.Stdout, "[RATELIMIT] ", log.LstdFlags),
		now:    time.Now,
	}, nil
}

// NewRedisRateLimiterWithClient wraps an existing client (used by tests).
func NewRedisRateLimiterWithClient(client *redis.Client, limit int) *RedisRateLimiter {
	if limit <= 0 {
		limit = DefaultRequestsPerWindow
	}
	return &RedisRateLimiter{
		client: client,
		limit:  limit,
		logger: log.New(os.Stdout, "[RATELIMIT] ", log.LstdFlags),
		now:    time.Now,
	}
}

// Allow checks the tenant's sliding 60-second window.
func (l *RedisRateLimiter) Allow(ctx context.Context, tenantID string) bool {
	now := l.now()
	key := fmt.Sprintf("ai:ratelimit:%s", tenantID)

	pipe := l.client.Pipeline()

	// Drop timestamps older than one minute, count what remains, then record
	// this request.
	minScore := now.Add(-time.Minute).UnixNano()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", minScore))
	countCmd := pipe.ZCard(ctx, key)
	// The sequence number keeps members unique when two requests land in the
	// same nanosecond.
	pipe.ZAdd(ctx, key, &redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d-%d", now.UnixNano(), atomic.AddUint64(&l.seq, 1)),
	})
	pipe.Expire(ctx, key, 2*time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Printf("redis rate limit check failed for tenant=%s: %v (failing open)", tenantID, err)
		return true
	}

	return countCmd.Val() < int64(l.limit)
}

// Flush removes all rate limit state for a tenant (admin operation).
func (l *RedisRateLimiter) Flush(ctx context.Context, tenantID string) error {
	key := fmt.Sprintf("ai:ratelimit:%s", tenantID)
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to flush rate limit data: %w", err)
	}
	return nil
}

// Close closes the underlying Redis connection.
func (l *RedisRateLimiter) Close() error {
	return l.client.Close()
}
