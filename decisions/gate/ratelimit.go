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
	"sync"
	"time"
)

// DefaultRequestsPerWindow is the per-tenant budget for one 60s window.
const DefaultRequestsPerWindow = 20

// MemoryRateLimiter is a process-local fixed-window rate limiter keyed by
// tenant. State lives only in memory: a restart hands every tenant a fresh
// window, which is acceptable for this advisory limit.
type MemoryRateLimiter struct {
	limit   int
	window  time.Duration
	tenants map[string]*tenantWindow
	now     func() time.Time
	mu      sync.Mutex
}

type tenantWindow struct {
	start time.Time
	count int
}

// NewMemoryRateLimiter creates a limiter allowing limit requests per tenant
// per 60-second window.
func NewMemoryRateLimiter(limit int) *MemoryRateLimiter {
	if limit <= 0 {
		limit = DefaultRequestsPerWindow
	}
	return &MemoryRateLimiter{
		limit:   limit,
		window:  time.Minute,
		tenants: make(map[string]*tenantWindow),
		now:     time.Now,
	}
}

// Allow consumes one slot for the tenant if the current window has budget.
func (l *MemoryRateLimiter) Allow(_ context.Context, tenantID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.tenants[tenantID]
	if !ok || now.Sub(w.start) >= l.window {
		l.tenants[tenantID] = &tenantWindow{start: now, count: 1}
		return true
	}

	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// TenantCount returns the number of tenants with a live window.
func (l *MemoryRateLimiter) TenantCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tenants)
}

// Reset forgets the tenant's window (admin operation).
func (l *MemoryRateLimiter) Reset(tenantID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.tenants, tenantID)
}
