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

// Package usage records AI feature usage: an append-only event log for
// observability and admin reporting, and a per-tenant monthly counter that
// backs the quota check.
package usage

import (
	"context"
	"database/sql"
	"log"
)

// Outcome of one recorded attempt.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Recorder persists usage events and quota counters.
type Recorder struct {
	db *sql.DB
}

// NewRecorder creates a recorder with a database connection.
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// EnsureSchema creates the usage tables if they don't exist. Call once at
// startup before serving requests.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS ai_usage_events (
		id BIGSERIAL PRIMARY KEY,
		tenant_id VARCHAR(255) NOT NULL,
		user_id VARCHAR(255),
		feature VARCHAR(50) NOT NULL,
		outcome VARCHAR(20) NOT NULL,
		error_category VARCHAR(50),
		provider VARCHAR(50),
		model VARCHAR(100),
		latency_ms BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_ai_usage_events_tenant_created
		ON ai_usage_events(tenant_id, created_at);

	CREATE TABLE IF NOT EXISTS ai_quota_periods (
		tenant_id VARCHAR(255) NOT NULL,
		period CHAR(7) NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (tenant_id, period)
	);
	`

	_, err := r.db.ExecContext(ctx, query)
	return err
}

// Event represents one AI feature attempt to be recorded.
type Event struct {
	TenantID      string
	UserID        string // Optional
	Feature       string
	Outcome       string // "success" or "error"
	ErrorCategory string // Optional: internal failure category, never user-facing
	Provider      string // Optional: provider that served the request
	Model         string // Optional
	LatencyMs     int64
}

// Record appends the event and bumps the tenant's monthly counter.
// Errors are logged and returned but must never block the caller's response.
func (r *Recorder) Record(ctx context.Context, event Event) error {
	if err := r.appendEvent(ctx, event); err != nil {
		log.Printf("[USAGE] Failed to record event: %v", err)
		return err
	}
	if err := r.incrementQuota(ctx, event.TenantID); err != nil {
		log.Printf("[USAGE] Failed to increment quota counter: %v", err)
		return err
	}
	return nil
}

// appendEvent inserts one row into the append-only event log.
func (r *Recorder) appendEvent(ctx context.Context, event Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ai_usage_events (
			tenant_id, user_id, feature, outcome, error_category,
			provider, model, latency_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, event.TenantID, nullString(event.UserID), event.Feature, event.Outcome,
		nullString(event.ErrorCategory), nullString(event.Provider),
		nullString(event.Model), event.LatencyMs)
	return err
}

// incrementQuota bumps the (tenant, period) counter with an atomic upsert,
// so concurrent requests from the same tenant cannot lose updates.
func (r *Recorder) incrementQuota(ctx context.Context, tenantID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ai_quota_periods (tenant_id, period, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, period) DO UPDATE SET count = ai_quota_periods.count + 1
	`, tenantID, CurrentPeriod())
	return err
}

// nullString converts an empty string to NULL for database insertion.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
