// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
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
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// PostgresFlagStore reads per-tenant feature flags from the ai_feature_flags
// table. No row means the feature is enabled: flags exist so a tenant (or an
// operator) can switch a feature off, not as an allow-list.
type PostgresFlagStore struct {
	db *sql.DB
}

// NewPostgresFlagStore creates a flag store backed by the given database.
func NewPostgresFlagStore(db *sql.DB) *PostgresFlagStore {
	return &PostgresFlagStore{db: db}
}

// EnsureSchema creates the flag table if it doesn't exist. Call once at
// startup before serving requests.
func (s *PostgresFlagStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS ai_feature_flags (
		tenant_id VARCHAR(255) NOT NULL,
		feature VARCHAR(50) NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		PRIMARY KEY (tenant_id, feature)
	)
	`)
	if err != nil {
		return fmt.Errorf("failed to create feature flag table: %w", err)
	}
	return nil
}

// Enabled reports whether the feature is enabled for the tenant.
func (s *PostgresFlagStore) Enabled(ctx context.Context, tenantID, feature string) (bool, error) {
	var enabled bool
	err := s.db.QueryRowContext(ctx, `
		SELECT enabled FROM ai_feature_flags
		WHERE tenant_id = $1 AND feature = $2
	`, tenantID, feature).Scan(&enabled)

	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read feature flag: %w", err)
	}
	return enabled, nil
}

// SetEnabled upserts the flag row for a tenant (admin console operation).
func (s *PostgresFlagStore) SetEnabled(ctx context.Context, tenantID, feature string, enabled bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_feature_flags (tenant_id, feature, enabled)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, feature) DO UPDATE SET enabled = EXCLUDED.enabled
	`, tenantID, feature, enabled)
	if err != nil {
		return fmt.Errorf("failed to set feature flag: %w", err)
	}
	return nil
}

// MemoryFlagStore is an in-memory FlagStore used in tests and single-node
// development setups.
type MemoryFlagStore struct {
	flags map[string]bool
	mu    sync.RWMutex
}

// NewMemoryFlagStore creates an empty in-memory flag store.
func NewMemoryFlagStore() *MemoryFlagStore {
	return &MemoryFlagStore{flags: make(map[string]bool)}
}

// Enabled reports the stored flag, defaulting to enabled when absent.
func (s *MemoryFlagStore) Enabled(_ context.Context, tenantID, feature string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	enabled, ok := s.flags[tenantID+"/"+feature]
	if !ok {
		return true, nil
	}
	return enabled, nil
}

// SetEnabled stores the flag.
func (s *MemoryFlagStore) SetEnabled(tenantID, feature string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[tenantID+"/"+feature] = enabled
}
