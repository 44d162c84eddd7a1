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

package usage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CurrentPeriod returns the calendar-month quota period identifier for now,
// in UTC ("2026-08"). A new period implicitly starts its counter at zero.
func CurrentPeriod() string {
	return PeriodFor(time.Now())
}

// PeriodFor returns the period identifier for the given time.
func PeriodFor(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// CurrentUsage returns the tenant's attempt count for the current period.
// A tenant with no counter row has used nothing.
func (r *Recorder) CurrentUsage(ctx context.Context, tenantID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT count FROM ai_quota_periods
		WHERE tenant_id = $1 AND period = $2
	`, tenantID, CurrentPeriod()).Scan(&count)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read quota counter: %w", err)
	}
	return count, nil
}

// FeatureCount is one row of the per-feature usage breakdown.
type FeatureCount struct {
	Feature  string `json:"feature"`
	Success  int    `json:"success"`
	Failures int    `json:"failures"`
}

// Breakdown returns the tenant's per-feature success/failure counts for the
// current period (admin reporting).
func (r *Recorder) Breakdown(ctx context.Context, tenantID string) ([]FeatureCount, error) {
	periodStart := time.Now().UTC().Truncate(24 * time.Hour)
	periodStart = time.Date(periodStart.Year(), periodStart.Month(), 1, 0, 0, 0, 0, time.UTC)

	rows, err := r.db.QueryContext(ctx, `
		SELECT feature,
		       COUNT(*) FILTER (WHERE outcome = 'success'),
		       COUNT(*) FILTER (WHERE outcome = 'error')
		FROM ai_usage_events
		WHERE tenant_id = $1 AND created_at >= $2
		GROUP BY feature
		ORDER BY feature
	`, tenantID, periodStart)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage breakdown: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []FeatureCount
	for rows.Next() {
		var fc FeatureCount
		if err := rows.Scan(&fc.Feature, &fc.Success, &fc.Failures); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		out = append(out, fc)
	}
	return out, rows.Err()
}
