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

// Package gate enforces access to the AI decision features: authentication,
// per-tenant rate limiting, per-tenant feature flags, and the monthly quota,
// checked in that fixed order with fast-fail semantics. The gate only reads
// state; usage increments happen after actual attempts, in the recorder.
package gate

import (
	"context"
	"log"
	"os"
)

// Reason identifies why a request was denied, or that it was allowed.
type Reason string

const (
	ReasonAllowed         Reason = "allowed"
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonRateLimited     Reason = "rate_limited"
	ReasonFeatureDisabled Reason = "feature_disabled"

	// ReasonQuotaExceeded is a soft denial: callers must render it as a
	// success-range response with a flag, not as an HTTP error.
	ReasonQuotaExceeded Reason = "quota_exceeded"
)

// Decision is the outcome of one gate check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// RateLimiter is the per-tenant request throttle. Implementations are
// best-effort, not billing-grade: losing a window on restart is acceptable.
type RateLimiter interface {
	// Allow reports whether the tenant has budget left in the current
	// window, consuming one slot when it does.
	Allow(ctx context.Context, tenantID string) bool
}

// FlagStore answers per-tenant feature flags. A missing row means enabled:
// tenants opt out of features, they do not opt in.
type FlagStore interface {
	Enabled(ctx context.Context, tenantID, feature string) (bool, error)
}

// QuotaReader reports the tenant's usage count for the current period.
type QuotaReader interface {
	CurrentUsage(ctx context.Context, tenantID string) (int, error)
}

// Gate runs the ordered access checks.
type Gate struct {
	limiter      RateLimiter
	flags        FlagStore
	quota        QuotaReader
	monthlyLimit int
	logger       *log.Logger
}

// Config configures a Gate.
type Config struct {
	Limiter      RateLimiter
	Flags        FlagStore
	Quota        QuotaReader
	MonthlyLimit int
	Logger       *log.Logger
}

// DefaultMonthlyLimit is the per-tenant monthly generation allotment used
// when no explicit limit is configured.
const DefaultMonthlyLimit = 50

// New creates a Gate.
func New(cfg Config) *Gate {
	if cfg.MonthlyLimit <= 0 {
		cfg.MonthlyLimit = DefaultMonthlyLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stdout, "[GATE] ", log.LstdFlags)
	}
	return &Gate{
		limiter:      cfg.Limiter,
		flags:        cfg.Flags,
		quota:        cfg.Quota,
		monthlyLimit: cfg.MonthlyLimit,
		logger:       cfg.Logger,
	}
}

// Check runs the checks in order and short-circuits at the first failure.
// Store errors fail open with a log line: the gate is advisory, and a flaky
// database must not take the whole feature down.
func (g *Gate) Check(ctx context.Context, tenantID, feature string) Decision {
	if tenantID == "" {
		return Decision{Reason: ReasonUnauthenticated}
	}

	if g.limiter != nil && !g.limiter.Allow(ctx, tenantID) {
		return Decision{Reason: ReasonRateLimited}
	}

	if g.flags != nil {
		enabled, err := g.flags.Enabled(ctx, tenantID, feature)
		if err != nil {
			g.logger.Printf("flag lookup failed for tenant=%s feature=%s: %v (failing open)", tenantID, feature, err)
		} else if !enabled {
			return Decision{Reason: ReasonFeatureDisabled}
		}
	}

	if g.quota != nil {
		used, err := g.quota.CurrentUsage(ctx, tenantID)
		if err != nil {
			g.logger.Printf("quota lookup failed for tenant=%s: %v (failing open)", tenantID, err)
		} else if used >= g.monthlyLimit {
			return Decision{Reason: ReasonQuotaExceeded}
		}
	}

	return Decision{Allowed: true, Reason: ReasonAllowed}
}

// MonthlyLimit returns the configured per-tenant allotment.
func (g *Gate) MonthlyLimit() int {
	return g.monthlyLimit
}
