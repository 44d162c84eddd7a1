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

package decisions

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Yanis958/GarageOS-sub001/common/usage"
	"github.com/Yanis958/GarageOS-sub001/decisions/audit"
	"github.com/Yanis958/GarageOS-sub001/decisions/gate"
	"github.com/Yanis958/GarageOS-sub001/shared/logger"
)

// accessGate is the subset of gate.Gate the handlers need.
type accessGate interface {
	Check(ctx context.Context, tenantID, feature string) gate.Decision
	MonthlyLimit() int
}

// usageRecorder is the subset of usage.Recorder the handlers need.
type usageRecorder interface {
	Record(ctx context.Context, event usage.Event) error
	CurrentUsage(ctx context.Context, tenantID string) (int, error)
	Breakdown(ctx context.Context, tenantID string) ([]usage.FeatureCount, error)
}

// generator is the orchestration entry point, injectable for handler tests.
type generator interface {
	Generate(ctx context.Context, req GenerationRequest) GenerationOutcome
}

// Server holds the wired decision services behind the HTTP handlers.
type Server struct {
	gate     accessGate
	orch     generator
	recorder usageRecorder
	log      *logger.Logger
}

// NewServer wires the handlers.
func NewServer(g accessGate, orch generator, recorder usageRecorder) *Server {
	return &Server{
		gate:     g,
		orch:     orch,
		recorder: recorder,
		log:      logger.New("decisions"),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// checkGate runs the access gate and renders denials. RateLimited and
// FeatureDisabled stay real HTTP errors; QuotaExceeded is a business state
// and renders as a 200 with a flag so the UI can show an upgrade prompt.
func (s *Server) checkGate(w http.ResponseWriter, r *http.Request, feature Feature) (Identity, bool) {
	identity := identityFrom(r.Context())

	decision := s.gate.Check(r.Context(), identity.TenantID, string(feature))
	if decision.Allowed {
		return identity, true
	}

	promGateDenials.WithLabelValues(string(decision.Reason)).Inc()
	switch decision.Reason {
	case gate.ReasonUnauthenticated:
		writeError(w, http.StatusUnauthorized, "authentication required")
	case gate.ReasonRateLimited:
		writeError(w, http.StatusTooManyRequests, "too many requests, slow down")
	case gate.ReasonFeatureDisabled:
		writeError(w, http.StatusForbidden, "this feature is not enabled for your account")
	case gate.ReasonQuotaExceeded:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"quotaExceeded": true,
			"limit":         s.gate.MonthlyLimit(),
		})
	default:
		writeError(w, http.StatusForbidden, "access denied")
	}
	return identity, false
}

// generate runs the shared pipeline for every generation feature: gate,
// prompt build, orchestration, usage recording, envelope rendering.
func (s *Server) generate(w http.ResponseWriter, r *http.Request, feature Feature, input PromptInput) {
	identity, ok := s.checkGate(w, r, feature)
	if !ok {
		return
	}

	systemPrompt, userPrompt := input.Prompts()
	outcome := s.orch.Generate(r.Context(), GenerationRequest{
		TenantID:     identity.TenantID,
		UserID:       identity.UserID,
		Feature:      feature,
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Shape:        shapeFor(feature),
	})

	s.recordOutcome(r.Context(), identity, feature, outcome)
	observeOutcome(feature, outcome)

	if outcome.Succeeded() {
		s.log.InfoWithDuration(identity.TenantID, "", "Generation completed", float64(outcome.LatencyMs), map[string]interface{}{
			"feature":  string(feature),
			"provider": outcome.Provider,
			"model":    outcome.Model,
		})
	}

	if !outcome.Succeeded() {
		// Generation failures degrade to manual entry on the caller side,
		// so they ride a success-range status.
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"fallback": true,
			"error":    outcome.Err,
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(outcome.Data)
}

// recordOutcome appends the usage event and bumps the quota counter.
// Recording failures are logged and never block the response.
func (s *Server) recordOutcome(ctx context.Context, identity Identity, feature Feature, outcome GenerationOutcome) {
	event := usage.Event{
		TenantID:  identity.TenantID,
		UserID:    identity.UserID,
		Feature:   string(feature),
		Outcome:   usage.OutcomeSuccess,
		Provider:  outcome.Provider,
		Model:     outcome.Model,
		LatencyMs: outcome.LatencyMs,
	}
	if !outcome.Succeeded() {
		event.Outcome = usage.OutcomeError
		event.ErrorCategory = string(outcome.Category)
	}

	if err := s.recorder.Record(ctx, event); err != nil {
		s.log.Error(identity.TenantID, "", "Failed to record usage event", map[string]interface{}{
			"feature": string(feature),
			"error":   err.Error(),
		})
	}
}

// decodeInput parses and validates the caller-supplied body. Malformed input
// is a 400, distinct from any generation failure.
func decodeInput(w http.ResponseWriter, r *http.Request, input PromptInput) bool {
	if err := json.NewDecoder(r.Body).Decode(input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := input.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (s *Server) handleClientMessage(w http.ResponseWriter, r *http.Request) {
	var input ClientMessageInput
	if decodeInput(w, r, &input) {
		s.generate(w, r, FeatureClientMessage, &input)
	}
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	var input InsightsInput
	if decodeInput(w, r, &input) {
		s.generate(w, r, FeatureInsights, &input)
	}
}

func (s *Server) handlePlanningSuggest(w http.ResponseWriter, r *http.Request) {
	var input PlanningSuggestInput
	if decodeInput(w, r, &input) {
		s.generate(w, r, FeaturePlanningSuggest, &input)
	}
}

func (s *Server) handleQuickNote(w http.ResponseWriter, r *http.Request) {
	var input QuickNoteInput
	if decodeInput(w, r, &input) {
		s.generate(w, r, FeatureQuickNote, &input)
	}
}

func (s *Server) handleQuoteExplain(w http.ResponseWriter, r *http.Request) {
	var input QuoteExplainInput
	if decodeInput(w, r, &input) {
		s.generate(w, r, FeatureQuoteExplain, &input)
	}
}

// QuoteAuditRequest is the caller-supplied input for the audit endpoint.
type QuoteAuditRequest struct {
	Lines     []audit.LineItem `json:"lines"`
	LaborRate float64          `json:"laborRate"`
}

func (s *Server) handleQuoteAudit(w http.ResponseWriter, r *http.Request) {
	var req QuoteAuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Lines) == 0 {
		writeError(w, http.StatusBadRequest, "lines must contain at least one item")
		return
	}
	if req.LaborRate <= 0 {
		writeError(w, http.StatusBadRequest, "laborRate must be positive")
		return
	}

	identity, ok := s.checkGate(w, r, FeatureAudit)
	if !ok {
		return
	}

	start := time.Now()
	findings := audit.Audit(req.Lines, req.LaborRate)
	latency := time.Since(start).Milliseconds()

	s.recordOutcome(r.Context(), identity, FeatureAudit, GenerationOutcome{
		Data:      json.RawMessage("{}"),
		LatencyMs: latency,
	})
	promRequestsTotal.WithLabelValues(string(FeatureAudit), "success").Inc()
	promRequestDuration.WithLabelValues(string(FeatureAudit)).Observe(float64(latency))

	if findings == nil {
		findings = []audit.Finding{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"findings": findings,
	})
}

// handleUsage reports the caller tenant's current-period consumption.
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	if identity.TenantID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	used, err := s.recorder.CurrentUsage(r.Context(), identity.TenantID)
	if err != nil {
		s.log.Error(identity.TenantID, "", "Failed to read quota counter", map[string]interface{}{
			"error": err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "usage lookup failed")
		return
	}

	breakdown, err := s.recorder.Breakdown(r.Context(), identity.TenantID)
	if err != nil {
		s.log.Warn(identity.TenantID, "", "Failed to read usage breakdown", map[string]interface{}{
			"error": err.Error(),
		})
		breakdown = nil
	}
	if breakdown == nil {
		breakdown = []usage.FeatureCount{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"period":   usage.CurrentPeriod(),
		"used":     used,
		"limit":    s.gate.MonthlyLimit(),
		"features": breakdown,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "decisions",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
