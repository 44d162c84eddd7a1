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
	"fmt"
	"strings"

	"github.com/Yanis958/GarageOS-sub001/decisions/schema"
)

// Feature identifies one AI-assisted capability. Feature flags, quota
// counters and usage events are all keyed by these values.
type Feature string

const (
	FeatureClientMessage   Feature = "client_message"
	FeatureInsights        Feature = "insights"
	FeaturePlanningSuggest Feature = "planning_suggest"
	FeatureQuickNote       Feature = "quick_note"
	FeatureQuoteExplain    Feature = "quote_explain"
	FeatureAudit           Feature = "audit"
)

// GenerationFeatures lists the features that go through the provider chain.
// The audit feature is deterministic and never calls a provider.
var GenerationFeatures = []Feature{
	FeatureClientMessage,
	FeatureInsights,
	FeaturePlanningSuggest,
	FeatureQuickNote,
	FeatureQuoteExplain,
}

const systemPromptBase = `You are the writing assistant of a vehicle repair garage.
You always answer with a single JSON object and nothing else: no prose before or
after, no markdown code fences. Use clear, professional language suitable for
garage customers.`

// ClientMessageInput is the caller-supplied context for drafting a message
// to a garage customer.
type ClientMessageInput struct {
	ClientName   string `json:"clientName"`
	VehicleLabel string `json:"vehicleLabel,omitempty"`
	Purpose      string `json:"purpose"`
	Details      string `json:"details,omitempty"`
}

func (in *ClientMessageInput) Validate() error {
	if strings.TrimSpace(in.ClientName) == "" {
		return fmt.Errorf("clientName is required")
	}
	if strings.TrimSpace(in.Purpose) == "" {
		return fmt.Errorf("purpose is required")
	}
	return nil
}

func (in *ClientMessageInput) Prompts() (string, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Draft a message for the customer %q", in.ClientName)
	if in.VehicleLabel != "" {
		fmt.Fprintf(&b, " about their vehicle %q", in.VehicleLabel)
	}
	fmt.Fprintf(&b, ".\nPurpose: %s\n", in.Purpose)
	if in.Details != "" {
		fmt.Fprintf(&b, "Additional context: %s\n", in.Details)
	}
	b.WriteString(`Return JSON with exactly these fields:
{"subject": "<email subject>", "body": "<email body>", "sms": "<short SMS version, max 160 characters>"}`)
	return systemPromptBase, b.String()
}

// QuoteLineInput is one quote line as supplied by the caller, used both for
// explanation prompts and for the audit engine input.
type QuoteLineInput struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Optional    bool    `json:"optional,omitempty"`
}

// QuoteExplainInput carries the quote to explain in customer terms.
type QuoteExplainInput struct {
	VehicleLabel string           `json:"vehicleLabel,omitempty"`
	Lines        []QuoteLineInput `json:"lines"`
	Total        float64          `json:"total"`
}

func (in *QuoteExplainInput) Validate() error {
	if len(in.Lines) == 0 {
		return fmt.Errorf("lines must contain at least one item")
	}
	for i, line := range in.Lines {
		if strings.TrimSpace(line.Description) == "" {
			return fmt.Errorf("lines[%d].description is required", i)
		}
	}
	return nil
}

func (in *QuoteExplainInput) Prompts() (string, string) {
	var b strings.Builder
	b.WriteString("Explain the following repair quote to the customer in plain language.\n")
	if in.VehicleLabel != "" {
		fmt.Fprintf(&b, "Vehicle: %s\n", in.VehicleLabel)
	}
	b.WriteString("Quote lines:\n")
	for _, line := range in.Lines {
		fmt.Fprintf(&b, "- %s (%s) x%.2f at %.2f each\n",
			line.Description, line.Type, line.Quantity, line.UnitPrice)
	}
	fmt.Fprintf(&b, "Total: %.2f\n", in.Total)
	b.WriteString(`Return JSON with exactly these fields:
{"summary": "<one short paragraph>", "points": ["<up to 5 short bullet points, one per major item>"]}`)
	return systemPromptBase, b.String()
}

// PlanningSuggestInput asks for appointment slot suggestions.
type PlanningSuggestInput struct {
	ServiceType   string   `json:"serviceType"`
	PreferredDays []string `json:"preferredDays,omitempty"`
	BusySlots     []string `json:"busySlots,omitempty"`
	DurationHours float64  `json:"durationHours,omitempty"`
}

func (in *PlanningSuggestInput) Validate() error {
	if strings.TrimSpace(in.ServiceType) == "" {
		return fmt.Errorf("serviceType is required")
	}
	return nil
}

func (in *PlanningSuggestInput) Prompts() (string, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggest appointment slots for a %q intervention.\n", in.ServiceType)
	if len(in.PreferredDays) > 0 {
		fmt.Fprintf(&b, "Customer preferred days: %s\n", strings.Join(in.PreferredDays, ", "))
	}
	if len(in.BusySlots) > 0 {
		fmt.Fprintf(&b, "Already booked slots to avoid: %s\n", strings.Join(in.BusySlots, ", "))
	}
	if in.DurationHours > 0 {
		fmt.Fprintf(&b, "Estimated duration: %.1f hours\n", in.DurationHours)
	}
	b.WriteString(`Return JSON with exactly these fields:
{"slots": [{"date": "YYYY-MM-DD", "time": "HH:MM", "reason": "<optional short justification>"}]}
Propose between 1 and 3 slots.`)
	return systemPromptBase, b.String()
}

// InsightsInput carries aggregate activity statistics for the dashboard
// insights feature.
type InsightsInput struct {
	Period        string  `json:"period"`
	QuoteCount    int     `json:"quoteCount"`
	InvoiceCount  int     `json:"invoiceCount"`
	Revenue       float64 `json:"revenue"`
	NewClients    int     `json:"newClients"`
	TopServiceIDs string  `json:"topServices,omitempty"`
}

func (in *InsightsInput) Validate() error {
	if strings.TrimSpace(in.Period) == "" {
		return fmt.Errorf("period is required")
	}
	return nil
}

func (in *InsightsInput) Prompts() (string, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the garage activity for %s:\n", in.Period)
	fmt.Fprintf(&b, "- Quotes issued: %d\n- Invoices issued: %d\n- Revenue: %.2f\n- New clients: %d\n",
		in.QuoteCount, in.InvoiceCount, in.Revenue, in.NewClients)
	if in.TopServiceIDs != "" {
		fmt.Fprintf(&b, "- Most requested services: %s\n", in.TopServiceIDs)
	}
	b.WriteString(`Return JSON with exactly these fields:
{"highlights": ["<1 to 3 short observations>"], "recommendation": "<one actionable recommendation>"}`)
	return systemPromptBase, b.String()
}

// QuickNoteInput turns rough mechanic shorthand into a clean note.
type QuickNoteInput struct {
	RawText string `json:"rawText"`
}

func (in *QuickNoteInput) Validate() error {
	if strings.TrimSpace(in.RawText) == "" {
		return fmt.Errorf("rawText is required")
	}
	return nil
}

func (in *QuickNoteInput) Prompts() (string, string) {
	var b strings.Builder
	b.WriteString("Rewrite the following mechanic shorthand as a clean, complete workshop note:\n")
	b.WriteString(in.RawText)
	b.WriteString("\nReturn JSON with exactly this field:\n{\"note\": \"<the rewritten note>\"}")
	return systemPromptBase, b.String()
}

// PromptInput is implemented by every generation feature input.
type PromptInput interface {
	Validate() error
	Prompts() (systemPrompt, userPrompt string)
}

// shapeFor maps a generation feature to its result shape name.
func shapeFor(feature Feature) string {
	switch feature {
	case FeatureClientMessage:
		return schema.ShapeClientMessage
	case FeatureInsights:
		return schema.ShapeInsights
	case FeaturePlanningSuggest:
		return schema.ShapePlanningSuggest
	case FeatureQuickNote:
		return schema.ShapeQuickNote
	case FeatureQuoteExplain:
		return schema.ShapeQuoteExplain
	default:
		return ""
	}
}
