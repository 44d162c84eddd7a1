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

// Package audit implements the deterministic quote-audit rule engine.
// It runs entirely over the supplied line items: no network, no persistence.
package audit

// LineType identifies the kind of a quote line.
type LineType string

const (
	LineTypePart  LineType = "part"
	LineTypeLabor LineType = "labor"
	LineTypeOther LineType = "other"
)

// LineItem is one line of a quote as seen by the audit engine.
type LineItem struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Type        LineType `json:"type"`
	Quantity    float64  `json:"quantity"`
	UnitPrice   float64  `json:"unitPrice"`
	Optional    bool     `json:"optional,omitempty"`
}

// Severity grades a finding. Warnings call for action; info findings are
// non-blocking suggestions.
type Severity string

const (
	SeverityWarn Severity = "warn"
	SeverityInfo Severity = "info"
)

// FixAction is the tagged variant of a machine-applicable fix.
type FixAction string

const (
	FixAddLine      FixAction = "ADD_LINE"
	FixUpdateLine   FixAction = "UPDATE_LINE"
	FixRemoveLine   FixAction = "REMOVE_LINE"
	FixMarkOptional FixAction = "MARK_OPTIONAL"
)

// Fix is a machine-applicable correction attached to a finding.
type Fix struct {
	// Action selects the fix variant.
	Action FixAction `json:"action"`

	// TargetLineID identifies the line for REMOVE_LINE / UPDATE_LINE /
	// MARK_OPTIONAL actions.
	TargetLineID string `json:"targetLineId,omitempty"`

	// Line is the payload for ADD_LINE / UPDATE_LINE actions.
	Line *LineItem `json:"line,omitempty"`
}

// Finding is one issue detected by the engine. Findings are recomputed fresh
// on every call and never stored; IDs are unique per call, not stable across
// repeated audits of the same input.
type Finding struct {
	ID          string   `json:"id"`
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Explanation string   `json:"explanation"`
	ProposedFix *Fix     `json:"proposedFix,omitempty"`
}
