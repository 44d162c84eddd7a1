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

package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FilterReferencePrice is the reference price proposed when a filter line is
// missing from an oil-change quote.
const FilterReferencePrice = 12.90

// laborImplyingKeywords mark part descriptions that normally come with a
// labor line on the same quote.
var laborImplyingKeywords = []string{
	"brake pad",
	"disc",
	"filter",
	"oil change",
	"brake",
}

// Audit evaluates every rule against the quote lines and returns the findings
// in rule-declaration order. The function is pure and deterministic in
// finding content; only the generated IDs differ between calls.
func Audit(lines []LineItem, laborRate float64) []Finding {
	findings := []Finding{}
	findings = append(findings, findDuplicates(lines)...)
	findings = append(findings, findPartWithoutLabor(lines, laborRate)...)
	findings = append(findings, findOilChangeWithoutFilter(lines)...)
	findings = append(findings, findBrakePadsWithoutInspection(lines)...)
	return findings
}

// findDuplicates flags pairs of lines with identical descriptions, or lines
// of the same type that both reference the same high-frequency part wording.
// Only the first pairwise duplicate per left-hand line is reported.
func findDuplicates(lines []LineItem) []Finding {
	findings := []Finding{}
	for i := 0; i < len(lines); i++ {
		for j := i + 1; j < len(lines); j++ {
			if !isDuplicate(lines[i], lines[j]) {
				continue
			}
			findings = append(findings, Finding{
				ID:       newFindingID(),
				Severity: SeverityWarn,
				Title:    "Possible duplicate line",
				Explanation: fmt.Sprintf("%q and %q appear to cover the same work; the quote may bill it twice.",
					lines[i].Description, lines[j].Description),
				ProposedFix: &Fix{
					Action:       FixRemoveLine,
					TargetLineID: lines[j].ID,
				},
			})
			break
		}
	}
	return findings
}

func isDuplicate(a, b LineItem) bool {
	da := normalize(a.Description)
	db := normalize(b.Description)
	if da == db && da != "" {
		return true
	}
	// Same part category with the same line type also counts: two brake-pad
	// part lines are duplicates even with different wording.
	if a.Type == b.Type && mentionsBrakePads(da) && mentionsBrakePads(db) {
		return true
	}
	return false
}

// findPartWithoutLabor flags quotes that bill a labor-implying part with no
// labor line anywhere.
func findPartWithoutLabor(lines []LineItem, laborRate float64) []Finding {
	if hasLineOfType(lines, LineTypeLabor) {
		return nil
	}

	for _, line := range lines {
		if line.Type != LineTypePart {
			continue
		}
		if !matchesAny(normalize(line.Description), laborImplyingKeywords) {
			continue
		}
		return []Finding{{
			ID:       newFindingID(),
			Severity: SeverityWarn,
			Title:    "Part without labor",
			Explanation: fmt.Sprintf("%q normally requires fitting, but the quote has no labor line.",
				line.Description),
			ProposedFix: &Fix{
				Action: FixAddLine,
				Line: &LineItem{
					Description: "Labor",
					Type:        LineTypeLabor,
					Quantity:    1,
					UnitPrice:   laborRate,
				},
			},
		}}
	}
	return nil
}

// findOilChangeWithoutFilter flags oil-change quotes missing a filter line.
func findOilChangeWithoutFilter(lines []LineItem) []Finding {
	hasOilChange := false
	hasFilter := false
	for _, line := range lines {
		desc := normalize(line.Description)
		if strings.Contains(desc, "oil change") || strings.Contains(desc, "oil") && strings.Contains(desc, "drain") {
			hasOilChange = true
		}
		if strings.Contains(desc, "filter") {
			hasFilter = true
		}
	}
	if !hasOilChange || hasFilter {
		return nil
	}
	return []Finding{{
		ID:          newFindingID(),
		Severity:    SeverityWarn,
		Title:       "Oil change without filter",
		Explanation: "The quote includes an oil change but no oil filter; the filter is normally replaced at the same time.",
		ProposedFix: &Fix{
			Action: FixAddLine,
			Line: &LineItem{
				Description: "Oil filter",
				Type:        LineTypePart,
				Quantity:    1,
				UnitPrice:   FilterReferencePrice,
			},
		},
	}}
}

// findBrakePadsWithoutInspection suggests a free safety inspection when brake
// pads are replaced without any visual-check line. Non-blocking.
func findBrakePadsWithoutInspection(lines []LineItem) []Finding {
	hasBrakePads := false
	hasInspection := false
	for _, line := range lines {
		desc := normalize(line.Description)
		if mentionsBrakePads(desc) {
			hasBrakePads = true
		}
		if strings.Contains(desc, "inspection") || strings.Contains(desc, "visual check") {
			hasInspection = true
		}
	}
	if !hasBrakePads || hasInspection {
		return nil
	}
	return []Finding{{
		ID:          newFindingID(),
		Severity:    SeverityInfo,
		Title:       "No safety check with brake work",
		Explanation: "A visual inspection of the full braking system is recommended when replacing pads.",
		ProposedFix: &Fix{
			Action: FixAddLine,
			Line: &LineItem{
				Description: "Brake system visual inspection",
				Type:        LineTypeLabor,
				Quantity:    1,
				UnitPrice:   0,
				Optional:    true,
			},
		},
	}}
}

func hasLineOfType(lines []LineItem, t LineType) bool {
	for _, line := range lines {
		if line.Type == t {
			return true
		}
	}
	return false
}

func mentionsBrakePads(normalizedDesc string) bool {
	return strings.Contains(normalizedDesc, "brake pad")
}

func matchesAny(desc string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// newFindingID builds a unique id from the current time and a random suffix.
func newFindingID() string {
	return fmt.Sprintf("finding-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
