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

package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject performs best-effort extraction of a JSON object from raw
// model output. Models routinely wrap JSON in markdown code fences or prose;
// this strips ``` fences and slices from the first '{' to the last '}'.
//
// Contract: if the input contains exactly one JSON object (possibly wrapped),
// the returned string starts with '{' and ends with '}' and json.Unmarshal of
// it succeeds. If no object can be located, the trimmed input is returned
// unchanged and the caller's unmarshal is expected to fail.
func ExtractJSONObject(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}

	// Strip markdown code fences ("```json ... ```" or bare "```").
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	// Slice between the first '{' and the last '}' to drop surrounding prose.
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	s = s[start : end+1]

	// Sanity check: the slice must at least open as a JSON object.
	dec := json.NewDecoder(strings.NewReader(s))
	tok, err := dec.Token()
	if err != nil {
		return strings.TrimSpace(raw)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return strings.TrimSpace(raw)
	}
	return s
}
