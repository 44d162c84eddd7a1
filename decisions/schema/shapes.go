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

package schema

import "fmt"

// Result shape names, one per generation feature.
const (
	ShapeClientMessage   = "client_message"
	ShapeQuoteExplain    = "quote_explain"
	ShapePlanningSuggest = "planning_suggest"
	ShapeInsights        = "insights"
	ShapeQuickNote       = "quick_note"
)

// registry holds the named result shapes. Registered at init, read-only after.
var registry = map[string]Shape{
	ShapeClientMessage: {
		Name: ShapeClientMessage,
		Fields: []Field{
			{Name: "subject", Kind: KindString},
			{Name: "body", Kind: KindString},
			{Name: "sms", Kind: KindString},
		},
	},
	ShapeQuoteExplain: {
		Name: ShapeQuoteExplain,
		Fields: []Field{
			{Name: "summary", Kind: KindString},
			{Name: "points", Kind: KindStringList, MinItems: 1, MaxItems: 5},
		},
	},
	ShapePlanningSuggest: {
		Name: ShapePlanningSuggest,
		Fields: []Field{
			{Name: "slots", Kind: KindObjectList, MinItems: 1, MaxItems: 3, Fields: []Field{
				{Name: "date", Kind: KindString},
				{Name: "time", Kind: KindString},
				{Name: "reason", Kind: KindString, Optional: true, AllowEmpty: true},
			}},
		},
	},
	ShapeInsights: {
		Name: ShapeInsights,
		Fields: []Field{
			{Name: "highlights", Kind: KindStringList, MinItems: 1, MaxItems: 3},
			{Name: "recommendation", Kind: KindString},
		},
	},
	ShapeQuickNote: {
		Name: ShapeQuickNote,
		Fields: []Field{
			{Name: "note", Kind: KindString},
		},
	},
}

// Lookup returns the shape registered under the given name.
func Lookup(name string) (Shape, error) {
	shape, ok := registry[name]
	if !ok {
		return Shape{}, fmt.Errorf("unknown result shape %q", name)
	}
	return shape, nil
}

// Validate checks raw against the named shape.
func Validate(name string, raw any) error {
	shape, err := Lookup(name)
	if err != nil {
		return err
	}
	return shape.Validate(raw)
}
