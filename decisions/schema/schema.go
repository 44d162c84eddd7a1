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

// Package schema validates untyped decoded payloads against named result
// shapes. It is the sole gate between untrusted provider text and typed
// application data: no generation result is used unvalidated.
//
// Validation is strict on required fields and types, tolerant of unknown
// extra fields.
package schema

import (
	"fmt"
)

// FieldKind identifies the expected type of a field.
type FieldKind int

const (
	KindString FieldKind = iota
	KindNumber
	KindBool
	KindStringList
	KindObjectList
)

// Field describes one field of a result shape.
type Field struct {
	// Name is the JSON key.
	Name string

	// Kind is the expected type.
	Kind FieldKind

	// Optional marks the field as allowed to be absent.
	Optional bool

	// AllowEmpty permits empty strings / zero-length lists. By default a
	// present string must be non-empty and a present list must have at
	// least MinItems elements.
	AllowEmpty bool

	// MinItems / MaxItems bound list lengths. Zero MaxItems means unbounded.
	MinItems int
	MaxItems int

	// Enum restricts a string field to a closed value set when non-empty.
	Enum []string

	// Fields describes the element shape for KindObjectList.
	Fields []Field
}

// Shape is a named set of field constraints.
type Shape struct {
	Name   string
	Fields []Field
}

// Validate checks raw (a JSON-decoded value) against the shape.
// Returns nil when the payload is acceptable.
func (s Shape) Validate(raw any) error {
	obj, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("%s: expected a JSON object", s.Name)
	}
	return validateFields(s.Name, s.Fields, obj)
}

func validateFields(path string, fields []Field, obj map[string]any) error {
	for _, f := range fields {
		value, present := obj[f.Name]
		if !present || value == nil {
			if f.Optional {
				continue
			}
			return fmt.Errorf("%s: missing required field %q", path, f.Name)
		}

		fieldPath := path + "." + f.Name
		switch f.Kind {
		case KindString:
			str, ok := value.(string)
			if !ok {
				return fmt.Errorf("%s: expected a string", fieldPath)
			}
			if str == "" && !f.AllowEmpty {
				return fmt.Errorf("%s: must not be empty", fieldPath)
			}
			if len(f.Enum) > 0 && !contains(f.Enum, str) {
				return fmt.Errorf("%s: %q is not one of %v", fieldPath, str, f.Enum)
			}

		case KindNumber:
			if _, ok := value.(float64); !ok {
				return fmt.Errorf("%s: expected a number", fieldPath)
			}

		case KindBool:
			if _, ok := value.(bool); !ok {
				return fmt.Errorf("%s: expected a boolean", fieldPath)
			}

		case KindStringList:
			list, ok := value.([]any)
			if !ok {
				return fmt.Errorf("%s: expected an array", fieldPath)
			}
			if err := checkBounds(fieldPath, len(list), f); err != nil {
				return err
			}
			for i, item := range list {
				str, ok := item.(string)
				if !ok {
					return fmt.Errorf("%s[%d]: expected a string", fieldPath, i)
				}
				if str == "" && !f.AllowEmpty {
					return fmt.Errorf("%s[%d]: must not be empty", fieldPath, i)
				}
			}

		case KindObjectList:
			list, ok := value.([]any)
			if !ok {
				return fmt.Errorf("%s: expected an array", fieldPath)
			}
			if err := checkBounds(fieldPath, len(list), f); err != nil {
				return err
			}
			for i, item := range list {
				elem, ok := item.(map[string]any)
				if !ok {
					return fmt.Errorf("%s[%d]: expected an object", fieldPath, i)
				}
				if err := validateFields(fmt.Sprintf("%s[%d]", fieldPath, i), f.Fields, elem); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func checkBounds(path string, n int, f Field) error {
	min := f.MinItems
	if min == 0 && !f.AllowEmpty {
		min = 1
	}
	if n < min {
		return fmt.Errorf("%s: expected at least %d items, got %d", path, min, n)
	}
	if f.MaxItems > 0 && n > f.MaxItems {
		return fmt.Errorf("%s: expected at most %d items, got %d", path, f.MaxItems, n)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
