// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
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
	"testing"
)

func TestAuditCleanQuote(t *testing.T) {
	lines := []LineItem{
		{ID: "l1", Description: "Timing belt kit", Type: LineTypePart, Quantity: 1, UnitPrice: 180},
		{ID: "l2", Description: "Labor", Type: LineTypeLabor, Quantity: 3, UnitPrice: 65},
	}

	findings := Audit(lines, 65)
	if len(findings) != 0 {
		t.Errorf("expected no findings, got %d: %+v", len(findings), findings)
	}
}

// Two identical part lines yield exactly one warn finding with a REMOVE_LINE
// fix targeting the second line's id.
func TestAuditDuplicateLines(t *testing.T) {
	lines := []LineItem{
		{ID: "l1", Description: "Brake pads front", Type: LineTypePart, Quantity: 1, UnitPrice: 45},
		{ID: "l2", Description: "Brake pads front", Type: LineTypePart, Quantity: 1, UnitPrice: 45},
		{ID: "l3", Description: "Labor", Type: LineTypeLabor, Quantity: 1, UnitPrice: 65},
		{ID: "l4", Description: "Brake system visual inspection", Type: LineTypeLabor, Quantity: 1, UnitPrice: 0},
	}

	findings := Audit(lines, 65)
	if len(findings) != 1 {
		t.Fatalf("expected exactly 1 finding, got %d: %+v", len(findings), findings)
	}

	f := findings[0]
	if f.Severity != SeverityWarn {
		t.Errorf("expected warn severity, got %s", f.Severity)
	}
	if f.ProposedFix == nil || f.ProposedFix.Action != FixRemoveLine {
		t.Fatalf("expected REMOVE_LINE fix, got %+v", f.ProposedFix)
	}
	if f.ProposedFix.TargetLineID != "l2" {
		t.Errorf("fix must target the later line l2, got %s", f.ProposedFix.TargetLineID)
	}
}

// Differently worded brake-pad part lines still count as duplicates.
func TestAuditDuplicateSameCategory(t *testing.T) {
	lines := []LineItem{
		{ID: "l1", Description: "Brake pads front axle", Type: LineTypePart, Quantity: 1, UnitPrice: 45},
		{ID: "l2", Description: "Front brake pad set", Type: LineTypePart, Quantity: 1, UnitPrice: 52},
		{ID: "l3", Description: "Labor", Type: LineTypeLabor, Quantity: 1, UnitPrice: 65},
		{ID: "l4", Description: "Brake system visual inspection", Type: LineTypeLabor, Quantity: 1, UnitPrice: 0},
	}

	findings := Audit(lines, 65)
	if len(findings) != 1 {
		t.Fatalf("expected 1 duplicate finding, got %d: %+v", len(findings), findings)
	}
	if findings[0].ProposedFix.TargetLineID != "l2" {
		t.Errorf("fix must target l2, got %s", findings[0].ProposedFix.TargetLineID)
	}
}

// Only the first pairwise duplicate per left-hand line is reported.
func TestAuditDuplicateFirstMatchPerLine(t *testing.T) {
	lines := []LineItem{
		{ID: "l1", Description: "Wiper blades", Type: LineTypePart, Quantity: 1, UnitPrice: 20},
		{ID: "l2", Description: "Wiper blades", Type: LineTypePart, Quantity: 1, UnitPrice: 20},
		{ID: "l3", Description: "Wiper blades", Type: LineTypePart, Quantity: 1, UnitPrice: 20},
		{ID: "l4", Description: "Labor", Type: LineTypeLabor, Quantity: 1, UnitPrice: 65},
	}

	findings := Audit(lines, 65)

	// l1 pairs with l2 (break), l2 pairs with l3. l3 has no right-hand match.
	var duplicates []Finding
	for _, f := range findings {
		if f.Title == "Possible duplicate line" {
			duplicates = append(duplicates, f)
		}
	}
	if len(duplicates) != 2 {
		t.Fatalf("expected 2 duplicate findings, got %d", len(duplicates))
	}
	if duplicates[0].ProposedFix.TargetLineID != "l2" {
		t.Errorf("first fix must target l2, got %s", duplicates[0].ProposedFix.TargetLineID)
	}
	if duplicates[1].ProposedFix.TargetLineID != "l3" {
		t.Errorf("second fix must target l3, got %s", duplicates[1].ProposedFix.TargetLineID)
	}
}

// A labor-implying part with no labor line proposes ADD_LINE with one labor
// unit priced at the given rate.
func TestAuditPartWithoutLabor(t *testing.T) {
	lines := []LineItem{
		{ID: "l1", Description: "Oil filter", Type: LineTypePart, Quantity: 1, UnitPrice: 14},
	}

	findings := Audit(lines, 72.5)

	var found *Finding
	for i := range findings {
		if findings[i].Title == "Part without labor" {
			found = &findings[i]
		}
	}
	if found == nil {
		t.Fatalf("expected a part-without-labor finding, got %+v", findings)
	}
	if found.Severity != SeverityWarn {
		t.Errorf("expected warn, got %s", found.Severity)
	}
	fix := found.ProposedFix
	if fix == nil || fix.Action != FixAddLine || fix.Line == nil {
		t.Fatalf("expected ADD_LINE fix with payload, got %+v", fix)
	}
	if fix.Line.Type != LineTypeLabor {
		t.Errorf("expected labor line, got %s", fix.Line.Type)
	}
	if fix.Line.UnitPrice != 72.5 {
		t.Errorf("expected unit price 72.5, got %v", fix.Line.UnitPrice)
	}
	if fix.Line.Quantity != 1 {
		t.Errorf("expected quantity 1, got %v", fix.Line.Quantity)
	}
}

func TestAuditOilChangeWithoutFilter(t *testing.T) {
	lines := []LineItem{
		{ID: "l1", Description: "Oil change 5W30", Type: LineTypeOther, Quantity: 1, UnitPrice: 59},
		{ID: "l2", Description: "Labor", Type: LineTypeLabor, Quantity: 1, UnitPrice: 65},
	}

	findings := Audit(lines, 65)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d: %+v", len(findings), findings)
	}

	f := findings[0]
	if f.Title != "Oil change without filter" {
		t.Errorf("unexpected finding: %s", f.Title)
	}
	if f.ProposedFix.Line.UnitPrice != FilterReferencePrice {
		t.Errorf("expected reference price %v, got %v", FilterReferencePrice, f.ProposedFix.Line.UnitPrice)
	}
	if f.ProposedFix.Line.Type != LineTypePart {
		t.Errorf("expected part line, got %s", f.ProposedFix.Line.Type)
	}
}

func TestAuditOilChangeWithFilterIsClean(t *testing.T) {
	lines := []LineItem{
		{ID: "l1", Description: "Oil change 5W30", Type: LineTypeOther, Quantity: 1, UnitPrice: 59},
		{ID: "l2", Description: "Oil filter", Type: LineTypePart, Quantity: 1, UnitPrice: 13},
		{ID: "l3", Description: "Labor", Type: LineTypeLabor, Quantity: 1, UnitPrice: 65},
	}

	for _, f := range Audit(lines, 65) {
		if f.Title == "Oil change without filter" {
			t.Errorf("filter present but finding emitted: %+v", f)
		}
	}
}

// Brake pads without an inspection line yield an info finding proposing an
// optional zero-cost inspection.
func TestAuditBrakePadsWithoutInspection(t *testing.T) {
	lines := []LineItem{
		{ID: "l1", Description: "Brake pads rear", Type: LineTypePart, Quantity: 1, UnitPrice: 40},
		{ID: "l2", Description: "Labor", Type: LineTypeLabor, Quantity: 1, UnitPrice: 65},
	}

	findings := Audit(lines, 65)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d: %+v", len(findings), findings)
	}

	f := findings[0]
	if f.Severity != SeverityInfo {
		t.Errorf("expected info severity, got %s", f.Severity)
	}
	fix := f.ProposedFix
	if fix == nil || fix.Action != FixAddLine || fix.Line == nil {
		t.Fatalf("expected ADD_LINE fix, got %+v", fix)
	}
	if !fix.Line.Optional {
		t.Error("proposed inspection line must be optional")
	}
	if fix.Line.UnitPrice != 0 {
		t.Errorf("proposed inspection must be free, got %v", fix.Line.UnitPrice)
	}
}

// A quote can trigger several rules at once; findings come out in
// rule-declaration order.
func TestAuditMultipleFindingsOrdered(t *testing.T) {
	lines := []LineItem{
		{ID: "l1", Description: "Brake pads front", Type: LineTypePart, Quantity: 1, UnitPrice: 45},
		{ID: "l2", Description: "Brake pads front", Type: LineTypePart, Quantity: 1, UnitPrice: 45},
	}

	findings := Audit(lines, 65)
	if len(findings) != 3 {
		t.Fatalf("expected 3 findings, got %d: %+v", len(findings), findings)
	}
	if findings[0].Title != "Possible duplicate line" {
		t.Errorf("finding 0: %s", findings[0].Title)
	}
	if findings[1].Title != "Part without labor" {
		t.Errorf("finding 1: %s", findings[1].Title)
	}
	if findings[2].Title != "No safety check with brake work" {
		t.Errorf("finding 2: %s", findings[2].Title)
	}
}

// Repeated audits of identical input return identical content; only the
// generated ids differ.
func TestAuditIdempotentContent(t *testing.T) {
	lines := []LineItem{
		{ID: "l1", Description: "Brake pads front", Type: LineTypePart, Quantity: 1, UnitPrice: 45},
		{ID: "l2", Description: "Brake pads front", Type: LineTypePart, Quantity: 1, UnitPrice: 45},
	}

	first := Audit(lines, 65)
	second := Audit(lines, 65)

	if len(first) != len(second) {
		t.Fatalf("finding counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Title != second[i].Title {
			t.Errorf("finding %d title differs: %q vs %q", i, first[i].Title, second[i].Title)
		}
		if first[i].Explanation != second[i].Explanation {
			t.Errorf("finding %d explanation differs", i)
		}
		if (first[i].ProposedFix == nil) != (second[i].ProposedFix == nil) {
			t.Errorf("finding %d fix presence differs", i)
		}
		if first[i].ProposedFix != nil && first[i].ProposedFix.Action != second[i].ProposedFix.Action {
			t.Errorf("finding %d fix action differs", i)
		}
	}
}

func TestFindingIDsAreUnique(t *testing.T) {
	lines := []LineItem{
		{ID: "l1", Description: "Brake pads front", Type: LineTypePart, Quantity: 1, UnitPrice: 45},
		{ID: "l2", Description: "Brake pads front", Type: LineTypePart, Quantity: 1, UnitPrice: 45},
	}

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		for _, f := range Audit(lines, 65) {
			if seen[f.ID] {
				t.Fatalf("duplicate finding id %s", f.ID)
			}
			seen[f.ID] = true
		}
	}
}

func TestAuditEmptyInput(t *testing.T) {
	if findings := Audit(nil, 65); len(findings) != 0 {
		t.Errorf("expected no findings for empty input, got %+v", findings)
	}
}
