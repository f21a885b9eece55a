package msgtemplate

import (
	"testing"

	"mtlint/internal/diag"
	"mtlint/internal/source"
)

func runNaming(t *testing.T, template string, rawText func(source.Span) string) []diag.Diagnostic {
	t.Helper()
	segs := mustParse(t, template)
	bag := diag.NewBag(64)
	CheckNaming(segs, testSpanOf, rawText, diag.BagReporter{Bag: bag})
	return bag.Items()
}

func TestCheckNaming_Clean(t *testing.T) {
	got := runNaming(t, "{User} did {Action}", nil)
	if len(got) != 0 {
		t.Fatalf("expected no diagnostics, got %+v", got)
	}
}

func TestCheckNaming_DuplicateName(t *testing.T) {
	got := runNaming(t, "{Tester} chats with {Tester}", nil)
	if len(got) != 1 {
		t.Fatalf("expected one diagnostic, got %+v", got)
	}
	d := got[0]
	if d.Code != diag.DuplicateName {
		t.Errorf("code = %v, want DUPLICATE_NAME", d.Code)
	}
	if d.Message != "Property name 'Tester' is not unique in this MessageTemplate" {
		t.Errorf("message = %q", d.Message)
	}
	// Anchored at the second occurrence's name start.
	if d.Primary != testSpanOf(21, 6) {
		t.Errorf("span = %v, want %v", d.Primary, testSpanOf(21, 6))
	}
}

func TestCheckNaming_TripleDuplicate(t *testing.T) {
	got := runNaming(t, "{A} {A} {A}", nil)
	if len(got) != 2 {
		t.Fatalf("expected two diagnostics, got %+v", got)
	}
}

func TestCheckNaming_PascalCase(t *testing.T) {
	got := runNaming(t, "{tester} chats with himself", nil)
	if len(got) != 1 {
		t.Fatalf("expected one diagnostic, got %+v", got)
	}
	d := got[0]
	if d.Code != diag.NonPascalCase {
		t.Errorf("code = %v, want NON_PASCAL_CASE", d.Code)
	}
	if d.Severity != diag.SevWarning {
		t.Errorf("severity = %v, want warning", d.Severity)
	}
	if d.Message != "Property name 'tester' should be pascal case" {
		t.Errorf("message = %q", d.Message)
	}
	if d.Primary != testSpanOf(1, 6) {
		t.Errorf("span = %v, want %v", d.Primary, testSpanOf(1, 6))
	}
}

func TestCheckNaming_PascalCaseFix(t *testing.T) {
	rawText := func(source.Span) string { return "tester" }
	got := runNaming(t, "{tester}", rawText)
	if len(got) != 1 || len(got[0].Fixes) != 1 {
		t.Fatalf("expected one diagnostic with one fix, got %+v", got)
	}
	fix := got[0].Fixes[0]
	if fix.Title != "Rename property to 'Tester'" {
		t.Errorf("fix title = %q", fix.Title)
	}
	if fix.Applicability != diag.FixApplicabilitySafeWithHeuristics {
		t.Errorf("rename applicability = %v, want safe-with-heuristics", fix.Applicability)
	}
	if len(fix.Edits) != 1 {
		t.Fatalf("expected one edit, got %+v", fix.Edits)
	}
	edit := fix.Edits[0]
	if edit.NewText != "Tester" || edit.OldText != "tester" {
		t.Errorf("edit = %+v, want tester -> Tester", edit)
	}
	if edit.Span != testSpanOf(1, 6) {
		t.Errorf("edit span = %v, want %v", edit.Span, testSpanOf(1, 6))
	}
}

func TestCheckNaming_PositionalAndUppercaseIgnored(t *testing.T) {
	got := runNaming(t, "{0} {_private} {Upper}", nil)
	if len(got) != 0 {
		t.Fatalf("expected no diagnostics, got %+v", got)
	}
}

func TestPascalCase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"tester", "Tester"},
		{"userId", "UserId"},
		{"a", "A"},
	}
	for _, tt := range tests {
		if got := PascalCase(tt.in); got != tt.want {
			t.Errorf("PascalCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
