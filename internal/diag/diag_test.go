package diag

import (
	"strings"
	"testing"

	"mtlint/internal/source"
)

func TestCode_IDsAndDefaultSeverities(t *testing.T) {
	tests := []struct {
		code Code
		id   string
		sev  Severity
	}{
		{ExceptionNotFirst, "EXCEPTION_NOT_FIRST", SevWarning},
		{ParseError, "PARSE_ERROR", SevError},
		{BindError, "BIND_ERROR", SevError},
		{NonConstantTemplate, "NON_CONSTANT_TEMPLATE", SevWarning},
		{DuplicateName, "DUPLICATE_NAME", SevError},
		{NonPascalCase, "NON_PASCAL_CASE", SevWarning},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := tt.code.ID(); got != tt.id {
				t.Errorf("ID() = %q, want %q", got, tt.id)
			}
			if got := tt.code.DefaultSeverity(); got != tt.sev {
				t.Errorf("DefaultSeverity() = %v, want %v", got, tt.sev)
			}
			back, ok := CodeByID(tt.id)
			if !ok || back != tt.code {
				t.Errorf("CodeByID(%q) = %v/%v", tt.id, back, ok)
			}
		})
	}
}

func TestBag_SortAndDedup(t *testing.T) {
	bag := NewBag(10)
	span := func(start, end uint32) source.Span {
		return source.Span{File: 1, Start: start, End: end}
	}

	bag.Add(New(SevWarning, NonPascalCase, span(20, 25), "later"))
	bag.Add(New(SevError, BindError, span(5, 10), "earlier"))
	bag.Add(New(SevError, BindError, span(5, 10), "earlier")) // duplicate
	bag.Add(New(SevWarning, ExceptionNotFirst, span(5, 10), "same span, lower severity"))

	bag.Sort()
	bag.Dedup()

	items := bag.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 diagnostics after dedup, got %d", len(items))
	}
	if items[0].Code != BindError {
		t.Errorf("expected BindError first (same span, higher severity), got %v", items[0].Code)
	}
	if items[1].Code != ExceptionNotFirst {
		t.Errorf("expected ExceptionNotFirst second, got %v", items[1].Code)
	}
	if items[2].Message != "later" {
		t.Errorf("expected span-ordered last item, got %q", items[2].Message)
	}
}

func TestBag_LimitAndFilter(t *testing.T) {
	bag := NewBag(2)
	sp := source.Span{File: 1, Start: 0, End: 1}

	if !bag.Add(NewError(BindError, sp, "a")) || !bag.Add(NewError(BindError, sp, "b")) {
		t.Fatalf("first two adds must succeed")
	}
	if bag.Add(NewError(BindError, sp, "c")) {
		t.Fatalf("third add must be rejected by the limit")
	}

	bag.Filter(func(d Diagnostic) bool { return d.Message != "a" })
	if bag.Len() != 1 || bag.Items()[0].Message != "b" {
		t.Fatalf("filter kept wrong items: %+v", bag.Items())
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	rep := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{File: 1, Start: 3, End: 7}

	rep.Report(DuplicateName, SevError, sp, "dup", nil, nil)
	rep.Report(DuplicateName, SevError, sp, "dup", nil, nil)
	rep.Report(DuplicateName, SevError, sp, "different message", nil, nil)

	if bag.Len() != 2 {
		t.Fatalf("expected 2 unique diagnostics, got %d", bag.Len())
	}
}

func TestFormatGoldenDiagnostics(t *testing.T) {
	fs := source.NewFileSetWithBase(".")
	id := fs.AddVirtual("sample.cs", []byte("line one\nline two\n"))

	diags := []Diagnostic{
		New(SevWarning, NonPascalCase, source.Span{File: id, Start: 10, End: 14}, "second line finding"),
		New(SevError, ParseError, source.Span{File: id, Start: 0, End: 4}, "first line finding"),
	}

	out := FormatGoldenDiagnostics(diags, fs, false)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), out)
	}
	if lines[0] != "error PARSE_ERROR sample.cs:1:1 first line finding" {
		t.Errorf("unexpected first line: %q", lines[0])
	}
	if lines[1] != "warning NON_PASCAL_CASE sample.cs:2:2 second line finding" {
		t.Errorf("unexpected second line: %q", lines[1])
	}
}

func TestReportBuilder_EmitOnce(t *testing.T) {
	bag := NewBag(10)
	sp := source.Span{File: 0, Start: 0, End: 1}

	b := ReportWarning(BagReporter{Bag: bag}, ExceptionNotFirst, sp, "move it").
		WithNote(sp, "declared here").
		WithFix("Move exception first", TextEdit{Span: sp, NewText: "x"})
	b.Emit()
	b.Emit()

	if bag.Len() != 1 {
		t.Fatalf("expected exactly one emission, got %d", bag.Len())
	}
	d := bag.Items()[0]
	if len(d.Notes) != 1 || len(d.Fixes) != 1 {
		t.Errorf("notes/fixes lost: %+v", d)
	}
}
