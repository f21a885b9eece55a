package callsite

import (
	"strings"
	"testing"

	"mtlint/internal/diag"
	"mtlint/internal/source"
)

// buildCall lays the argument sources out on one synthetic line so spans
// reflect realistic offsets.
func buildCall(method string, args ...Arg) Call {
	var off uint32 = 20
	for i := range args {
		args[i].Span = source.Span{File: 1, Start: off, End: off + uint32(len(args[i].Text))}
		off = args[i].Span.End + 2 // ", "
	}
	return Call{Method: method, Span: source.Span{File: 1, Start: 0, End: off}, Args: args}
}

func literalArg(raw string) Arg {
	return Arg{Text: raw, IsStringLiteral: true, Raw: raw}
}

func verbatimArg(raw string) Arg {
	return Arg{Text: raw, IsStringLiteral: true, Verbatim: true, Raw: raw}
}

func valueArg(text string) Arg {
	return Arg{Text: text}
}

func exceptionArg(text string) Arg {
	return Arg{Text: text, IsException: true}
}

func runAnalyze(t *testing.T, call Call) []diag.Diagnostic {
	t.Helper()
	bag := diag.NewBag(64)
	Analyze(call, DefaultShapes(), diag.BagReporter{Bag: bag})
	return bag.Items()
}

func TestAnalyze_CleanCall(t *testing.T) {
	call := buildCall("Information",
		literalArg(`"{User} did {Action} {Subject}"`),
		valueArg(`"tester"`), valueArg(`"knock over"`), valueArg(`"a sack of rice"`))
	if got := runAnalyze(t, call); len(got) != 0 {
		t.Fatalf("expected no diagnostics, got %+v", got)
	}
}

func TestAnalyze_UnknownMethodIgnored(t *testing.T) {
	call := buildCall("LogStuff", literalArg(`"{oops"`))
	if got := runAnalyze(t, call); len(got) != 0 {
		t.Fatalf("expected no diagnostics, got %+v", got)
	}
}

func TestAnalyze_NonConstantTemplate(t *testing.T) {
	call := buildCall("Information", valueArg("GetMessage()"), valueArg("x"))
	got := runAnalyze(t, call)
	if len(got) != 1 {
		t.Fatalf("expected one diagnostic, got %+v", got)
	}
	d := got[0]
	if d.Code != diag.NonConstantTemplate || d.Severity != diag.SevWarning {
		t.Errorf("code/severity = %v/%v", d.Code, d.Severity)
	}
	if d.Message != "MessageTemplate argument GetMessage() is not constant" {
		t.Errorf("message = %q", d.Message)
	}
	if d.Primary != call.Args[0].Span {
		t.Errorf("span = %v, want template argument %v", d.Primary, call.Args[0].Span)
	}
}

func TestAnalyze_StringEmptyIsConstant(t *testing.T) {
	call := buildCall("Information", Arg{Text: "String.Empty", IsConstantEmpty: true}, valueArg("x"))
	got := runAnalyze(t, call)
	if len(got) != 1 {
		t.Fatalf("expected one diagnostic, got %+v", got)
	}
	if got[0].Code != diag.BindError {
		t.Errorf("code = %v, want BIND_ERROR", got[0].Code)
	}
	if got[0].Message != "There is no property that corresponds to this argument" {
		t.Errorf("message = %q", got[0].Message)
	}
}

func TestAnalyze_ExceptionAfterTemplate(t *testing.T) {
	call := buildCall("Warning", literalArg(`"Hello World"`), exceptionArg("ex"))
	got := runAnalyze(t, call)
	if len(got) != 2 {
		t.Fatalf("expected two diagnostics, got %+v", got)
	}

	first := got[0]
	if first.Code != diag.ExceptionNotFirst || first.Severity != diag.SevWarning {
		t.Errorf("code/severity = %v/%v", first.Code, first.Severity)
	}
	if first.Message != "The exception 'ex' should be passed as first argument" {
		t.Errorf("message = %q", first.Message)
	}
	if first.Primary != call.Args[1].Span {
		t.Errorf("span = %v, want exception argument %v", first.Primary, call.Args[1].Span)
	}

	if got[1].Code != diag.BindError ||
		got[1].Message != "There is no property that corresponds to this argument" {
		t.Errorf("second diagnostic = %+v, want generic bind error", got[1])
	}
}

func TestAnalyze_ExceptionReorderFix(t *testing.T) {
	call := buildCall("Warning", literalArg(`"{A}"`), valueArg("a"), exceptionArg("ex"))
	got := runAnalyze(t, call)

	var fix *diag.Fix
	for i := range got {
		if got[i].Code == diag.ExceptionNotFirst && len(got[i].Fixes) > 0 {
			fix = &got[i].Fixes[0]
		}
	}
	if fix == nil {
		t.Fatalf("no reorder fix among %+v", got)
	}
	if len(fix.Edits) != 2 {
		t.Fatalf("expected insert + delete, got %+v", fix.Edits)
	}
	if fix.Applicability != diag.FixApplicabilityAlwaysSafe {
		t.Errorf("reorder applicability = %v, want always-safe", fix.Applicability)
	}

	insert := fix.Edits[0]
	if insert.NewText != "ex, " || !insert.Span.Empty() || insert.Span.Start != call.Args[0].Span.Start {
		t.Errorf("insert edit = %+v, want 'ex, ' before template argument", insert)
	}
	del := fix.Edits[1]
	if del.NewText != "" || del.Span.Start != call.Args[1].Span.End || del.Span.End != call.Args[2].Span.End {
		t.Errorf("delete edit = %+v, want separator plus argument removed", del)
	}
}

func TestAnalyze_DedicatedExceptionSlotExempt(t *testing.T) {
	call := buildCall("Error", exceptionArg("ex"), literalArg(`"{A}"`), valueArg("a"))
	if got := runAnalyze(t, call); len(got) != 0 {
		t.Fatalf("expected no diagnostics, got %+v", got)
	}
}

func TestAnalyze_ParseErrorMappedToRawOffsets(t *testing.T) {
	raw := `"\t{Name"`
	call := buildCall("Information", literalArg(raw))
	got := runAnalyze(t, call)
	if len(got) != 1 {
		t.Fatalf("expected one diagnostic, got %+v", got)
	}
	d := got[0]
	if d.Code != diag.ParseError || d.Severity != diag.SevError {
		t.Errorf("code/severity = %v/%v", d.Code, d.Severity)
	}
	if d.Message != "Encountered end of messageTemplate while parsing property" {
		t.Errorf("message = %q", d.Message)
	}
	// Decoded offset 1 (past the tab) is raw offset 3: quote plus 2-byte escape.
	lit := call.Args[0].Span
	want := source.Span{File: 1, Start: lit.Start + 3, End: lit.Start + 8}
	if d.Primary != want {
		t.Errorf("span = %v, want %v", d.Primary, want)
	}
}

func TestAnalyze_VerbatimLiteralNamingFix(t *testing.T) {
	raw := `@"{tester}"`
	call := buildCall("Information", verbatimArg(raw), valueArg("x"))
	got := runAnalyze(t, call)
	if len(got) != 1 {
		t.Fatalf("expected one diagnostic, got %+v", got)
	}
	d := got[0]
	if d.Code != diag.NonPascalCase {
		t.Fatalf("code = %v, want NON_PASCAL_CASE", d.Code)
	}
	lit := call.Args[0].Span
	nameStart := lit.Start + uint32(strings.Index(raw, "tester"))
	want := source.Span{File: 1, Start: nameStart, End: nameStart + 6}
	if d.Primary != want {
		t.Errorf("span = %v, want %v", d.Primary, want)
	}
	if len(d.Fixes) != 1 || len(d.Fixes[0].Edits) != 1 {
		t.Fatalf("fixes = %+v", d.Fixes)
	}
	edit := d.Fixes[0].Edits[0]
	if edit.OldText != "tester" || edit.NewText != "Tester" || edit.Span != want {
		t.Errorf("edit = %+v", edit)
	}
}

func TestShapeTable_Match(t *testing.T) {
	table := DefaultShapes()

	call := buildCall("Error", exceptionArg("ex"), literalArg(`"x"`), valueArg("a"))
	b, ok := table.Match(call)
	if !ok || b.Exception != 0 || b.Template != 1 || len(b.Values) != 1 {
		t.Errorf("exception-leading match = %+v ok=%v", b, ok)
	}

	call = buildCall("Error", literalArg(`"x"`), valueArg("a"), valueArg("b"))
	b, ok = table.Match(call)
	if !ok || b.Exception != -1 || b.Template != 0 || len(b.Values) != 2 {
		t.Errorf("plain match = %+v ok=%v", b, ok)
	}

	if _, ok := table.Match(buildCall("Error")); ok {
		t.Error("zero-argument call should not match")
	}
}

func TestShapeTable_MatchStaticInvocation(t *testing.T) {
	table := DefaultShapes()

	call := buildCall("Warning", valueArg("log"), literalArg(`"x {A}"`), valueArg("a"))
	call.Static = true
	b, ok := table.Match(call)
	if !ok || b.Receiver != 0 || b.Template != 1 || len(b.Values) != 1 {
		t.Errorf("static match = %+v ok=%v", b, ok)
	}

	call = buildCall("Warning", valueArg("log"), exceptionArg("ex"), literalArg(`"x"`))
	call.Static = true
	b, ok = table.Match(call)
	if !ok || b.Receiver != 0 || b.Exception != 1 || b.Template != 2 {
		t.Errorf("static exception match = %+v ok=%v", b, ok)
	}
}

func TestAnalyze_StaticInvocationReorderFix(t *testing.T) {
	call := buildCall("Warning", valueArg("log"), literalArg(`"boom"`), exceptionArg("ex"))
	call.Static = true
	diags := runAnalyze(t, call)
	if len(diags) != 1 || diags[0].Code != diag.ExceptionNotFirst {
		t.Fatalf("diags = %+v", diags)
	}
	if len(diags[0].Fixes) != 1 {
		t.Fatalf("fixes = %+v", diags[0].Fixes)
	}
	// The exception is reinserted after the receiver, not before it.
	insert := diags[0].Fixes[0].Edits[0]
	if insert.Span.Start != call.Args[1].Span.Start {
		t.Errorf("insert at %d, want template start %d", insert.Span.Start, call.Args[1].Span.Start)
	}
}

func TestParseShape(t *testing.T) {
	shape, err := ParseShape("RETV")
	if err != nil {
		t.Fatalf("ParseShape failed: %v", err)
	}
	want := Shape{RoleReceiver, RoleException, RoleTemplate, RoleValues}
	if shape.String() != want.String() {
		t.Errorf("shape = %v, want %v", shape, want)
	}

	for _, bad := range []string{"", "TQ", "VT", "RV"} {
		if _, err := ParseShape(bad); err == nil {
			t.Errorf("ParseShape(%q) should fail", bad)
		}
	}
}
