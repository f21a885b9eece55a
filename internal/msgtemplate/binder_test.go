package msgtemplate

import (
	"testing"

	"mtlint/internal/diag"
	"mtlint/internal/source"
)

// testSpanOf maps decoded template offsets straight through, file 1.
func testSpanOf(start, length int) source.Span {
	return source.Span{File: 1, Start: uint32(start), End: uint32(start + length)}
}

// argAt builds an argument whose span starts at the given offset in file 2.
func argAt(text string, off int) Argument {
	return Argument{
		Text: text,
		Span: source.Span{File: 2, Start: uint32(off), End: uint32(off + len(text))},
	}
}

func runBind(t *testing.T, template string, args ...Argument) []diag.Diagnostic {
	t.Helper()
	segs := mustParse(t, template)
	bag := diag.NewBag(64)
	Bind(segs, args, testSpanOf, diag.BagReporter{Bag: bag})
	return bag.Items()
}

func TestBind_BalancedNamed(t *testing.T) {
	got := runBind(t, "{User} did {Action} {Subject}",
		argAt(`"tester"`, 0), argAt(`"knock over"`, 10), argAt(`"a sack of rice"`, 24))
	if len(got) != 0 {
		t.Fatalf("expected no diagnostics, got %+v", got)
	}
}

func TestBind_NoPropertiesNoArguments(t *testing.T) {
	if got := runBind(t, "Hello World"); len(got) != 0 {
		t.Fatalf("expected no diagnostics, got %+v", got)
	}
}

func TestBind_MissingArgument(t *testing.T) {
	got := runBind(t, "{A} {B}", argAt("a", 0))
	if len(got) != 1 {
		t.Fatalf("expected one diagnostic, got %+v", got)
	}
	d := got[0]
	if d.Code != diag.BindError {
		t.Errorf("code = %v, want BIND_ERROR", d.Code)
	}
	if d.Message != "There is no argument that corresponds to the named property 'B'" {
		t.Errorf("message = %q", d.Message)
	}
	if d.Primary != testSpanOf(4, 3) {
		t.Errorf("span = %v, want property span %v", d.Primary, testSpanOf(4, 3))
	}
}

func TestBind_SurplusArguments(t *testing.T) {
	a1, a2 := argAt("b", 10), argAt("c", 20)
	got := runBind(t, "{A}", argAt("a", 0), a1, a2)
	if len(got) != 2 {
		t.Fatalf("expected two diagnostics, got %+v", got)
	}
	for i, want := range []Argument{a1, a2} {
		if got[i].Message != "There is no named property that corresponds to this argument" {
			t.Errorf("message[%d] = %q", i, got[i].Message)
		}
		if got[i].Primary != want.Span {
			t.Errorf("span[%d] = %v, want %v", i, got[i].Primary, want.Span)
		}
	}
}

func TestBind_SurplusArgumentWithoutAnyProperty(t *testing.T) {
	got := runBind(t, "Hello World", argAt("ex", 0))
	if len(got) != 1 {
		t.Fatalf("expected one diagnostic, got %+v", got)
	}
	if got[0].Message != "There is no property that corresponds to this argument" {
		t.Errorf("message = %q", got[0].Message)
	}
}

func TestBind_MixedModeSingleError(t *testing.T) {
	got := runBind(t, "{Name} {0}", argAt("a", 0))
	if len(got) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %+v", got)
	}
	d := got[0]
	if d.Message != "Positional properties are not allowed, when named properties are being used" {
		t.Errorf("message = %q", d.Message)
	}
	if d.Primary != testSpanOf(7, 3) {
		t.Errorf("span = %v, want first positional span %v", d.Primary, testSpanOf(7, 3))
	}
}

func TestBind_MixedModeFallsBackToNamedCounting(t *testing.T) {
	// One named property, two arguments: the positional hole is ignored and
	// the second argument is surplus against the single named property.
	surplus := argAt("b", 10)
	got := runBind(t, "{0} {Name}", argAt("a", 0), surplus)
	if len(got) != 2 {
		t.Fatalf("expected two diagnostics, got %+v", got)
	}
	if got[0].Message != "Positional properties are not allowed, when named properties are being used" {
		t.Errorf("first message = %q", got[0].Message)
	}
	if got[1].Message != "There is no named property that corresponds to this argument" {
		t.Errorf("second message = %q", got[1].Message)
	}
	if got[1].Primary != surplus.Span {
		t.Errorf("second span = %v, want %v", got[1].Primary, surplus.Span)
	}
}

func TestBind_PositionalBalanced(t *testing.T) {
	got := runBind(t, "{0} {1} {0}", argAt("a", 0), argAt("b", 10))
	if len(got) != 0 {
		t.Fatalf("expected no diagnostics, got %+v", got)
	}
}

func TestBind_PositionalMissingArgument(t *testing.T) {
	got := runBind(t, "{1}", argAt("a", 0))
	if len(got) != 1 {
		t.Fatalf("expected one diagnostic, got %+v", got)
	}
	if got[0].Message != "There is no argument that corresponds to the positional property 1" {
		t.Errorf("message = %q", got[0].Message)
	}
	if got[0].Primary != testSpanOf(0, 3) {
		t.Errorf("span = %v, want %v", got[0].Primary, testSpanOf(0, 3))
	}
}

func TestBind_PositionalSurplusArgument(t *testing.T) {
	second := argAt(`"Tester"`, 10)
	got := runBind(t, "{0}", argAt(`"Mr."`, 0), second)
	if len(got) != 1 {
		t.Fatalf("expected one diagnostic, got %+v", got)
	}
	if got[0].Message != "There is no positional property that corresponds to this argument" {
		t.Errorf("message = %q", got[0].Message)
	}
	if got[0].Primary != second.Span {
		t.Errorf("span = %v, want second argument %v", got[0].Primary, second.Span)
	}
}

func TestBind_PositionalGapArgument(t *testing.T) {
	// {0} {2} with three arguments: the middle argument has no hole.
	middle := argAt("b", 10)
	got := runBind(t, "{0} {2}", argAt("a", 0), middle, argAt("c", 20))
	if len(got) != 1 {
		t.Fatalf("expected one diagnostic, got %+v", got)
	}
	if got[0].Message != "There is no positional property that corresponds to this argument" {
		t.Errorf("message = %q", got[0].Message)
	}
	if got[0].Primary != middle.Span {
		t.Errorf("span = %v, want middle argument %v", got[0].Primary, middle.Span)
	}
}
