// Package callsite ties the per-call analysis together: it resolves which
// argument is the template, decodes the literal, runs the parser, binder and
// naming checks, and maps every finding back to raw source offsets.
package callsite

import (
	"fmt"

	"mtlint/internal/diag"
	"mtlint/internal/fix"
	"mtlint/internal/msgtemplate"
	"mtlint/internal/source"
	"mtlint/internal/strlit"
)

// Arg is one call argument as extracted from source.
type Arg struct {
	// Text is the argument's source expression, for diagnostic messages.
	Text string
	Span source.Span

	// IsStringLiteral marks a plain or verbatim string literal; Raw then
	// holds the literal's full source text including quotes and prefix.
	IsStringLiteral bool
	Verbatim        bool
	Raw             string

	// IsConstantEmpty marks String.Empty / string.Empty.
	IsConstantEmpty bool

	// IsException marks an argument whose static type is an exception.
	IsException bool
}

// Call is one template-consuming invocation.
type Call struct {
	Method string
	Span   source.Span
	Args   []Arg
	// Static marks an extension-style invocation through a static class, so
	// the first argument is the logger rather than a template or exception.
	Static bool
}

// Analyze runs every check against one call site and reports the findings.
// The call is analyzed in isolation; Analyze keeps no state between calls and
// is safe to run concurrently across independent call sites.
func Analyze(call Call, table *ShapeTable, r diag.Reporter) {
	binding, ok := table.Match(call)
	if !ok {
		return
	}

	checkExceptionPosition(call, binding, r)

	tmpl := call.Args[binding.Template]
	decoded, spanOf, rawText, ok := decodeTemplate(tmpl)
	if !ok {
		diag.Report(r, diag.NonConstantTemplate, tmpl.Span,
			fmt.Sprintf("MessageTemplate argument %s is not constant", tmpl.Text)).Emit()
		return
	}

	segments, perr := msgtemplate.Parse(decoded)
	if perr != nil {
		diag.Report(r, diag.ParseError, spanOf(perr.Start, perr.Length), perr.Message).Emit()
		return
	}

	values := make([]msgtemplate.Argument, 0, len(binding.Values))
	for _, vi := range binding.Values {
		a := call.Args[vi]
		values = append(values, msgtemplate.Argument{
			Text:        a.Text,
			IsException: a.IsException,
			Span:        a.Span,
		})
	}

	msgtemplate.Bind(segments, values, spanOf, r)
	msgtemplate.CheckNaming(segments, spanOf, rawText, r)
}

// decodeTemplate yields the decoded template string plus the two offset
// translators, or ok=false when the argument is not a constant string.
func decodeTemplate(tmpl Arg) (decoded string, spanOf msgtemplate.SpanFunc, rawText func(source.Span) string, ok bool) {
	if tmpl.IsConstantEmpty {
		spanOf = func(int, int) source.Span {
			return source.Span{File: tmpl.Span.File, Start: tmpl.Span.Start, End: tmpl.Span.Start}
		}
		return "", spanOf, nil, true
	}
	if !tmpl.IsStringLiteral {
		return "", nil, nil, false
	}
	decoded, valid := strlit.Decode(tmpl.Raw, tmpl.Verbatim)
	if !valid {
		// Malformed literal; the compiler owns that complaint.
		return "", nil, nil, false
	}
	spanOf = func(start, length int) source.Span {
		rawStart, rawLen := strlit.MapSpan(tmpl.Raw, tmpl.Verbatim, start, length)
		return tmpl.Span.Slice(uint32(rawStart), uint32(rawLen))
	}
	rawText = func(sp source.Span) string {
		if sp.File != tmpl.Span.File || sp.Start < tmpl.Span.Start || sp.End > tmpl.Span.End {
			return ""
		}
		lo := sp.Start - tmpl.Span.Start
		hi := sp.End - tmpl.Span.Start
		if hi > uint32(len(tmpl.Raw)) {
			return ""
		}
		return tmpl.Raw[lo:hi]
	}
	return decoded, spanOf, rawText, true
}

// checkExceptionPosition flags exception-typed value arguments. Arguments
// bound to a dedicated exception slot are exempt.
func checkExceptionPosition(call Call, binding Binding, r diag.Reporter) {
	for _, vi := range binding.Values {
		a := call.Args[vi]
		if !a.IsException {
			continue
		}
		b := diag.Report(r, diag.ExceptionNotFirst, a.Span,
			fmt.Sprintf("The exception '%s' should be passed as first argument", a.Text))
		if fix, ok := moveExceptionFirstFix(call, binding, vi); ok {
			b.WithFixSuggestion(fix)
		}
		b.Emit()
	}
}

// moveExceptionFirstFix removes the exception argument from its position and
// reinserts it as the call's first argument (after an explicit receiver),
// leaving the other arguments in order.
func moveExceptionFirstFix(call Call, binding Binding, vi int) (diag.Fix, bool) {
	first := 0
	if binding.Receiver >= 0 {
		first = binding.Receiver + 1
	}
	if vi <= first || vi == 0 || first >= len(call.Args) {
		return diag.Fix{}, false
	}
	arg := call.Args[vi]
	prev := call.Args[vi-1]
	if arg.Span.File != prev.Span.File || prev.Span.End > arg.Span.End {
		return diag.Fix{}, false
	}
	// The deletion starts at the previous argument's end so the separator
	// goes with the argument.
	from := source.Span{File: arg.Span.File, Start: prev.Span.End, End: arg.Span.End}
	return fix.MoveText(
		fmt.Sprintf("Move '%s' to first argument", arg.Text),
		from, call.Args[first].Span, arg.Text+", ",
		fix.WithID("exception-first"), fix.Preferred(),
		fix.WithApplicability(diag.FixApplicabilityAlwaysSafe)), true
}
