package msgtemplate

import (
	"fmt"

	"mtlint/internal/diag"
	"mtlint/internal/source"
)

// Argument describes one value-bearing call argument after the template.
type Argument struct {
	Text        string
	IsException bool
	Span        source.Span
}

// SpanFunc maps a range in the decoded template string back to a span in the
// original source literal.
type SpanFunc func(start, length int) source.Span

// Bind checks that template properties and trailing arguments correspond.
// Binding is strictly by count and position: named properties bind to
// arguments by ordinal position in the trailing-argument list, never by
// matching names against argument text.
func Bind(segments []Segment, args []Argument, spanOf SpanFunc, r diag.Reporter) {
	var named, positional []Property
	for _, p := range Properties(segments) {
		if p.Kind == Positional {
			positional = append(positional, p)
		} else {
			named = append(named, p)
		}
	}

	if len(positional) > 0 && len(named) > 0 {
		first := positional[0]
		diag.Report(r, diag.BindError, spanOf(first.Start, first.Length),
			"Positional properties are not allowed, when named properties are being used").Emit()
		// Fall back to named mode, counting only the named properties.
		bindNamed(named, args, spanOf, r)
		return
	}
	if len(positional) > 0 {
		bindPositional(positional, args, spanOf, r)
		return
	}
	bindNamed(named, args, spanOf, r)
}

func bindNamed(named []Property, args []Argument, spanOf SpanFunc, r diag.Reporter) {
	for i, p := range named {
		if i >= len(args) {
			diag.Report(r, diag.BindError, spanOf(p.Start, p.Length),
				fmt.Sprintf("There is no argument that corresponds to the named property '%s'", p.Name)).Emit()
		}
	}
	surplusMsg := "There is no named property that corresponds to this argument"
	if len(named) == 0 {
		surplusMsg = "There is no property that corresponds to this argument"
	}
	for i := len(named); i < len(args); i++ {
		diag.Report(r, diag.BindError, args[i].Span, surplusMsg).Emit()
	}
}

func bindPositional(positional []Property, args []Argument, spanOf SpanFunc, r diag.Reporter) {
	referenced := make(map[int]bool, len(positional))
	for _, p := range positional {
		if p.Index >= len(args) {
			diag.Report(r, diag.BindError, spanOf(p.Start, p.Length),
				fmt.Sprintf("There is no argument that corresponds to the positional property %d", p.Index)).Emit()
		}
		referenced[p.Index] = true
	}
	for i, a := range args {
		if !referenced[i] {
			diag.Report(r, diag.BindError, a.Span,
				"There is no positional property that corresponds to this argument").Emit()
		}
	}
}
