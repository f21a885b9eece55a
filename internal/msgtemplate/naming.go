package msgtemplate

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mtlint/internal/diag"
	"mtlint/internal/fix"
	"mtlint/internal/source"
)

var pascalCaser = cases.Title(language.English, cases.NoLower)

// PascalCase uppercases the leading letter of a property name without
// touching the rest.
func PascalCase(name string) string {
	return pascalCaser.String(name)
}

// CheckNaming runs the style checks over every named property in the
// template, regardless of how binding went: duplicate names are errors,
// lowercase leading letters are warnings with a rename fix attached.
// rawText resolves a source span to its current text and may be nil, in
// which case rename fixes carry no old-text guard.
func CheckNaming(segments []Segment, spanOf SpanFunc, rawText func(source.Span) string, r diag.Reporter) {
	seen := make(map[string]bool)
	for _, p := range Properties(segments) {
		if p.Kind != Named {
			continue
		}
		nameSpan := spanOf(p.NameStart(), len(p.Name))

		if seen[p.Name] {
			diag.Report(r, diag.DuplicateName, nameSpan,
				fmt.Sprintf("Property name '%s' is not unique in this MessageTemplate", p.Name)).Emit()
		}
		seen[p.Name] = true

		if c := p.Name[0]; c >= 'a' && c <= 'z' {
			guard := ""
			if rawText != nil {
				guard = rawText(nameSpan)
			}
			// Other call sites may log the same property name.
			rename := fix.ReplaceSpan(
				fmt.Sprintf("Rename property to '%s'", PascalCase(p.Name)),
				nameSpan, PascalCase(p.Name), guard,
				fix.WithID("pascal-case"), fix.Preferred(),
				fix.WithApplicability(diag.FixApplicabilitySafeWithHeuristics))
			diag.Report(r, diag.NonPascalCase, nameSpan,
				fmt.Sprintf("Property name '%s' should be pascal case", p.Name)).
				WithFixSuggestion(rename).Emit()
		}
	}
}
