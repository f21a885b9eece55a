package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"mtlint/internal/diag"
	"mtlint/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan, color.Bold)
	caretColor   = color.New(color.FgGreen)
)

// Pretty renders diagnostics for humans, one block per diagnostic:
//
//	<path>:<line>:<col>: <severity> <CODE>: <message>
//	  <source line>
//	  <caret underline>
//
// followed by notes and fix titles when enabled. The bag is printed in its
// current order; call bag.Sort() first for deterministic output.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		prettyOne(w, d, fs, opts)
	}
}

func prettyOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	fmt.Fprintf(w, "%s: %s %s: %s\n",
		position(fs, d.Primary, opts.PathMode),
		severityLabel(d.Severity, opts.Color),
		d.Code.ID(),
		d.Message)
	writeContext(w, fs, d.Primary, opts.Color)

	if opts.ShowNotes {
		for _, note := range d.Notes {
			fmt.Fprintf(w, "%s: note: %s\n", position(fs, note.Span, opts.PathMode), note.Msg)
		}
	}
	if opts.ShowFixes {
		for _, f := range d.Fixes {
			suffix := ""
			if f.IsPreferred {
				suffix = " (preferred)"
			}
			fmt.Fprintf(w, "  fix: %s%s\n", f.Title, suffix)
		}
	}
}

func position(fs *source.FileSet, span source.Span, mode PathMode) string {
	f := fs.Get(span.File)
	if f == nil {
		return fmt.Sprintf("<unknown>:%d", span.Start)
	}
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", formatPath(f, fs, mode), start.Line, start.Col)
}

func formatPath(f *source.File, fs *source.FileSet, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	}
	return f.FormatPath("auto", fs.BaseDir())
}

// writeContext prints the source line the span starts on with a caret
// underline. A span reaching past the line end is clamped to it.
func writeContext(w io.Writer, fs *source.FileSet, span source.Span, colored bool) {
	f := fs.Get(span.File)
	if f == nil {
		return
	}
	start, end := fs.Resolve(span)
	line := f.GetLine(start.Line)
	if line == "" && span.Len() == 0 {
		return
	}

	display := strings.ReplaceAll(line, "\t", "    ")
	fmt.Fprintf(w, "  %s\n", display)

	col := int(start.Col) - 1
	if col > len(line) {
		col = len(line)
	}
	prefixWidth := runewidth.StringWidth(strings.ReplaceAll(line[:col], "\t", "    "))

	length := 1
	if end.Line == start.Line && end.Col > start.Col {
		hi := int(end.Col) - 1
		if hi > len(line) {
			hi = len(line)
		}
		if hi > col {
			length = runewidth.StringWidth(line[col:hi])
		}
	} else if end.Line > start.Line {
		// Multi-line span: underline to the end of the first line.
		if rest := runewidth.StringWidth(line[col:]); rest > 1 {
			length = rest
		}
	}

	underline := "^"
	if length > 1 {
		underline += strings.Repeat("~", length-1)
	}
	if colored {
		underline = caretColor.Sprint(underline)
	}
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", prefixWidth), underline)
}

func severityLabel(sev diag.Severity, colored bool) string {
	label := sev.String()
	if !colored {
		return label
	}
	switch sev {
	case diag.SevError:
		return errorColor.Sprint(label)
	case diag.SevWarning:
		return warningColor.Sprint(label)
	default:
		return infoColor.Sprint(label)
	}
}

// Summary prints the closing count line after the diagnostic blocks.
func Summary(w io.Writer, bag *diag.Bag, colored bool) {
	errs, warns := 0, 0
	for _, d := range bag.Items() {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		}
	}
	if errs == 0 && warns == 0 {
		return
	}
	parts := make([]string, 0, 2)
	if errs > 0 {
		label := fmt.Sprintf("%d error(s)", errs)
		if colored {
			label = errorColor.Sprint(label)
		}
		parts = append(parts, label)
	}
	if warns > 0 {
		label := fmt.Sprintf("%d warning(s)", warns)
		if colored {
			label = warningColor.Sprint(label)
		}
		parts = append(parts, label)
	}
	fmt.Fprintf(w, "%s\n", strings.Join(parts, ", "))
}
