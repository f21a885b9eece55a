// Package diag defines the diagnostic model shared by the analysis core and
// the CLI host.
//
// Diagnostic is the central record: a Severity, a stable Code, a message, a
// primary source.Span, optional Notes with secondary spans, and optional Fix
// records describing automated corrections as concrete text edits.
//
// Producers emit through a Reporter so they stay decoupled from storage and
// formatting. BagReporter aggregates into a Bag, which supports sorting,
// deduplication, and filtering; DedupReporter suppresses exact duplicates at
// the emission boundary. Rendering lives in internal/diagfmt, fix application
// in internal/fix.
//
// The package is data-only: no IO, no formatting, no global state. Every
// value is created fresh per analyzed call site and never mutated after
// emission, which is what lets the driver analyze files concurrently with no
// synchronization around the core.
package diag
