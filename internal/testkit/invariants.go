// Package testkit holds invariant checks shared by tests across packages.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"mtlint/internal/diag"
	"mtlint/internal/source"
)

// CheckDiagnosticInvariants runs a minimal set of invariants over a bag:
// 1) every diagnostic carries a known code and a valid severity
// 2) every non-empty primary span points at a loaded file and stays within
//    its content bounds
// 3) note and fix edit spans obey the same bounds as the primary span
func CheckDiagnosticInvariants(bag *diag.Bag, fs *source.FileSet) error {
	if bag == nil || fs == nil {
		return fmt.Errorf("nil bag or file set")
	}
	for i, d := range bag.Items() {
		if d.Code == diag.UnknownCode {
			return fmt.Errorf("diagnostic %d has no code", i)
		}
		if d.Severity != diag.SevError && d.Severity != diag.SevWarning && d.Severity != diag.SevInfo {
			return fmt.Errorf("diagnostic %d has invalid severity %d", i, d.Severity)
		}
		if err := checkSpan(fs, d.Primary); err != nil {
			return fmt.Errorf("diagnostic %d (%s): primary span: %w", i, d.Code.ID(), err)
		}
		for j, note := range d.Notes {
			if err := checkSpan(fs, note.Span); err != nil {
				return fmt.Errorf("diagnostic %d (%s): note %d: %w", i, d.Code.ID(), j, err)
			}
		}
		for j, fx := range d.Fixes {
			for k, edit := range fx.Edits {
				if err := checkSpan(fs, edit.Span); err != nil {
					return fmt.Errorf("diagnostic %d (%s): fix %d edit %d: %w", i, d.Code.ID(), j, k, err)
				}
			}
		}
	}
	return nil
}

func checkSpan(fs *source.FileSet, sp source.Span) error {
	if sp.File == 0 {
		return nil
	}
	if sp.End < sp.Start {
		return fmt.Errorf("span is inverted: %v", sp)
	}
	file := fs.Get(sp.File)
	if file == nil {
		return fmt.Errorf("span points at unknown file id %d", sp.File)
	}
	lenContent, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if sp.End > lenContent {
		return fmt.Errorf("span end beyond content: %d > %d", sp.End, lenContent)
	}
	return nil
}
