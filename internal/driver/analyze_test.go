package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"mtlint/internal/config"
	"mtlint/internal/diag"
	"mtlint/internal/scan"
	"mtlint/internal/source"
	"mtlint/internal/testkit"
)

const checkoutSource = `using Serilog;

class Checkout
{
    void Run(ILogger log)
    {
        log.Information("Processed {count} items", 13);
    }
}
`

const billingSource = `using Serilog;

class Billing
{
    void Charge(ILogger log)
    {
        log.Error("Failed {Order}");
    }
}
`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return dir
}

func TestAnalyzeDirGolden(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.cs":        checkoutSource,
		"b.cs":        billingSource,
		"bin/skip.cs": billingSource,
		"notes.txt":   "log.Error(\"Failed {Order}\");",
	})

	result, err := AnalyzeDir(context.Background(), dir, Options{Config: config.Default()})
	if err != nil {
		t.Fatalf("AnalyzeDir: %v", err)
	}

	want := "warning NON_PASCAL_CASE a.cs:7:37 Property name 'count' should be pascal case\n" +
		"error BIND_ERROR b.cs:7:27 There is no argument that corresponds to the named property 'Order'"
	got := diag.FormatGoldenDiagnostics(result.Bag.Items(), result.FileSet, false)
	if got != want {
		t.Fatalf("diagnostics mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}

	if len(result.Files) != 2 {
		t.Fatalf("expected 2 analyzed files, got %d", len(result.Files))
	}
	for _, fr := range result.Files {
		if fr.FromCache {
			t.Fatalf("file %s unexpectedly served from cache", fr.Path)
		}
	}

	if err := testkit.CheckDiagnosticInvariants(result.Bag, result.FileSet); err != nil {
		t.Fatalf("invariants: %v", err)
	}

	if len(result.Timings.Phases) == 0 || result.Timings.TotalMS < 0 {
		t.Fatalf("timings not recorded: %+v", result.Timings)
	}
}

func TestAnalyzeDirSeverityAndSuppress(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.cs": checkoutSource,
		"b.cs": billingSource,
	})

	cfg := config.Default()
	cfg.Severity = map[string]string{"NON_PASCAL_CASE": "error"}
	cfg.Suppress = []string{"BIND_ERROR"}

	result, err := AnalyzeDir(context.Background(), dir, Options{Config: cfg})
	if err != nil {
		t.Fatalf("AnalyzeDir: %v", err)
	}

	want := "error NON_PASCAL_CASE a.cs:7:37 Property name 'count' should be pascal case"
	got := diag.FormatGoldenDiagnostics(result.Bag.Items(), result.FileSet, false)
	if got != want {
		t.Fatalf("diagnostics mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestAnalyzeFilesDeterministic(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.cs": checkoutSource,
		"b.cs": billingSource,
	})

	// Paths deliberately out of order; results must come back sorted.
	paths := []string{
		filepath.Join(dir, "b.cs"),
		filepath.Join(dir, "a.cs"),
	}

	var outputs []string
	for run := 0; run < 2; run++ {
		result, err := AnalyzeFiles(context.Background(), dir, paths, Options{Config: config.Default()})
		if err != nil {
			t.Fatalf("AnalyzeFiles run %d: %v", run, err)
		}
		if len(result.Files) != 2 {
			t.Fatalf("run %d: expected 2 files, got %d", run, len(result.Files))
		}
		if got := filepath.Base(result.Files[0].Path); got != "a.cs" {
			t.Fatalf("run %d: first file %s, want a.cs", run, got)
		}
		outputs = append(outputs, diag.FormatGoldenDiagnostics(result.Bag.Items(), result.FileSet, false))
	}
	if outputs[0] != outputs[1] {
		t.Fatalf("runs disagree\nfirst:\n%s\nsecond:\n%s", outputs[0], outputs[1])
	}
}

func TestAnalyzeDirProgress(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.cs": checkoutSource,
		"b.cs": billingSource,
	})

	var events []Event
	_, err := AnalyzeDir(context.Background(), dir, Options{
		Config: config.Default(),
		Jobs:   1,
		Progress: func(ev Event) {
			events = append(events, ev)
		},
	})
	if err != nil {
		t.Fatalf("AnalyzeDir: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 progress events, got %d", len(events))
	}
	seen := map[string]bool{}
	for i, ev := range events {
		if ev.Index != i+1 {
			t.Errorf("event %d: index %d, want %d", i, ev.Index, i+1)
		}
		if ev.Total != 2 {
			t.Errorf("event %d: total %d, want 2", i, ev.Total)
		}
		seen[filepath.Base(ev.Path)] = true
	}
	if !seen["a.cs"] || !seen["b.cs"] {
		t.Fatalf("progress events missed a file: %v", seen)
	}
}

func TestAnalyzeFilesLoadError(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.cs")

	result, err := AnalyzeFiles(context.Background(), dir, []string{missing}, Options{Config: config.Default()})
	if err != nil {
		t.Fatalf("AnalyzeFiles: %v", err)
	}

	if len(result.Files) != 1 {
		t.Fatalf("expected 1 file result, got %d", len(result.Files))
	}
	items := result.Files[0].Bag.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(items))
	}
	if items[0].Code != diag.IOError {
		t.Fatalf("code = %s, want IO_ERROR", items[0].Code.ID())
	}
	if items[0].Severity != diag.SevError {
		t.Fatalf("severity = %s, want error", items[0].Severity)
	}
	if !result.Bag.HasErrors() {
		t.Fatal("merged bag should contain the load error")
	}
}

func TestAnalyzeDirEmpty(t *testing.T) {
	dir := t.TempDir()
	result, err := AnalyzeDir(context.Background(), dir, Options{Config: config.Default()})
	if err != nil {
		t.Fatalf("AnalyzeDir: %v", err)
	}
	if len(result.Files) != 0 {
		t.Fatalf("expected no files, got %d", len(result.Files))
	}
	if len(result.Bag.Items()) != 0 {
		t.Fatalf("expected empty bag, got %d diagnostics", len(result.Bag.Items()))
	}
}

func TestAnalyzeFileRepeatReportsDeduped(t *testing.T) {
	cfg := config.Default()
	fileSet := source.NewFileSet()
	id := fileSet.Add("a.cs", []byte(checkoutSource), 0)
	file := fileSet.Get(id)

	table := cfg.ShapeTable()
	scanOpts := scan.Options{
		ExceptionIdents: cfg.ExceptionIdents(),
		StaticClasses:   cfg.StaticInvocationClasses(),
	}

	bag := diag.NewBag(16)
	r := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	AnalyzeFile(file, table, scanOpts, r)
	first := bag.Len()
	if first == 0 {
		t.Fatal("expected at least one diagnostic")
	}

	AnalyzeFile(file, table, scanOpts, r)
	if bag.Len() != first {
		t.Errorf("repeat analysis grew the bag from %d to %d", first, bag.Len())
	}
}
