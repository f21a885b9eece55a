// Package driver orchestrates analysis runs: file discovery, parallel
// per-file analysis, config-driven severity mapping, and the diagnostics
// cache.
package driver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"mtlint/internal/callsite"
	"mtlint/internal/config"
	"mtlint/internal/diag"
	"mtlint/internal/observ"
	"mtlint/internal/scan"
	"mtlint/internal/source"
)

// Options configures an analysis run.
type Options struct {
	Config         config.Config
	MaxDiagnostics int
	Jobs           int
	// Cache is the diagnostics cache; nil disables caching.
	Cache *DiskCache
	// NeedFixes bypasses the cache entirely, because cached diagnostics
	// carry no fix edits.
	NeedFixes bool
	// Progress, when set, is called once per completed file. It may be
	// called from multiple goroutines, one call at a time.
	Progress func(Event)
}

// Event reports one completed file during a run.
type Event struct {
	Path      string
	Index     int
	Total     int
	FromCache bool
}

// FileResult is the outcome for a single file.
type FileResult struct {
	Path      string
	FileID    source.FileID
	Bag       *diag.Bag
	FromCache bool
}

// Result is a completed analysis run.
type Result struct {
	FileSet *source.FileSet
	Files   []FileResult
	// Bag merges every file's diagnostics in deterministic order.
	Bag *diag.Bag
	// Timings reports per-phase durations for the run.
	Timings observ.Report
}

const defaultMaxDiagnostics = 256

// AnalyzeFile runs every check against one already loaded file. The scan
// options' IsMethod is always taken from the table.
func AnalyzeFile(file *source.File, table *callsite.ShapeTable, scanOpts scan.Options, r diag.Reporter) {
	scanOpts.IsMethod = table.Known
	for _, call := range scan.File(file, scanOpts) {
		callsite.Analyze(call, table, r)
	}
}

// AnalyzeDir discovers source files under dir per the config's scan settings
// and analyzes them in parallel.
func AnalyzeDir(ctx context.Context, dir string, opts Options) (*Result, error) {
	files, err := listSourceFiles(dir, opts.Config)
	if err != nil {
		return nil, err
	}
	return analyzePaths(ctx, source.NewFileSetWithBase(dir), files, opts)
}

// AnalyzeFiles analyzes an explicit list of files.
func AnalyzeFiles(ctx context.Context, baseDir string, paths []string, opts Options) (*Result, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	return analyzePaths(ctx, source.NewFileSetWithBase(baseDir), sorted, opts)
}

// ListSourceFiles returns the sorted list of files AnalyzeDir would visit.
func ListSourceFiles(dir string, cfg config.Config) ([]string, error) {
	return listSourceFiles(dir, cfg)
}

// listSourceFiles returns a sorted list of files matching the scan settings.
func listSourceFiles(dir string, cfg config.Config) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && cfg.ExcludesDir(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if cfg.WantsExtension(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func analyzePaths(ctx context.Context, fileSet *source.FileSet, files []string, opts Options) (*Result, error) {
	maxDiagnostics := opts.MaxDiagnostics
	if maxDiagnostics <= 0 {
		maxDiagnostics = defaultMaxDiagnostics
	}

	result := &Result{
		FileSet: fileSet,
		Files:   make([]FileResult, len(files)),
		Bag:     diag.NewBag(maxDiagnostics),
	}
	if len(files) == 0 {
		return result, nil
	}

	timer := observ.NewTimer()
	loadPhase := timer.Begin("load")

	// Loading is sequential so FileIDs are assigned deterministically.
	fileIDs := make(map[string]source.FileID, len(files))
	loadErrors := make(map[string]error, len(files))
	for _, path := range files {
		id, err := fileSet.Load(path)
		if err != nil {
			loadErrors[path] = err
			continue
		}
		fileIDs[path] = id
	}
	timer.End(loadPhase, fmt.Sprintf("%d files", len(files)))

	cfg := opts.Config
	table := cfg.ShapeTable()
	scanOpts := scan.Options{
		ExceptionIdents: cfg.ExceptionIdents(),
		StaticClasses:   cfg.StaticInvocationClasses(),
	}
	overrides := cfg.SeverityOverrides()
	suppressed := cfg.Suppressed()

	var configHash Digest
	cache := opts.Cache
	if opts.NeedFixes {
		cache = nil
	}
	if cache != nil {
		configHash, _ = cfg.Hash()
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	var progressMu sync.Mutex
	done := 0
	report := func(path string, fromCache bool) {
		if opts.Progress == nil {
			return
		}
		progressMu.Lock()
		done++
		opts.Progress(Event{Path: path, Index: done, Total: len(files), FromCache: fromCache})
		progressMu.Unlock()
	}

	analyzePhase := timer.Begin("analyze")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			bag := diag.NewBag(maxDiagnostics)

			if loadErr, failed := loadErrors[path]; failed {
				bag.Add(diag.NewError(diag.IOError, source.Span{},
					"failed to load file: "+loadErr.Error()))
				result.Files[i] = FileResult{Path: path, Bag: bag}
				report(path, false)
				return nil
			}

			fileID := fileIDs[path]
			file := fileSet.Get(fileID)
			fromCache := false

			key := CacheKey(file.Hash, configHash)
			if cache != nil {
				var payload DiskPayload
				if ok, err := cache.Get(key, &payload); err == nil && ok {
					UnpackDiagnostics(&payload, fileID, bag)
					fromCache = true
				}
			}

			if !fromCache {
				AnalyzeFile(file, table, scanOpts, diag.NewDedupReporter(diag.BagReporter{Bag: bag}))
				applyConfig(bag, overrides, suppressed)
				bag.Sort()
				if cache != nil {
					// Best effort; a failed write only costs the next run.
					_ = cache.Put(key, PackDiagnostics(bag))
				}
			}

			result.Files[i] = FileResult{
				Path:      path,
				FileID:    fileID,
				Bag:       bag,
				FromCache: fromCache,
			}
			report(path, fromCache)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}

	cached := 0
	for _, fr := range result.Files {
		if fr.FromCache {
			cached++
		}
		if fr.Bag != nil {
			result.Bag.Merge(fr.Bag)
		}
	}
	timer.End(analyzePhase, fmt.Sprintf("%d cached", cached))
	result.Bag.Sort()
	result.Timings = timer.Report()
	return result, nil
}

// applyConfig rewrites severities per the overrides and drops suppressed
// codes.
func applyConfig(bag *diag.Bag, overrides map[diag.Code]diag.Severity, suppressed map[diag.Code]bool) {
	if len(suppressed) > 0 {
		bag.Filter(func(d diag.Diagnostic) bool {
			return !suppressed[d.Code]
		})
	}
	if len(overrides) > 0 {
		bag.Transform(func(d *diag.Diagnostic) {
			if sev, ok := overrides[d.Code]; ok {
				d.Severity = sev
			}
		})
	}
}
