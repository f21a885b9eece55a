package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mtlint/internal/config"
	"mtlint/internal/diag"
	"mtlint/internal/diagfmt"
	"mtlint/internal/driver"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] <file.cs|directory>",
	Short: "Analyze logging call sites in C# sources",
	Long:  `Scan C# source files for structured-logging call sites and report message template problems: parse errors, argument mismatches, duplicate or badly cased property names, and misplaced exceptions`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("format", "pretty", "output format (pretty|json|sarif|short)")
	analyzeCmd.Flags().String("config", "", "path to mtlint.toml (default: walk up from the target)")
	analyzeCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	analyzeCmd.Flags().Bool("no-cache", false, "disable the diagnostics disk cache")
	analyzeCmd.Flags().String("cache-dir", "", "override the disk cache directory")
	analyzeCmd.Flags().Bool("no-warnings", false, "ignore warnings in diagnostics")
	analyzeCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	analyzeCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	analyzeCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	analyzeCmd.Flags().String("ui", "auto", "interactive progress view (auto|on|off)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	targetPath := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "pretty", "json", "sarif", "short":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	cacheDir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return fmt.Errorf("failed to get cache-dir flag: %w", err)
	}
	noWarnings, err := cmd.Flags().GetBool("no-warnings")
	if err != nil {
		return fmt.Errorf("failed to get no-warnings flag: %w", err)
	}
	warningsAsErrors, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	if noWarnings && warningsAsErrors {
		return fmt.Errorf("no-warnings and warnings-as-errors flags cannot be used together")
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	suggest, err := cmd.Flags().GetBool("suggest")
	if err != nil {
		return fmt.Errorf("failed to get suggest flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	pathModeFlag, err := cmd.Root().PersistentFlags().GetString("path-mode")
	if err != nil {
		return fmt.Errorf("failed to get path-mode flag: %w", err)
	}

	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	st, err := os.Stat(targetPath)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	cfg, err := loadConfig(cmd, targetPath, st.IsDir())
	if err != nil {
		return err
	}

	cleanup, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := driver.Options{
		Config:         cfg,
		MaxDiagnostics: maxDiagnostics,
		Jobs:           jobs,
		NeedFixes:      suggest,
	}
	if !noCache {
		cache, cacheErr := openCache(cacheDir)
		if cacheErr != nil {
			if !quiet {
				fmt.Fprintf(os.Stderr, "warning: disk cache unavailable: %v\n", cacheErr)
			}
		} else {
			opts.Cache = cache
		}
	}

	var (
		files []string
		run   func(driver.Options) (*driver.Result, error)
	)
	if st.IsDir() {
		files, err = driver.ListSourceFiles(targetPath, cfg)
		if err != nil {
			return fmt.Errorf("failed to list source files: %w", err)
		}
		run = func(o driver.Options) (*driver.Result, error) {
			return driver.AnalyzeDir(cmd.Context(), targetPath, o)
		}
	} else {
		files = []string{targetPath}
		baseDir := filepath.Dir(targetPath)
		run = func(o driver.Options) (*driver.Result, error) {
			return driver.AnalyzeFiles(cmd.Context(), baseDir, files, o)
		}
	}

	var result *driver.Result
	if format == "pretty" && !quiet && shouldUseTUI(mode) {
		result, err = runAnalysisWithUI("analyzing", files, opts, run)
	} else {
		result, err = run(opts)
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if noWarnings {
		result.Bag.Filter(func(d diag.Diagnostic) bool {
			return d.Severity != diag.SevWarning
		})
	}
	if warningsAsErrors {
		result.Bag.Transform(func(d *diag.Diagnostic) {
			if d.Severity == diag.SevWarning {
				d.Severity = diag.SevError
			}
		})
	}

	colored := useColor(colorFlag, os.Stdout)
	pathMode := diagfmt.ParsePathMode(pathModeFlag)

	switch format {
	case "pretty":
		diagfmt.Pretty(os.Stdout, result.Bag, result.FileSet, diagfmt.PrettyOpts{
			Color:     colored,
			PathMode:  pathMode,
			ShowNotes: withNotes,
			ShowFixes: suggest,
		})
		if !quiet {
			diagfmt.Summary(os.Stdout, result.Bag, colored)
		}
	case "short":
		output := diag.FormatGoldenDiagnostics(result.Bag.Items(), result.FileSet, withNotes)
		if output != "" {
			fmt.Fprintln(os.Stdout, output)
		}
	case "json":
		jsonOpts := diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     withNotes,
			IncludeFixes:     suggest,
		}
		if err := diagfmt.JSON(os.Stdout, result.Bag, result.FileSet, jsonOpts); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	case "sarif":
		meta := diagfmt.SarifRunMeta{
			ToolName:    "mtlint",
			ToolVersion: "0.1.0",
		}
		if err := diagfmt.Sarif(os.Stdout, result.Bag, result.FileSet, meta); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	}

	if showTimings && format != "json" && format != "sarif" {
		fmt.Fprint(os.Stderr, result.Timings)
	}

	if result.Bag.HasErrors() {
		// Suppress cobra usage output; the diagnostics were already printed.
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("")
	}
	return nil
}

// loadConfig resolves the effective config: an explicit --config path, the
// nearest mtlint.toml above the target, or the built-in defaults.
func loadConfig(cmd *cobra.Command, targetPath string, isDir bool) (config.Config, error) {
	explicit, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if explicit != "" {
		return config.Load(explicit)
	}

	startDir := targetPath
	if !isDir {
		startDir = filepath.Dir(targetPath)
	}
	path, ok, err := config.Find(startDir)
	if err != nil {
		return config.Config{}, err
	}
	if !ok {
		return config.Default(), nil
	}
	return config.Load(path)
}

func openCache(dir string) (*driver.DiskCache, error) {
	if dir != "" {
		return driver.OpenDiskCacheAt(dir)
	}
	return driver.OpenDiskCache("mtlint")
}
