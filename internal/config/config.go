// Package config loads mtlint.toml and turns it into the analyzer's runtime
// settings.
package config

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/vmihailenco/msgpack/v5"

	"mtlint/internal/callsite"
	"mtlint/internal/diag"
	"mtlint/internal/scan"
)

// FileName is the manifest looked up from the analyzed directory upwards.
const FileName = "mtlint.toml"

// Config is the full mtlint.toml schema.
type Config struct {
	Scan     ScanConfig              `toml:"scan"`
	Methods  map[string]MethodConfig `toml:"methods"`
	Severity map[string]string       `toml:"severity"`
	Suppress []string                `toml:"suppress"`
}

// ScanConfig controls file discovery and the scanner's heuristics.
type ScanConfig struct {
	// Extensions lists the file suffixes to analyze.
	Extensions []string `toml:"extensions"`
	// Exclude lists directory names skipped during discovery.
	Exclude []string `toml:"exclude"`
	// ExceptionIdents are identifier names treated as exception-typed.
	ExceptionIdents []string `toml:"exception_idents"`
	// StaticClasses are receiver names treated as static invocations, where
	// the logger is the first argument.
	StaticClasses []string `toml:"static_invocation_classes"`
}

// MethodConfig declares the parameter shapes of one template-consuming
// method, in the compact letter form understood by callsite.ParseShape.
type MethodConfig struct {
	Shapes []string `toml:"shapes"`
}

// Default returns the settings used when no manifest is present.
func Default() Config {
	return Config{
		Scan: ScanConfig{
			Extensions:      []string{".cs"},
			Exclude:         []string{"bin", "obj", ".git"},
			ExceptionIdents: identList(scan.DefaultExceptionIdents()),
			StaticClasses:   []string{"LoggerExtensions"},
		},
	}
}

func identList(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Load reads and validates a manifest file.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.validate(path); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Find walks up from startDir looking for the manifest. ok is false when no
// manifest exists anywhere up the tree.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func (c Config) validate(path string) error {
	for method, mc := range c.Methods {
		for _, spec := range mc.Shapes {
			if _, err := callsite.ParseShape(spec); err != nil {
				return fmt.Errorf("%s: [methods.%s]: %w", path, method, err)
			}
		}
	}
	for id, label := range c.Severity {
		if _, ok := diag.CodeByID(id); !ok {
			return fmt.Errorf("%s: [severity]: unknown diagnostic %q", path, id)
		}
		if _, ok := diag.ParseSeverity(label); !ok {
			return fmt.Errorf("%s: [severity]: unknown level %q for %s", path, label, id)
		}
	}
	for _, id := range c.Suppress {
		if _, ok := diag.CodeByID(id); !ok {
			return fmt.Errorf("%s: suppress: unknown diagnostic %q", path, id)
		}
	}
	return nil
}

// ShapeTable builds the method table: the conventional defaults plus the
// manifest's [methods.*] entries, which replace any default of the same name.
func (c Config) ShapeTable() *callsite.ShapeTable {
	table := callsite.DefaultShapes()
	for method, mc := range c.Methods {
		shapes := make([]callsite.Shape, 0, len(mc.Shapes))
		for _, spec := range mc.Shapes {
			shape, err := callsite.ParseShape(spec)
			if err != nil {
				// Rejected by validate; skip defensively here.
				continue
			}
			shapes = append(shapes, shape)
		}
		table.Replace(method, shapes...)
	}
	return table
}

// ExceptionIdents returns the scanner's exception identifier set.
func (c Config) ExceptionIdents() map[string]bool {
	set := make(map[string]bool, len(c.Scan.ExceptionIdents))
	for _, name := range c.Scan.ExceptionIdents {
		set[strings.ToLower(name)] = true
	}
	return set
}

// StaticInvocationClasses returns the scanner's static-invocation set.
func (c Config) StaticInvocationClasses() map[string]bool {
	set := make(map[string]bool, len(c.Scan.StaticClasses))
	for _, name := range c.Scan.StaticClasses {
		set[name] = true
	}
	return set
}

// SeverityOverrides maps the [severity] section onto diagnostic codes.
func (c Config) SeverityOverrides() map[diag.Code]diag.Severity {
	out := make(map[diag.Code]diag.Severity, len(c.Severity))
	for id, label := range c.Severity {
		code, ok := diag.CodeByID(id)
		if !ok {
			continue
		}
		sev, ok := diag.ParseSeverity(label)
		if !ok {
			continue
		}
		out[code] = sev
	}
	return out
}

// Suppressed returns the set of codes disabled by the manifest.
func (c Config) Suppressed() map[diag.Code]bool {
	out := make(map[diag.Code]bool, len(c.Suppress))
	for _, id := range c.Suppress {
		if code, ok := diag.CodeByID(id); ok {
			out[code] = true
		}
	}
	return out
}

// WantsExtension reports whether a file name matches [scan].extensions.
func (c Config) WantsExtension(name string) bool {
	for _, ext := range c.Scan.Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// ExcludesDir reports whether a directory name is skipped during discovery.
func (c Config) ExcludesDir(name string) bool {
	for _, dir := range c.Scan.Exclude {
		if name == dir {
			return true
		}
	}
	return false
}

// Hash is a stable digest of the effective settings, used to key the
// diagnostics cache so a config change invalidates cached results.
func (c Config) Hash() ([32]byte, error) {
	sorted := c
	sorted.Suppress = append([]string(nil), c.Suppress...)
	sort.Strings(sorted.Suppress)

	payload, err := msgpack.Marshal(hashable(sorted))
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(payload), nil
}

// hashable flattens the map-typed sections into sorted slices so the digest
// is independent of map iteration order.
func hashable(c Config) any {
	type methodEntry struct {
		Name   string
		Shapes []string
	}
	type severityEntry struct {
		ID    string
		Level string
	}

	methods := make([]methodEntry, 0, len(c.Methods))
	for name, mc := range c.Methods {
		methods = append(methods, methodEntry{Name: name, Shapes: mc.Shapes})
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i].Name < methods[j].Name })

	severities := make([]severityEntry, 0, len(c.Severity))
	for id, label := range c.Severity {
		severities = append(severities, severityEntry{ID: id, Level: label})
	}
	sort.Slice(severities, func(i, j int) bool { return severities[i].ID < severities[j].ID })

	return struct {
		Scan       ScanConfig
		Methods    []methodEntry
		Severities []severityEntry
		Suppress   []string
	}{c.Scan, methods, severities, c.Suppress}
}
