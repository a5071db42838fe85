// SPDX-License-Identifier: MPL-2.0

package loadorder

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/exp/maps"

	"github.com/loomkit/loom/internal/cueutil"
	"github.com/loomkit/loom/pkg/loommod"
)

// FileBaseName is the base name of a discoverable order file.
const FileBaseName = "loadorder"

var (
	//go:embed loadorder_schema.cue
	schema []byte

	// ErrInvalidOrderFile is the sentinel matched by every *OrderFileError.
	ErrInvalidOrderFile = errors.New("invalid order file")

	// ErrDuplicateModule is returned by Resolve when two modules share a name.
	ErrDuplicateModule = errors.New("duplicate module name")

	// fileExtensions lists supported extensions in discovery preference order.
	fileExtensions = []string{".cue", ".toml"}
)

type (
	// Priorities maps module names to priorities. Lower loads earlier.
	Priorities map[string]int

	// Override records an order-file priority replaced by an explicit one.
	Override struct {
		Module   string
		File     int
		Explicit int
	}

	// OrderFileError reports an unreadable or invalid order file.
	OrderFileError struct {
		Path  string
		Cause error
	}

	// Plan is the resolved module order.
	Plan struct {
		Modules   []loommod.Module
		Overrides []Override
		// Unknown lists prioritized names that match no candidate module.
		Unknown []string
	}
)

// Error implements the error interface.
func (e *OrderFileError) Error() string {
	return fmt.Sprintf("order file %s: %v", e.Path, e.Cause)
}

// Unwrap returns both the sentinel and the cause.
func (e *OrderFileError) Unwrap() []error { return []error{ErrInvalidOrderFile, e.Cause} }

// Validate checks that every name is non-empty and every priority non-negative.
func (p Priorities) Validate() error {
	var errs []error
	for _, name := range p.names() {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, errors.New("module name must not be empty"))
		}
		if p[name] < 0 {
			errs = append(errs, fmt.Errorf("module %q: priority %d must not be negative", name, p[name]))
		}
	}
	return errors.Join(errs...)
}

func (p Priorities) names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge combines explicit and file priorities. Explicit values win; every
// replaced file value is reported as an Override, sorted by module name.
func Merge(explicit, file Priorities) (Priorities, []Override) {
	merged := make(Priorities, len(explicit)+len(file))
	maps.Copy(merged, file)
	var overrides []Override
	for _, name := range explicit.names() {
		prio := explicit[name]
		if filePrio, ok := file[name]; ok && filePrio != prio {
			overrides = append(overrides, Override{Module: name, File: filePrio, Explicit: prio})
		}
		merged[name] = prio
	}
	return merged, overrides
}

// Resolve orders mods. Modules with a merged priority come first in ascending
// priority, ties keeping discovery order; unprioritized modules follow in
// discovery order. Module names must be unique.
func Resolve(mods []loommod.Module, explicit, file Priorities) (*Plan, error) {
	seen := make(map[string]bool, len(mods))
	for _, m := range mods {
		if seen[m.Name()] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateModule, m.Name())
		}
		seen[m.Name()] = true
	}

	merged, overrides := Merge(explicit, file)
	ordered := slices.Clone(mods)
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, oki := merged[ordered[i].Name()]
		pj, okj := merged[ordered[j].Name()]
		switch {
		case oki && okj:
			return pi < pj
		default:
			return oki && !okj
		}
	})

	var unknown []string
	for _, name := range merged.names() {
		if !seen[name] {
			unknown = append(unknown, name)
		}
	}
	return &Plan{Modules: ordered, Overrides: overrides, Unknown: unknown}, nil
}

// Filter keeps modules whose name starts with one of prefixes (all modules when
// prefixes is empty) and that are not listed in exclude. Order is preserved.
func Filter(mods []loommod.Module, prefixes, exclude []string) []loommod.Module {
	out := make([]loommod.Module, 0, len(mods))
	for _, m := range mods {
		name := m.Name()
		if slices.Contains(exclude, name) {
			continue
		}
		if len(prefixes) > 0 && !slices.ContainsFunc(prefixes, func(p string) bool { return strings.HasPrefix(name, p) }) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Discover returns the first order file found in dir, trying loadorder.cue and
// then loadorder.toml.
func Discover(dir string) (string, bool) {
	for _, ext := range fileExtensions {
		path := filepath.Join(dir, FileBaseName+ext)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}

// ParseFile reads and validates an order file. The format follows the extension.
func ParseFile(path string) (Priorities, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &OrderFileError{Path: path, Cause: err}
	}
	return Parse(data, path)
}

// Parse decodes order-file data. filename selects the format by extension.
func Parse(data []byte, filename string) (Priorities, error) {
	var (
		prio Priorities
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".cue":
		prio, err = parseCUE(data, filename)
	case ".toml":
		prio, err = parseTOML(data)
	default:
		err = fmt.Errorf("unsupported extension %q (want one of %s)", ext, strings.Join(fileExtensions, ", "))
	}
	if err == nil {
		err = prio.Validate()
	}
	if err != nil {
		return nil, &OrderFileError{Path: filename, Cause: err}
	}
	return prio, nil
}

func parseCUE(data []byte, filename string) (Priorities, error) {
	res, err := cueutil.ParseAndDecode[Priorities](schema, data, "#LoadOrder", cueutil.WithFilename(filename))
	if err != nil {
		return nil, err
	}
	if *res.Value == nil {
		return Priorities{}, nil
	}
	return *res.Value, nil
}

func parseTOML(data []byte) (Priorities, error) {
	raw := make(map[string]any)
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	prio := make(Priorities, len(raw))
	for name, v := range raw {
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("module %q: priority must be an integer, got %T", name, v)
		}
		prio[name] = int(n)
	}
	return prio, nil
}
