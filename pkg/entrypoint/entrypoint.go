// Package entrypoint maps npm packages to their secondary entry points.
//
// Most packages expose a single bundled module, but some publish additional
// entry points under a subpath of the package root (linkedom's "worker"
// bundle, for example). Those subpath bundles must be loaded as modules of
// their own, under a logical name that cannot be derived from the package
// name alone. The registry holds that mapping.
package entrypoint

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/tschf/mle-module-loader/pkg/errors"
)

// Override declares one secondary entry point of a package.
type Override struct {
	RelativePath string // subpath below the package root, without leading slash (e.g. "worker")
	LogicalName  string // module name the subpath bundle loads under (e.g. "linkedom_worker")
}

// Registry answers which secondary entry points a package has.
type Registry interface {
	// Lookup returns the overrides registered for the package, or an empty
	// slice when there are none. Lookup never fails.
	Lookup(pkg string) []Override
}

// Static is a fixed in-memory Registry.
type Static map[string][]Override

// Lookup returns the overrides for pkg.
func (s Static) Lookup(pkg string) []Override {
	return s[pkg]
}

// Defaults returns the built-in override table for packages known to ship
// secondary entry points.
func Defaults() Static {
	return Static{
		"linkedom": {
			{RelativePath: "worker", LogicalName: "linkedom_worker"},
		},
	}
}

// fileEntry is the TOML shape of one [[entrypoint]] block.
type fileEntry struct {
	Package string `toml:"package"`
	Path    string `toml:"path"`
	Name    string `toml:"name"`
}

type file struct {
	Entrypoints []fileEntry `toml:"entrypoint"`
}

// LoadFile reads [[entrypoint]] entries from a TOML file.
//
//	[[entrypoint]]
//	package = "linkedom"
//	path = "worker"
//	name = "linkedom_worker"
func LoadFile(path string) (Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse reads [[entrypoint]] entries from TOML data. Unrelated keys are
// ignored, so the entries may be embedded in a larger config file.
func Parse(data []byte) (Static, error) {
	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	s := make(Static, len(f.Entrypoints))
	for _, e := range f.Entrypoints {
		if e.Package == "" || e.Path == "" || e.Name == "" {
			return nil, fmt.Errorf("entrypoint entry needs package, path and name (got package=%q path=%q name=%q)", e.Package, e.Path, e.Name)
		}
		if err := errors.ValidatePath(e.Path); err != nil {
			return nil, fmt.Errorf("entrypoint %q: %w", e.Package, err)
		}
		s[e.Package] = append(s[e.Package], Override{RelativePath: e.Path, LogicalName: e.Name})
	}
	return s, nil
}

// Merge layers extra on top of base. An extra override replaces a base
// override for the same package and relative path; otherwise it is appended.
// Neither input is modified.
func Merge(base, extra Static) Static {
	merged := make(Static, len(base)+len(extra))
	for pkg, overrides := range base {
		merged[pkg] = append([]Override(nil), overrides...)
	}
	for pkg, overrides := range extra {
		for _, ov := range overrides {
			merged[pkg] = upsert(merged[pkg], ov)
		}
	}
	return merged
}

func upsert(overrides []Override, ov Override) []Override {
	for i, existing := range overrides {
		if existing.RelativePath == ov.RelativePath {
			overrides[i] = ov
			return overrides
		}
	}
	return append(overrides, ov)
}
