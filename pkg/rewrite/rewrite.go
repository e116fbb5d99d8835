// Package rewrite substitutes CDN module references with local logical names.
//
// Bundled ESM modules served by the CDN reference each other through
// absolute specifiers of the form "/npm/<name>@<version>/+esm" (package
// root) or "/npm/<name>@<version>/<path>/+esm" (secondary entry point).
// Inside the database runtime those URLs mean nothing; every reference has
// to point at the logical name the dependency is loaded under. Rewrite
// performs that substitution for one module against the full dependency
// set, reports which secondary entry points the module pulled in, and
// flags any reference that no substitution covered.
package rewrite

import (
	"regexp"
	"strings"

	"github.com/tschf/mle-module-loader/pkg/entrypoint"
	"github.com/tschf/mle-module-loader/pkg/ident"
)

// Module identifies one distributable bundle: a package at a version, plus
// an optional relative path for secondary entry points. The zero
// RelativePath means the package root bundle.
type Module struct {
	Name         string
	Version      string
	RelativePath string
}

// Root reports whether m is a package root bundle.
func (m Module) Root() bool { return m.RelativePath == "" }

// String returns "name@version" for root bundles and
// "name@version/path" for secondary entry points.
func (m Module) String() string {
	if m.Root() {
		return m.Name + "@" + m.Version
	}
	return m.Name + "@" + m.Version + "/" + m.RelativePath
}

// Pattern returns the canonical CDN reference for m, the exact byte
// sequence other bundles use to import it.
func (m Module) Pattern() string {
	if m.Root() {
		return "/npm/" + m.Name + "@" + m.Version + "/+esm"
	}
	return "/npm/" + m.Name + "@" + m.Version + "/" + m.RelativePath + "/+esm"
}

// Obligation records a secondary entry point discovered during rewriting.
// The module that produced the obligation cannot be finalized before the
// entry point itself is fetched, rewritten and written.
type Obligation struct {
	Module      Module
	LogicalName string
}

// Result holds the outcome of rewriting a single module.
type Result struct {
	Text        string       // source with all known references substituted
	Obligations []Obligation // secondary entry points this module references
	References  []string     // logical names substituted in, first-seen order
	Unresolved  []string     // CDN references no substitution covered
	Builtins    []string     // Node core modules the bundle still imports
}

// refPattern is a superset of every canonical CDN reference. Anything it
// still matches after substitution points at a module outside the set.
var refPattern = regexp.MustCompile("/npm/[^\"'`\\s]+/\\+esm")

// Rewrite substitutes every canonical reference to a member of set inside
// src. References to self's own identity are left untouched: a module must
// not end up importing itself. Patterns for distinct set members are
// textually disjoint, so the substitution order does not affect the result.
func Rewrite(src string, self Module, set *ident.Set, reg entrypoint.Registry) Result {
	out := src

	var (
		obligations []Obligation
		references  []string
		seenRef     = make(map[string]bool)
	)
	note := func(logical string) {
		if !seenRef[logical] {
			seenRef[logical] = true
			references = append(references, logical)
		}
	}

	for _, dep := range set.Items() {
		root := Module{Name: dep.Original, Version: dep.Version}
		if self != root {
			if replaced := strings.ReplaceAll(out, root.Pattern(), dep.Normalized); replaced != out {
				out = replaced
				note(dep.Normalized)
			}
		}
		for _, ov := range reg.Lookup(dep.Original) {
			sub := Module{Name: dep.Original, Version: dep.Version, RelativePath: ov.RelativePath}
			if self == sub {
				continue
			}
			if replaced := strings.ReplaceAll(out, sub.Pattern(), ov.LogicalName); replaced != out {
				out = replaced
				note(ov.LogicalName)
				obligations = append(obligations, Obligation{Module: sub, LogicalName: ov.LogicalName})
			}
		}
	}

	return Result{
		Text:        out,
		Obligations: obligations,
		References:  references,
		Unresolved:  leftoverRefs(out),
		Builtins:    builtinImports(src),
	}
}

// leftoverRefs scans rewritten text for canonical references that survived
// substitution, de-duplicated in first-seen order.
func leftoverRefs(text string) []string {
	var refs []string
	seen := make(map[string]bool)
	for _, m := range refPattern.FindAllString(text, -1) {
		if seen[m] {
			continue
		}
		seen[m] = true
		refs = append(refs, m)
	}
	return refs
}

// importSpec matches the specifier of static and dynamic import forms as
// they appear in minified bundles: from"x", from 'x', import"x", import("x").
var importSpec = regexp.MustCompile(`(?:from|import)\s*\(?\s*["']([^"']+)["']`)

// builtinImports returns the Node core modules src imports, first-seen
// order. The runtime provides none of them, so callers surface these as
// diagnostics.
func builtinImports(src string) []string {
	var found []string
	seen := make(map[string]bool)
	for _, m := range importSpec.FindAllStringSubmatch(src, -1) {
		spec := m[1]
		if !IsNodeBuiltin(spec) || seen[spec] {
			continue
		}
		seen[spec] = true
		found = append(found, spec)
	}
	return found
}
