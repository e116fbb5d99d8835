// Package loader turns a dependency set into database load artifacts.
//
// Given the ordered name@version tokens of a package's transitive closure,
// the loader fetches each member's bundled module, rewrites its CDN
// references to logical names, and collects per-module load instructions,
// create statements, drop statements and environment imports. Secondary
// entry points discovered while rewriting are processed depth-first before
// the module that referenced them is finalized, so the finished artifact
// list is closed under references.
//
// Fetching and statement rendering are injected through the [Fetcher] and
// [StatementRenderer] interfaces; the loader itself knows nothing about
// HTTP or SQL.
package loader

import (
	"context"
	"fmt"

	"github.com/tschf/mle-module-loader/pkg/rewrite"
)

// Status tracks a module through its processing lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusFetching  Status = "fetching"
	StatusRewriting Status = "rewriting"
	StatusWritten   Status = "written"
)

// Fetcher retrieves the distributable bundle for a module. relPath is empty
// for package root bundles. If refresh is true, cached responses are
// bypassed.
type Fetcher interface {
	FetchModule(ctx context.Context, name, version, relPath string, refresh bool) (string, error)
}

// StatementRenderer produces the textual artifacts for finalized modules.
// The loader appends whatever the renderer returns without inspecting it.
type StatementRenderer interface {
	// LoadInstruction renders the command that loads one module file.
	LoadInstruction(logicalName, version string) string
	// CreateStatement renders the SQL that creates one module.
	CreateStatement(logicalName, version string) string
	// DropStatement renders the SQL that drops one module.
	DropStatement(logicalName string) string
	// EnvImport renders one entry of the environment's import list.
	EnvImport(logicalName string) string
	// EnvCreate renders the SQL creating the environment over all imports.
	EnvCreate(envName string, imports []string) string
	// EnvDrop renders the SQL dropping the environment.
	EnvDrop(envName string) string
}

// ModuleRecord is the full processing record of one module.
type ModuleRecord struct {
	Module      rewrite.Module
	LogicalName string
	Source      string   // bundle text as fetched
	Rewritten   string   // bundle text after substitution
	Unresolved  []string // CDN references left in this module
	References  []string // logical names this module now imports
	Builtins    []string // Node core modules this module imports
	Status      Status
}

// BuildArtifacts aggregates everything a run produces. Each finalized
// module appends exactly one element to each of the four sequences, in
// finalize order. The environment pair is filled in once, after the last
// module.
type BuildArtifacts struct {
	Modules          []*ModuleRecord
	LoadInstructions []string
	CreateStatements []string
	DropStatements   []string
	EnvImports       []string
	EnvCreate        string
	EnvDrop          string
}

// FetchError reports a module whose bundle could not be retrieved.
// Any fetch failure aborts the whole run: a missing module would leave the
// emitted environment referencing something that was never created.
type FetchError struct {
	Module rewrite.Module
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Module, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// UnresolvedRef is a CDN reference that survived substitution, together
// with the module it was found in. Unresolved references are diagnostics,
// never fatal.
type UnresolvedRef struct {
	Module rewrite.Module
	Ref    string
}

func (u UnresolvedRef) String() string {
	return fmt.Sprintf("%s references %s", u.Module, u.Ref)
}
