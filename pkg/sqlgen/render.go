// Package sqlgen renders loader artifacts into Oracle MLE statements and
// assembles them into deployable scripts and an on-disk artifact tree.
//
// The statement shapes target Oracle Database 23ai:
//
//	create or replace mle module css_select
//	  language javascript version '5.1.0' using bfile(MLE_DIR, 'css_select.js');
//	create or replace mle env app_env imports('css_select' module css_select);
//
// plus the SQLcl "mle create-module" form for environments where loading
// from a client is easier than staging files on the database host.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/tschf/mle-module-loader/pkg/loader"
)

// DefaultDirObject is the database directory object the pure-SQL create
// script reads module files through. The DBA creates it pointing at the
// directory holding modules/.
const DefaultDirObject = "MLE_DIR"

// Renderer produces the per-module statements the loader accumulates.
//
// Logical names are normalized identifiers and embed bare; anything that
// lands inside a string literal has single quotes doubled.
type Renderer struct {
	DirObject string // BFILE directory object (default: DefaultDirObject)
}

var _ loader.StatementRenderer = (*Renderer)(nil)

// LoadInstruction renders the SQLcl command that loads one module file.
func (r *Renderer) LoadInstruction(logicalName, version string) string {
	return fmt.Sprintf("mle create-module -filename modules/%s.js -modulename %s -version '%s'",
		logicalName, logicalName, quote(version))
}

// CreateStatement renders the BFILE-based module create.
func (r *Renderer) CreateStatement(logicalName, version string) string {
	return fmt.Sprintf("create or replace mle module %s language javascript version '%s' using bfile(%s, '%s.js');",
		logicalName, quote(version), r.dirObject(), logicalName)
}

// DropStatement renders the module drop.
func (r *Renderer) DropStatement(logicalName string) string {
	return fmt.Sprintf("drop mle module if exists %s;", logicalName)
}

// EnvImport renders one entry of an environment import list. The quoted
// import name is the specifier the rewritten sources use; it must stay
// identical to the module name.
func (r *Renderer) EnvImport(logicalName string) string {
	return fmt.Sprintf("'%s' module %s", quote(logicalName), logicalName)
}

// EnvCreate renders the environment create over the full import list.
func (r *Renderer) EnvCreate(envName string, imports []string) string {
	return fmt.Sprintf("create or replace mle env %s imports(%s);", envName, strings.Join(imports, ", "))
}

// EnvDrop renders the environment drop.
func (r *Renderer) EnvDrop(envName string) string {
	return fmt.Sprintf("drop mle env if exists %s;", envName)
}

func (r *Renderer) dirObject() string {
	if r.DirObject == "" {
		return DefaultDirObject
	}
	return r.DirObject
}

// quote doubles single quotes for embedding in a SQL string literal.
func quote(s string) string { return strings.ReplaceAll(s, "'", "''") }
