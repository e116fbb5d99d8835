package sqlgen

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tschf/mle-module-loader/pkg/loader"
)

// markerName guards WriteTree against scribbling over a directory the tool
// did not create.
const markerName = ".mleloader"

// WriteTree lays a run's artifacts out on disk:
//
//	<dir>/install.sql
//	<dir>/create_modules.sql
//	<dir>/drop_modules.sql
//	<dir>/modules/<logical>.js
//
// A nonexistent or empty target is claimed with a marker file. An existing
// non-empty target is reused only when it carries the marker from a
// previous run, and its modules/ subtree is replaced wholesale so stale
// files from an earlier module set cannot survive. Anything else is
// refused rather than overwritten.
func WriteTree(dir string, scripts Scripts, a *loader.BuildArtifacts) error {
	if err := checkTarget(dir); err != nil {
		return err
	}

	modDir := filepath.Join(dir, "modules")
	if err := os.RemoveAll(modDir); err != nil {
		return fmt.Errorf("clear modules dir: %w", err)
	}
	if err := os.MkdirAll(modDir, 0755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, markerName), []byte("mleloader artifact tree\n"), 0644); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}

	for _, rec := range a.Modules {
		path := filepath.Join(modDir, rec.LogicalName+".js")
		if err := os.WriteFile(path, []byte(rec.Rewritten), 0644); err != nil {
			return fmt.Errorf("write module %s: %w", rec.LogicalName, err)
		}
	}

	for _, f := range []struct{ name, content string }{
		{"install.sql", scripts.Install},
		{"create_modules.sql", scripts.Create},
		{"drop_modules.sql", scripts.Drop},
	} {
		if err := os.WriteFile(filepath.Join(dir, f.name), []byte(f.content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	return nil
}

func checkTarget(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("inspect %s: %w", dir, err)
	}
	if len(entries) == 0 {
		return nil
	}
	if _, err := os.Stat(filepath.Join(dir, markerName)); err != nil {
		return fmt.Errorf("refusing to write into %s: directory is not empty and has no %s marker", dir, markerName)
	}
	return nil
}
