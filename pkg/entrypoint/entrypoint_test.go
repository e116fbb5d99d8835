package entrypoint

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStaticLookup(t *testing.T) {
	reg := Static{
		"linkedom": {{RelativePath: "worker", LogicalName: "linkedom_worker"}},
	}

	overrides := reg.Lookup("linkedom")
	if len(overrides) != 1 {
		t.Fatalf("Lookup(linkedom) returned %d overrides, want 1", len(overrides))
	}
	if overrides[0].RelativePath != "worker" {
		t.Errorf("RelativePath = %q, want %q", overrides[0].RelativePath, "worker")
	}
	if overrides[0].LogicalName != "linkedom_worker" {
		t.Errorf("LogicalName = %q, want %q", overrides[0].LogicalName, "linkedom_worker")
	}

	if got := reg.Lookup("unknown"); len(got) != 0 {
		t.Errorf("Lookup(unknown) returned %d overrides, want 0", len(got))
	}
}

func TestDefaults(t *testing.T) {
	reg := Defaults()
	overrides := reg.Lookup("linkedom")
	if len(overrides) == 0 {
		t.Fatal("Defaults() should register linkedom worker entry point")
	}
	if overrides[0].LogicalName != "linkedom_worker" {
		t.Errorf("LogicalName = %q, want %q", overrides[0].LogicalName, "linkedom_worker")
	}
}

func TestLoadFile(t *testing.T) {
	content := `
[[entrypoint]]
package = "linkedom"
path = "worker"
name = "linkedom_worker"

[[entrypoint]]
package = "some-lib"
path = "esm/extra"
name = "some_lib_extra"
`
	path := filepath.Join(t.TempDir(), "entrypoints.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	reg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	if got := reg.Lookup("some-lib"); len(got) != 1 || got[0].RelativePath != "esm/extra" {
		t.Errorf("Lookup(some-lib) = %+v, want one override with path esm/extra", got)
	}
	if got := reg.Lookup("linkedom"); len(got) != 1 {
		t.Errorf("Lookup(linkedom) returned %d overrides, want 1", len(got))
	}
}

func TestLoadFileIncomplete(t *testing.T) {
	content := `
[[entrypoint]]
package = "linkedom"
path = "worker"
`
	path := filepath.Join(t.TempDir(), "entrypoints.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile() should reject entries missing a name")
	}
}

func TestLoadFileTraversalPath(t *testing.T) {
	content := `
[[entrypoint]]
package = "linkedom"
path = "../worker"
name = "linkedom_worker"
`
	path := filepath.Join(t.TempDir(), "entrypoints.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile() should reject traversal in entry point paths")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
}

func TestMerge(t *testing.T) {
	base := Static{
		"linkedom": {{RelativePath: "worker", LogicalName: "linkedom_worker"}},
		"uhtml":    {{RelativePath: "async", LogicalName: "uhtml_async"}},
	}
	extra := Static{
		"linkedom": {
			{RelativePath: "worker", LogicalName: "linkedom_worker_custom"}, // replaces
			{RelativePath: "cached", LogicalName: "linkedom_cached"},        // appends
		},
	}

	merged := Merge(base, extra)

	linkedom := merged.Lookup("linkedom")
	if len(linkedom) != 2 {
		t.Fatalf("Lookup(linkedom) returned %d overrides, want 2", len(linkedom))
	}
	if linkedom[0].LogicalName != "linkedom_worker_custom" {
		t.Errorf("replaced override = %q, want %q", linkedom[0].LogicalName, "linkedom_worker_custom")
	}
	if linkedom[1].RelativePath != "cached" {
		t.Errorf("appended override path = %q, want %q", linkedom[1].RelativePath, "cached")
	}

	if got := merged.Lookup("uhtml"); len(got) != 1 {
		t.Errorf("Lookup(uhtml) returned %d overrides, want 1", len(got))
	}

	// base must stay untouched
	if base.Lookup("linkedom")[0].LogicalName != "linkedom_worker" {
		t.Error("Merge() modified the base registry")
	}
}
