package rewrite

import (
	"slices"
	"strings"
	"testing"

	"github.com/tschf/mle-module-loader/pkg/entrypoint"
	"github.com/tschf/mle-module-loader/pkg/ident"
)

func testSet(t *testing.T, tokens ...string) *ident.Set {
	t.Helper()
	set, err := ident.NewSet(tokens)
	if err != nil {
		t.Fatalf("NewSet(%v) error: %v", tokens, err)
	}
	return set
}

func TestModulePattern(t *testing.T) {
	tests := []struct {
		name string
		mod  Module
		want string
	}{
		{"root", Module{Name: "linkedom", Version: "0.16.11"}, "/npm/linkedom@0.16.11/+esm"},
		{"entry point", Module{Name: "linkedom", Version: "0.16.11", RelativePath: "worker"}, "/npm/linkedom@0.16.11/worker/+esm"},
		{"scoped", Module{Name: "@scope/pkg", Version: "1.0.0"}, "/npm/@scope/pkg@1.0.0/+esm"},
		{"nested path", Module{Name: "some-lib", Version: "2.0.0", RelativePath: "esm/extra"}, "/npm/some-lib@2.0.0/esm/extra/+esm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mod.Pattern(); got != tt.want {
				t.Errorf("Pattern() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRewriteSubstitutesReferences(t *testing.T) {
	src := `import{parse as e}from"/npm/css-select@5.1.0/+esm";import t from"/npm/uhtml@3.2.1/+esm";export{e,t};`
	set := testSet(t, "linkedom@0.16.11", "css-select@5.1.0", "uhtml@3.2.1")

	res := Rewrite(src, Module{Name: "linkedom", Version: "0.16.11"}, set, entrypoint.Static{})

	want := `import{parse as e}from"css_select";import t from"uhtml";export{e,t};`
	if res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
	if !slices.Equal(res.References, []string{"css_select", "uhtml"}) {
		t.Errorf("References = %v, want [css_select uhtml]", res.References)
	}
	if len(res.Unresolved) != 0 {
		t.Errorf("Unresolved = %v, want none", res.Unresolved)
	}
	if len(res.Obligations) != 0 {
		t.Errorf("Obligations = %v, want none", res.Obligations)
	}
}

func TestRewriteRepeatedReferenceCountedOnce(t *testing.T) {
	src := `import a from"/npm/uhtml@3.2.1/+esm";import b from"/npm/uhtml@3.2.1/+esm";`
	set := testSet(t, "root@1.0.0", "uhtml@3.2.1")

	res := Rewrite(src, Module{Name: "root", Version: "1.0.0"}, set, entrypoint.Static{})

	if strings.Contains(res.Text, "/npm/") {
		t.Errorf("Text still contains a CDN reference: %q", res.Text)
	}
	if !slices.Equal(res.References, []string{"uhtml"}) {
		t.Errorf("References = %v, want [uhtml]", res.References)
	}
}

func TestRewriteSelfReferenceLeftAlone(t *testing.T) {
	src := `const self="/npm/linkedom@0.16.11/+esm";import x from"/npm/uhtml@3.2.1/+esm";`
	set := testSet(t, "linkedom@0.16.11", "uhtml@3.2.1")

	res := Rewrite(src, Module{Name: "linkedom", Version: "0.16.11"}, set, entrypoint.Static{})

	if !strings.Contains(res.Text, "/npm/linkedom@0.16.11/+esm") {
		t.Error("self reference should not be substituted")
	}
	if !slices.Contains(res.Unresolved, "/npm/linkedom@0.16.11/+esm") {
		t.Errorf("Unresolved = %v, should report the untouched self reference", res.Unresolved)
	}
	if strings.Contains(res.Text, "/npm/uhtml") {
		t.Error("other references should still be substituted")
	}
}

func TestRewriteEntryPointObligation(t *testing.T) {
	src := `const w=new Worker("/npm/linkedom@0.16.11/worker/+esm");const w2=new Worker("/npm/linkedom@0.16.11/worker/+esm");import d from"/npm/linkedom@0.16.11/+esm";`
	set := testSet(t, "parent@1.0.0", "linkedom@0.16.11")
	reg := entrypoint.Static{
		"linkedom": {{RelativePath: "worker", LogicalName: "linkedom_worker"}},
	}

	res := Rewrite(src, Module{Name: "parent", Version: "1.0.0"}, set, reg)

	if strings.Contains(res.Text, "/npm/") {
		t.Errorf("Text still contains a CDN reference: %q", res.Text)
	}
	if !strings.Contains(res.Text, `new Worker("linkedom_worker")`) {
		t.Errorf("entry point reference not substituted: %q", res.Text)
	}
	if len(res.Obligations) != 1 {
		t.Fatalf("Obligations = %v, want exactly one", res.Obligations)
	}
	ob := res.Obligations[0]
	wantMod := Module{Name: "linkedom", Version: "0.16.11", RelativePath: "worker"}
	if ob.Module != wantMod {
		t.Errorf("Obligation.Module = %+v, want %+v", ob.Module, wantMod)
	}
	if ob.LogicalName != "linkedom_worker" {
		t.Errorf("Obligation.LogicalName = %q, want %q", ob.LogicalName, "linkedom_worker")
	}
}

func TestRewriteEntryPointSelfSkip(t *testing.T) {
	// The worker bundle references its own package root; that must still be
	// substituted. Only its own exact identity is skipped.
	src := `import d from"/npm/linkedom@0.16.11/+esm";const again="/npm/linkedom@0.16.11/worker/+esm";`
	set := testSet(t, "linkedom@0.16.11")
	reg := entrypoint.Static{
		"linkedom": {{RelativePath: "worker", LogicalName: "linkedom_worker"}},
	}

	res := Rewrite(src, Module{Name: "linkedom", Version: "0.16.11", RelativePath: "worker"}, set, reg)

	if strings.Contains(res.Text, "/npm/linkedom@0.16.11/+esm") {
		t.Error("package root reference should be substituted inside the worker bundle")
	}
	if !strings.Contains(res.Text, "/npm/linkedom@0.16.11/worker/+esm") {
		t.Error("the worker bundle's own reference should be left alone")
	}
	if len(res.Obligations) != 0 {
		t.Errorf("Obligations = %v, want none for a self reference", res.Obligations)
	}
}

func TestRewriteUnresolvedReference(t *testing.T) {
	src := `import a from"/npm/uhtml@3.2.1/+esm";import b from"/npm/not-in-set@9.9.9/+esm";import c from"/npm/not-in-set@9.9.9/+esm";`
	set := testSet(t, "root@1.0.0", "uhtml@3.2.1")

	res := Rewrite(src, Module{Name: "root", Version: "1.0.0"}, set, entrypoint.Static{})

	if !slices.Equal(res.Unresolved, []string{"/npm/not-in-set@9.9.9/+esm"}) {
		t.Errorf("Unresolved = %v, want the missing reference once", res.Unresolved)
	}
	if strings.Contains(res.Text, "/npm/uhtml") {
		t.Error("known reference should still be substituted")
	}
}

func TestRewriteVersionMismatchStaysUnresolved(t *testing.T) {
	// The set carries uhtml@3.2.1 but the bundle asks for a different
	// version. That exact text is not a reference to a set member.
	src := `import a from"/npm/uhtml@2.0.0/+esm";`
	set := testSet(t, "root@1.0.0", "uhtml@3.2.1")

	res := Rewrite(src, Module{Name: "root", Version: "1.0.0"}, set, entrypoint.Static{})

	if !slices.Contains(res.Unresolved, "/npm/uhtml@2.0.0/+esm") {
		t.Errorf("Unresolved = %v, want the version-mismatched reference", res.Unresolved)
	}
}

func TestRewriteOrderIndependence(t *testing.T) {
	src := `import a from"/npm/css-select@5.1.0/+esm";import b from"/npm/uhtml@3.2.1/+esm";const w="/npm/linkedom@0.16.11/worker/+esm";`
	reg := entrypoint.Static{
		"linkedom": {{RelativePath: "worker", LogicalName: "linkedom_worker"}},
	}
	self := Module{Name: "root", Version: "1.0.0"}

	forward := testSet(t, "root@1.0.0", "css-select@5.1.0", "uhtml@3.2.1", "linkedom@0.16.11")
	backward := testSet(t, "linkedom@0.16.11", "uhtml@3.2.1", "css-select@5.1.0", "root@1.0.0")

	a := Rewrite(src, self, forward, reg)
	b := Rewrite(src, self, backward, reg)

	if a.Text != b.Text {
		t.Errorf("substitution depends on set order:\nforward:  %q\nbackward: %q", a.Text, b.Text)
	}
	if len(a.Unresolved) != 0 || len(b.Unresolved) != 0 {
		t.Errorf("Unresolved = %v / %v, want none", a.Unresolved, b.Unresolved)
	}
}

func TestRewriteBuiltinImports(t *testing.T) {
	src := `import{readFileSync}from"node:fs";import p from"path";import("node:crypto");import x from"/npm/uhtml@3.2.1/+esm";`
	set := testSet(t, "root@1.0.0", "uhtml@3.2.1")

	res := Rewrite(src, Module{Name: "root", Version: "1.0.0"}, set, entrypoint.Static{})

	want := []string{"node:fs", "path", "node:crypto"}
	if !slices.Equal(res.Builtins, want) {
		t.Errorf("Builtins = %v, want %v", res.Builtins, want)
	}
}

func TestIsNodeBuiltin(t *testing.T) {
	tests := []struct {
		spec string
		want bool
	}{
		{"fs", true},
		{"node:fs", true},
		{"fs/promises", true},
		{"node:fs/promises", true},
		{"worker_threads", true},
		{"express", false},
		{"node:unknown", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			if got := IsNodeBuiltin(tt.spec); got != tt.want {
				t.Errorf("IsNodeBuiltin(%q) = %v, want %v", tt.spec, got, tt.want)
			}
		})
	}
}
