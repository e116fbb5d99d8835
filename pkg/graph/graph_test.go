package graph

import (
	"strings"
	"testing"

	"github.com/tschf/mle-module-loader/pkg/loader"
	"github.com/tschf/mle-module-loader/pkg/rewrite"
)

func testArtifacts() *loader.BuildArtifacts {
	return &loader.BuildArtifacts{
		Modules: []*loader.ModuleRecord{
			{
				Module:      rewrite.Module{Name: "app", Version: "1.0.0"},
				LogicalName: "app",
				References:  []string{"linkedom", "css_select"},
			},
			{
				Module:      rewrite.Module{Name: "linkedom", Version: "0.16.11", RelativePath: "worker"},
				LogicalName: "linkedom_worker",
			},
			{
				Module:      rewrite.Module{Name: "linkedom", Version: "0.16.11"},
				LogicalName: "linkedom",
				References:  []string{"css_select"},
				Builtins:    []string{"node:fs"},
			},
			{
				Module:      rewrite.Module{Name: "css-select", Version: "5.1.0"},
				LogicalName: "css_select",
			},
		},
	}
}

func TestBuild(t *testing.T) {
	g := Build(testArtifacts())

	if g.NodeCount() != 4 {
		t.Fatalf("NodeCount() = %d, want 4", g.NodeCount())
	}
	if g.EdgeCount() != 3 {
		t.Fatalf("EdgeCount() = %d, want 3", g.EdgeCount())
	}

	wantIDs := []string{"app", "linkedom_worker", "linkedom", "css_select"}
	for i, n := range g.Nodes() {
		if n.ID != wantIDs[i] {
			t.Errorf("node[%d].ID = %q, want %q", i, n.ID, wantIDs[i])
		}
	}

	worker := g.Nodes()[1]
	if !worker.EntryPoint() {
		t.Error("linkedom_worker should be an entry point")
	}
	if worker.Package != "linkedom" || worker.Version != "0.16.11" || worker.Path != "worker" {
		t.Errorf("worker node = %+v", worker)
	}

	if root := g.Nodes()[0]; root.EntryPoint() {
		t.Error("app should not be an entry point")
	}
	if !g.Nodes()[2].Builtin {
		t.Error("linkedom should carry the builtin flag")
	}

	wantEdges := []Edge{
		{From: "app", To: "linkedom"},
		{From: "app", To: "css_select"},
		{From: "linkedom", To: "css_select"},
	}
	for i, e := range g.Edges() {
		if e != wantEdges[i] {
			t.Errorf("edge[%d] = %+v, want %+v", i, e, wantEdges[i])
		}
	}
}

func TestBuildEmpty(t *testing.T) {
	g := Build(&loader.BuildArtifacts{})
	if g.NodeCount() != 0 || g.EdgeCount() != 0 {
		t.Errorf("empty artifacts: %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
	}
}

func TestToDOT(t *testing.T) {
	g := Build(testArtifacts())
	dot := ToDOT(g, Options{})

	if !strings.HasPrefix(dot, "digraph modules {") {
		t.Errorf("missing digraph header:\n%s", dot)
	}
	for _, want := range []string{
		`"app" [label="app"];`,
		`"css_select" [label="css_select"];`,
		`"app" -> "linkedom";`,
		`"linkedom" -> "css_select";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTEntryPointDashed(t *testing.T) {
	g := Build(testArtifacts())
	dot := ToDOT(g, Options{})

	var workerLine string
	for _, line := range strings.Split(dot, "\n") {
		if strings.Contains(line, `"linkedom_worker" [`) {
			workerLine = line
		}
	}
	if workerLine == "" {
		t.Fatalf("no node line for linkedom_worker:\n%s", dot)
	}
	if !strings.Contains(workerLine, "dashed") {
		t.Errorf("entry point should be dashed: %s", workerLine)
	}
}

func TestToDOTDetailed(t *testing.T) {
	g := Build(testArtifacts())
	dot := ToDOT(g, Options{Detailed: true})

	if !strings.Contains(dot, `label="css_select\ncss-select@5.1.0"`) {
		t.Errorf("detailed label missing package@version:\n%s", dot)
	}
	if !strings.Contains(dot, `label="linkedom_worker\nlinkedom@0.16.11/worker"`) {
		t.Errorf("detailed entry point label missing subpath:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g></g></svg>`)
	out := string(normalizeViewBox(in))

	if !strings.Contains(out, `viewBox="0 0 100.00 50.00"`) {
		t.Errorf("viewBox not normalized: %s", out)
	}
	if !strings.Contains(out, `width="100" height="50"`) {
		t.Errorf("pixel dimensions missing: %s", out)
	}
}

func TestNormalizeViewBoxNoMatch(t *testing.T) {
	in := []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)
	if got := string(normalizeViewBox(in)); got != string(in) {
		t.Errorf("input without viewBox should pass through, got %s", got)
	}
}
