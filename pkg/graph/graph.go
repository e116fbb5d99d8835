package graph

import (
	"github.com/tschf/mle-module-loader/pkg/loader"
)

// Node is one produced module.
type Node struct {
	ID      string `json:"id"`                // logical module name
	Package string `json:"package"`           // npm package the module came from
	Version string `json:"version"`           // exact package version
	Path    string `json:"path,omitempty"`    // subpath for secondary entry points
	Builtin bool   `json:"builtin,omitempty"` // module still imports Node core modules
}

// EntryPoint reports whether the node is a secondary entry point rather
// than a package root bundle.
func (n Node) EntryPoint() bool { return n.Path != "" }

// Edge is one substituted reference: From imports To.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph holds nodes and edges in deterministic order: nodes in finalize
// order, edges grouped by referencing module.
type Graph struct {
	nodes []Node
	edges []Edge
}

// Build derives the reference graph from run artifacts.
func Build(a *loader.BuildArtifacts) *Graph {
	g := &Graph{}
	for _, rec := range a.Modules {
		g.nodes = append(g.nodes, Node{
			ID:      rec.LogicalName,
			Package: rec.Module.Name,
			Version: rec.Module.Version,
			Path:    rec.Module.RelativePath,
			Builtin: len(rec.Builtins) > 0,
		})
		for _, ref := range rec.References {
			g.edges = append(g.edges, Edge{From: rec.LogicalName, To: ref})
		}
	}
	return g
}

// Nodes returns the nodes in finalize order. The slice is shared; callers
// must not modify it.
func (g *Graph) Nodes() []Node { return g.nodes }

// Edges returns the edges grouped by referencing module. The slice is
// shared; callers must not modify it.
func (g *Graph) Edges() []Edge { return g.edges }

// NodeCount returns the number of modules in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of references in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }
