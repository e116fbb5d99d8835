// Package graph builds the reference graph of a finished run.
//
// # Overview
//
// Every module a run produces becomes a node; every reference the rewriter
// substituted becomes a directed edge from the referencing module to the
// logical name it now imports. Because artifacts are closed under
// references, every edge target is itself a node.
//
// # Usage
//
// Build the graph from run artifacts, then export it:
//
//	g := graph.Build(res.Artifacts)
//	dot := graph.ToDOT(g, graph.Options{Detailed: true})
//	svg, err := graph.RenderSVG(dot)
//
// # DOT Format
//
// [ToDOT] produces Graphviz DOT source that can be rendered in-process with
// [RenderSVG] or piped to external Graphviz tooling. Secondary entry points
// are drawn dashed to set them apart from package root modules.
//
// # Dependencies
//
// SVG rendering uses [github.com/goccy/go-graphviz], which embeds Graphviz
// and needs no external binary.
package graph
