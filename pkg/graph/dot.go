package graph

import (
	"bytes"
	"fmt"
	"strings"
)

// Options configures DOT generation.
type Options struct {
	// Detailed includes the package name and version in node labels.
	// When false, only the logical name is shown.
	Detailed bool
}

// ToDOT converts the graph to Graphviz DOT format. The resulting string can
// be rendered with [RenderSVG] or saved for external Graphviz tools.
//
// Secondary entry points are rendered with dashed outlines and grey fill to
// distinguish them from package root modules.
func ToDOT(g *Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph modules {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		label := fmtLabel(n, opts.Detailed)
		attrs := fmtAttrs(n, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n Node, detailed bool) string {
	if !detailed {
		return n.ID
	}
	target := n.Package + "@" + n.Version
	if n.EntryPoint() {
		target += "/" + n.Path
	}
	return n.ID + "\n" + target
}

func fmtAttrs(n Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.EntryPoint() {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	return attrs
}
