package dot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/actgraph/pkg/typegraph"
)

// Options configures DOT generation.
type Options struct {
	// RankDir is the Graphviz layout direction (TB, LR, BT, RL). Defaults to TB.
	RankDir string
}

var validRankDirs = map[string]bool{"TB": true, "LR": true, "BT": true, "RL": true}

// ValidateRankDir checks that dir is a Graphviz rank direction.
func ValidateRankDir(dir string) error {
	if dir != "" && !validRankDirs[dir] {
		return fmt.Errorf("invalid rank direction: %s (must be TB, LR, BT, or RL)", dir)
	}
	return nil
}

// ToDOT converts a type graph to Graphviz DOT source.
// Node and edge order follow the graph, so equal graphs yield identical text.
func ToDOT(g *typegraph.Graph, opts Options) string {
	rankDir := opts.RankDir
	if rankDir == "" {
		rankDir = "TB"
	}

	var buf bytes.Buffer
	if g.Title() != "" {
		fmt.Fprintf(&buf, "// %s\n", g.Title())
	}
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankDir)
	buf.WriteString("  bgcolor=\"white\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\"];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		attrs := edgeAttrs(e)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n typegraph.Node) []string {
	attrs := []string{fmt.Sprintf("label=%q", n.DisplayLabel())}
	if n.Kind == typegraph.KindFact {
		attrs = append(attrs, "shape=diamond", "style=filled", "fillcolor=lightgrey")
	}
	return attrs
}

func edgeAttrs(e typegraph.Edge) []string {
	var attrs []string
	if e.Label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
	}
	if e.Bidirectional {
		attrs = append(attrs, "dir=both")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.SVG)
}

// RenderPNG renders DOT source to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
