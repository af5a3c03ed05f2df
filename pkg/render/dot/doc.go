// Package dot renders type graphs as Graphviz diagrams.
//
// # Usage
//
// Convert a graph to DOT source, then render it in-process:
//
//	src := dot.ToDOT(g, dot.Options{})
//	svg, err := dot.RenderSVG(ctx, src)
//	png, err := dot.RenderPNG(ctx, src)
//
// Object types are drawn as rounded boxes and fact nodes (single-ended view)
// as diamonds. Edges carry the fact type name as label; bidirectional
// bindings are drawn with arrowheads on both ends.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz], which embeds Graphviz as
// WebAssembly, so no system installation is needed.
package dot
