// Package render draws a resolution result as a node-link diagram.
//
// [ToDOT] produces Graphviz DOT source, top to bottom, one rounded box per
// resolved artifact. Parent references are dashed, artifacts that failed to
// resolve are filled red and version conflicts are listed on the node that
// kept its version. [RenderSVG] lays the DOT out in-process with
// [github.com/goccy/go-graphviz]; no Graphviz installation is needed.
//
//	dot := render.ToDOT(result, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
package render
