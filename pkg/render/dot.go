package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/mvnboot/pkg/maven"
	"github.com/matzehuels/mvnboot/pkg/resolve"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds depth and package URL to each label.
	Detailed bool
}

// ToDOT converts a resolution result to Graphviz DOT.
func ToDOT(res *resolve.Result, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	conflicts := make(map[maven.Key][]string)
	for _, c := range res.Conflicts {
		conflicts[c.Key] = append(conflicts[c.Key], c.Rejected)
	}

	for _, d := range res.Dependencies {
		attrs := []string{fmt.Sprintf("label=%q", label(d, conflicts[d.Key()], opts.Detailed))}
		if d.Key() == res.Root.Key() {
			attrs = append(attrs, "penwidth=2")
		}
		if len(conflicts[d.Key()]) > 0 {
			attrs = append(attrs, "fillcolor=lightyellow")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", d.Key().String(), strings.Join(attrs, ", "))
	}
	for _, u := range res.Unresolved {
		fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=mistyrose, color=red];\n",
			u.Coordinate.Key().String(), u.Coordinate.String()+"\n"+u.Reason)
	}

	buf.WriteString("\n")
	for _, e := range res.Edges {
		if e.Kind == resolve.EdgeParent {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed, arrowhead=empty];\n", e.From.String(), e.To.String())
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From.String(), e.To.String())
	}

	buf.WriteString("}\n")
	return buf.String()
}

func label(d resolve.Dependency, rejected []string, detailed bool) string {
	lines := []string{d.Artifact, d.Group, d.Version}
	if len(rejected) > 0 {
		lines = append(lines, "also wanted: "+strings.Join(rejected, ", "))
	}
	if detailed {
		lines = append(lines, "depth: "+strconv.Itoa(d.Depth), d.PackageURL())
	}
	return strings.Join(lines, "\n")
}

// RenderSVG lays out DOT source and returns the SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
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
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return scalable(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// scalable replaces Graphviz's pt-sized root element with a plain viewBox so
// the diagram scales in browsers.
func scalable(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
