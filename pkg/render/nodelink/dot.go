package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/treecanvas/pkg/graph"
	"github.com/matzehuels/treecanvas/pkg/render"
)

// pointsPerInch converts canvas units to Graphviz inches.
const pointsPerInch = 72.0

// Options configures DOT generation.
type Options struct {
	// IncludeHidden draws nodes under collapsed folders with a dotted
	// outline instead of leaving them out.
	IncludeHidden bool

	// Detailed adds the kind and child count to node labels.
	Detailed bool
}

var shapes = map[string]string{
	"folder":  "folder",
	"note":    "note",
	"mindmap": "ellipse",
}

// ToDOT converts a render graph to DOT. Canvas y grows downward and
// Graphviz y grows upward, so y is negated.
func ToDOT(g graph.RenderGraph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph canvas {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=\"filled\", fillcolor=white, fontsize=14, fixedsize=true];\n")
	buf.WriteString("  edge [arrowsize=0.6];\n\n")

	drawn := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.Hidden && !opts.IncludeHidden {
			continue
		}
		drawn[n.ID] = true
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, opts), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		if !drawn[e.From] || !drawn[e.To] {
			continue
		}
		if c := dotColor(e.Color); c != "" {
			fmt.Fprintf(&buf, "  %q -> %q [color=%q];\n", e.From, e.To, c)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n graph.Node, opts Options) []string {
	// Graphviz positions are node centers; canvas positions are top-left.
	cx := n.X + n.Width/2
	cy := -(n.Y + n.Height/2)

	attrs := []string{
		fmt.Sprintf("label=%q", label(n, opts.Detailed)),
		fmt.Sprintf("pos=\"%s,%s!\"", num(cx), num(cy)),
		fmt.Sprintf("width=%s", num(n.Width/pointsPerInch)),
		fmt.Sprintf("height=%s", num(n.Height/pointsPerInch)),
	}
	shape, ok := shapes[n.Kind]
	if !ok {
		shape = "box"
	}
	attrs = append(attrs, "shape="+shape)
	if c := dotColor(n.Color); c != "" {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", c))
	}
	if n.Hidden {
		attrs = append(attrs, `style="filled,dotted"`, "fontcolor=gray50")
	}
	return attrs
}

func label(n graph.Node, detailed bool) string {
	l := n.DisplayLabel()
	if detailed {
		l += "\n" + n.Kind
		if n.ChildCount > 0 {
			l += fmt.Sprintf(" (%d)", n.ChildCount)
		}
	}
	return l
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{3}$`)

// dotColor returns c in a form Graphviz accepts. Graphviz has no #rgb
// shorthand, so it is expanded to #rrggbb.
func dotColor(c string) string {
	if hexColorRe.MatchString(c) {
		return "#" + strings.Repeat(c[1:2], 2) + strings.Repeat(c[2:3], 2) + strings.Repeat(c[3:4], 2)
	}
	return c
}

// RenderSVG lays out and renders DOT to SVG with the neato engine.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a
// unitless one so the SVG scales in a browser.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders DOT to PDF through SVG. Requires rsvg-convert.
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders DOT to PNG through SVG. Requires rsvg-convert.
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
