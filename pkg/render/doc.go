// Package render converts rendered canvas exports between formats.
//
// [ToPDF] and [ToPNG] convert an SVG using the external rsvg-convert tool
// (from librsvg). The [nodelink] subpackage produces the SVG itself:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//	pdf, err := render.ToPDF(svg)
//
// [nodelink]: github.com/matzehuels/treecanvas/pkg/render/nodelink
package render
