// Package nodelink exports a projected canvas as a node-link diagram.
//
// [ToDOT] writes Graphviz DOT with every node pinned at its canvas
// position, so the export looks like the canvas rather than a fresh
// Graphviz layout. [RenderSVG] lays it out with the neato engine, which
// honors pinned positions.
//
//	dot := nodelink.ToDOT(rg, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// Folders are drawn with the "folder" shape, notes with "note" and
// mind-maps as ellipses. Collapsed folders show their hidden child count.
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG go through [render.ToPDF] and [render.ToPNG].
package nodelink
