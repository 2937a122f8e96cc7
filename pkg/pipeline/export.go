package pipeline

import (
	"fmt"

	"github.com/matzehuels/treecanvas/pkg/graph"
	"github.com/matzehuels/treecanvas/pkg/render/nodelink"
)

// Export encodes g in one format without caching.
func Export(g graph.RenderGraph, format string, opts Options) ([]byte, error) {
	if format == graph.FormatJSON {
		if !opts.IncludeHidden {
			g = g.Visible()
		}
		return graph.MarshalRenderGraph(g)
	}

	dot := nodelink.ToDOT(g, nodelink.Options{
		IncludeHidden: opts.IncludeHidden,
		Detailed:      opts.Detailed,
	})
	switch format {
	case graph.FormatDOT:
		return []byte(dot), nil
	case graph.FormatSVG:
		return nodelink.RenderSVG(dot)
	case graph.FormatPNG:
		scale := opts.Scale
		if scale <= 0 {
			scale = DefaultScale
		}
		return nodelink.RenderPNG(dot, scale)
	case graph.FormatPDF:
		return nodelink.RenderPDF(dot)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
