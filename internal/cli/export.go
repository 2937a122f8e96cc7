package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/treecanvas/pkg/graph"
	"github.com/matzehuels/treecanvas/pkg/pipeline"
)

// exportOpts holds the flags of the export command.
type exportOpts struct {
	output   string
	formats  []string
	hidden   bool
	detailed bool
	layout   bool
	scale    float64
	noCache  bool
}

func (c *CLI) exportCommand() *cobra.Command {
	var formatsStr string
	opts := exportOpts{scale: pipeline.DefaultScale}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the canvas as JSON, DOT, SVG, PNG or PDF",
		Long: `Export the render graph. DOT output pins every node at its canvas
position; SVG, PNG and PDF are rendered from it with Graphviz.

With one format and no --output the result goes to stdout. With several
formats --output is the base path and each file gets its extension.`,
		Example: `  treecanvas export -f dot > canvas.dot
  treecanvas export -f svg,png -o out/canvas
  treecanvas export -f json --hidden --layout`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			if len(opts.formats) > 1 && opts.output == "" {
				return fmt.Errorf("--output is required for more than one format")
			}
			return c.runExport(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (one format) or base path (several)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot, png, pdf (comma-separated)")
	cmd.Flags().BoolVar(&opts.hidden, "hidden", false, "include nodes inside collapsed folders")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label nodes with id, kind and position")
	cmd.Flags().BoolVar(&opts.layout, "layout", false, "auto-layout every subtree before exporting (not saved)")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "recompute instead of reusing cached artifacts")
	return cmd
}

func (c *CLI) runExport(ctx context.Context, opts exportOpts) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	items, err := st.List(ctx)
	if err != nil {
		return err
	}

	runner := c.newRunner(ctx, opts.noCache)
	defer runner.Close()

	popts := c.pipelineOptions()
	popts.Formats = opts.formats
	popts.IncludeHidden = opts.hidden
	popts.Detailed = opts.detailed
	popts.LayoutAll = opts.layout
	popts.Scale = opts.scale
	popts.Refresh = opts.noCache

	var spinner *Spinner
	toStdout := opts.output == ""
	if !toStdout && needsGraphviz(opts.formats) {
		spinner = newSpinner(ctx, "Rendering with Graphviz...")
		spinner.Start()
	}
	res, err := runner.Execute(ctx, items, popts)
	if spinner != nil {
		if spinner.Cancelled() {
			return ctx.Err()
		}
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	if toStdout {
		_, err := os.Stdout.Write(res.Artifacts[opts.formats[0]])
		return err
	}

	paths := outputPaths(opts.output, opts.formats)
	for _, f := range opts.formats {
		if err := writeArtifact(paths[f], res.Artifacts[f]); err != nil {
			return err
		}
	}
	printSuccess("Exported %d node(s)", exportedNodes(res, opts.hidden))
	for _, f := range opts.formats {
		printFile(paths[f])
	}
	printStats(graphStats{
		nodes:  res.Stats.NodeCount,
		hidden: res.Stats.HiddenCount,
		edges:  res.Stats.EdgeCount,
		cached: res.CacheInfo.ExportHit,
	})
	return nil
}

// needsGraphviz reports whether any format is rendered rather than encoded.
func needsGraphviz(formats []string) bool {
	for _, f := range formats {
		if f == graph.FormatSVG || f == graph.FormatPNG || f == graph.FormatPDF {
			return true
		}
	}
	return false
}

func exportedNodes(res *pipeline.Result, includeHidden bool) int {
	if includeHidden {
		return res.Stats.NodeCount
	}
	return res.Stats.NodeCount - res.Stats.HiddenCount
}

// outputPaths maps each format to its file. A single format uses output
// as given; several formats replace or append the extension.
func outputPaths(output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 {
		paths[formats[0]] = output
		return paths
	}
	base := strings.TrimSuffix(output, filepath.Ext(output))
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// parseFormats splits a comma-separated format list. Empty means svg.
func parseFormats(s string) []string {
	if s == "" {
		return []string{graph.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
