package cli

import (
	"github.com/spf13/cobra"

	apperr "github.com/matzehuels/treecanvas/pkg/errors"
)

// layoutOpts holds the flags of the layout command.
type layoutOpts struct {
	all     bool
	noCache bool
	perRow  int
	grid    float64
}

func (c *CLI) layoutCommand() *cobra.Command {
	var opts layoutOpts
	cmd := &cobra.Command{
		Use:   "layout [root]...",
		Short: "Auto-layout subtrees below their roots",
		Long: `Arrange every descendant of each root as a tidy tree below it. Roots keep
their own position; the new descendant positions are saved to the store.

Folders with many leaf children stack them in rows (see [layout]
children_per_row in the config file).`,
		Example: `  treecanvas layout projects
  treecanvas layout --all
  treecanvas layout projects --per-row 5 --grid 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !opts.all {
				return apperr.New(apperr.ErrCodeInvalidInput, "give at least one root or --all")
			}
			return c.runLayout(cmd, args, opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.all, "all", "a", false, "lay out every root that has children")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "recompute instead of reusing cached layouts")
	cmd.Flags().IntVar(&opts.perRow, "per-row", 0, "children per stacked row (default from config)")
	cmd.Flags().Float64Var(&opts.grid, "grid", -1, "snapping grid, 0 disables (default from config)")
	return cmd
}

func (c *CLI) runLayout(cmd *cobra.Command, roots []string, opts layoutOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	runner := c.newRunner(ctx, opts.noCache)
	defer runner.Close()

	popts := c.pipelineOptions()
	popts.Roots = roots
	popts.LayoutAll = opts.all
	popts.Refresh = opts.noCache
	if opts.perRow > 0 {
		popts.Layout.ChildrenPerRow = opts.perRow
	}
	if opts.grid == 0 {
		popts.Layout.NoSnap = true
	} else if opts.grid > 0 {
		popts.Layout.GridSize = opts.grid
	}

	prog := newProgress(logger)
	res, err := runner.RunStore(ctx, st, popts)
	if err != nil {
		return err
	}
	prog.done("layout finished", "subtrees", len(res.Layouts), "moved", len(res.Changed))

	printSuccess("Laid out %d subtree(s), %d item(s) moved", len(res.Layouts), len(res.Changed))
	printStats(graphStats{
		nodes:  res.Stats.NodeCount,
		hidden: res.Stats.HiddenCount,
		edges:  res.Stats.EdgeCount,
		cached: len(res.Layouts) > 0 && res.CacheInfo.LayoutHits == len(res.Layouts),
	})
	printNewline()
	printNextStep("View the result", appName+" show")
	return nil
}
