package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/treecanvas/pkg/canvas"
	"github.com/matzehuels/treecanvas/pkg/graph"
)

func (c *CLI) showCommand() *cobra.Command {
	var (
		hidden  bool
		noCache bool
	)
	cmd := &cobra.Command{
		Use:     "show",
		Aliases: []string{"project", "ls"},
		Short:   "Print the projected render graph",
		Long: `Project the workspace into its render graph and print every node with its
position, size and visibility. Nodes inside collapsed folders are left out
unless --hidden is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			items, err := st.List(ctx)
			if err != nil {
				return err
			}

			runner := c.newRunner(ctx, noCache)
			defer runner.Close()
			opts := c.pipelineOptions()
			opts.Refresh = noCache
			p, hit, err := runner.ProjectWithCacheInfo(ctx, items, opts)
			if err != nil {
				return err
			}

			g := p.Graph
			total, visible := len(g.Nodes), len(g.Visible().Nodes)
			if !hidden {
				g = g.Visible()
			}
			if len(g.Nodes) == 0 {
				printInfo("Workspace %s is empty", StyleHighlight.Render(c.cfg.Workspace))
				printNextStep("Add a folder", appName+" add folder Home")
				return nil
			}
			fmt.Println(renderNodeTable(g))
			printStats(graphStats{
				nodes:  total,
				hidden: total - visible,
				edges:  len(g.Edges),
				cached: hit,
			})
			printIssues(p.Issues)
			return nil
		},
	}
	cmd.Flags().BoolVar(&hidden, "hidden", false, "include nodes inside collapsed folders")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "recompute the projection")
	return cmd
}

func renderNodeTable(g graph.RenderGraph) string {
	rows := make([][]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		children := ""
		if n.ChildCount > 0 {
			children = strconv.Itoa(n.ChildCount)
		}
		state := ""
		if n.Hidden {
			state = "hidden"
		}
		rows = append(rows, []string{
			n.ID,
			n.Kind,
			n.Label,
			fmt.Sprintf("%g, %g", n.X, n.Y),
			fmt.Sprintf("%g×%g", n.Width, n.Height),
			children,
			state,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Kind", "Label", "Position", "Size", "Children", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case g.Nodes[row].Hidden:
				return lipgloss.NewStyle().Foreground(colorDim)
			case col == 0:
				return lipgloss.NewStyle().Foreground(colorCyan)
			case col == 1:
				return kindStyle(canvas.Kind(g.Nodes[row].Kind))
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
