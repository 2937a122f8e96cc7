package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/treecanvas/pkg/canvas"
	apperr "github.com/matzehuels/treecanvas/pkg/errors"
)

func (c *CLI) moveParentCommand() *cobra.Command {
	var toRoot bool
	cmd := &cobra.Command{
		Use:     "mv <id> [parent]",
		Aliases: []string{"reparent"},
		Short:   "Move an item under another folder",
		Long: `Move an item under another folder, or make it a root with --root.

Moves that would make an item its own ancestor, or that target a note or
mind-map, are refused and leave the workspace unchanged.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent := ""
			switch {
			case len(args) == 2 && toRoot:
				return apperr.New(apperr.ErrCodeInvalidInput, "give a parent or --root, not both")
			case len(args) == 2:
				parent = args[1]
			case !toRoot:
				return apperr.New(apperr.ErrCodeInvalidInput, "missing parent (use --root to detach)")
			}
			return c.reparent(cmd, func(s *canvas.Session) canvas.Decision {
				return s.Reparent(args[0], parent)
			})
		},
	}
	cmd.Flags().BoolVar(&toRoot, "root", false, "detach the item to the top level")
	return cmd
}

func (c *CLI) connectCommand() *cobra.Command {
	var parentEnd string
	cmd := &cobra.Command{
		Use:   "connect <source> <target>",
		Short: "Connect two items as parent and child",
		Long: `Connect two items the way a drag between them on the canvas does.
--parent says which end becomes the parent (default: source).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := canvas.ConnectGesture{Source: args[0], Target: args[1]}
			if err := g.ParentEnd.UnmarshalText([]byte(parentEnd)); err != nil {
				return apperr.Wrap(apperr.ErrCodeInvalidInput, err, "--parent must be source or target")
			}
			return c.reparent(cmd, func(s *canvas.Session) canvas.Decision {
				return s.Connect(g)
			})
		},
	}
	cmd.Flags().StringVar(&parentEnd, "parent", "source", "which end becomes the parent: source or target")
	return cmd
}

func (c *CLI) reparent(cmd *cobra.Command, apply func(*canvas.Session) canvas.Decision) error {
	ctx := cmd.Context()
	ws, err := c.openWorkspace(ctx)
	if err != nil {
		return err
	}
	d := apply(ws.sess)
	if err := ws.close(ctx); err != nil {
		return err
	}

	switch {
	case d.Reason == canvas.ReasonUnknown:
		return apperr.New(apperr.ErrCodeItemNotFound, "unknown item in %s -> %s", d.Child, d.Parent)
	case !d.Accepted:
		printWarning("Move refused (%s); nothing changed", d.Reason)
	case d.Reason == canvas.ReasonUnchanged:
		printInfo("%s is already there", d.Child)
	case d.Parent == "":
		printSuccess("%s is now a root", StyleHighlight.Render(d.Child))
	default:
		printSuccess("%s moved under %s", StyleHighlight.Render(d.Child), StyleHighlight.Render(d.Parent))
	}
	return nil
}

// collapseCommand builds "collapse" or "expand".
func (c *CLI) collapseCommand(collapse bool) *cobra.Command {
	use, short, verb := "expand <id>...", "Show the subtrees of folders", "Expanded"
	if collapse {
		use, short, verb = "collapse <id>...", "Hide the subtrees of folders", "Collapsed"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			for _, id := range args {
				if err = ws.sess.SetCollapsed(id, collapse); err != nil {
					break
				}
			}
			hidden := 0
			for _, n := range ws.sess.Graph().Nodes {
				if n.Hidden {
					hidden++
				}
			}
			if cerr := ws.close(ctx); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			printSuccess("%s %s folder(s)", verb, StyleNumber.Render(strconv.Itoa(len(args))))
			printDetail("%d item(s) hidden", hidden)
			return nil
		},
	}
}
