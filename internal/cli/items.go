package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/treecanvas/pkg/canvas"
	apperr "github.com/matzehuels/treecanvas/pkg/errors"
	"github.com/matzehuels/treecanvas/pkg/geom"
)

// addOpts holds the flags of the add command.
type addOpts struct {
	id     string
	parent string
	color  string
	at     string
}

func (c *CLI) addCommand() *cobra.Command {
	var opts addOpts
	cmd := &cobra.Command{
		Use:   "add <folder|note|mindmap> [label]",
		Short: "Add an item to the workspace",
		Long: `Add a folder, note or mind-map. Items without --at are placed by a spiral
search around their parent, or around the last viewport center for roots.`,
		Example: `  treecanvas add folder Projects
  treecanvas add note "Weekly review" --parent projects-id
  treecanvas add mindmap Ideas --at 400,200 --color "#ff8800"`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := apperr.ValidateKind(args[0])
			if err != nil {
				return err
			}
			n := canvas.NewItem{ID: opts.id, Kind: kind, Parent: opts.parent, Color: opts.color}
			if len(args) == 2 {
				n.Label = args[1]
			}
			if err := validateNewItem(n); err != nil {
				return err
			}
			if opts.at != "" {
				p, err := parsePoint(opts.at)
				if err != nil {
					return err
				}
				n.Position = &p
			}

			ctx := cmd.Context()
			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			it, err := ws.add(ctx, n)
			if cerr := ws.close(ctx); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			printSuccess("Added %s %s", it.Kind, StyleHighlight.Render(it.ID))
			printKeyValue("position", formatPoint(*it.Position))
			if p := it.ParentRef(); p != "" {
				printKeyValue("parent", p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.id, "id", "", "item id (default: random UUID)")
	cmd.Flags().StringVarP(&opts.parent, "parent", "p", "", "parent folder id")
	cmd.Flags().StringVar(&opts.color, "color", "", "display color (#rgb, #rrggbb or a name)")
	cmd.Flags().StringVar(&opts.at, "at", "", "position as x,y")
	return cmd
}

func validateNewItem(n canvas.NewItem) error {
	if n.ID != "" {
		if err := apperr.ValidateItemID(n.ID); err != nil {
			return err
		}
	}
	if err := apperr.ValidateLabel(n.Label); err != nil {
		return err
	}
	return apperr.ValidateColor(n.Color)
}

func (c *CLI) removeCommand() *cobra.Command {
	var cascade bool
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove an item",
		Long:    "Remove an item. Its children become roots unless --cascade deletes the whole subtree.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			res, err := ws.remove(ctx, args[0], cascade)
			if cerr := ws.close(ctx); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			printSuccess("Removed %d item(s)", len(res.Removed))
			if len(res.Orphaned) > 0 {
				printDetail("Now roots: %s", strings.Join(res.Orphaned, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "also remove every descendant")
	return cmd
}

func (c *CLI) renameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <label>",
		Short: "Set the label of an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, label := args[0], args[1]
			if err := apperr.ValidateLabel(label); err != nil {
				return err
			}
			return c.editItem(cmd, id, func(ws *workspace) error {
				return ws.sess.Rename(id, label)
			}, func(it *canvas.Item) { it.Label = label })
		},
	}
}

func (c *CLI) colorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "color <id> <color>",
		Short: `Set the display color of an item ("" clears it)`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, color := args[0], args[1]
			if err := apperr.ValidateColor(color); err != nil {
				return err
			}
			return c.editItem(cmd, id, func(ws *workspace) error {
				return ws.sess.SetColor(id, color)
			}, func(it *canvas.Item) { it.Color = color })
		},
	}
}

// editItem applies a display-only change to the session and the store.
func (c *CLI) editItem(cmd *cobra.Command, id string, apply func(*workspace) error, stored func(*canvas.Item)) error {
	ctx := cmd.Context()
	ws, err := c.openWorkspace(ctx)
	if err != nil {
		return err
	}
	err = apply(ws)
	if err == nil {
		err = ws.update(ctx, id, stored)
	}
	if cerr := ws.close(ctx); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	printSuccess("Updated %s", StyleHighlight.Render(id))
	return nil
}

// parsePoint parses "x,y".
func parsePoint(s string) (geom.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return geom.Point{}, apperr.New(apperr.ErrCodeInvalidInput, "position %q must be x,y", s)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if errX != nil || errY != nil {
		return geom.Point{}, apperr.New(apperr.ErrCodeInvalidInput, "position %q must be two numbers", s)
	}
	return geom.Point{X: x, Y: y}, nil
}

func formatPoint(p geom.Point) string {
	return fmt.Sprintf("%g, %g", p.X, p.Y)
}
