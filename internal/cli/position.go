package cli

import (
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/treecanvas/pkg/canvas"
	apperr "github.com/matzehuels/treecanvas/pkg/errors"
	"github.com/matzehuels/treecanvas/pkg/geom"
)

func (c *CLI) positionCommand() *cobra.Command {
	var withChildren bool
	cmd := &cobra.Command{
		Use:   "move <id> <x> <y>",
		Short: "Move an item to an absolute position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := parseXY(args[1], args[2])
			if err != nil {
				return err
			}
			return c.applyMove(cmd, args[0], withChildren, func(s *canvas.Session) ([]canvas.PositionChange, error) {
				return s.Move(args[0], to)
			})
		},
	}
	cmd.Flags().BoolVarP(&withChildren, "with-children", "c", false, "carry the whole subtree")
	return cmd
}

func (c *CLI) dragCommand() *cobra.Command {
	var (
		withChildren bool
		steps        int
	)
	cmd := &cobra.Command{
		Use:   "drag <id> <dx> <dy>",
		Short: "Drag an item by an offset",
		Long: `Drag an item by an offset. --steps splits the offset into that many
successive moves, the way a pointer drag arrives. Each step must reach the
drag threshold on at least one axis, otherwise it would be ignored.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := parseXY(args[1], args[2])
			if err != nil {
				return err
			}
			if steps < 1 {
				return apperr.New(apperr.ErrCodeInvalidInput, "--steps must be at least 1")
			}
			step := geom.Point{X: delta.X / float64(steps), Y: delta.Y / float64(steps)}
			if th := c.dragThreshold(); delta != (geom.Point{}) && math.Abs(step.X) < th && math.Abs(step.Y) < th {
				return apperr.New(apperr.ErrCodeInvalidInput,
					"each of the %d steps moves less than the drag threshold %g; use fewer steps", steps, th)
			}
			return c.applyMove(cmd, args[0], withChildren, func(s *canvas.Session) ([]canvas.PositionChange, error) {
				var last []canvas.PositionChange
				for range steps {
					batch, err := s.DragBy(args[0], step)
					if err != nil {
						return nil, err
					}
					if batch != nil {
						last = batch
					}
				}
				return last, nil
			})
		},
	}
	cmd.Flags().BoolVarP(&withChildren, "with-children", "c", false, "carry the whole subtree")
	cmd.Flags().IntVar(&steps, "steps", 1, "number of intermediate moves")
	return cmd
}

func (c *CLI) applyMove(cmd *cobra.Command, id string, withChildren bool, move func(*canvas.Session) ([]canvas.PositionChange, error)) error {
	ctx := cmd.Context()
	ws, err := c.openWorkspace(ctx)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("with-children") {
		ws.sess.SetMoveWithChildren(withChildren)
	}
	_, err = move(ws.sess)
	committed := ws.sess.EndDrag()
	if cerr := ws.close(ctx); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if len(committed) == 0 {
		printInfo("Below the drag threshold; nothing moved")
		return nil
	}
	printSuccess("Moved %d item(s)", len(committed))
	printChanges(committed)
	return nil
}

// dragThreshold is the per-axis delta below which the session ignores a move.
func (c *CLI) dragThreshold() float64 {
	if th := c.cfg.Drag.Threshold; th > 0 {
		return th
	}
	return canvas.DefaultDragThreshold
}

func parseXY(xs, ys string) (geom.Point, error) {
	x, errX := strconv.ParseFloat(xs, 64)
	y, errY := strconv.ParseFloat(ys, 64)
	if errX != nil || errY != nil {
		return geom.Point{}, apperr.New(apperr.ErrCodeInvalidInput, "coordinates must be numbers: %s %s", xs, ys)
	}
	return geom.Point{X: x, Y: y}, nil
}
