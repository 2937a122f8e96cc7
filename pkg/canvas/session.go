package canvas

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/treecanvas/pkg/geom"
	"github.com/matzehuels/treecanvas/pkg/layout"
)

// DefaultDragThreshold is the smallest drag delta, on either axis, that
// counts as movement.
const DefaultDragThreshold = 0.1

// ErrDuplicateItem is returned by [Session.Add] when the id is taken.
var ErrDuplicateItem = errors.New("duplicate item id")

// Options configures a Session.
type Options struct {
	Layout    layout.Options
	Placement Placement

	// DragThreshold is the per-axis delta below which a move is ignored.
	DragThreshold float64
	// MoveWithChildren makes drags carry the whole subtree.
	MoveWithChildren bool

	Callbacks Callbacks
	Logger    *log.Logger
}

// SetDefaults fills every unset field.
func (o *Options) SetDefaults() {
	o.Layout.SetDefaults()
	o.Placement.SetDefaults()
	if o.DragThreshold <= 0 {
		o.DragThreshold = DefaultDragThreshold
	}
	if o.Callbacks == nil {
		o.Callbacks = NopCallbacks{}
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
}

// Viewport is the visible region of the canvas, pushed by the render
// surface whenever it pans or resizes.
type Viewport struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the middle of the viewport.
func (v Viewport) Center() geom.Point {
	return geom.Point{X: v.X + v.Width/2, Y: v.Y + v.Height/2}
}

// PositionChange is one entry of a drag batch.
type PositionChange struct {
	ID       string     `json:"id"`
	Position geom.Point `json:"position"`
	Delta    geom.Point `json:"delta"`
}

// NewItem describes an item to create.
type NewItem struct {
	ID       string
	Kind     Kind
	Parent   string
	Label    string
	Color    string
	Position *geom.Point
	Size     geom.Size
}

// RemoveResult reports what [Session.Remove] changed.
type RemoveResult struct {
	Removed  []string `json:"removed"`
	Orphaned []string `json:"orphaned,omitempty"`
}

// Session is the explicit state of one canvas: the item collection, the
// render graph derived from it and the in-progress drag gesture. Every
// mutation re-projects the graph and reports committed changes through
// Options.Callbacks.
//
// A Session is not safe for concurrent use.
type Session struct {
	opts     Options
	items    []Item
	proj     *Projection
	viewport Viewport

	moved      []string
	movedIndex map[string]bool
}

// NewSession creates an empty session.
func NewSession(opts Options) *Session {
	opts.SetDefaults()
	s := &Session{opts: opts, movedIndex: make(map[string]bool)}
	s.reproject()
	return s
}

// Sync replaces the item collection and re-projects. Nodes already on the
// canvas keep their live positions.
func (s *Session) Sync(items []Item) *Graph {
	s.items = make([]Item, len(items))
	for i, it := range items {
		s.items[i] = it.Clone()
	}
	s.reproject()
	return s.proj.Graph
}

func (s *Session) reproject() {
	var prev *Graph
	if s.proj != nil {
		prev = s.proj.Graph
	}
	s.proj = Project(s.items, prev, ProjectOptions{
		Placement:   s.opts.Placement,
		DefaultSize: s.opts.Layout.DefaultSize,
	})
	for _, is := range s.proj.Issues {
		if is.Kind == IssueDuplicateID {
			s.opts.Logger.Warn("duplicate item id, keeping first", "id", is.ItemID)
			continue
		}
		s.opts.Logger.Debug("item parent ignored", "id", is.ItemID, "parent", is.Parent, "issue", is.Kind)
	}
}

// Graph returns the current render graph.
func (s *Session) Graph() *Graph { return s.proj.Graph }

// Index returns the adjacency index of the current items.
func (s *Session) Index() *Index { return s.proj.Index }

// Issues returns the problems found in the last projection pass.
func (s *Session) Issues() []Issue { return s.proj.Issues }

// Items returns a copy of the item collection.
func (s *Session) Items() []Item {
	out := make([]Item, len(s.items))
	for i, it := range s.items {
		out[i] = it.Clone()
	}
	return out
}

// Item returns a copy of the item with the given id.
func (s *Session) Item(id string) (Item, bool) {
	it, ok := s.proj.Index.Item(id)
	if !ok {
		return Item{}, false
	}
	return it.Clone(), true
}

func (s *Session) item(id string) (*Item, *RenderNode, error) {
	it, ok := s.proj.Index.Item(id)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownItem, id)
	}
	n, _ := s.proj.Graph.Node(id)
	return it, n, nil
}

// SetMoveWithChildren toggles subtree dragging.
func (s *Session) SetMoveWithChildren(on bool) { s.opts.MoveWithChildren = on }

// MoveWithChildren reports whether drags carry the subtree.
func (s *Session) MoveWithChildren() bool { return s.opts.MoveWithChildren }

// SetViewport records the visible region. New root items are placed around
// its center.
func (s *Session) SetViewport(v Viewport) {
	s.viewport = v
	s.opts.Placement.Origin = v.Center()
}

// Viewport returns the last viewport pushed with SetViewport.
func (s *Session) Viewport() Viewport { return s.viewport }

// =============================================================================
// Drag propagation
// =============================================================================

// Move handles a position-change event for id. With MoveWithChildren on,
// every descendant is shifted by the same delta, read against its position
// at the time of the call so rapid successive moves compose. A delta below
// DragThreshold on both axes is ignored and returns nil.
func (s *Session) Move(id string, to geom.Point) ([]PositionChange, error) {
	_, n, err := s.item(id)
	if err != nil {
		return nil, err
	}
	delta := to.Sub(n.Position)
	if math.Abs(delta.X) < s.opts.DragThreshold && math.Abs(delta.Y) < s.opts.DragThreshold {
		return nil, nil
	}

	batch := []PositionChange{s.shift(n, delta)}
	if s.opts.MoveWithChildren {
		for _, d := range s.proj.Index.Descendants(id) {
			if dn, ok := s.proj.Graph.Node(d); ok {
				batch = append(batch, s.shift(dn, delta))
			}
		}
	}
	return batch, nil
}

// DragBy moves id by delta. See [Session.Move].
func (s *Session) DragBy(id string, delta geom.Point) ([]PositionChange, error) {
	_, n, err := s.item(id)
	if err != nil {
		return nil, err
	}
	return s.Move(id, n.Position.Add(delta))
}

func (s *Session) shift(n *RenderNode, delta geom.Point) PositionChange {
	n.Position = n.Position.Add(delta)
	n.Authority = Live
	if !s.movedIndex[n.ID] {
		s.movedIndex[n.ID] = true
		s.moved = append(s.moved, n.ID)
	}
	return PositionChange{ID: n.ID, Position: n.Position, Delta: delta}
}

// Dragging reports whether a gesture has moved nodes that EndDrag has not
// committed yet.
func (s *Session) Dragging() bool { return len(s.moved) > 0 }

// EndDrag commits the gesture: edges are refreshed so connectors redraw,
// each moved item takes its live position and OnPositionChange fires once
// per moved item.
func (s *Session) EndDrag() []PositionChange {
	s.proj.Graph.refreshEdges()
	if len(s.moved) == 0 {
		return nil
	}

	out := make([]PositionChange, 0, len(s.moved))
	for _, id := range s.moved {
		it, n, err := s.item(id)
		if err != nil {
			continue
		}
		p := n.Position
		it.Position = &p
		out = append(out, PositionChange{ID: id, Position: p})
		s.opts.Callbacks.OnPositionChange(id, p, it.Kind)
	}
	s.moved = s.moved[:0]
	clear(s.movedIndex)
	return out
}

// =============================================================================
// Hierarchy
// =============================================================================

// Reparent moves child under newParent, or to the root when newParent is
// empty. Rejected moves (cycles, self links, non-folder parents, unknown
// ids) leave everything unchanged and are reported only in the Decision.
func (s *Session) Reparent(child, newParent string) Decision {
	d := ValidateReparent(s.proj.Index, child, newParent)
	if !d.Accepted {
		s.opts.Logger.Debug("reparent rejected", "child", child, "parent", newParent, "reason", d.Reason)
		return d
	}
	if !d.Changed() {
		return d
	}

	it, _ := s.proj.Index.Item(child)
	it.SetParentRef(newParent)
	s.reproject()
	s.opts.Callbacks.OnParentChange(child, newParent)
	return d
}

// Connect applies a drag-to-connect gesture.
func (s *Session) Connect(g ConnectGesture) Decision {
	parent, child := g.Resolve()
	return s.Reparent(child, parent)
}

// SetCollapsed sets the collapsed flag of a folder. Hidden flags of the
// whole subtree are recomputed.
func (s *Session) SetCollapsed(id string, collapsed bool) error {
	it, _, err := s.item(id)
	if err != nil {
		return err
	}
	if !it.Kind.CanParent() {
		return fmt.Errorf("%w: %q cannot be collapsed", ErrParentKind, id)
	}
	if it.Collapsed == collapsed {
		return nil
	}
	it.Collapsed = collapsed
	s.reproject()
	s.opts.Callbacks.OnCollapseChange(id, collapsed)
	return nil
}

// ToggleCollapsed flips the collapsed flag of a folder and returns the new
// value.
func (s *Session) ToggleCollapsed(id string) (bool, error) {
	it, _, err := s.item(id)
	if err != nil {
		return false, err
	}
	next := !it.Collapsed
	return next, s.SetCollapsed(id, next)
}

// =============================================================================
// Item lifecycle
// =============================================================================

// Add creates an item. An empty ID gets a random one. The parent, when
// given, must be a folder. Items without a position are placed by the
// spiral search.
func (s *Session) Add(n NewItem) (Item, error) {
	if !n.Kind.Valid() {
		return Item{}, fmt.Errorf("%w: %q", ErrInvalidKind, n.Kind)
	}
	if n.ID == "" {
		n.ID = NewID()
	}
	if _, ok := s.proj.Index.Item(n.ID); ok {
		return Item{}, fmt.Errorf("%w: %q", ErrDuplicateItem, n.ID)
	}
	if n.Parent != "" {
		p, _, err := s.item(n.Parent)
		if err != nil {
			return Item{}, err
		}
		if !p.Kind.CanParent() {
			return Item{}, fmt.Errorf("%w: %q", ErrParentKind, n.Parent)
		}
	}

	it := Item{ID: n.ID, Kind: n.Kind, Label: n.Label, Color: n.Color, Size: n.Size}
	it.SetParentRef(n.Parent)
	if n.Position != nil {
		p := *n.Position
		it.Position = &p
	}
	s.items = append(s.items, it)
	s.reproject()
	return it.Clone(), nil
}

// Remove deletes an item. Its children become roots unless cascade is set,
// in which case the whole subtree is deleted. OnParentChange fires for every
// orphaned child.
func (s *Session) Remove(id string, cascade bool) (RemoveResult, error) {
	if _, _, err := s.item(id); err != nil {
		return RemoveResult{}, err
	}
	res := RemoveResult{Removed: []string{id}}
	if cascade {
		res.Removed = append(res.Removed, s.proj.Index.Descendants(id)...)
	} else {
		for _, c := range s.proj.Index.Forest().Children(id) {
			it, _ := s.proj.Index.Item(c)
			it.SetParentRef("")
			res.Orphaned = append(res.Orphaned, c)
		}
	}

	gone := make(map[string]bool, len(res.Removed))
	for _, r := range res.Removed {
		gone[r] = true
	}
	s.items = slices.DeleteFunc(s.items, func(it Item) bool { return gone[it.ID] })
	for _, r := range res.Removed {
		if s.movedIndex[r] {
			delete(s.movedIndex, r)
			s.moved = slices.DeleteFunc(s.moved, func(m string) bool { return m == r })
		}
	}
	s.reproject()

	for _, c := range res.Orphaned {
		s.opts.Callbacks.OnParentChange(c, "")
	}
	return res, nil
}

// Rename sets the label of an item.
func (s *Session) Rename(id, label string) error {
	it, n, err := s.item(id)
	if err != nil {
		return err
	}
	it.Label = label
	n.Label = label
	return nil
}

// SetColor sets the display color of an item. Edges leaving it take the
// same color.
func (s *Session) SetColor(id, color string) error {
	it, n, err := s.item(id)
	if err != nil {
		return err
	}
	it.Color = color
	n.Color = color
	for i := range s.proj.Graph.Edges {
		if s.proj.Graph.Edges[i].Source == id {
			s.proj.Graph.Edges[i].Color = color
		}
	}
	return nil
}

// ReportSize records the rendered size of an item, as measured by the
// render surface.
func (s *Session) ReportSize(id string, size geom.Size) error {
	it, n, err := s.item(id)
	if err != nil {
		return err
	}
	if size.IsZero() {
		return nil
	}
	it.Size = size
	n.Size = size
	return nil
}

// =============================================================================
// Auto layout
// =============================================================================

// AutoLayout lays out the subtree of rootID. The root keeps its position;
// every descendant is moved, persisted to its item and reported through
// OnPositionChange. The returned map holds the descendant positions only.
//
// A missing root is logged and returns an error wrapping
// layout.ErrRootNotFound; nothing changes.
func (s *Session) AutoLayout(rootID string) (layout.PositionMap, error) {
	root, ok := s.proj.Graph.Node(rootID)
	if !ok {
		s.opts.Logger.Warn("layout root not found", "id", rootID)
		return nil, fmt.Errorf("%w: %q", layout.ErrRootNotFound, rootID)
	}

	opts := s.opts.Layout
	opts.Origin = root.Position
	pos, err := layout.Layout(s.proj.Index.Forest(), rootID, s.sizeOf, opts)
	if err != nil {
		s.opts.Logger.Warn("layout failed", "id", rootID, "err", err)
		return nil, err
	}
	delete(pos, rootID)

	for _, id := range s.proj.Index.Descendants(rootID) {
		p, ok := pos[id]
		if !ok {
			continue
		}
		it, n, err := s.item(id)
		if err != nil {
			continue
		}
		n.Position = p
		n.Authority = Seeded
		stored := p
		it.Position = &stored
		s.opts.Callbacks.OnPositionChange(id, p, it.Kind)
	}
	s.proj.Graph.refreshEdges()
	return pos, nil
}

// LayoutAll lays out every root that has children and returns how many
// subtrees were arranged.
func (s *Session) LayoutAll() (int, error) {
	var count int
	for _, r := range s.proj.Index.Forest().Roots() {
		if !s.proj.Index.Forest().HasChildren(r) {
			continue
		}
		if _, err := s.AutoLayout(r); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (s *Session) sizeOf(id string) (geom.Size, bool) {
	n, ok := s.proj.Graph.Node(id)
	if !ok {
		return geom.Size{}, false
	}
	return n.Size, !n.Size.IsZero()
}
