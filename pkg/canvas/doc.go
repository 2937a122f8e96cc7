// Package canvas keeps an externally owned item hierarchy in sync with a
// render-ready node/edge graph.
//
// # Items and Render Graph
//
// An [Item] is a folder, note or mind-map with an optional parent reference
// and an optional stored position. [Project] turns a collection of items
// into a [Graph] of [RenderNode] and [RenderEdge] values:
//
//   - a node that already exists keeps its live position; the stored
//     position only seeds nodes that appear for the first time
//   - new items without a position are placed by a bounded spiral search
//     around their parent (see [Placement])
//   - a node is hidden exactly when some ancestor folder is collapsed
//   - edges run parent -> child and exist only for visible children
//
// Malformed parent references (missing parent, non-folder parent, cycle)
// are dropped and the item is shown as a root; the problem is reported as an
// [Issue].
//
// # Session
//
// [Session] is the explicit state object a render surface talks to. It owns
// a copy of the items and the current graph and exposes the user gestures:
//
//	s := canvas.NewSession(canvas.Options{Callbacks: store})
//	s.Sync(items)
//
//	s.SetMoveWithChildren(true)
//	s.Move("folder-1", geom.Point{X: 400, Y: 120})
//	s.EndDrag() // persists positions through OnPositionChange
//
//	d := s.Reparent("folder-1", "folder-2")
//	if !d.Accepted {
//	    // cycle, self link or non-folder parent: nothing changed
//	}
//
// Committed changes are reported through [Callbacks]. The session performs no
// I/O itself; debouncing and storage are the caller's concern.
//
// # Position Authority
//
// Every node carries an [Authority]. Seeded nodes got their position from the
// store, from default placement or from auto layout. The first drag turns a
// node Live, after which projection never replaces its position.
package canvas
