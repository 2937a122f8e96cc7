// Package pkg provides the core libraries of treecanvas, a canvas outliner
// that keeps folders, notes and mind-maps on an infinite 2-D plane.
//
// # Overview
//
// Items form a forest: folders may contain any item, notes and mind-maps
// are leaves. The libraries project that forest into a render graph,
// arrange subtrees automatically and keep the hierarchy acyclic while the
// user drags and reconnects nodes.
//
// # Architecture
//
// The typical data flow:
//
//	Stored items (file, SQLite, MongoDB)
//	         ↓
//	    [canvas] package (index, project, visibility, placement)
//	         ↓
//	    [layout] package (tidy-tree auto-layout per subtree)
//	         ↓
//	    [graph] package (render graph and layout serialization)
//	         ↓
//	    [render/nodelink] package (DOT, SVG, PNG, PDF)
//
// # Quick Start
//
//	sess := canvas.NewSession(canvas.Options{})
//	sess.Sync(items)
//
//	// Drag a folder together with its subtree.
//	sess.SetMoveWithChildren(true)
//	sess.DragBy("home", geom.Point{X: 40, Y: 0})
//	committed := sess.EndDrag()
//
//	// Refuse moves that would form a cycle.
//	d := sess.Reparent("home", "sub")
//	if !d.Accepted {
//	    fmt.Println(d.Reason)
//	}
//
// # Main Packages
//
// ## Core
//
// [forest] - Parent/child bookkeeping with cycle-free linking.
//
// [geom] - Points, sizes and rectangles.
//
// [layout] - Auto-layout of one subtree below its root, with child rows
// wrapped after a configurable count and optional grid snapping.
//
// [canvas] - The graph sync projector, visibility of collapsed subtrees,
// spiral placement of new items, drag propagation and the reparent
// validator, tied together by [canvas.Session].
//
// ## Serialization and Output
//
// [graph] - Render graph, layout and workspace documents.
//
// [render/nodelink] - Pinned-position Graphviz rendering.
//
// [render] - SVG to PDF/PNG conversion.
//
// ## Infrastructure
//
// [store] - Item persistence (file, SQLite, MongoDB, memory) and the
// debounced persister that writes committed session changes.
//
// [cache] - Projection, layout and export cache (file, memory, Redis).
//
// [pipeline] - Layout, project and export runs shared by the CLI and the
// HTTP server.
//
// [config] - TOML configuration with environment and flag overrides.
//
// [errors] - Error codes and input validation shared by the CLI and HTTP API.
//
// [observability] - Hooks for layout, sync and cache events.
//
// # Testing
//
//	go test ./pkg/...         # All tests
//	go test ./pkg/canvas/...  # Specific package
//	go test -run Example      # Examples only
//
// MongoDB store tests run when TREECANVAS_TEST_MONGO_URI is set.
package pkg
