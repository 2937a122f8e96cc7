// Package forest provides the adjacency index that every hierarchy traversal
// in treecanvas runs on.
//
// # Overview
//
// Folders, notes and mind-maps form a forest: every node has at most one
// parent and no node is its own ancestor. A [Forest] keeps two maps built
// once per projection pass (id -> parent id and id -> ordered child ids) so
// that ancestor walks cost O(depth) and child lookups are O(1), instead of
// re-scanning the full edge list on every call.
//
// # Basic Usage
//
//	f := forest.New()
//	f.AddNode("projects")
//	f.AddNode("notes")
//	f.Link("projects", "notes")
//
//	f.Children("projects")     // [notes]
//	f.Ancestors("notes")       // [projects]
//	f.Descendants("projects")  // [notes]
//
// # Cycle Prevention
//
// [Forest.Link] refuses to create a cycle: before attaching child under
// parent it walks parent's ancestor chain and returns [ErrCycle] if child
// appears in it, or [ErrSelfLink] when both ids are equal. Use
// [Forest.CanLink] to ask the same question without mutating anything.
// Linking a child that already has a parent replaces the old edge, because a
// node has at most one parent.
//
// # Change Tracking
//
// Every structural mutation bumps [Forest.Revision]. Callers that cache
// derived data (for example descendant lists) key the cache on the revision
// and drop it when the number changes.
//
// # Concurrency
//
// A Forest is not safe for concurrent use without external synchronization.
package forest
