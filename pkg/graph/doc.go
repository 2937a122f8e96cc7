// Package graph provides the serialization types for treecanvas data.
//
// This package defines the canonical wire format used for workspace files,
// API responses, caching and store backends.
//
// # Core Types
//
//   - [Workspace]: versioned item collection of one canvas
//   - [RenderGraph]: flat node/edge list derived from a canvas.Graph
//   - [Layout]: result of one auto-layout pass
//
// # Workspace Files
//
//	{
//	  "version": 1,
//	  "name": "notes",
//	  "items": [
//	    {"id": "inbox", "kind": "folder", "position": {"x": 0, "y": 0}},
//	    {"id": "todo", "kind": "note", "folder_id": "inbox"}
//	  ]
//	}
//
// Common operations:
//
//	ws, _ := graph.ReadWorkspaceFile("notes.json")
//	graph.WriteWorkspaceFile(ws, "notes.json")   // atomic replace
//	rg := graph.FromCanvas(session.Graph())      // canvas.Graph → wire
//
// Every type carries both JSON and BSON tags so the same values can be
// stored in MongoDB without a second mapping layer.
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
