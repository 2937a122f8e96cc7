// Package store persists the item collection of a workspace.
//
// The canvas core never talks to a database. It reports committed changes
// through canvas.Callbacks; a [Persister] turns those callbacks into debounced
// writes against a [Store]. Backends:
//   - [MemoryStore]: in-process, for tests and the HTTP server's demo mode
//   - [FileStore]: one JSON workspace file, for the CLI
//   - [SQLiteStore]: one row per item in a local database
//   - [MongoStore]: one document per item, for shared deployments
//
// Every backend is bound to a single workspace name at construction.
package store

import (
	"context"
	"errors"

	"github.com/matzehuels/treecanvas/pkg/canvas"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned by Get when the item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable wraps connection and I/O failures of a backend.
	ErrUnavailable = errors.New("store unavailable")
)

// Store is the interface for item storage backends.
type Store interface {
	// List returns every item of the workspace in insertion order.
	List(ctx context.Context) ([]canvas.Item, error)

	// Get returns one item or ErrNotFound.
	Get(ctx context.Context, id string) (canvas.Item, error)

	// Put inserts or replaces items.
	Put(ctx context.Context, items ...canvas.Item) error

	// Delete removes items. Unknown ids are ignored.
	Delete(ctx context.Context, ids ...string) error

	// Close releases the backend's resources.
	Close() error
}

// Update applies fn to the stored item with the given id and writes it
// back.
func Update(ctx context.Context, s Store, id string, fn func(*canvas.Item)) error {
	it, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	fn(&it)
	return s.Put(ctx, it)
}

// Replace makes the store contain exactly items.
func Replace(ctx context.Context, s Store, items []canvas.Item) error {
	existing, err := s.List(ctx)
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(items))
	for _, it := range items {
		keep[it.ID] = true
	}
	var stale []string
	for _, it := range existing {
		if !keep[it.ID] {
			stale = append(stale, it.ID)
		}
	}
	if len(stale) > 0 {
		if err := s.Delete(ctx, stale...); err != nil {
			return err
		}
	}
	if len(items) == 0 {
		return nil
	}
	return s.Put(ctx, items...)
}
