package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/matzehuels/treecanvas/pkg/canvas"
	"github.com/matzehuels/treecanvas/pkg/graph"
)

// FileStore keeps a workspace in a single JSON file. Every write rewrites
// the file atomically.
type FileStore struct {
	mu   sync.RWMutex
	path string
	name string
}

// NewFileStore creates a file-backed store for the workspace at path. The
// parent directory is created if needed; the file itself is created on the
// first write.
func NewFileStore(path, workspace string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}
	return &FileStore{path: path, name: workspace}, nil
}

// Path returns the workspace file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) load() (*graph.Workspace, error) {
	ws, err := graph.ReadWorkspaceFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return graph.NewWorkspace(s.name), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ws, nil
}

func (s *FileStore) save(ws *graph.Workspace) error {
	if err := graph.WriteWorkspaceFile(ws, s.path); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Workspace returns the whole workspace, including the stored viewport.
func (s *FileStore) Workspace(ctx context.Context) (*graph.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load()
}

// SaveViewport stores the last viewport alongside the items.
func (s *FileStore) SaveViewport(ctx context.Context, v canvas.Viewport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.load()
	if err != nil {
		return err
	}
	ws.Viewport = &v
	return s.save(ws)
}

func (s *FileStore) List(ctx context.Context) ([]canvas.Item, error) {
	ws, err := s.Workspace(ctx)
	if err != nil {
		return nil, err
	}
	return ws.Items, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (canvas.Item, error) {
	items, err := s.List(ctx)
	if err != nil {
		return canvas.Item{}, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return canvas.Item{}, fmt.Errorf("item %q: %w", id, ErrNotFound)
}

func (s *FileStore) Put(ctx context.Context, items ...canvas.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.load()
	if err != nil {
		return err
	}
	pos := make(map[string]int, len(ws.Items))
	for i, it := range ws.Items {
		pos[it.ID] = i
	}
	for _, it := range items {
		if i, ok := pos[it.ID]; ok {
			ws.Items[i] = it.Clone()
			continue
		}
		pos[it.ID] = len(ws.Items)
		ws.Items = append(ws.Items, it.Clone())
	}
	return s.save(ws)
}

func (s *FileStore) Delete(ctx context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.load()
	if err != nil {
		return err
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := ws.Items[:0]
	for _, it := range ws.Items {
		if !drop[it.ID] {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(ws.Items) {
		return nil
	}
	ws.Items = kept
	return s.save(ws)
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
