package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/treecanvas/pkg/canvas"
	"github.com/matzehuels/treecanvas/pkg/geom"
)

func pt(x, y float64) *geom.Point { return &geom.Point{X: x, Y: y} }

func sample() []canvas.Item {
	return []canvas.Item{
		{ID: "home", Kind: canvas.KindFolder, Label: "Home", Position: pt(0, 0)},
		{ID: "todo", Kind: canvas.KindNote, FolderID: "home", Label: "Todo"},
		{ID: "plan", Kind: canvas.KindMindmap, FolderID: "home", Color: "#ff8800"},
	}
}

func ids(items []canvas.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

type factory func(t *testing.T) Store

func backends() map[string]factory {
	b := map[string]factory{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"file": func(t *testing.T) Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "ws", "default.json"), "default")
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tc.db"), "default")
			require.NoError(t, err)
			return s
		},
	}
	if uri := os.Getenv("TREECANVAS_TEST_MONGO_URI"); uri != "" {
		b["mongo"] = func(t *testing.T) Store {
			s, err := NewMongoStore(context.Background(), MongoConfig{
				URI:        uri,
				Collection: "items_test",
				Workspace:  t.Name(),
			})
			require.NoError(t, err)
			t.Cleanup(func() { _ = Replace(context.Background(), s, nil) })
			return s
		}
	}
	return b
}

func TestStoreBackends(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()

			items, err := s.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, items)

			require.NoError(t, s.Put(ctx, sample()...))

			items, err = s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"home", "todo", "plan"}, ids(items))

			got, err := s.Get(ctx, "plan")
			require.NoError(t, err)
			assert.Equal(t, canvas.KindMindmap, got.Kind)
			assert.Equal(t, "home", got.ParentRef())
			assert.Equal(t, "#ff8800", got.Color)

			home, err := s.Get(ctx, "home")
			require.NoError(t, err)
			require.NotNil(t, home.Position)
			assert.Equal(t, geom.Point{}, *home.Position)

			// Upsert keeps insertion order.
			todo := sample()[1]
			todo.Label = "Todo (done)"
			require.NoError(t, s.Put(ctx, todo))
			items, err = s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"home", "todo", "plan"}, ids(items))
			assert.Equal(t, "Todo (done)", items[1].Label)

			require.NoError(t, s.Delete(ctx, "todo", "missing"))
			_, err = s.Get(ctx, "todo")
			assert.ErrorIs(t, err, ErrNotFound)

			items, err = s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"home", "plan"}, ids(items))
		})
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(sample()...)

	err := Update(ctx, s, "home", func(it *canvas.Item) { it.Collapsed = true })
	require.NoError(t, err)

	got, err := s.Get(ctx, "home")
	require.NoError(t, err)
	assert.True(t, got.Collapsed)

	err = Update(ctx, s, "nope", func(*canvas.Item) {})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(sample()...)

	next := []canvas.Item{
		{ID: "home", Kind: canvas.KindFolder, Label: "Home v2"},
		{ID: "work", Kind: canvas.KindFolder},
	}
	require.NoError(t, Replace(ctx, s, next))

	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "work"}, ids(items))
	assert.Equal(t, "Home v2", items[0].Label)

	require.NoError(t, Replace(ctx, s, nil))
	items, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(sample()...)

	got, err := s.Get(ctx, "home")
	require.NoError(t, err)
	got.Position.X = 999

	again, err := s.Get(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, 0.0, again.Position.X)
}

func TestFileStoreViewport(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notes.json")
	s, err := NewFileStore(path, "notes")
	require.NoError(t, err)

	ws, err := s.Workspace(ctx)
	require.NoError(t, err)
	assert.Equal(t, "notes", ws.Name)
	assert.Nil(t, ws.Viewport)

	require.NoError(t, s.Put(ctx, sample()...))
	require.NoError(t, s.SaveViewport(ctx, canvas.Viewport{X: 10, Y: 20, Width: 800, Height: 600}))

	reopened, err := NewFileStore(path, "notes")
	require.NoError(t, err)
	ws, err = reopened.Workspace(ctx)
	require.NoError(t, err)
	require.NotNil(t, ws.Viewport)
	assert.Equal(t, 800.0, ws.Viewport.Width)
	assert.Len(t, ws.Items, 3)
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s, err := NewFileStore(path, "bad")
	require.NoError(t, err)
	_, err = s.List(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSQLiteWorkspacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")

	a, err := NewSQLiteStore(path, "a")
	require.NoError(t, err)
	defer a.Close()
	b, err := NewSQLiteStore(path, "b")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Put(ctx, sample()...))
	require.NoError(t, b.Put(ctx, canvas.Item{ID: "home", Kind: canvas.KindFolder, Label: "B home"}))

	itemsA, err := a.List(ctx)
	require.NoError(t, err)
	itemsB, err := b.List(ctx)
	require.NoError(t, err)
	assert.Len(t, itemsA, 3)
	require.Len(t, itemsB, 1)
	assert.Equal(t, "B home", itemsB[0].Label)

	children, err := a.Children(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, []string{"todo", "plan"}, children)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		cfg     Config
		want    any
		wantErr bool
	}{
		{Config{Backend: "", Path: dir, Workspace: "w"}, &FileStore{}, false},
		{Config{Backend: BackendSQLite, Path: dir, Workspace: "w"}, &SQLiteStore{}, false},
		{Config{Backend: BackendMemory}, &MemoryStore{}, false},
		{Config{Backend: BackendMongo}, nil, true},
		{Config{Backend: "etcd"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.cfg.Backend, func(t *testing.T) {
			s, err := Open(ctx, tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer s.Close()
			assert.IsType(t, tt.want, s)
		})
	}

	s, err := Open(ctx, Config{Path: dir, Workspace: "w"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "w.json"), s.(*FileStore).Path())
}
