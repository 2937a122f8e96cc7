package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/treecanvas/pkg/canvas"
	apperr "github.com/matzehuels/treecanvas/pkg/errors"
	"github.com/matzehuels/treecanvas/pkg/geom"
	"github.com/matzehuels/treecanvas/pkg/store"
)

// testEnv runs commands against a file store in a temp directory.
type testEnv struct {
	t    *testing.T
	dir  string
	path string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return &testEnv{t: t, dir: dir, path: filepath.Join(dir, "ws", "default.json")}
}

func (e *testEnv) run(args ...string) error {
	e.t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(append([]string{"--store", "file", "--store-path", e.path, "--cache", "none"}, args...))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func (e *testEnv) mustRun(args ...string) {
	e.t.Helper()
	require.NoError(e.t, e.run(args...), "treecanvas %v", args)
}

func (e *testEnv) item(id string) canvas.Item {
	e.t.Helper()
	s, err := store.NewFileStore(e.path, "default")
	require.NoError(e.t, err)
	it, err := s.Get(context.Background(), id)
	require.NoError(e.t, err)
	return it
}

func (e *testEnv) exists(id string) bool {
	e.t.Helper()
	s, err := store.NewFileStore(e.path, "default")
	require.NoError(e.t, err)
	_, err = s.Get(context.Background(), id)
	return err == nil
}

func (e *testEnv) seed() {
	e.mustRun("add", "folder", "Home", "--id", "home", "--at", "0,0")
	e.mustRun("add", "note", "Todo", "--id", "todo", "-p", "home")
	e.mustRun("add", "folder", "Sub", "--id", "sub", "-p", "home")
	e.mustRun("add", "note", "Deep", "--id", "deep", "-p", "sub")
}

func TestAddStoresPlacedItems(t *testing.T) {
	e := newTestEnv(t)
	e.seed()

	home := e.item("home")
	require.NotNil(t, home.Position)
	assert.Equal(t, geom.Point{}, *home.Position)
	assert.Equal(t, "Home", home.Label)

	todo := e.item("todo")
	assert.Equal(t, "home", todo.FolderID)
	require.NotNil(t, todo.Position)

	sub := e.item("sub")
	assert.Equal(t, "home", sub.ParentID)
	require.NotNil(t, sub.Position)
	assert.NotEqual(t, *todo.Position, *sub.Position)
}

func TestHierarchyCommands(t *testing.T) {
	e := newTestEnv(t)
	e.seed()

	// A folder cannot move below its own descendant.
	e.mustRun("mv", "home", "sub")
	assert.True(t, e.item("home").IsRoot())

	// Notes cannot parent.
	e.mustRun("mv", "deep", "todo")
	assert.Equal(t, "sub", e.item("deep").FolderID)

	e.mustRun("mv", "deep", "--root")
	assert.True(t, e.item("deep").IsRoot())

	e.mustRun("connect", "todo", "sub", "--parent", "target")
	assert.Equal(t, "sub", e.item("todo").FolderID)

	e.mustRun("collapse", "home")
	assert.True(t, e.item("home").Collapsed)
	e.mustRun("expand", "home")
	assert.False(t, e.item("home").Collapsed)

	err := e.run("collapse", "todo")
	assert.Error(t, err)
}

func TestMoveWithChildren(t *testing.T) {
	e := newTestEnv(t)
	e.seed()
	before := *e.item("sub").Position
	deepBefore := *e.item("deep").Position

	e.mustRun("move", "home", "100", "50", "--with-children")

	assert.Equal(t, geom.Point{X: 100, Y: 50}, *e.item("home").Position)
	assert.Equal(t, before.Add(geom.Point{X: 100, Y: 50}), *e.item("sub").Position)
	assert.Equal(t, deepBefore.Add(geom.Point{X: 100, Y: 50}), *e.item("deep").Position)
}

func TestDragWithoutChildren(t *testing.T) {
	e := newTestEnv(t)
	e.seed()
	subBefore := *e.item("sub").Position

	e.mustRun("drag", "home", "30", "60", "--steps", "3")

	assert.Equal(t, geom.Point{X: 30, Y: 60}, *e.item("home").Position)
	assert.Equal(t, subBefore, *e.item("sub").Position)
}

func TestLayoutPlacesChildrenBelowRoot(t *testing.T) {
	e := newTestEnv(t)
	e.seed()

	e.mustRun("layout", "home")

	home := *e.item("home").Position
	for _, id := range []string{"todo", "sub", "deep"} {
		p := e.item(id).Position
		require.NotNil(t, p, id)
		assert.Greater(t, p.Y, home.Y, id)
	}
	assert.Greater(t, e.item("deep").Position.Y, e.item("sub").Position.Y)
}

func TestRemoveCascade(t *testing.T) {
	e := newTestEnv(t)
	e.seed()

	e.mustRun("rm", "sub")
	assert.False(t, e.exists("sub"))
	assert.True(t, e.item("deep").IsRoot())

	e.mustRun("rm", "home", "--cascade")
	assert.False(t, e.exists("home"))
	assert.False(t, e.exists("todo"))
	assert.True(t, e.exists("deep"))
}

func TestRenameAndColor(t *testing.T) {
	e := newTestEnv(t)
	e.seed()

	e.mustRun("rename", "todo", "Done")
	e.mustRun("color", "todo", "#00ff00")
	todo := e.item("todo")
	assert.Equal(t, "Done", todo.Label)
	assert.Equal(t, "#00ff00", todo.Color)
}

func TestInvalidInput(t *testing.T) {
	e := newTestEnv(t)
	e.seed()

	tests := []struct {
		name string
		args []string
		code apperr.Code
	}{
		{"unknown kind", []string{"add", "widget", "X"}, apperr.ErrCodeInvalidKind},
		{"bad position", []string{"add", "note", "X", "--at", "1"}, apperr.ErrCodeInvalidInput},
		{"unknown item", []string{"mv", "ghost", "home"}, apperr.ErrCodeItemNotFound},
		{"parent and root", []string{"mv", "todo", "home", "--root"}, apperr.ErrCodeInvalidInput},
		{"bad parent end", []string{"connect", "home", "todo", "--parent", "middle"}, apperr.ErrCodeInvalidInput},
		{"bad coordinates", []string{"move", "home", "x", "1"}, apperr.ErrCodeInvalidInput},
		{"zero steps", []string{"drag", "home", "1", "1", "--steps", "0"}, apperr.ErrCodeInvalidInput},
		{"steps below threshold", []string{"drag", "home", "1", "1", "--steps", "20"}, apperr.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.run(tt.args...)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestExportDOT(t *testing.T) {
	e := newTestEnv(t)
	e.seed()
	e.mustRun("collapse", "sub")

	out := filepath.Join(e.dir, "out", "canvas.dot")
	e.mustRun("export", "-f", "dot", "-o", out)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"home"`)
	assert.NotContains(t, string(data), `"deep"`)

	e.mustRun("export", "-f", "dot", "-o", out, "--hidden")
	data, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"deep"`)

	assert.Error(t, e.run("export", "-f", "gif", "-o", out))
	assert.Error(t, e.run("export", "-f", "dot,json"))
}

func TestConfigInit(t *testing.T) {
	e := newTestEnv(t)
	path := filepath.Join(e.dir, "tc.toml")

	e.mustRun("--config", path, "config", "init")
	_, err := os.Stat(path)
	require.NoError(t, err)

	// An existing file is left alone without --force.
	require.NoError(t, os.WriteFile(path, []byte("workspace = \"notes\"\n"), 0644))
	e.mustRun("--config", path, "config", "init")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "workspace = \"notes\"\n", string(data))

	e.mustRun("--config", path, "config", "init", "--force")
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `workspace = "default"`)
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		output  string
		formats []string
		want    map[string]string
	}{
		{"canvas.svg", []string{"svg"}, map[string]string{"svg": "canvas.svg"}},
		{"out/canvas", []string{"svg", "png"}, map[string]string{"svg": "out/canvas.svg", "png": "out/canvas.png"}},
		{"out/canvas.svg", []string{"svg", "pdf"}, map[string]string{"svg": "out/canvas.svg", "pdf": "out/canvas.pdf"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, outputPaths(tt.output, tt.formats))
	}
	assert.Equal(t, []string{"svg"}, parseFormats(""))
	assert.Equal(t, []string{"dot", "json"}, parseFormats(" DOT, json,"))
}
