package graph

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/treecanvas/pkg/canvas"
	"github.com/matzehuels/treecanvas/pkg/geom"
	"github.com/matzehuels/treecanvas/pkg/layout"
)

func TestReadWorkspace(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantItems int
		wantErr   error
		anyErr    bool
		check     func(t *testing.T, ws *Workspace)
	}{
		{
			name: "Valid",
			input: `{
				"version": 1,
				"name": "notes",
				"items": [
					{"id": "inbox", "kind": "folder", "collapsed": true},
					{"id": "todo", "kind": "note", "folder_id": "inbox", "position": {"x": 20, "y": 40}}
				]
			}`,
			wantItems: 2,
			check: func(t *testing.T, ws *Workspace) {
				if ws.Name != "notes" {
					t.Errorf("name = %q", ws.Name)
				}
				if !ws.Items[0].Collapsed {
					t.Error("inbox should be collapsed")
				}
				todo := ws.Items[1]
				if todo.ParentRef() != "inbox" {
					t.Errorf("todo parent = %q", todo.ParentRef())
				}
				if todo.Position == nil || *todo.Position != (geom.Point{X: 20, Y: 40}) {
					t.Errorf("todo position = %v", todo.Position)
				}
			},
		},
		{
			name:      "MissingVersionDefaults",
			input:     `{"items": [{"id": "a", "kind": "mindmap"}]}`,
			wantItems: 1,
			check: func(t *testing.T, ws *Workspace) {
				if ws.Version != FormatVersion {
					t.Errorf("version = %d", ws.Version)
				}
			},
		},
		{
			name:    "NewerVersion",
			input:   `{"version": 99, "items": []}`,
			wantErr: ErrUnsupportedVersion,
		},
		{
			name:   "Malformed",
			input:  `{"items": [`,
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws, err := ReadWorkspace(strings.NewReader(tt.input))
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			case tt.anyErr:
				if err == nil {
					t.Fatal("expected error")
				}
				return
			case err != nil:
				t.Fatalf("ReadWorkspace: %v", err)
			}
			if len(ws.Items) != tt.wantItems {
				t.Errorf("items = %d, want %d", len(ws.Items), tt.wantItems)
			}
			if tt.check != nil {
				tt.check(t, ws)
			}
		})
	}
}

func TestWorkspaceFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ws.json")
	ws := NewWorkspace("demo")
	ws.Items = append(ws.Items,
		canvas.Item{ID: "f", Kind: canvas.KindFolder, Label: "Folder"},
		canvas.Item{ID: "n", Kind: canvas.KindNote, FolderID: "f", Size: geom.Size{Width: 120, Height: 60}},
	)

	if err := WriteWorkspaceFile(ws, path); err != nil {
		t.Fatalf("WriteWorkspaceFile: %v", err)
	}
	got, err := ReadWorkspaceFile(path)
	if err != nil {
		t.Fatalf("ReadWorkspaceFile: %v", err)
	}
	if len(got.Items) != 2 || got.Items[1].Size.Width != 120 {
		t.Errorf("round trip = %+v", got.Items)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

func TestReadWorkspaceFileMissing(t *testing.T) {
	if _, err := ReadWorkspaceFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFromCanvas(t *testing.T) {
	p := canvas.Project([]canvas.Item{
		{ID: "f", Kind: canvas.KindFolder, Color: "#aa0000", Position: &geom.Point{X: 0, Y: 0}},
		{ID: "n", Kind: canvas.KindNote, FolderID: "f", Label: "Note", Position: &geom.Point{X: 0, Y: 160}},
	}, nil, canvas.ProjectOptions{})

	rg := FromCanvas(p.Graph)
	if len(rg.Nodes) != 2 || len(rg.Edges) != 1 {
		t.Fatalf("render graph = %+v", rg)
	}
	if e := rg.Edges[0]; e.From != "f" || e.To != "n" || e.Color != "#aa0000" {
		t.Errorf("edge = %+v", e)
	}
	if n := rg.Nodes[1]; n.DisplayLabel() != "Note" || n.Y != 160 || n.Authority != "seeded" {
		t.Errorf("node = %+v", n)
	}
	if rg.Nodes[0].DisplayLabel() != "f" {
		t.Errorf("label fallback = %q", rg.Nodes[0].DisplayLabel())
	}

	b := rg.Bounds()
	if b.Left != 0 || b.Top != 0 || b.Right != 200 || b.Bottom != 200 {
		t.Errorf("bounds = %+v", b)
	}
}

func TestLayoutRoundTrip(t *testing.T) {
	pos := layout.PositionMap{"b": {X: 1, Y: 2}, "a": {X: 3, Y: 4}}
	l := FromPositions("root", pos, layout.DefaultOptions())
	if l.Positions[0].ID != "a" {
		t.Errorf("positions not sorted: %+v", l.Positions)
	}

	data, err := MarshalLayout(l)
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalLayout(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.PositionMap()["b"] != (geom.Point{X: 1, Y: 2}) {
		t.Errorf("PositionMap = %v", got.PositionMap())
	}
	if got.Options.LevelSpacing != layout.DefaultLevelSpacing {
		t.Errorf("options lost: %+v", got.Options)
	}

	if _, err := UnmarshalLayout([]byte(`{"positions": []}`)); err == nil {
		t.Error("layout without root should fail")
	}
}
