package forest

import (
	"errors"
	"slices"
	"testing"
)

func chain(t *testing.T, ids ...string) *Forest {
	t.Helper()
	f := New()
	for _, id := range ids {
		if err := f.AddNode(id); err != nil {
			t.Fatalf("AddNode(%q): %v", id, err)
		}
	}
	for i := 1; i < len(ids); i++ {
		if err := f.Link(ids[i-1], ids[i]); err != nil {
			t.Fatalf("Link(%q, %q): %v", ids[i-1], ids[i], err)
		}
	}
	return f
}

func TestAddNode(t *testing.T) {
	f := New()
	if err := f.AddNode(""); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(\"\") = %v, want ErrInvalidNodeID", err)
	}
	if err := f.AddNode("a"); err != nil {
		t.Fatalf("AddNode(a) = %v", err)
	}
	if err := f.AddNode("a"); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(a) twice = %v, want ErrDuplicateNodeID", err)
	}
	if f.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d, want 1", f.NodeCount())
	}
}

func TestLinkRejectsCycles(t *testing.T) {
	f := chain(t, "a", "b", "c")
	rev := f.Revision()

	tests := []struct {
		name          string
		parent, child string
		want          error
	}{
		{"self", "b", "b", ErrSelfLink},
		{"grandchild as parent", "c", "a", ErrCycle},
		{"child as parent", "b", "a", ErrCycle},
		{"unknown parent", "zz", "a", ErrUnknownNode},
		{"unknown child", "a", "zz", ErrUnknownNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.Link(tt.parent, tt.child); !errors.Is(err, tt.want) {
				t.Errorf("Link(%q, %q) = %v, want %v", tt.parent, tt.child, err, tt.want)
			}
		})
	}

	if f.Revision() != rev {
		t.Errorf("rejected links changed the revision: %d -> %d", rev, f.Revision())
	}
	if err := f.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if got := f.Edges(); len(got) != 2 {
		t.Errorf("Edges() = %v, want 2 edges", got)
	}
}

func TestLinkReplacesParent(t *testing.T) {
	f := chain(t, "a", "b", "c")
	if err := f.AddNode("d"); err != nil {
		t.Fatal(err)
	}

	if err := f.Link("d", "c"); err != nil {
		t.Fatalf("Link(d, c) = %v", err)
	}

	if p, _ := f.Parent("c"); p != "d" {
		t.Errorf("Parent(c) = %q, want d", p)
	}
	if f.HasChildren("b") {
		t.Errorf("b still has children: %v", f.Children("b"))
	}
	if f.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", f.EdgeCount())
	}
}

func TestAncestorsAndDescendants(t *testing.T) {
	f := chain(t, "root", "mid", "leaf")
	_ = f.AddNode("side")
	_ = f.Link("root", "side")

	if got := f.Ancestors("leaf"); !slices.Equal(got, []string{"mid", "root"}) {
		t.Errorf("Ancestors(leaf) = %v", got)
	}
	if got := f.Descendants("root"); !slices.Equal(got, []string{"mid", "leaf", "side"}) {
		t.Errorf("Descendants(root) = %v", got)
	}
	if got := f.Subtree("mid"); !slices.Equal(got, []string{"mid", "leaf"}) {
		t.Errorf("Subtree(mid) = %v", got)
	}
	if !f.IsAncestor("root", "leaf") || f.IsAncestor("leaf", "root") {
		t.Error("IsAncestor gave the wrong direction")
	}
	if f.Depth("leaf") != 2 || f.Depth("root") != 0 {
		t.Errorf("Depth(leaf)=%d Depth(root)=%d", f.Depth("leaf"), f.Depth("root"))
	}
}

func TestRemoveNodeOrphansChildren(t *testing.T) {
	f := chain(t, "a", "b", "c")
	f.RemoveNode("b")

	if f.Has("b") {
		t.Fatal("b still present")
	}
	if _, ok := f.Parent("c"); ok {
		t.Error("c should be a root after its parent was removed")
	}
	if got := f.Roots(); !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("Roots() = %v, want [a c]", got)
	}
	if f.HasChildren("a") {
		t.Error("a should have no children")
	}
}

func TestWalkParentsFirst(t *testing.T) {
	f := New()
	for _, id := range []string{"leaf", "mid", "root"} {
		_ = f.AddNode(id)
	}
	_ = f.Link("root", "mid")
	_ = f.Link("mid", "leaf")

	if got := f.Walk(); !slices.Equal(got, []string{"root", "mid", "leaf"}) {
		t.Errorf("Walk() = %v", got)
	}
}

func TestFromEdgesSkipsBadEdges(t *testing.T) {
	f, skipped := FromEdges(
		[]string{"a", "b", "c"},
		[]Edge{{From: "a", To: "b"}, {From: "b", To: "c"}, {From: "c", To: "a"}, {From: "x", To: "a"}},
	)

	if len(skipped) != 2 {
		t.Errorf("skipped = %v, want 2 edges", skipped)
	}
	if f.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", f.EdgeCount())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	f := chain(t, "a", "b")
	c := f.Clone()
	_ = c.AddNode("z")
	_ = c.Link("z", "b")

	if p, _ := f.Parent("b"); p != "a" {
		t.Errorf("original Parent(b) = %q, want a", p)
	}
	if f.Has("z") {
		t.Error("clone mutation leaked into original")
	}
}
