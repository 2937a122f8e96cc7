package forest

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Forest.AddNode] when the id is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Forest.AddNode] when a node with the
	// same id already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownNode is returned when an operation references a node that is
	// not in the forest.
	ErrUnknownNode = errors.New("unknown node")

	// ErrSelfLink is returned by [Forest.Link] when parent and child are the
	// same node.
	ErrSelfLink = errors.New("node cannot be its own parent")

	// ErrCycle is returned by [Forest.Link] when the child is already an
	// ancestor of the prospective parent, and by [Forest.Validate] when the
	// parent pointers contain a loop.
	ErrCycle = errors.New("link would create a cycle")
)

// Edge is a parent -> child connection. From is always the parent.
type Edge struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
}

// Forest is a set of nodes with at most one parent each.
//
// The zero value is not usable - use New to create a Forest.
type Forest struct {
	order    []string
	nodes    map[string]struct{}
	parent   map[string]string
	children map[string][]string
	revision uint64
}

// New creates an empty forest.
func New() *Forest {
	return &Forest{
		nodes:    make(map[string]struct{}),
		parent:   make(map[string]string),
		children: make(map[string][]string),
	}
}

// FromEdges builds a forest from a node list and a parent -> child edge list.
// Edges that reference unknown nodes or would create a cycle are skipped and
// returned so the caller can report them.
func FromEdges(ids []string, edges []Edge) (*Forest, []Edge) {
	f := New()
	for _, id := range ids {
		_ = f.AddNode(id)
	}
	var skipped []Edge
	for _, e := range edges {
		if err := f.Link(e.From, e.To); err != nil {
			skipped = append(skipped, e)
		}
	}
	return f, skipped
}

// AddNode adds a node without a parent.
// Returns ErrInvalidNodeID for an empty id or ErrDuplicateNodeID if the id
// is already present.
func (f *Forest) AddNode(id string) error {
	if id == "" {
		return ErrInvalidNodeID
	}
	if _, ok := f.nodes[id]; ok {
		return ErrDuplicateNodeID
	}
	f.nodes[id] = struct{}{}
	f.order = append(f.order, id)
	f.revision++
	return nil
}

// RemoveNode deletes a node. Its children become roots.
func (f *Forest) RemoveNode(id string) {
	if _, ok := f.nodes[id]; !ok {
		return
	}
	f.Unlink(id)
	for _, c := range f.children[id] {
		delete(f.parent, c)
	}
	delete(f.children, id)
	delete(f.nodes, id)
	f.order = slices.DeleteFunc(f.order, func(s string) bool { return s == id })
	f.revision++
}

// CanLink reports whether child may be attached under parent.
// It returns nil when the link is allowed, ErrUnknownNode when either node is
// missing, ErrSelfLink when they are the same node, and ErrCycle when child
// is already an ancestor of parent.
//
// The check walks parent's ancestor chain, so it runs in O(depth).
func (f *Forest) CanLink(parent, child string) error {
	if !f.Has(parent) || !f.Has(child) {
		return ErrUnknownNode
	}
	if parent == child {
		return ErrSelfLink
	}
	if f.IsAncestor(child, parent) {
		return ErrCycle
	}
	return nil
}

// Link attaches child under parent, replacing any previous parent of child.
// The forest is left unchanged when CanLink rejects the link.
func (f *Forest) Link(parent, child string) error {
	if err := f.CanLink(parent, child); err != nil {
		return err
	}
	if old, ok := f.parent[child]; ok {
		if old == parent {
			return nil
		}
		f.detach(old, child)
	}
	f.parent[child] = parent
	f.children[parent] = append(f.children[parent], child)
	f.revision++
	return nil
}

// Unlink detaches child from its parent, making it a root.
// It is a no-op for roots and unknown nodes.
func (f *Forest) Unlink(child string) {
	old, ok := f.parent[child]
	if !ok {
		return
	}
	f.detach(old, child)
	delete(f.parent, child)
	f.revision++
}

func (f *Forest) detach(parent, child string) {
	f.children[parent] = slices.DeleteFunc(f.children[parent], func(s string) bool { return s == child })
	if len(f.children[parent]) == 0 {
		delete(f.children, parent)
	}
}

// Has reports whether the node exists.
func (f *Forest) Has(id string) bool {
	_, ok := f.nodes[id]
	return ok
}

// Parent returns the parent of id and true, or "" and false for roots and
// unknown nodes.
func (f *Forest) Parent(id string) (string, bool) {
	p, ok := f.parent[id]
	return p, ok
}

// Children returns the ordered child ids of id. The slice is a read-only
// view and must not be modified.
func (f *Forest) Children(id string) []string { return f.children[id] }

// HasChildren reports whether id has at least one child.
func (f *Forest) HasChildren(id string) bool { return len(f.children[id]) > 0 }

// Ancestors returns the chain of ancestors of id, nearest first.
// A visited set stops the walk if the parent pointers were ever corrupted.
func (f *Forest) Ancestors(id string) []string {
	var out []string
	seen := map[string]bool{id: true}
	for cur, ok := f.parent[id]; ok; cur, ok = f.parent[cur] {
		if seen[cur] {
			break
		}
		seen[cur] = true
		out = append(out, cur)
	}
	return out
}

// IsAncestor reports whether ancestor appears on id's ancestor chain.
func (f *Forest) IsAncestor(ancestor, id string) bool {
	seen := map[string]bool{id: true}
	for cur, ok := f.parent[id]; ok; cur, ok = f.parent[cur] {
		if cur == ancestor {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
	}
	return false
}

// Depth returns the number of ancestors of id (0 for roots).
func (f *Forest) Depth(id string) int { return len(f.Ancestors(id)) }

// Descendants returns every node below id in depth-first pre-order.
// The root itself is not included.
func (f *Forest) Descendants(id string) []string {
	var out []string
	visited := map[string]bool{id: true}
	var walk func(string)
	walk = func(n string) {
		for _, c := range f.children[n] {
			if visited[c] {
				continue
			}
			visited[c] = true
			out = append(out, c)
			walk(c)
		}
	}
	walk(id)
	return out
}

// Subtree returns id followed by its descendants.
func (f *Forest) Subtree(id string) []string {
	if !f.Has(id) {
		return nil
	}
	return append([]string{id}, f.Descendants(id)...)
}

// Roots returns the nodes without a parent in insertion order.
func (f *Forest) Roots() []string {
	var roots []string
	for _, id := range f.order {
		if _, ok := f.parent[id]; !ok {
			roots = append(roots, id)
		}
	}
	return roots
}

// Walk returns every node in pre-order: each root followed by its
// descendants, roots in insertion order. Parents always precede children.
func (f *Forest) Walk() []string {
	out := make([]string, 0, len(f.order))
	for _, r := range f.Roots() {
		out = append(out, f.Subtree(r)...)
	}
	return out
}

// Nodes returns all node ids in insertion order.
func (f *Forest) Nodes() []string { return slices.Clone(f.order) }

// Edges returns every parent -> child edge, grouped by parent in node
// insertion order and by child in link order.
func (f *Forest) Edges() []Edge {
	var edges []Edge
	for _, p := range f.order {
		for _, c := range f.children[p] {
			edges = append(edges, Edge{From: p, To: c})
		}
	}
	return edges
}

// NodeCount returns the number of nodes.
func (f *Forest) NodeCount() int { return len(f.nodes) }

// EdgeCount returns the number of parent -> child edges.
func (f *Forest) EdgeCount() int { return len(f.parent) }

// Revision returns a counter that changes on every structural mutation.
func (f *Forest) Revision() uint64 { return f.revision }

// Clone returns a deep copy of the forest.
func (f *Forest) Clone() *Forest {
	c := New()
	c.order = slices.Clone(f.order)
	for id := range f.nodes {
		c.nodes[id] = struct{}{}
	}
	for k, v := range f.parent {
		c.parent[k] = v
	}
	for k, v := range f.children {
		c.children[k] = slices.Clone(v)
	}
	c.revision = f.revision
	return c
}

// Validate checks that every parent pointer references a known node and
// that no node is its own ancestor. Link never produces an invalid forest;
// Validate exists for forests assembled from untrusted data.
//
// Cycle detection runs in O(N) using white/gray/black coloring.
func (f *Forest) Validate() error {
	for child, parent := range f.parent {
		if !f.Has(child) || !f.Has(parent) {
			return ErrUnknownNode
		}
	}

	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(f.nodes))
	for _, start := range f.order {
		if color[start] != white {
			continue
		}
		var path []string
		cur := start
		for {
			if color[cur] == gray {
				return ErrCycle
			}
			if color[cur] == black {
				break
			}
			color[cur] = gray
			path = append(path, cur)
			p, ok := f.parent[cur]
			if !ok {
				break
			}
			cur = p
		}
		for _, id := range path {
			color[id] = black
		}
	}
	return nil
}
