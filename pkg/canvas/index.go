package canvas

import (
	"github.com/matzehuels/treecanvas/pkg/forest"
)

// IssueKind classifies a malformed item found while indexing.
type IssueKind string

const (
	IssueDuplicateID   IssueKind = "duplicate_id"
	IssueMissingParent IssueKind = "missing_parent"
	IssueParentKind    IssueKind = "parent_not_folder"
	IssueCycle         IssueKind = "cycle"
	IssueInvalid       IssueKind = "invalid"
)

// Issue describes an item that could not be indexed as given. Items with a
// bad parent reference are kept as roots; duplicates and items without an id
// are dropped.
type Issue struct {
	ItemID string    `json:"item_id"`
	Kind   IssueKind `json:"kind"`
	Parent string    `json:"parent,omitempty"`
}

// Index is the adjacency view of an item collection, built once per
// projection pass. Every ancestor or descendant walk goes through it.
type Index struct {
	f     *forest.Forest
	items map[string]*Item

	descRev uint64
	desc    map[string][]string
}

// BuildIndex indexes items. The first item with a given id wins. A parent
// reference that is missing, points at a non-folder, or would close a cycle
// is treated as absent so one bad record cannot break the whole collection.
func BuildIndex(items []Item) (*Index, []Issue) {
	x := &Index{
		f:     forest.New(),
		items: make(map[string]*Item, len(items)),
	}
	var issues []Issue

	for i := range items {
		it := &items[i]
		if it.ID == "" || !it.Kind.Valid() {
			issues = append(issues, Issue{ItemID: it.ID, Kind: IssueInvalid})
			continue
		}
		if _, dup := x.items[it.ID]; dup {
			issues = append(issues, Issue{ItemID: it.ID, Kind: IssueDuplicateID})
			continue
		}
		x.items[it.ID] = it
		_ = x.f.AddNode(it.ID)
	}

	for _, id := range x.f.Nodes() {
		ref := x.items[id].ParentRef()
		if ref == "" {
			continue
		}
		parent, ok := x.items[ref]
		switch {
		case !ok:
			issues = append(issues, Issue{ItemID: id, Kind: IssueMissingParent, Parent: ref})
		case !parent.Kind.CanParent():
			issues = append(issues, Issue{ItemID: id, Kind: IssueParentKind, Parent: ref})
		default:
			if err := x.f.Link(ref, id); err != nil {
				issues = append(issues, Issue{ItemID: id, Kind: IssueCycle, Parent: ref})
			}
		}
	}
	return x, issues
}

// Forest returns the underlying parent -> child forest.
func (x *Index) Forest() *forest.Forest { return x.f }

// Item returns the indexed item for id.
func (x *Index) Item(id string) (*Item, bool) {
	it, ok := x.items[id]
	return it, ok
}

// Parent returns the effective parent of id after malformed references were
// dropped.
func (x *Index) Parent(id string) (string, bool) { return x.f.Parent(id) }

// Hidden reports whether any strict ancestor of id is collapsed. The answer
// is computed by walking the ancestor chain on every call.
func (x *Index) Hidden(id string) bool {
	for _, a := range x.f.Ancestors(id) {
		if x.items[a].Collapsed {
			return true
		}
	}
	return false
}

// Descendants returns every item below id in depth-first order. Results are
// cached until the forest changes.
func (x *Index) Descendants(id string) []string {
	if rev := x.f.Revision(); x.desc == nil || x.descRev != rev {
		x.desc = make(map[string][]string)
		x.descRev = rev
	}
	if d, ok := x.desc[id]; ok {
		return d
	}
	d := x.f.Descendants(id)
	x.desc[id] = d
	return d
}

// Walk returns all item ids, parents before children.
func (x *Index) Walk() []string { return x.f.Walk() }
