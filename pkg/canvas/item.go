package canvas

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/matzehuels/treecanvas/pkg/geom"
)

var (
	// ErrUnknownItem is returned when an operation references an item the
	// session does not hold.
	ErrUnknownItem = errors.New("unknown item")

	// ErrParentKind is returned when an operation needs a folder but the
	// referenced item is a note or mind-map.
	ErrParentKind = errors.New("item is not a folder")

	// ErrInvalidKind is returned for an unrecognized item kind.
	ErrInvalidKind = errors.New("invalid item kind")
)

// Kind is the type of a hierarchical item.
type Kind string

const (
	KindFolder  Kind = "folder"
	KindNote    Kind = "note"
	KindMindmap Kind = "mindmap"
)

// Kinds lists every valid kind.
var Kinds = []Kind{KindFolder, KindNote, KindMindmap}

// ParseKind converts a string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindFolder, KindNote, KindMindmap:
		return true
	}
	return false
}

// CanParent reports whether items of kind k may have children.
// Only folders can contain other items or be collapsed.
func (k Kind) CanParent() bool { return k == KindFolder }

// Item is a folder, note or mind-map owned by the item store.
//
// Folders reference their parent through ParentID, notes and mind-maps
// through FolderID. Use [Item.ParentRef] and [Item.SetParentRef] rather than
// the raw fields.
type Item struct {
	ID        string      `json:"id" bson:"_id"`
	Kind      Kind        `json:"kind" bson:"kind"`
	ParentID  string      `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	FolderID  string      `json:"folder_id,omitempty" bson:"folder_id,omitempty"`
	Position  *geom.Point `json:"position,omitempty" bson:"position,omitempty"`
	Collapsed bool        `json:"collapsed,omitempty" bson:"collapsed,omitempty"`
	Label     string      `json:"label,omitempty" bson:"label,omitempty"`
	Color     string      `json:"color,omitempty" bson:"color,omitempty"`
	Size      geom.Size   `json:"size,omitzero" bson:"size"`
}

// ParentRef returns the id of the item's parent, or "" for roots.
func (it Item) ParentRef() string {
	if it.Kind == KindFolder {
		return it.ParentID
	}
	return it.FolderID
}

// SetParentRef points the item at a new parent. An empty id makes it a root.
func (it *Item) SetParentRef(parent string) {
	if it.Kind == KindFolder {
		it.ParentID, it.FolderID = parent, ""
		return
	}
	it.ParentID, it.FolderID = "", parent
}

// IsRoot reports whether the item has no parent reference.
func (it Item) IsRoot() bool { return it.ParentRef() == "" }

// Clone returns a copy that does not share the position pointer.
func (it Item) Clone() Item {
	if it.Position != nil {
		p := *it.Position
		it.Position = &p
	}
	return it
}

// NewID returns a fresh random item id.
func NewID() string { return uuid.NewString() }
