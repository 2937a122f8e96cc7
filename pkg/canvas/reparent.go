package canvas

import (
	"errors"
	"fmt"

	"github.com/matzehuels/treecanvas/pkg/forest"
)

// Reason explains a reparent decision.
type Reason string

const (
	ReasonOK        Reason = "ok"
	ReasonUnchanged Reason = "unchanged"
	ReasonUnknown   Reason = "unknown_item"
	ReasonSelf      Reason = "self"
	ReasonCycle     Reason = "cycle"
	ReasonKind      Reason = "parent_not_folder"
)

// Decision is the outcome of a reparent attempt. A rejected decision is a
// normal result of dragging, not an error: callers should leave the graph
// as it is and carry on.
type Decision struct {
	Child    string `json:"child"`
	Parent   string `json:"parent"`
	Accepted bool   `json:"accepted"`
	Reason   Reason `json:"reason"`
}

// Changed reports whether the decision altered the hierarchy.
func (d Decision) Changed() bool { return d.Accepted && d.Reason == ReasonOK }

// ValidateReparent decides whether child may be placed under newParent.
// An empty newParent detaches child to the root and is always allowed for
// known items. The check walks newParent's ancestor chain and rejects the
// move if child appears on it.
func ValidateReparent(x *Index, child, newParent string) Decision {
	d := Decision{Child: child, Parent: newParent}
	it, ok := x.Item(child)
	if !ok {
		d.Reason = ReasonUnknown
		return d
	}
	if newParent == "" {
		d.Accepted = true
		d.Reason = ReasonOK
		if it.ParentRef() == "" {
			d.Reason = ReasonUnchanged
		}
		return d
	}

	parent, ok := x.Item(newParent)
	if !ok {
		d.Reason = ReasonUnknown
		return d
	}
	if !parent.Kind.CanParent() {
		d.Reason = ReasonKind
		return d
	}

	switch err := x.f.CanLink(newParent, child); {
	case errors.Is(err, forest.ErrSelfLink):
		d.Reason = ReasonSelf
	case errors.Is(err, forest.ErrCycle):
		d.Reason = ReasonCycle
	case err != nil:
		d.Reason = ReasonUnknown
	default:
		d.Accepted = true
		d.Reason = ReasonOK
		if cur, ok := x.Parent(child); ok && cur == newParent {
			d.Reason = ReasonUnchanged
		}
	}
	return d
}

// End names one endpoint of a connect gesture.
type End int

const (
	// SourceEnd marks the gesture's source as the parent.
	SourceEnd End = iota
	// TargetEnd marks the gesture's target as the parent.
	TargetEnd
)

func (e End) String() string {
	if e == TargetEnd {
		return "target"
	}
	return "source"
}

// MarshalText encodes the end as "source" or "target".
func (e End) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// UnmarshalText accepts "source" or "target".
func (e *End) UnmarshalText(b []byte) error {
	switch string(b) {
	case "source":
		*e = SourceEnd
	case "target":
		*e = TargetEnd
	default:
		return fmt.Errorf("unknown connect end %q", b)
	}
	return nil
}

// ConnectGesture is a drag-to-connect between two nodes. ParentEnd states
// which endpoint becomes the parent.
type ConnectGesture struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	ParentEnd End    `json:"parent_end"`
}

// Resolve returns the parent and child ids of the gesture.
func (g ConnectGesture) Resolve() (parent, child string) {
	if g.ParentEnd == TargetEnd {
		return g.Target, g.Source
	}
	return g.Source, g.Target
}
