package canvas

import "github.com/matzehuels/treecanvas/pkg/geom"

// Callbacks receives committed changes so the item store can persist them.
// They are invoked synchronously after the session has updated its state.
type Callbacks interface {
	OnPositionChange(id string, pos geom.Point, kind Kind)
	OnParentChange(id, newParent string)
	OnCollapseChange(id string, collapsed bool)
}

// NopCallbacks ignores every change.
type NopCallbacks struct{}

func (NopCallbacks) OnPositionChange(string, geom.Point, Kind) {}
func (NopCallbacks) OnParentChange(string, string)             {}
func (NopCallbacks) OnCollapseChange(string, bool)             {}

// CallbackFuncs adapts plain functions to Callbacks. Nil fields are skipped.
type CallbackFuncs struct {
	Position func(id string, pos geom.Point, kind Kind)
	Parent   func(id, newParent string)
	Collapse func(id string, collapsed bool)
}

func (c CallbackFuncs) OnPositionChange(id string, pos geom.Point, kind Kind) {
	if c.Position != nil {
		c.Position(id, pos, kind)
	}
}

func (c CallbackFuncs) OnParentChange(id, newParent string) {
	if c.Parent != nil {
		c.Parent(id, newParent)
	}
}

func (c CallbackFuncs) OnCollapseChange(id string, collapsed bool) {
	if c.Collapse != nil {
		c.Collapse(id, collapsed)
	}
}

var (
	_ Callbacks = NopCallbacks{}
	_ Callbacks = CallbackFuncs{}
)
