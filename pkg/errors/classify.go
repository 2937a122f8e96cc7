package errors

import (
	"errors"

	"github.com/matzehuels/treecanvas/pkg/canvas"
	"github.com/matzehuels/treecanvas/pkg/forest"
	"github.com/matzehuels/treecanvas/pkg/graph"
	"github.com/matzehuels/treecanvas/pkg/layout"
	"github.com/matzehuels/treecanvas/pkg/store"
)

// Classify returns the code for err. An *Error keeps its own code; known
// sentinel errors from the core packages are mapped; anything else is
// ErrCodeInternal.
func Classify(err error) Code {
	if err == nil {
		return ""
	}
	if code := GetCode(err); code != "" {
		return code
	}
	switch {
	case errors.Is(err, canvas.ErrUnknownItem),
		errors.Is(err, forest.ErrUnknownNode),
		errors.Is(err, layout.ErrRootNotFound):
		return ErrCodeItemNotFound
	case errors.Is(err, store.ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, canvas.ErrInvalidKind), errors.Is(err, canvas.ErrParentKind):
		return ErrCodeInvalidKind
	case errors.Is(err, forest.ErrCycle), errors.Is(err, forest.ErrSelfLink):
		return ErrCodeCycle
	case errors.Is(err, canvas.ErrDuplicateItem):
		return ErrCodeConflict
	case errors.Is(err, layout.ErrInvalidOptions):
		return ErrCodeInvalidConfig
	case errors.Is(err, graph.ErrUnsupportedVersion):
		return ErrCodeUnsupported
	case errors.Is(err, store.ErrUnavailable):
		return ErrCodeStore
	}
	return ErrCodeInternal
}

// From wraps err into an *Error carrying its classified code. It returns
// nil for a nil error and err itself when it already is an *Error.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: Classify(err), Message: err.Error(), Cause: err}
}
