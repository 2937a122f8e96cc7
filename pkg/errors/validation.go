package errors

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/matzehuels/treecanvas/pkg/canvas"
)

// Length limits for user supplied strings.
const (
	MaxItemIDLength    = 128
	MaxLabelLength     = 500
	MaxWorkspaceLength = 64
)

// ValidateItemID validates an item id supplied by a user or client.
// It rejects ids that could not be used as a URL path segment:
//   - No empty ids
//   - No control characters or whitespace
//   - No slashes or backslashes
//   - Maximum length of MaxItemIDLength characters
func ValidateItemID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "item id cannot be empty")
	}
	if len(id) > MaxItemIDLength {
		return New(ErrCodeInvalidInput, "item id too long (max %d characters)", MaxItemIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "item id contains whitespace or control characters")
		}
	}
	if strings.ContainsAny(id, "/\\") {
		return New(ErrCodeInvalidInput, "item id cannot contain slashes")
	}
	return nil
}

// ValidateKind parses an item kind.
func ValidateKind(kind string) (canvas.Kind, error) {
	k, err := canvas.ParseKind(strings.ToLower(strings.TrimSpace(kind)))
	if err != nil {
		return "", Wrap(ErrCodeInvalidKind, err, "kind must be one of folder, note, mindmap")
	}
	return k, nil
}

// ValidateLabel checks a display label. Newlines are allowed, other control
// characters are not.
func ValidateLabel(label string) error {
	if len(label) > MaxLabelLength {
		return New(ErrCodeInvalidInput, "label too long (max %d characters)", MaxLabelLength)
	}
	for _, r := range label {
		if r != '\n' && unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "label contains control characters")
		}
	}
	return nil
}

// colorRegex matches #rgb, #rrggbb and plain lowercase color names.
var colorRegex = regexp.MustCompile(`^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|[a-z]{3,20})$`)

// ValidateColor checks a display color. The empty string clears the color
// and is valid.
func ValidateColor(color string) error {
	if color == "" {
		return nil
	}
	if !colorRegex.MatchString(color) {
		return New(ErrCodeInvalidInput, "invalid color %q (use #rgb, #rrggbb or a color name)", color)
	}
	return nil
}

// workspaceNameRegex matches names safe to use as a file name, table key or
// collection suffix.
var workspaceNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// ValidateWorkspaceName validates a workspace name.
func ValidateWorkspaceName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "workspace name cannot be empty")
	}
	if len(name) > MaxWorkspaceLength {
		return New(ErrCodeInvalidInput, "workspace name too long (max %d characters)", MaxWorkspaceLength)
	}
	if !workspaceNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid workspace name: %q", name)
	}
	return nil
}

// ValidateFormat checks an export format against the allowed list.
func ValidateFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(allowed, ", "))
}
