package cache

import "strings"

// Key prefixes, also used as the keyType of observability cache events.
const (
	KindProjection = "projection"
	KindLayout     = "layout"
	KindExport     = "export"
)

// Keyer builds cache keys. Implementations must be deterministic.
type Keyer interface {
	// ProjectionKey identifies the render graph projected from an item set.
	ProjectionKey(itemsHash string) string

	// LayoutKey identifies an auto-layout of one subtree.
	LayoutKey(itemsHash string, opts LayoutKeyOpts) string

	// ExportKey identifies an exported render graph.
	ExportKey(graphHash string, opts ExportKeyOpts) string
}

// LayoutKeyOpts are the inputs of a layout besides the items.
type LayoutKeyOpts struct {
	Root           string  `json:"root"`
	NodeSpacing    float64 `json:"node_spacing"`
	SubtreeSpacing float64 `json:"subtree_spacing"`
	LevelSpacing   float64 `json:"level_spacing"`
	ChildrenPerRow int     `json:"children_per_row"`
	MinRowSpacing  float64 `json:"min_row_spacing"`
	GridSize       float64 `json:"grid_size"`
	// DefaultWidth and DefaultHeight size the items without a reported size.
	DefaultWidth  float64 `json:"default_width"`
	DefaultHeight float64 `json:"default_height"`
}

// ExportKeyOpts are the inputs of an export besides the render graph.
type ExportKeyOpts struct {
	Format        string  `json:"format"`
	IncludeHidden bool    `json:"include_hidden"`
	Detailed      bool    `json:"detailed"`
	Scale         float64 `json:"scale,omitempty"`
}

// DefaultKeyer hashes the key inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) ProjectionKey(itemsHash string) string {
	return KindProjection + ":" + itemsHash
}

func (DefaultKeyer) LayoutKey(itemsHash string, opts LayoutKeyOpts) string {
	return hashKey(KindLayout, itemsHash, opts)
}

func (DefaultKeyer) ExportKey(graphHash string, opts ExportKeyOpts) string {
	return hashKey(KindExport+":"+strings.ToLower(opts.Format), graphHash, opts)
}

// KindOf returns the artifact kind encoded in key, ignoring any scope
// prefix added by [ScopedKeyer].
func KindOf(key string) string {
	for _, k := range []string{KindProjection, KindLayout, KindExport} {
		if strings.HasPrefix(key, k+":") || strings.Contains(key, ":"+k+":") {
			return k
		}
	}
	return "unknown"
}

var _ Keyer = DefaultKeyer{}
