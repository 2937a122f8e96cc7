// Package observability provides hooks for metrics, tracing and logging.
//
// Libraries emit events through the registered hooks; nothing is recorded
// unless an application registers its own implementation at startup. The
// canvas core itself never calls these hooks. The pipeline runner and the
// HTTP server call them around core operations.
//
// # Usage
//
// Register hooks at startup:
//
//	func main() {
//	    observability.SetLayoutHooks(&myLayoutHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Emit events:
//
//	observability.Layout().OnLayoutStart(ctx, rootID, nodeCount)
//	// ... lay out ...
//	observability.Layout().OnLayoutComplete(ctx, rootID, moved, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives auto-layout events.
type LayoutHooks interface {
	OnLayoutStart(ctx context.Context, root string, nodeCount int)
	OnLayoutComplete(ctx context.Context, root string, positioned int, duration time.Duration, err error)
}

// =============================================================================
// Sync Hooks
// =============================================================================

// SyncHooks receives events from the graph synchronization layer.
type SyncHooks interface {
	// OnProject records a projection pass.
	OnProject(ctx context.Context, nodes, hidden, issues int, duration time.Duration)

	// OnReparent records a reparent decision, accepted or not.
	OnReparent(ctx context.Context, child, parent, reason string, accepted bool)

	// OnDrag records one drag batch.
	OnDrag(ctx context.Context, id string, moved int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLayoutHooks ignores every event.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayoutStart(context.Context, string, int)                           {}
func (NoopLayoutHooks) OnLayoutComplete(context.Context, string, int, time.Duration, error) {}

// NoopSyncHooks ignores every event.
type NoopSyncHooks struct{}

func (NoopSyncHooks) OnProject(context.Context, int, int, int, time.Duration)      {}
func (NoopSyncHooks) OnReparent(context.Context, string, string, string, bool) {}
func (NoopSyncHooks) OnDrag(context.Context, string, int)                      {}

// NoopCacheHooks ignores every event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	layoutHooks LayoutHooks = NoopLayoutHooks{}
	syncHooks   SyncHooks   = NoopSyncHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	hooksMu     sync.RWMutex
)

// SetLayoutHooks registers layout hooks. Nil is ignored.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetSyncHooks registers sync hooks. Nil is ignored.
func SetSyncHooks(h SyncHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		syncHooks = h
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Sync returns the registered sync hooks.
func Sync() SyncHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return syncHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores the no-op defaults. Intended for tests.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	layoutHooks = NoopLayoutHooks{}
	syncHooks = NoopSyncHooks{}
	cacheHooks = NoopCacheHooks{}
}
