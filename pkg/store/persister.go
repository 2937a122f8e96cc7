package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/treecanvas/pkg/canvas"
	"github.com/matzehuels/treecanvas/pkg/geom"
)

// DefaultDebounce is the persister's default write window.
const DefaultDebounce = 300 * time.Millisecond

// change accumulates the latest value of each field reported for one item.
type change struct {
	pos       *geom.Point
	parent    *string
	collapsed *bool
}

func (c *change) apply(it *canvas.Item) {
	if c.pos != nil {
		p := *c.pos
		it.Position = &p
	}
	if c.parent != nil {
		it.SetParentRef(*c.parent)
	}
	if c.collapsed != nil {
		it.Collapsed = *c.collapsed
	}
}

// Persister implements canvas.Callbacks by coalescing changes per item and
// writing them to a Store once per debounce window. A drag that reports
// dozens of positions for the same item produces one write.
//
// Flushes and the direct writes made through [Persister.Put],
// [Persister.Delete] and [Persister.Update] never overlap, so a
// read-modify-write of one cannot drop the fields written by another.
type Persister struct {
	store    Store
	debounce time.Duration
	logger   *log.Logger

	// writeMu serializes store writes. It is taken before mu.
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]*change
	order   []string
	timer   *time.Timer
	closed  bool
	lastErr error
}

// NewPersister creates a persister writing to s. A zero debounce uses
// DefaultDebounce; a nil logger uses log.Default().
func NewPersister(s Store, debounce time.Duration, logger *log.Logger) *Persister {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Persister{
		store:    s,
		debounce: debounce,
		logger:   logger,
		pending:  make(map[string]*change),
	}
}

func (p *Persister) OnPositionChange(id string, pos geom.Point, _ canvas.Kind) {
	p.record(id, func(c *change) { c.pos = &pos })
}

func (p *Persister) OnParentChange(id, newParent string) {
	p.record(id, func(c *change) { c.parent = &newParent })
}

func (p *Persister) OnCollapseChange(id string, collapsed bool) {
	p.record(id, func(c *change) { c.collapsed = &collapsed })
}

func (p *Persister) record(id string, fn func(*change)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		p.logger.Warn("change after close dropped", "id", id)
		return
	}
	c, ok := p.pending[id]
	if !ok {
		c = &change{}
		p.pending[id] = c
		p.order = append(p.order, id)
	}
	fn(c)

	if p.timer == nil {
		p.timer = time.AfterFunc(p.debounce, func() {
			if err := p.Flush(context.Background()); err != nil {
				p.logger.Error("persist failed", "err", err)
			}
		})
	}
}

// Pending returns the number of items with unwritten changes.
func (p *Persister) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Flush writes every pending change now. Items that no longer exist in the
// store are skipped. The first write error is returned after all items
// have been attempted.
func (p *Persister) Flush(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	pending, order := p.pending, p.order
	p.pending = make(map[string]*change)
	p.order = nil
	p.mu.Unlock()

	if len(order) == 0 {
		return nil
	}

	var firstErr error
	written := 0
	for _, id := range order {
		c := pending[id]
		err := Update(ctx, p.store, id, c.apply)
		switch {
		case errors.Is(err, ErrNotFound):
			p.logger.Debug("skip persist for removed item", "id", id)
		case err != nil:
			if firstErr == nil {
				firstErr = err
			}
		default:
			written++
		}
	}
	p.logger.Debug("persisted changes", "items", written)

	p.mu.Lock()
	if firstErr != nil {
		p.lastErr = firstErr
	}
	p.mu.Unlock()
	return firstErr
}

// Put writes items to the store outside the debounce window.
func (p *Persister) Put(ctx context.Context, items ...canvas.Item) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.store.Put(ctx, items...)
}

// Delete removes items from the store. Pending changes of those items are
// dropped.
func (p *Persister) Delete(ctx context.Context, ids ...string) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.Lock()
	for _, id := range ids {
		delete(p.pending, id)
	}
	p.order = slices.DeleteFunc(p.order, func(id string) bool {
		_, ok := p.pending[id]
		return !ok
	})
	p.mu.Unlock()
	return p.store.Delete(ctx, ids...)
}

// Update applies fn to the stored copy of id. Pending changes of id stay
// queued and are applied on top by the next flush.
func (p *Persister) Update(ctx context.Context, id string, fn func(*canvas.Item)) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return Update(ctx, p.store, id, fn)
}

// Err returns the last error of a background flush.
func (p *Persister) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Close flushes pending changes and stops accepting new ones.
func (p *Persister) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return p.Flush(ctx)
}

var _ canvas.Callbacks = (*Persister)(nil)
