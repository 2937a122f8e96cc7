package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/treecanvas/pkg/canvas"
	"github.com/matzehuels/treecanvas/pkg/store"
)

// workspace is a session loaded from the configured store. Position,
// parent and collapse changes are debounced by the persister; lifecycle
// changes are written through it right away.
type workspace struct {
	store     store.Store
	persister *store.Persister
	sess      *canvas.Session
}

// openWorkspace loads every item of the configured workspace.
func (c *CLI) openWorkspace(ctx context.Context) (*workspace, error) {
	st, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	items, err := st.List(ctx)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load items: %w", err)
	}
	p := store.NewPersister(st, c.cfg.Persist.Debounce.Std(), c.Logger)
	sess := canvas.NewSession(c.sessionOptions(p))
	sess.Sync(items)
	printIssues(sess.Issues())
	return &workspace{store: st, persister: p, sess: sess}, nil
}

// add creates an item and stores it together with the position the
// projection assigned.
func (w *workspace) add(ctx context.Context, n canvas.NewItem) (canvas.Item, error) {
	it, err := w.sess.Add(n)
	if err != nil {
		return canvas.Item{}, err
	}
	if it.Position == nil {
		if node, ok := w.sess.Graph().Node(it.ID); ok {
			p := node.Position
			it.Position = &p
		}
	}
	if err := w.persister.Put(ctx, it); err != nil {
		return canvas.Item{}, fmt.Errorf("save %s: %w", it.ID, err)
	}
	return it, nil
}

// remove deletes an item, or its whole subtree with cascade.
func (w *workspace) remove(ctx context.Context, id string, cascade bool) (canvas.RemoveResult, error) {
	res, err := w.sess.Remove(id, cascade)
	if err != nil {
		return res, err
	}
	if err := w.persister.Delete(ctx, res.Removed...); err != nil {
		return res, fmt.Errorf("delete %s: %w", id, err)
	}
	return res, nil
}

// update applies fn to the stored copy of id.
func (w *workspace) update(ctx context.Context, id string, fn func(*canvas.Item)) error {
	return w.persister.Update(ctx, id, fn)
}

// close flushes pending changes and closes the store.
func (w *workspace) close(ctx context.Context) error {
	return errors.Join(w.persister.Close(ctx), w.store.Close())
}
