package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/matzehuels/treecanvas/pkg/canvas"
)

// SQLiteStore keeps items in a local SQLite database, one row per item.
// Several workspaces can share one database file.
type SQLiteStore struct {
	db        *sql.DB
	workspace string
}

// NewSQLiteStore opens (or creates) the database at path. Use ":memory:"
// for a throwaway database.
func NewSQLiteStore(path, workspace string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", ErrUnavailable, err)
	}
	// A single connection keeps ":memory:" databases alive and serializes
	// writers.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, workspace: workspace}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: initialize schema: %v", ErrUnavailable, err)
	}
	return s, nil
}

// init creates the database schema
func (s *SQLiteStore) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		workspace TEXT NOT NULL,
		id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		kind TEXT NOT NULL,
		parent TEXT,
		data TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (workspace, id)
	);

	CREATE INDEX IF NOT EXISTS idx_items_parent ON items(workspace, parent);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) List(ctx context.Context) ([]canvas.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM items WHERE workspace = ? ORDER BY seq`, s.workspace)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var items []canvas.Item
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var it canvas.Item
		if err := json.Unmarshal([]byte(data), &it); err != nil {
			return nil, fmt.Errorf("unmarshal item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (canvas.Item, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM items WHERE workspace = ? AND id = ?`, s.workspace, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return canvas.Item{}, fmt.Errorf("item %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return canvas.Item{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var it canvas.Item
	if err := json.Unmarshal([]byte(data), &it); err != nil {
		return canvas.Item{}, fmt.Errorf("unmarshal item: %w", err)
	}
	return it, nil
}

func (s *SQLiteStore) Put(ctx context.Context, items ...canvas.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO items (workspace, id, seq, kind, parent, data, updated_at)
	VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM items WHERE workspace = ?), ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT (workspace, id) DO UPDATE SET
		kind = excluded.kind,
		parent = excluded.parent,
		data = excluded.data,
		updated_at = excluded.updated_at
	`
	for _, it := range items {
		data, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("marshal item %s: %w", it.ID, err)
		}
		var parent sql.NullString
		if ref := it.ParentRef(); ref != "" {
			parent = sql.NullString{String: ref, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, query,
			s.workspace, it.ID, s.workspace, string(it.Kind), parent, string(data)); err != nil {
			return fmt.Errorf("%w: put %s: %v", ErrUnavailable, it.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Delete(ctx context.Context, ids ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM items WHERE workspace = ? AND id = ?`, s.workspace, id); err != nil {
			return fmt.Errorf("%w: delete %s: %v", ErrUnavailable, id, err)
		}
	}
	return tx.Commit()
}

// Children returns the ids of the items whose parent reference is parent.
// It reads the indexed parent column and does not decode item data.
func (s *SQLiteStore) Children(ctx context.Context, parent string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM items WHERE workspace = ? AND parent = ? ORDER BY seq`, s.workspace, parent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

var _ Store = (*SQLiteStore)(nil)
