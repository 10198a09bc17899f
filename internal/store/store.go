package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"todotree-cli/internal/model"
	"todotree-cli/internal/outline"
)

const storeDirName = ".todotree"

// DB is an in-memory snapshot of the record store. Every Load returns a fresh
// snapshot; mutations go back through Save/ApplyBatch, never through readers.
type DB struct {
	Version int          `json:"version"`
	Items   []model.Item `json:"items"`

	// Derived child index for fast lookups. Not persisted.
	idxBuilt            bool                    `json:"-"`
	idxChildrenByParent map[string][]model.Item `json:"-"`
}

type Store struct {
	Dir string
}

// DiscoverDir walks up from start looking for a .todotree directory.
func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, storeDirName)
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func DefaultDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, ok := DiscoverDir(cwd); ok {
		return found, nil
	}
	return filepath.Join(cwd, storeDirName), nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) Load() (*DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	return s.LoadSQLite(context.Background())
}

func (s Store) Save(db *DB) error {
	if err := s.Ensure(); err != nil {
		return err
	}
	return s.SaveSQLite(context.Background(), db)
}

func (db *DB) FindItem(id string) (*model.Item, bool) {
	for i := range db.Items {
		if db.Items[i].ID == id {
			return &db.Items[i], true
		}
	}
	return nil, false
}

func (db *DB) ensureIndexes() {
	if db == nil || db.idxBuilt {
		return
	}
	db.idxChildrenByParent = map[string][]model.Item{}
	for _, it := range db.Items {
		pid := it.Parent()
		if pid == "" {
			continue
		}
		db.idxChildrenByParent[pid] = append(db.idxChildrenByParent[pid], it)
	}
	db.idxBuilt = true
}

// ChildrenOf returns the direct children of an item, in canonical sibling order.
func (db *DB) ChildrenOf(parentID string) []model.Item {
	if db == nil {
		return nil
	}
	db.ensureIndexes()
	return db.idxChildrenByParent[strings.TrimSpace(parentID)]
}

// clone copies the snapshot deep enough that mutating the copy's items never
// leaks into the original (parent pointers included).
func (db *DB) clone() *DB {
	out := &DB{Version: db.Version, Items: make([]model.Item, len(db.Items))}
	copy(out.Items, db.Items)
	for i := range out.Items {
		if out.Items[i].ParentID != nil {
			pid := *out.Items[i].ParentID
			out.Items[i].ParentID = &pid
		}
		if out.Items[i].Tags != nil {
			out.Items[i].Tags = append([]string(nil), out.Items[i].Tags...)
		}
	}
	return out
}

// sortCanonical puts items in the order readers expect: the sibling comparator
// applied globally (Order, then CreatedAt, then ID). Root rows come out of
// projection in exactly this relative order.
func (db *DB) sortCanonical() {
	sort.SliceStable(db.Items, func(i, j int) bool {
		return outline.CompareSiblings(db.Items[i], db.Items[j]) < 0
	})
	db.idxBuilt = false
}
