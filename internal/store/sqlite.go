package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"todotree-cli/internal/model"
	"todotree-cli/internal/outline"

	_ "modernc.org/sqlite"
)

const sqliteFileName = "index.sqlite"

func (s Store) sqlitePath() string {
	return filepath.Join(filepath.Clean(s.Dir), sqliteFileName)
}

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// WAL enables one writer + many readers; busy_timeout avoids
	// "database is locked" flakiness when the CLI and TUI overlap.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			parent_id TEXT NOT NULL,
			order_num REAL NOT NULL,
			name TEXT NOT NULL,
			status_id TEXT NOT NULL,
			tags_json TEXT NOT NULL,
			json TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_items_parent ON items(parent_id, order_num);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			ts_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_entity ON events(entity_id, ts_unixms);`,
		`CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts_unixms);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (s Store) LoadSQLite(ctx context.Context) (*DB, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	out := &DB{Version: 1}

	var v string
	_ = db.QueryRowContext(ctx, `SELECT v FROM meta WHERE k = ?`, "version").Scan(&v)
	if n, err := parseInt(v); err == nil && n > 0 {
		out.Version = n
	}

	rows, err := db.QueryContext(ctx, `SELECT json FROM items`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var js string
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		var it model.Item
		if err := json.Unmarshal([]byte(js), &it); err != nil {
			return nil, err
		}
		out.Items = append(out.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []model.Item{}
	}

	out.sortCanonical()
	return out, nil
}

// SaveSQLite writes the whole snapshot in one transaction (replace-all: simple
// and atomic; readers never observe a half-applied state).
func (s Store) SaveSQLite(ctx context.Context, st *DB) error {
	if st == nil {
		return errors.New("nil db")
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta(k, v) VALUES(?, ?)`, "version", fmt.Sprintf("%d", st.Version)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return err
	}

	for _, it := range st.Items {
		raw, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("marshal item %s: %w", it.ID, err)
		}
		tagsJSON, _ := json.Marshal(it.Tags)
		if _, err := tx.ExecContext(ctx, `INSERT INTO items(
			id, parent_id, order_num, name, status_id, tags_json, json,
			created_at_unixms, updated_at_unixms
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, it.Parent(), it.Order, it.Name, strings.TrimSpace(it.StatusID),
			string(tagsJSON), string(raw),
			it.CreatedAt.UTC().UnixMilli(), it.UpdatedAt.UTC().UnixMilli(),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ApplyBatch applies a resolved reorder/reparent batch as one atomic write and
// returns the snapshot the store now holds. Unknown ids are skipped, matching
// the batch-update contract: the batch is advisory per item, atomic as a whole.
// On error the database is unchanged and the input snapshot is untouched.
func (s Store) ApplyBatch(ctx context.Context, db *DB, updates []outline.Update) (*DB, error) {
	next := db.clone()
	now := time.Now().UTC()
	for _, u := range updates {
		it, ok := next.FindItem(u.ID)
		if !ok {
			continue
		}
		it.Order = u.Order
		if u.SetParent {
			if u.ParentID == nil {
				it.ParentID = nil
			} else {
				pid := strings.TrimSpace(*u.ParentID)
				it.ParentID = &pid
			}
		}
		it.UpdatedAt = now
	}
	next.sortCanonical()

	if err := s.SaveSQLite(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// AppendEvent records one mutation in the append-only event log. Best-effort
// callers may ignore the error; the log is observability, not source of truth.
func (s Store) AppendEvent(typ, entityID string, payload any) error {
	ctx := context.Background()
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := newRandomID("evt")
	if err != nil {
		return err
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		payloadJSON = []byte("{}")
	}
	_, err = db.ExecContext(ctx, `INSERT INTO events(id, type, entity_id, payload_json, ts_unixms) VALUES(?, ?, ?, ?, ?)`,
		id, typ, strings.TrimSpace(entityID), string(payloadJSON), time.Now().UTC().UnixMilli())
	return err
}

// ReadEvents returns events oldest-first. limit <= 0 means all; otherwise the
// most recent limit entries (still oldest-first within the window).
func (s Store) ReadEvents(ctx context.Context, limit int) ([]model.Event, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	q := `SELECT id, type, entity_id, payload_json, ts_unixms FROM events ORDER BY ts_unixms, id`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var ev model.Event
		var payloadJSON string
		var tsMs int64
		if err := rows.Scan(&ev.ID, &ev.Type, &ev.EntityID, &payloadJSON, &tsMs); err != nil {
			return nil, err
		}
		ev.TS = time.UnixMilli(tsMs).UTC()
		var payload any
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err == nil {
			ev.Payload = payload
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	if out == nil {
		out = []model.Event{}
	}
	return out, nil
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty")
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errors.New("invalid int")
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}
