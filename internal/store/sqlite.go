package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"todoboard/internal/model"

	_ "modernc.org/sqlite"
)

const sqliteFileName = "board.sqlite"

// SQLite persists the board in a local sqlite file. Each Commit is one
// transaction.
type SQLite struct {
	db       *sql.DB
	path     string
	watchers Watchers
}

// OpenSQLite opens (creating if needed) board.sqlite under dir.
func OpenSQLite(ctx context.Context, dir string) (*SQLite, error) {
	if err := Ensure(dir); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, sqliteFileName)
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// busy_timeout is per connection; keep a single one so it always applies.
	db.SetMaxOpenConns(1)
	// WAL enables one writer + many readers; busy_timeout avoids "database is locked" between processes.
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
	return &SQLite{db: db, path: path}, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS lists (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL,
			ord REAL
		);`,
		`CREATE TABLE IF NOT EXISTS todos (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			done INTEGER NOT NULL DEFAULT 0,
			created_at_unixms INTEGER NOT NULL,
			list_id TEXT NOT NULL,
			ord REAL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_todos_list ON todos(list_id, ord);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Subscribe(fn func(Snapshot)) func() { return s.watchers.Add(fn) }

// Snapshot reads the board. Rows stored without a usable order get one
// in memory; the next Commit or Normalize stores the same keys.
func (s *SQLite) Snapshot(ctx context.Context) (Snapshot, error) {
	snap, missing, err := readSnapshot(ctx, s.db)
	if err != nil {
		return Snapshot{}, err
	}
	_ = NormalizeOrders(&snap, missing)
	return snap, nil
}

func (s *SQLite) Normalize(ctx context.Context) (model.Batch, error) {
	snap, missing, err := readSnapshot(ctx, s.db)
	if err != nil {
		return model.Batch{}, err
	}
	fix := NormalizeOrders(&snap, missing)
	if fix.Empty() {
		return fix, nil
	}
	if err := s.Commit(ctx, fix); err != nil {
		return model.Batch{}, err
	}
	return fix, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func readSnapshot(ctx context.Context, q queryer) (Snapshot, map[string]bool, error) {
	var snap Snapshot
	missing := map[string]bool{}

	rows, err := q.QueryContext(ctx, `SELECT id, name, created_at_unixms, ord FROM lists`)
	if err != nil {
		return Snapshot{}, nil, err
	}
	for rows.Next() {
		var (
			l       model.List
			created int64
			ord     sql.NullFloat64
		)
		if err := rows.Scan(&l.ID, &l.Name, &created, &ord); err != nil {
			_ = rows.Close()
			return Snapshot{}, nil, err
		}
		l.CreatedAt = time.UnixMilli(created).UTC()
		if ord.Valid && !math.IsNaN(ord.Float64) && !math.IsInf(ord.Float64, 0) {
			l.Order = ord.Float64
		} else {
			missing[l.ID] = true
		}
		snap.Lists = append(snap.Lists, l)
	}
	if err := rows.Close(); err != nil {
		return Snapshot{}, nil, err
	}

	rows, err = q.QueryContext(ctx, `SELECT id, text, done, created_at_unixms, list_id, ord FROM todos`)
	if err != nil {
		return Snapshot{}, nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			t       model.Todo
			done    int
			created int64
			ord     sql.NullFloat64
		)
		if err := rows.Scan(&t.ID, &t.Text, &done, &created, &t.ListID, &ord); err != nil {
			return Snapshot{}, nil, err
		}
		t.Done = done != 0
		t.CreatedAt = time.UnixMilli(created).UTC()
		if ord.Valid && !math.IsNaN(ord.Float64) && !math.IsInf(ord.Float64, 0) {
			t.Order = ord.Float64
		} else {
			missing[t.ID] = true
		}
		snap.Todos = append(snap.Todos, t)
	}
	return snap, missing, rows.Err()
}

// Commit validates b against the current rows and writes it in a single
// transaction, together with any pending order fixups.
func (s *SQLite) Commit(ctx context.Context, b model.Batch) error {
	if b.Empty() {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	cur, missing, err := readSnapshot(ctx, tx)
	if err != nil {
		return err
	}
	// Keys in b were planned against the normalized view, so the fixups
	// that view relies on are stored first, in the same transaction.
	fix := NormalizeOrders(&cur, missing)
	next, err := cur.Apply(b)
	if err != nil {
		return err
	}

	fix.Append(b)
	for _, m := range fix.Mutations {
		if err := execMutation(ctx, tx, m); err != nil {
			return fmt.Errorf("%s %s %s: %w", m.Op, m.Kind, m.EntityID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.watchers.Notify(next)
	return nil
}

func execMutation(ctx context.Context, tx *sql.Tx, m model.Mutation) error {
	table := ""
	switch m.Kind {
	case model.KindTodo:
		table = "todos"
	case model.KindList:
		table = "lists"
	default:
		return fmt.Errorf("unknown entity kind %q", m.Kind)
	}
	id := strings.TrimSpace(m.EntityID)

	switch m.Op {
	case model.OpDelete:
		_, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
		return err

	case model.OpCreate:
		f := m.Fields
		created := time.Now().UTC()
		if f.CreatedAt != nil {
			created = *f.CreatedAt
		}
		var ord any
		if f.Order != nil {
			ord = *f.Order
		}
		if m.Kind == model.KindList {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO lists(id, name, created_at_unixms, ord) VALUES(?, ?, ?, ?)`,
				id, deref(f.Name), created.UnixMilli(), ord)
			return err
		}
		done := 0
		if f.Done != nil && *f.Done {
			done = 1
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO todos(id, text, done, created_at_unixms, list_id, ord) VALUES(?, ?, ?, ?, ?, ?)`,
			id, deref(f.Text), done, created.UnixMilli(), strings.TrimSpace(deref(f.ListID)), ord)
		return err

	case model.OpUpdate:
		sets, args := updateColumns(m.Kind, m.Fields)
		if len(sets) == 0 {
			return nil
		}
		args = append(args, id)
		_, err := tx.ExecContext(ctx, `UPDATE `+table+` SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		return err
	}
	return errors.New("unknown op")
}

// updateColumns maps the set fields to columns; fields that do not belong to
// kind are ignored.
func updateColumns(kind model.Kind, f model.Fields) ([]string, []any) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if f.Order != nil {
		add("ord", *f.Order)
	}
	if f.CreatedAt != nil {
		add("created_at_unixms", f.CreatedAt.UnixMilli())
	}
	switch kind {
	case model.KindList:
		if f.Name != nil {
			add("name", *f.Name)
		}
	case model.KindTodo:
		if f.Text != nil {
			add("text", *f.Text)
		}
		if f.Done != nil {
			done := 0
			if *f.Done {
				done = 1
			}
			add("done", done)
		}
		if f.ListID != nil {
			add("list_id", strings.TrimSpace(*f.ListID))
		}
	}
	return sets, args
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
