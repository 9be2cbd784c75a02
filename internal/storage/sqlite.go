package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"todo/internal/task"
)

// SQLite stores the list in a tasks table plus a meta row for next_id.
type SQLite struct {
	db   *sql.DB
	path string
}

func OpenSQLite(dbPath string) (*SQLite, error) {
	if dbPath == "" {
		return nil, errors.New("storage: db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("storage: mkdir: %w", err)
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, path: dbPath}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) Location() string {
	return s.path
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY,
	position INTEGER NOT NULL,
	title TEXT NOT NULL,
	priority TEXT NOT NULL,
	status TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	project TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	finished_at TEXT DEFAULT NULL,
	notes TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);`
	_, err := s.db.Exec(ddl)
	return err
}

func (s *SQLite) Load() (*task.List, error) {
	list := task.NewList()

	var next sql.NullInt64
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'next_id';`).Scan(&next)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: read next_id: %w", err)
	}
	if next.Valid && next.Int64 > 0 {
		list.NextID = int(next.Int64)
	}

	rows, err := s.db.Query(`SELECT id, title, priority, status, tags, category, project, created_at, finished_at, notes FROM tasks ORDER BY position, id;`)
	if err != nil {
		return nil, fmt.Errorf("storage: query tasks: %w", err)
	}
	defer rows.Close()

	list.Todos = []task.Task{}
	for rows.Next() {
		var t task.Task
		var priority, status, tags, created string
		var finished sql.NullString
		if err := rows.Scan(&t.ID, &t.Title, &priority, &status, &tags, &t.Category, &t.Project, &created, &finished, &t.Notes); err != nil {
			return nil, fmt.Errorf("storage: scan task: %w", err)
		}
		if t.Priority, err = task.ParsePriority(priority); err != nil {
			return nil, fmt.Errorf("storage: task #%d: %w", t.ID, err)
		}
		if t.Status, err = task.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("storage: task #%d: %w", t.ID, err)
		}
		if tags != "" {
			t.Tags = strings.Split(tags, ",")
		}
		if t.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("storage: task #%d created_at: %w", t.ID, err)
		}
		if finished.Valid {
			fin, err := time.Parse(time.RFC3339Nano, finished.String)
			if err != nil {
				return nil, fmt.Errorf("storage: task #%d finished_at: %w", t.ID, err)
			}
			t.FinishedAt = &fin
		}
		list.Todos = append(list.Todos, t)
		if t.ID >= list.NextID {
			list.NextID = t.ID + 1
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: read tasks: %w", err)
	}
	return list, nil
}

// Save replaces the stored aggregate in one transaction.
func (s *SQLite) Save(list *task.List) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`DELETE FROM tasks;`); err != nil {
		return fmt.Errorf("storage: clear tasks: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO tasks (id, position, title, priority, status, tags, category, project, created_at, finished_at, notes) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("storage: prepare: %w", err)
	}
	defer stmt.Close()

	for i, t := range list.Todos {
		finished := sql.NullString{}
		if t.FinishedAt != nil {
			finished = sql.NullString{String: t.FinishedAt.UTC().Format(time.RFC3339Nano), Valid: true}
		}
		if _, err = stmt.Exec(t.ID, i, t.Title, t.Priority.String(), t.Status.String(),
			strings.Join(t.Tags, ","), t.Category, t.Project,
			t.CreatedAt.UTC().Format(time.RFC3339Nano), finished, t.Notes); err != nil {
			return fmt.Errorf("storage: insert task #%d: %w", t.ID, err)
		}
	}
	if _, err = tx.Exec(`INSERT INTO meta (key, value) VALUES ('next_id', ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value;`, list.NextID); err != nil {
		return fmt.Errorf("storage: write next_id: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit: %w", err)
	}
	return nil
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
