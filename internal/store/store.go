package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Item statuses.
const (
	StatusDone    = "done"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// Run is one invocation of the downloader.
type Run struct {
	ID         string     `yaml:"id"`
	URL        string     `yaml:"url"`
	Kind       string     `yaml:"kind"`
	StartedAt  time.Time  `yaml:"started_at"`
	FinishedAt *time.Time `yaml:"finished_at,omitempty"`
	Items      int        `yaml:"items"`
	Files      int        `yaml:"files"`
	Bytes      int64      `yaml:"bytes"`
}

// Item is the outcome of one content item within a run.
type Item struct {
	RunID     string `yaml:"-"`
	ItemID    string `yaml:"item_id"`
	PageURL   string `yaml:"page_url"`
	Title     string `yaml:"title"`
	Category  string `yaml:"category"`
	Performer string `yaml:"performer"`
	Status    string `yaml:"status"`
	OK        int    `yaml:"ok"`
	Failed    int    `yaml:"failed"`
}

// File is one file written to disk.
type File struct {
	RunID   string    `yaml:"-"`
	ItemID  string    `yaml:"item_id"`
	URL     string    `yaml:"url"`
	Path    string    `yaml:"path"`
	Size    int64     `yaml:"size"`
	SavedAt time.Time `yaml:"saved_at"`
}

// Store is the download history kept in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// openDB opens a SQLite database at the given path.
func openDB(dbPath string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer, and every :memory: connection would be a
	// separate database.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return sqlDB, nil
}

// Open opens or creates the history database at path and makes sure the
// schema exists.
func Open(path string) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records the start of a run and returns its id.
func (s *Store) StartRun(ctx context.Context, url, kind string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, target_url, kind, started_at) VALUES (?, ?, ?, ?)`,
		id, url, kind, formatTime(time.Now()))
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	return id, nil
}

// FinishRun stamps the end time of a run.
func (s *Store) FinishRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ? WHERE run_id = ?`,
		formatTime(time.Now()), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// RecordItem stores the outcome of an item, replacing an earlier outcome
// for the same item in the same run.
func (s *Store) RecordItem(ctx context.Context, item Item) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (run_id, item_id, page_url, title, category, performer, status, ok_count, failed_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, item_id) DO UPDATE SET
			status = excluded.status,
			ok_count = excluded.ok_count,
			failed_count = excluded.failed_count
	`, item.RunID, item.ItemID, item.PageURL, item.Title, item.Category, item.Performer,
		item.Status, item.OK, item.Failed)
	if err != nil {
		return fmt.Errorf("failed to record item %s: %w", item.ItemID, err)
	}
	return nil
}

// RecordFile stores a written file.
func (s *Store) RecordFile(ctx context.Context, file File) error {
	savedAt := file.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (run_id, item_id, url, path, size_bytes, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, file.RunID, file.ItemID, file.URL, file.Path, file.Size, formatTime(savedAt))
	if err != nil {
		return fmt.Errorf("failed to record file %s: %w", file.URL, err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first, with their totals.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, r.target_url, r.kind, r.started_at, r.finished_at,
			(SELECT COUNT(*) FROM items i WHERE i.run_id = r.run_id),
			(SELECT COUNT(*) FROM files f WHERE f.run_id = r.run_id),
			(SELECT COALESCE(SUM(size_bytes), 0) FROM files f WHERE f.run_id = r.run_id)
		FROM runs r
		ORDER BY r.started_at DESC, r.rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.URL, &run.Kind, &started, &finished, &run.Items, &run.Files, &run.Bytes); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if run.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if finished.Valid {
			t, err := parseTime(finished.String)
			if err != nil {
				return nil, err
			}
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Items returns the items of a run in the order they were recorded.
func (s *Store) Items(ctx context.Context, runID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, page_url, title, category, performer, status, ok_count, failed_count
		FROM items WHERE run_id = ? ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item := Item{RunID: runID}
		if err := rows.Scan(&item.ItemID, &item.PageURL, &item.Title, &item.Category, &item.Performer,
			&item.Status, &item.OK, &item.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Files returns the files of a run in the order they were written.
func (s *Store) Files(ctx context.Context, runID string) ([]File, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, url, path, size_bytes, saved_at
		FROM files WHERE run_id = ? ORDER BY file_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var (
			file   = File{RunID: runID}
			itemID sql.NullString
			saved  string
		)
		if err := rows.Scan(&itemID, &file.URL, &file.Path, &file.Size, &saved); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		file.ItemID = itemID.String
		if file.SavedAt, err = parseTime(saved); err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// timeLayout is fixed width so that stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
