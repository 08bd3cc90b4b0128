package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/resumatch/internal/vector"
)

// Store persists a corpus in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func OpenStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		job_id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL,
		embedding BLOB NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_position ON jobs(position);

	CREATE TABLE IF NOT EXISTS corpus_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Replace atomically swaps the stored corpus for records.
func (s *Store) Replace(ctx context.Context, meta Meta, records []JobRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM jobs"); err != nil {
		return fmt.Errorf("clear jobs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM corpus_meta"); err != nil {
		return fmt.Errorf("clear meta: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO jobs (job_id, title, description, embedding, position) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, r.ID, r.Title, r.Description, vector.Encode(r.Embedding), i); err != nil {
			return fmt.Errorf("insert job %s: %w", r.ID, err)
		}
	}

	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	for k, v := range map[string]string{
		"model":      meta.Model,
		"dimensions": strconv.Itoa(meta.Dimensions),
		"created_at": meta.CreatedAt.Format(time.RFC3339),
	} {
		if _, err := tx.ExecContext(ctx, "INSERT INTO corpus_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("write meta %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// Meta returns the stored corpus metadata.
func (s *Store) Meta(ctx context.Context) (Meta, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM corpus_meta")
	if err != nil {
		return Meta{}, fmt.Errorf("query meta: %w", err)
	}
	defer rows.Close()
	var m Meta
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return Meta{}, err
		}
		switch k {
		case "model":
			m.Model = v
		case "dimensions":
			m.Dimensions, _ = strconv.Atoi(v)
		case "created_at":
			m.CreatedAt, _ = time.Parse(time.RFC3339, v)
		}
	}
	return m, rows.Err()
}

// LoadAll returns every stored job in insertion order.
func (s *Store) LoadAll(ctx context.Context) ([]JobRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT job_id, title, description, embedding FROM jobs ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()
	var out []JobRecord
	for rows.Next() {
		var r JobRecord
		var blob []byte
		if err := rows.Scan(&r.ID, &r.Title, &r.Description, &blob); err != nil {
			return nil, err
		}
		if r.Embedding, err = vector.Decode(blob); err != nil {
			return nil, fmt.Errorf("job %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the number of stored jobs.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs").Scan(&n)
	return n, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
