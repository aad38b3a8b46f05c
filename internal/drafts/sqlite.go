package drafts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/dgallion1/citegest/internal/errs"
	"github.com/dgallion1/citegest/internal/modes"
)

// CurrentSchemaVersion is the latest schema version.
const CurrentSchemaVersion = 1

// SQLite stores drafts in a local SQLite file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// migrations.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func migrate(db *sql.DB) error {
	version, err := userVersion(db)
	if err != nil {
		return err
	}
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS drafts (
		  id           TEXT PRIMARY KEY,
		  mode         TEXT NOT NULL,
		  content_type TEXT NOT NULL,
		  status       TEXT NOT NULL,
		  topic        TEXT,
		  provider     TEXT,
		  created_at   INTEGER NOT NULL,
		  body_json    TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_drafts_status_created
		ON drafts(status, created_at DESC);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", 1)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}

func userVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

// Save inserts c, or replaces the stored copy with the same ID.
func (s *SQLite) Save(ctx context.Context, c *modes.GeneratedContent) error {
	if c == nil || c.ID == "" {
		return errs.NewInvalidInput("drafts.Save", "content id is required")
	}
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts (id, mode, content_type, status, topic, provider, created_at, body_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  status = excluded.status,
		  topic = excluded.topic,
		  body_json = excluded.body_json`,
		c.ID, c.Mode, string(c.ContentType), string(c.Status), c.Topic, c.Provider, c.CreatedAt.UnixMilli(), string(body))
	if err != nil {
		return fmt.Errorf("save draft %s: %w", c.ID, err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, id string) (*modes.GeneratedContent, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body_json FROM drafts WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NewNotFound("draft", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get draft %s: %w", id, err)
	}
	return decode(body)
}

func (s *SQLite) List(ctx context.Context, f Filter) ([]*modes.GeneratedContent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT body_json FROM drafts
		WHERE (? = '' OR status = ?) AND (? = '' OR mode = ?)
		ORDER BY id DESC
		LIMIT ?`,
		string(f.Status), string(f.Status), f.Mode, f.Mode, f.limit())
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var out []*modes.GeneratedContent
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		c, err := decode(body)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NewNotFound("draft", id)
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func decode(body string) (*modes.GeneratedContent, error) {
	var c modes.GeneratedContent
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &c, nil
}
