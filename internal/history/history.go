// Package history keeps a local sqlite log of resolution attempts.
// Only the request and its outcome are stored, never media or download URLs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"snag/internal/media"
	"snag/internal/platform"
)

const schema = `
CREATE TABLE IF NOT EXISTS attempts (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	at        INTEGER NOT NULL,
	url       TEXT    NOT NULL,
	platform  TEXT    NOT NULL,
	extractor TEXT    NOT NULL DEFAULT '',
	code      TEXT    NOT NULL,
	degraded  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS attempts_at ON attempts(at);
`

// Entry is one logged request.
type Entry struct {
	At        time.Time      `json:"at"`
	URL       string         `json:"url"`
	Platform  media.Platform `json:"platform"`
	Extractor string         `json:"extractor,omitempty"`
	Code      string         `json:"code"`
	Degraded  bool           `json:"degraded,omitempty"`
}

// Store is the history database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	// One writer at a time; sqlite serialises anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Add inserts an entry.
func (s *Store) Add(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (at, url, platform, extractor, code, degraded) VALUES (?, ?, ?, ?, ?, ?)`,
		e.At.Unix(), e.URL, string(e.Platform), e.Extractor, e.Code, e.Degraded)
	if err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	return nil
}

// Record logs a handled request.
func (s *Store) Record(ctx context.Context, req media.Request, resp media.Response) error {
	e := Entry{
		At:       s.now(),
		URL:      req.URL,
		Platform: platform.Classify(req.URL),
		Code:     resp.Code,
		Degraded: resp.Degraded,
	}
	if resp.Success {
		e.Code = "OK"
		if resp.Info != nil {
			e.Extractor = resp.Info.Extractor
		}
	}
	return s.Add(ctx, e)
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, url, platform, extractor, code, degraded FROM attempts ORDER BY at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			at       int64
			platform string
		)
		if err := rows.Scan(&at, &e.URL, &platform, &e.Extractor, &e.Code, &e.Degraded); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		e.At = time.Unix(at, 0)
		e.Platform = media.Platform(platform)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return entries, nil
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM attempts`); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

// FormatForDisplay renders entries as single lines.
func FormatForDisplay(entries []Entry) []string {
	items := make([]string, 0, len(entries))
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-9s  %-20s  %s", e.At.Format("2006-01-02 15:04"), e.Platform, e.Code, e.URL)
		if e.Extractor != "" {
			line += "  (" + e.Extractor + ")"
		}
		if e.Degraded {
			line += " [no audio]"
		}
		items = append(items, line)
	}
	return items
}
