// Package manifest records completed conversions in a SQLite database
// so repeated batch runs skip files that already have output.
package manifest

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_path TEXT UNIQUE NOT NULL,
    format TEXT NOT NULL,
    subject TEXT,
    sender TEXT,
    date DATETIME,
    pdf_path TEXT NOT NULL,
    attachment_count INTEGER DEFAULT 0,
    converted_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_conversions_sender ON conversions(sender);
`

// Conversion is one recorded source-to-PDF conversion.
type Conversion struct {
	SourcePath      string
	Format          string
	Subject         string
	Sender          string
	Date            time.Time
	PDFPath         string
	AttachmentCount int
	ConvertedAt     time.Time
}

type Store struct {
	*sql.DB
}

// Open opens the SQLite manifest and initializes the schema. The parent
// directory is created when missing.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}

	// _time_format=sqlite tells the driver to store RFC3339 timestamps
	sqlDB, err := sql.Open("sqlite", dbPath+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}

	// SQLite works best with a single connection
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	store := &Store{sqlDB}
	if _, err := store.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize manifest schema: %w", err)
	}
	return store, nil
}

// Record inserts or replaces the conversion for its source path.
func (s *Store) Record(c Conversion) error {
	_, err := s.Exec(`
		INSERT INTO conversions (source_path, format, subject, sender, date, pdf_path, attachment_count, converted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(source_path) DO UPDATE SET
			format = excluded.format,
			subject = excluded.subject,
			sender = excluded.sender,
			date = excluded.date,
			pdf_path = excluded.pdf_path,
			attachment_count = excluded.attachment_count,
			converted_at = CURRENT_TIMESTAMP
	`, c.SourcePath, c.Format, c.Subject, c.Sender, nullableTime(c.Date), c.PDFPath, c.AttachmentCount)
	if err != nil {
		return fmt.Errorf("failed to record conversion: %w", err)
	}
	return nil
}

// IsConverted reports whether the source path has a recorded conversion.
func (s *Store) IsConverted(sourcePath string) (bool, error) {
	var n int
	err := s.QueryRow("SELECT COUNT(*) FROM conversions WHERE source_path = ?", sourcePath).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check conversion: %w", err)
	}
	return n > 0, nil
}

// Get returns the recorded conversion for a source path, or nil.
func (s *Store) Get(sourcePath string) (*Conversion, error) {
	row := s.QueryRow(`
		SELECT source_path, format, subject, sender,
		       COALESCE(date, ''), pdf_path, attachment_count,
		       CAST(converted_at AS TEXT)
		FROM conversions WHERE source_path = ?
	`, sourcePath)

	var c Conversion
	var date, convertedAt string
	err := row.Scan(&c.SourcePath, &c.Format, &c.Subject, &c.Sender, &date, &c.PDFPath, &c.AttachmentCount, &convertedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversion: %w", err)
	}
	c.Date = parseTimestamp(date)
	c.ConvertedAt = parseTimestamp(convertedAt)
	return &c, nil
}

// parseTimestamp accepts both SQLite's CURRENT_TIMESTAMP format and the
// RFC3339 strings Record writes.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// List returns all recorded conversions, most recent first.
func (s *Store) List() ([]Conversion, error) {
	rows, err := s.Query(`
		SELECT source_path, format, subject, sender,
		       COALESCE(date, ''), pdf_path, attachment_count,
		       CAST(converted_at AS TEXT)
		FROM conversions
		ORDER BY converted_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversions: %w", err)
	}
	defer rows.Close()

	var out []Conversion
	for rows.Next() {
		var c Conversion
		var date, convertedAt string
		err := rows.Scan(&c.SourcePath, &c.Format, &c.Subject, &c.Sender, &date, &c.PDFPath, &c.AttachmentCount, &convertedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversion: %w", err)
		}
		c.Date = parseTimestamp(date)
		c.ConvertedAt = parseTimestamp(convertedAt)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list conversions: %w", err)
	}
	return out, nil
}

// Count returns the number of recorded conversions.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.QueryRow("SELECT COUNT(*) FROM conversions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count conversions: %w", err)
	}
	return n, nil
}

// Delete removes the record for a source path. Deleting an unknown path
// is not an error.
func (s *Store) Delete(sourcePath string) error {
	if _, err := s.Exec("DELETE FROM conversions WHERE source_path = ?", sourcePath); err != nil {
		return fmt.Errorf("failed to delete conversion: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
