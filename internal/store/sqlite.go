package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mjdav02/shiftwatch/internal/model"
)

// SQLiteStore is the persisted dedup registry plus the application audit
// log. It is the only state shared across runs; the agent is its single
// writer.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS seen_listings (
	listing_id TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	location   TEXT NOT NULL DEFAULT '',
	first_seen DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS applications (
	listing_id      TEXT PRIMARY KEY,
	applicant_email TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	location        TEXT NOT NULL DEFAULT '',
	link            TEXT NOT NULL DEFAULT '',
	applied_at      DATETIME DEFAULT CURRENT_TIMESTAMP
);`

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// busy_timeout covers the window where a sweep and a mark overlap.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite wants a single writer

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// HasSeen returns true if the listing ID has already been handled.
func (s *SQLiteStore) HasSeen(listingID string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM seen_listings WHERE listing_id = ?", listingID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking seen status for %s: %w", listingID, err)
	}
	return true, nil
}

// MarkSeen records a listing as handled. Re-marking an existing ID is a
// no-op, so the first-seen timestamp and metadata are never overwritten.
func (s *SQLiteStore) MarkSeen(listingID string, meta model.SeenMeta) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO seen_listings (listing_id, title, location) VALUES (?, ?, ?)",
		listingID, meta.Title, meta.Location,
	)
	if err != nil {
		return fmt.Errorf("marking listing %s as seen: %w", listingID, err)
	}
	return nil
}

// Cleanup deletes seen entries older than the given retention window.
// Applications are an audit log and are never swept.
func (s *SQLiteStore) Cleanup(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	_, err := s.db.Exec("DELETE FROM seen_listings WHERE first_seen < ?", cutoff)
	if err != nil {
		return fmt.Errorf("cleaning up seen listings older than %v: %w", olderThan, err)
	}
	return nil
}

// RecordApplication stores one submitted application. Keyed by listing ID,
// so re-recording the same listing leaves the original row in place.
func (s *SQLiteStore) RecordApplication(rec model.ApplicationRecord) error {
	appliedAt := rec.AppliedAt
	if appliedAt.IsZero() {
		appliedAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO applications
		 (listing_id, applicant_email, title, location, link, applied_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ListingID, rec.ApplicantEmail, rec.Title, rec.Location, rec.Link, appliedAt,
	)
	if err != nil {
		return fmt.Errorf("recording application for %s: %w", rec.ListingID, err)
	}
	return nil
}

// ListApplications returns all recorded applications, most recent first.
func (s *SQLiteStore) ListApplications() ([]model.ApplicationRecord, error) {
	rows, err := s.db.Query(
		`SELECT listing_id, applicant_email, title, location, link, applied_at
		 FROM applications ORDER BY applied_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	defer rows.Close()

	var recs []model.ApplicationRecord
	for rows.Next() {
		var rec model.ApplicationRecord
		if err := rows.Scan(&rec.ListingID, &rec.ApplicantEmail, &rec.Title, &rec.Location, &rec.Link, &rec.AppliedAt); err != nil {
			return nil, fmt.Errorf("scanning application row: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	return recs, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
