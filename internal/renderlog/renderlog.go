// Package renderlog persists the outcome of every composite resolution
// request to a local SQLite database: which product, how it finished, how
// long it took and how degraded it was. The schema is managed by embedded
// migrations.
package renderlog

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a render-log database handle.
type Store struct {
	*sql.DB
}

// Open opens (creating if needed) the render log at path and applies any
// pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open render log %s: %w", path, err)
	}
	s := &Store{db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrateUp applies all pending embedded migrations.
func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("prepare migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("prepare migrations: %w", err)
	}
	// Closing m would close the underlying DB connection, so leave it to
	// the garbage collector.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Record is one resolution outcome row.
type Record struct {
	RequestID    string
	Composite    string
	StandardName string
	State        string
	Warnings     int
	Error        string
	DurationMs   int64
	CreatedAt    time.Time
}

// RecordResolution inserts one outcome row.
func (s *Store) RecordResolution(rec Record) error {
	_, err := s.Exec(`
		INSERT INTO resolutions (request_id, composite, standard_name, state, warnings, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.Composite, rec.StandardName, rec.State, rec.Warnings, rec.Error, rec.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("record resolution %s: %w", rec.RequestID, err)
	}
	return nil
}

// RecentResolutions returns up to limit rows, newest first.
func (s *Store) RecentResolutions(limit int) ([]Record, error) {
	rows, err := s.Query(`
		SELECT request_id, composite, standard_name, state, warnings, error, duration_ms, created_at
		FROM resolutions ORDER BY created_at DESC, request_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query resolutions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.RequestID, &rec.Composite, &rec.StandardName, &rec.State,
			&rec.Warnings, &rec.Error, &rec.DurationMs, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan resolution row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
