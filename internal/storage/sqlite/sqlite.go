// Package sqlite provides the SQLite-backed implementations of the track
// package's SessionStore and LocationStore interfaces.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS track_sessions (
		session_id        TEXT PRIMARY KEY,
		narrative         TEXT NOT NULL,
		start_unix_nanos  INTEGER NOT NULL,
		end_unix_nanos    INTEGER,
		is_active         INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS track_points (
		point_id          TEXT PRIMARY KEY,
		session_id        TEXT NOT NULL,
		ts_unix_nanos     INTEGER NOT NULL,
		lat               REAL NOT NULL,
		lon               REAL NOT NULL,
		accuracy_m        REAL,
		altitude_m        REAL,
		speed_mps         REAL,
		course_deg        REAL,
		FOREIGN KEY(session_id) REFERENCES track_sessions(session_id)
	);

	CREATE INDEX IF NOT EXISTS idx_track_points_session_ts
		ON track_points(session_id, ts_unix_nanos);
`

// Open opens (or creates) the tracklog database at path and ensures the
// schema exists. Use ":memory:" for tests.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// The modernc driver serializes access per connection; a single
	// connection avoids SQLITE_BUSY under the coordinator's writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}
