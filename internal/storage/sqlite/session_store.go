package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/waymark-data/tracklog/internal/track"
)

// SessionStore persists tracking sessions. Create runs inside a transaction
// that re-checks for an active session, giving the state machine its
// create-if-none-active atomicity.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a SessionStore over an opened database.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// FetchActiveSessions returns all sessions flagged active, oldest first.
// Normally at most one, but orphan recovery must see all of them.
func (s *SessionStore) FetchActiveSessions() ([]*track.TrackingSession, error) {
	rows, err := s.db.Query(`
		SELECT session_id, narrative, start_unix_nanos, end_unix_nanos, is_active
		FROM track_sessions
		WHERE is_active = 1
		ORDER BY start_unix_nanos ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query active sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// Create inserts a new active session. It fails if any session is already
// active; the check and insert share one transaction.
func (s *SessionStore) Create(narrative string, startTime time.Time) (*track.TrackingSession, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin create session tx: %w", err)
	}
	defer tx.Rollback()

	var active int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM track_sessions WHERE is_active = 1`).Scan(&active); err != nil {
		return nil, fmt.Errorf("count active sessions: %w", err)
	}
	if active > 0 {
		return nil, fmt.Errorf("create session: %d session(s) already active", active)
	}

	session := &track.TrackingSession{
		ID:        uuid.NewString(),
		Narrative: narrative,
		StartTime: startTime,
		IsActive:  true,
	}

	_, err = tx.Exec(`
		INSERT INTO track_sessions (session_id, narrative, start_unix_nanos, is_active)
		VALUES (?, ?, ?, 1)
	`, session.ID, session.Narrative, session.StartTime.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create session tx: %w", err)
	}

	return session, nil
}

// End marks a session inactive with the given end time.
func (s *SessionStore) End(session *track.TrackingSession, endTime time.Time) error {
	result, err := s.db.Exec(`
		UPDATE track_sessions
		SET is_active = 0, end_unix_nanos = ?
		WHERE session_id = ?
	`, endTime.UnixNano(), session.ID)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("end session rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("end session: session %s not found", session.ID)
	}

	return nil
}

// Delete removes a session and, through ownership, all of its points.
func (s *SessionStore) Delete(session *track.TrackingSession) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete session tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM track_points WHERE session_id = ?`, session.ID); err != nil {
		return fmt.Errorf("delete session points: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM track_sessions WHERE session_id = ?`, session.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete session tx: %w", err)
	}

	return nil
}

// FetchSessions returns all sessions, newest first.
func (s *SessionStore) FetchSessions() ([]*track.TrackingSession, error) {
	rows, err := s.db.Query(`
		SELECT session_id, narrative, start_unix_nanos, end_unix_nanos, is_active
		FROM track_sessions
		ORDER BY start_unix_nanos DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

func scanSessions(rows *sql.Rows) ([]*track.TrackingSession, error) {
	var sessions []*track.TrackingSession
	for rows.Next() {
		session := &track.TrackingSession{}
		var startNanos int64
		var endNanos sql.NullInt64
		var isActive int

		if err := rows.Scan(&session.ID, &session.Narrative, &startNanos, &endNanos, &isActive); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}

		session.StartTime = time.Unix(0, startNanos)
		if endNanos.Valid {
			end := time.Unix(0, endNanos.Int64)
			session.EndTime = &end
		}
		session.IsActive = isActive != 0

		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}
