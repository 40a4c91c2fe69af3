package track

import (
	"errors"
	"time"
)

// SessionStore is the durability boundary for session lifecycle state. It is
// the single source of truth for the single-active-session invariant: the
// Manager re-queries it on every Start rather than trusting cached state.
// Create must be atomic with respect to concurrent creates (no two may both
// succeed while a session is active).
type SessionStore interface {
	FetchActiveSessions() ([]*TrackingSession, error)
	Create(narrative string, startTime time.Time) (*TrackingSession, error)
	End(session *TrackingSession, endTime time.Time) error
	Delete(session *TrackingSession) error
}

// LocationStore persists accepted fixes for a session.
type LocationStore interface {
	Append(point *LocationPoint) error
	FetchOrdered(sessionID string) ([]*LocationPoint, error) // Ascending by timestamp
	Count(sessionID string) (int, error)
}

// Lifecycle and persistence error kinds. ErrSessionActive, ErrNoActiveSession
// and ErrInvalidNarrative are expected, recoverable conditions surfaced to the
// caller of Start/Stop. ErrPointPersistence is never surfaced synchronously:
// a single lost point must not interrupt a multi-hour session.
var (
	ErrSessionActive      = errors.New("a tracking session is already active")
	ErrNoActiveSession    = errors.New("no tracking session is active")
	ErrInvalidNarrative   = errors.New("session narrative must be non-empty")
	ErrSessionPersistence = errors.New("session persistence failed")
	ErrStoreQuery         = errors.New("store query failed")
	ErrPointPersistence   = errors.New("point persistence failed")
)
