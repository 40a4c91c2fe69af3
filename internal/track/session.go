package track

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/waymark-data/tracklog/internal/monitoring"
)

// Manager is the session lifecycle state machine. All mutation of the
// single-active-session invariant funnels through Start, Stop and
// RecoverOrphans, serialized behind one mutex. The store is the durability
// boundary: Start re-queries it for active sessions every time instead of
// trusting the cached pointer, and the in-memory state only transitions
// after the store confirms the write.
type Manager struct {
	mu     sync.Mutex
	store  SessionStore
	now    func() time.Time
	active *TrackingSession
}

// NewManager creates a Manager over the given store.
func NewManager(store SessionStore) *Manager {
	return &Manager{store: store, now: time.Now}
}

// Start creates and activates a new session. It fails with ErrSessionActive
// if any session is active in the store, ErrInvalidNarrative if the narrative
// is empty after trimming, or a wrapped ErrStoreQuery / ErrSessionPersistence
// on store failure.
func (m *Manager) Start(narrative string) (*TrackingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.TrimSpace(narrative) == "" {
		return nil, ErrInvalidNarrative
	}

	active, err := m.store.FetchActiveSessions()
	if err != nil {
		return nil, fmt.Errorf("%w: fetch active sessions: %v", ErrStoreQuery, err)
	}
	if len(active) > 0 {
		return nil, ErrSessionActive
	}

	session, err := m.store.Create(strings.TrimSpace(narrative), m.now())
	if err != nil {
		return nil, fmt.Errorf("%w: create session: %v", ErrSessionPersistence, err)
	}

	m.active = session
	return session, nil
}

// Stop terminates the active session. It fails with ErrNoActiveSession when
// nothing is active, and does not transition when the store write fails.
func (m *Manager) Stop() (*TrackingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return nil, ErrNoActiveSession
	}

	endTime := m.now()
	if err := m.store.End(m.active, endTime); err != nil {
		return nil, fmt.Errorf("%w: end session %s: %v", ErrSessionPersistence, m.active.ID, err)
	}

	session := m.active
	session.EndTime = &endTime
	session.IsActive = false
	m.active = nil
	return session, nil
}

// Active returns the currently active session, or nil.
func (m *Manager) Active() *TrackingSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// RecoverOrphans force-closes sessions left active by abnormal process
// termination. Run once at process start, before any Start or Stop call.
// There should be at most one orphan, but recovery tolerates more. Returns
// the number of sessions closed; per-session failures are logged and
// recovery continues with the rest.
func (m *Manager) RecoverOrphans() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	orphans, err := m.store.FetchActiveSessions()
	if err != nil {
		return 0, fmt.Errorf("%w: fetch orphan sessions: %v", ErrStoreQuery, err)
	}

	recoveredAt := m.now()
	recovered := 0
	for _, s := range orphans {
		if err := m.store.End(s, recoveredAt); err != nil {
			monitoring.Logf("orphan recovery: failed to close session %s: %v", s.ID, err)
			continue
		}
		s.EndTime = &recoveredAt
		s.IsActive = false
		recovered++
	}

	if recovered > 0 {
		monitoring.Logf("orphan recovery: closed %d abandoned session(s)", recovered)
	}
	return recovered, nil
}
