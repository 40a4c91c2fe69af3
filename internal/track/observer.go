package track

import "sync"

// Observer receives outbound state publication from the pipeline. Callbacks
// fire on the goroutine that produced the change and must not block.
type Observer interface {
	SessionStarted(session *TrackingSession)
	SessionStopped(session *TrackingSession)
	PointCountChanged(sessionID string, count int)
	// LocationChanged publishes the latest accepted raw fix for live display,
	// independent of whether it was persisted.
	LocationChanged(fix RawFix)
}

// ObserverFuncs adapts plain functions to Observer; nil fields are skipped.
type ObserverFuncs struct {
	OnSessionStarted    func(*TrackingSession)
	OnSessionStopped    func(*TrackingSession)
	OnPointCountChanged func(string, int)
	OnLocationChanged   func(RawFix)
}

func (o ObserverFuncs) SessionStarted(s *TrackingSession) {
	if o.OnSessionStarted != nil {
		o.OnSessionStarted(s)
	}
}

func (o ObserverFuncs) SessionStopped(s *TrackingSession) {
	if o.OnSessionStopped != nil {
		o.OnSessionStopped(s)
	}
}

func (o ObserverFuncs) PointCountChanged(sessionID string, count int) {
	if o.OnPointCountChanged != nil {
		o.OnPointCountChanged(sessionID, count)
	}
}

func (o ObserverFuncs) LocationChanged(fix RawFix) {
	if o.OnLocationChanged != nil {
		o.OnLocationChanged(fix)
	}
}

// observerSet fans out notifications to registered observers.
type observerSet struct {
	mu        sync.RWMutex
	observers []Observer
}

func (s *observerSet) add(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *observerSet) each(fn func(Observer)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.observers {
		fn(o)
	}
}
