// Package api exposes the tracking core over HTTP. It is an external
// collaborator layered on the core: all session semantics live in the track
// package; handlers only translate requests and responses.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/waymark-data/tracklog/internal/export"
	"github.com/waymark-data/tracklog/internal/monitoring"
	"github.com/waymark-data/tracklog/internal/track"
	"github.com/waymark-data/tracklog/internal/units"
)

// Server serves the session control and observation endpoints.
type Server struct {
	coordinator *track.Coordinator
	points      track.LocationStore
}

// NewServer creates a Server over the coordinator and point store.
func NewServer(coordinator *track.Coordinator, points track.LocationStore) *Server {
	return &Server{coordinator: coordinator, points: points}
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/session/start", s.startSession)
	mux.HandleFunc("/api/session/stop", s.stopSession)
	mux.HandleFunc("/api/session", s.showSession)
	mux.HandleFunc("/api/session/points", s.listPoints)
	mux.HandleFunc("/api/session/summary", s.showSummary)
	mux.HandleFunc("/api/session/export.gpx", s.exportGPX)
	return mux
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf("[%d] %s %s %vms",
			lrw.statusCode, r.Method, r.RequestURI,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

type startRequest struct {
	Narrative string `json:"narrative"`
	Preset    string `json:"preset"`
}

type sessionResponse struct {
	ID         string     `json:"id"`
	Narrative  string     `json:"narrative"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	IsActive   bool       `json:"is_active"`
	PointCount int        `json:"point_count"`
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session, err := s.coordinator.StartSession(req.Narrative, track.PresetByName(req.Preset))
	if err != nil {
		writeLifecycleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, s.toResponse(session))
}

func (s *Server) stopSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.coordinator.StopSession()
	if err != nil {
		writeLifecycleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.toResponse(session))
}

func (s *Server) showSession(w http.ResponseWriter, r *http.Request) {
	session := s.coordinator.CurrentSession()
	if session == nil {
		http.Error(w, "no active session", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.toResponse(session))
}

func (s *Server) listPoints(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		session := s.coordinator.CurrentSession()
		if session == nil {
			http.Error(w, "no active session and no session_id given", http.StatusNotFound)
			return
		}
		sessionID = session.ID
	}

	points, err := s.points.FetchOrdered(sessionID)
	if err != nil {
		http.Error(w, "failed to fetch points", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) showSummary(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		session := s.coordinator.CurrentSession()
		if session == nil {
			http.Error(w, "no active session and no session_id given", http.StatusNotFound)
			return
		}
		sessionID = session.ID
	}

	summary, err := track.Summarize(s.points, sessionID)
	if err != nil {
		http.Error(w, "failed to summarize session", http.StatusInternalServerError)
		return
	}

	// Stored values are canonical m/s; convert for display on request.
	if target := r.URL.Query().Get("units"); target != "" {
		summary.AvgSpeedMps = units.ConvertSpeed(summary.AvgSpeedMps, target)
		summary.PeakSpeedMps = units.ConvertSpeed(summary.PeakSpeedMps, target)
		summary.P50SpeedMps = units.ConvertSpeed(summary.P50SpeedMps, target)
		summary.P85SpeedMps = units.ConvertSpeed(summary.P85SpeedMps, target)
		summary.P95SpeedMps = units.ConvertSpeed(summary.P95SpeedMps, target)
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) exportGPX(w http.ResponseWriter, r *http.Request) {
	session := s.coordinator.CurrentSession()
	if session == nil {
		http.Error(w, "no active session", http.StatusNotFound)
		return
	}

	points, err := s.points.FetchOrdered(session.ID)
	if err != nil {
		http.Error(w, "failed to fetch points", http.StatusInternalServerError)
		return
	}

	doc, err := export.GPX(session, points)
	if err != nil {
		http.Error(w, "failed to render gpx", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/gpx+xml")
	w.Write(doc)
}

func (s *Server) toResponse(session *track.TrackingSession) sessionResponse {
	count := 0
	if active := s.coordinator.CurrentSession(); active != nil && active.ID == session.ID {
		count = s.coordinator.PointCount()
	} else if c, err := s.points.Count(session.ID); err == nil {
		count = c
	}
	return sessionResponse{
		ID:         session.ID,
		Narrative:  session.Narrative,
		StartTime:  session.StartTime,
		EndTime:    session.EndTime,
		IsActive:   session.IsActive,
		PointCount: count,
	}
}

// writeLifecycleError maps the track package's expected lifecycle errors to
// client status codes; anything else is a server failure.
func writeLifecycleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, track.ErrSessionActive):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, track.ErrNoActiveSession):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, track.ErrInvalidNarrative):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("failed to encode response: %v", err)
	}
}
