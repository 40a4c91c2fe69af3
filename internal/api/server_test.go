package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waymark-data/tracklog/internal/track"
)

// In-memory stores so handler tests need no database.

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*track.TrackingSession
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]*track.TrackingSession)}
}

func (m *memSessionStore) FetchActiveSessions() ([]*track.TrackingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var active []*track.TrackingSession
	for _, s := range m.sessions {
		if s.IsActive {
			copied := *s
			active = append(active, &copied)
		}
	}
	return active, nil
}

func (m *memSessionStore) Create(narrative string, startTime time.Time) (*track.TrackingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.IsActive {
			return nil, fmt.Errorf("create session: already active")
		}
	}
	session := &track.TrackingSession{
		ID:        uuid.NewString(),
		Narrative: narrative,
		StartTime: startTime,
		IsActive:  true,
	}
	m.sessions[session.ID] = session
	copied := *session
	return &copied, nil
}

func (m *memSessionStore) End(session *track.TrackingSession, endTime time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.sessions[session.ID]
	if !ok {
		return fmt.Errorf("end session: not found")
	}
	stored.IsActive = false
	stored.EndTime = &endTime
	return nil
}

func (m *memSessionStore) Delete(session *track.TrackingSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, session.ID)
	return nil
}

type memLocationStore struct {
	mu     sync.Mutex
	points []*track.LocationPoint
}

func (m *memLocationStore) Append(point *track.LocationPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = append(m.points, point)
	return nil
}

func (m *memLocationStore) FetchOrdered(sessionID string) ([]*track.LocationPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*track.LocationPoint
	for _, p := range m.points {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memLocationStore) Count(sessionID string) (int, error) {
	points, _ := m.FetchOrdered(sessionID)
	return len(points), nil
}

func newTestServer() (*Server, *track.Coordinator) {
	points := &memLocationStore{}
	coordinator := track.NewCoordinator(track.CoordinatorConfig{
		Sessions: track.NewManager(newMemSessionStore()),
		Points:   points,
	})
	return NewServer(coordinator, points), coordinator
}

func postJSON(t *testing.T, mux *http.ServeMux, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestStartSessionEndpoint(t *testing.T) {
	t.Parallel()
	server, _ := newTestServer()
	mux := server.ServeMux()

	rec := postJSON(t, mux, "/api/session/start", `{"narrative": "morning run", "preset": "balanced"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		ID        string `json:"id"`
		Narrative string `json:"narrative"`
		IsActive  bool   `json:"is_active"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "morning run", resp.Narrative)
	assert.True(t, resp.IsActive)
}

func TestStartSessionConflicts(t *testing.T) {
	t.Parallel()
	server, _ := newTestServer()
	mux := server.ServeMux()

	rec := postJSON(t, mux, "/api/session/start", `{"narrative": "first"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, mux, "/api/session/start", `{"narrative": "second"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStartSessionValidation(t *testing.T) {
	t.Parallel()
	server, _ := newTestServer()
	mux := server.ServeMux()

	rec := postJSON(t, mux, "/api/session/start", `{"narrative": "   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, mux, "/api/session/start", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, mux, "/api/session/start")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStopSessionEndpoint(t *testing.T) {
	t.Parallel()
	server, _ := newTestServer()
	mux := server.ServeMux()

	rec := postJSON(t, mux, "/api/session/stop", `{}`)
	assert.Equal(t, http.StatusConflict, rec.Code, "no session to stop")

	require.Equal(t, http.StatusCreated, postJSON(t, mux, "/api/session/start", `{"narrative": "short"}`).Code)

	rec = postJSON(t, mux, "/api/session/stop", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		IsActive bool       `json:"is_active"`
		EndTime  *time.Time `json:"end_time"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.IsActive)
	assert.NotNil(t, resp.EndTime)
}

func TestShowSessionEndpoint(t *testing.T) {
	t.Parallel()
	server, coordinator := newTestServer()
	mux := server.ServeMux()

	rec := get(t, mux, "/api/session")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	session, err := coordinator.StartSession("live", track.PresetBalanced())
	require.NoError(t, err)

	rec = get(t, mux, "/api/session")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), session.ID)
}

func TestListPointsEndpoint(t *testing.T) {
	t.Parallel()
	server, coordinator := newTestServer()
	mux := server.ServeMux()

	rec := get(t, mux, "/api/session/points")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, err := coordinator.StartSession("with points", track.ValidationConfig{
		MaxHorizontalAccuracyM: 100,
		MaxReasonableSpeedMps:  1000,
		MaxDistanceJumpM:       1e9,
	})
	require.NoError(t, err)

	coordinator.OnFix(track.RawFix{
		Lat: 51.5, Lon: -0.1,
		Timestamp: time.Date(2024, 8, 15, 10, 0, 0, 0, time.UTC),
		AccuracyM: 10, SpeedMps: -1, CourseDeg: -1,
	})
	require.Eventually(t, func() bool { return coordinator.PointCount() == 1 }, time.Second, 5*time.Millisecond)

	rec = get(t, mux, "/api/session/points")
	require.Equal(t, http.StatusOK, rec.Code)

	var points []*track.LocationPoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &points))
	require.Len(t, points, 1)
	assert.Equal(t, 51.5, points[0].Lat)
}

func TestSummaryEndpointUnits(t *testing.T) {
	t.Parallel()
	server, coordinator := newTestServer()
	mux := server.ServeMux()

	_, err := coordinator.StartSession("metric", track.ValidationConfig{
		MaxHorizontalAccuracyM: 100,
		MaxReasonableSpeedMps:  1000,
		MaxDistanceJumpM:       1e9,
	})
	require.NoError(t, err)

	base := time.Date(2024, 8, 15, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		coordinator.OnFix(track.RawFix{
			Lat: 51.5, Lon: -0.1,
			Timestamp: base.Add(time.Duration(i) * time.Second),
			AccuracyM: 10, SpeedMps: 10, CourseDeg: -1,
		})
	}
	require.Eventually(t, func() bool { return coordinator.PointCount() == 2 }, time.Second, 5*time.Millisecond)

	var metric, mph track.SessionSummary

	rec := get(t, mux, "/api/session/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metric))
	assert.InDelta(t, 10.0, metric.AvgSpeedMps, 1e-9)

	rec = get(t, mux, "/api/session/summary?units=mph")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mph))
	assert.InDelta(t, 10.0*2.23694, mph.AvgSpeedMps, 0.01)
}

func TestExportEndpoint(t *testing.T) {
	t.Parallel()
	server, coordinator := newTestServer()
	mux := server.ServeMux()

	rec := get(t, mux, "/api/session/export.gpx")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, err := coordinator.StartSession("exportable", track.PresetBalanced())
	require.NoError(t, err)

	rec = get(t, mux, "/api/session/export.gpx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/gpx+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<gpx")
	assert.Contains(t, rec.Body.String(), "exportable")
}
