package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/waymark-data/tracklog/internal/track"
)

// LocationStore persists accepted fixes as trajectory points.
type LocationStore struct {
	db *sql.DB
}

// NewLocationStore creates a LocationStore over an opened database.
func NewLocationStore(db *sql.DB) *LocationStore {
	return &LocationStore{db: db}
}

// Append inserts one point.
func (s *LocationStore) Append(point *track.LocationPoint) error {
	_, err := s.db.Exec(`
		INSERT INTO track_points (
			point_id, session_id, ts_unix_nanos,
			lat, lon, accuracy_m, altitude_m, speed_mps, course_deg
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		point.ID,
		point.SessionID,
		point.Timestamp.UnixNano(),
		point.Lat,
		point.Lon,
		point.AccuracyM,
		point.AltitudeM,
		point.SpeedMps,
		point.CourseDeg,
	)
	if err != nil {
		return fmt.Errorf("insert point: %w", err)
	}
	return nil
}

// FetchOrdered returns a session's points in ascending timestamp order,
// regardless of insertion order.
func (s *LocationStore) FetchOrdered(sessionID string) ([]*track.LocationPoint, error) {
	rows, err := s.db.Query(`
		SELECT point_id, session_id, ts_unix_nanos,
			lat, lon, accuracy_m, altitude_m, speed_mps, course_deg
		FROM track_points
		WHERE session_id = ?
		ORDER BY ts_unix_nanos ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()

	var points []*track.LocationPoint
	for rows.Next() {
		point := &track.LocationPoint{}
		var tsNanos int64

		err := rows.Scan(
			&point.ID,
			&point.SessionID,
			&tsNanos,
			&point.Lat,
			&point.Lon,
			&point.AccuracyM,
			&point.AltitudeM,
			&point.SpeedMps,
			&point.CourseDeg,
		)
		if err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}

		point.Timestamp = time.Unix(0, tsNanos)
		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate points: %w", err)
	}

	return points, nil
}

// Count returns the number of points persisted for a session.
func (s *LocationStore) Count(sessionID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM track_points WHERE session_id = ?`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return count, nil
}
