// Package export serializes persisted trajectories to interchange formats.
// It is a pure function over the core's output: no store access, no state.
package export

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/waymark-data/tracklog/internal/track"
)

type gpxFile struct {
	XMLName xml.Name `xml:"gpx"`
	Version string   `xml:"version,attr"`
	Creator string   `xml:"creator,attr"`
	Xmlns   string   `xml:"xmlns,attr"`
	Trk     gpxTrack `xml:"trk"`
}

type gpxTrack struct {
	Name    string       `xml:"name"`
	Segment gpxSegment   `xml:"trkseg"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxPoint struct {
	Lat       float64  `xml:"lat,attr"`
	Lon       float64  `xml:"lon,attr"`
	Elevation float64  `xml:"ele"`
	Time      string   `xml:"time"`
	Speed     *float64 `xml:"speed,omitempty"`
	Course    *float64 `xml:"course,omitempty"`
}

// GPX renders a session's ordered points as a GPX 1.1 document.
func GPX(session *track.TrackingSession, points []*track.LocationPoint) ([]byte, error) {
	segment := gpxSegment{Points: make([]gpxPoint, 0, len(points))}
	for _, p := range points {
		point := gpxPoint{
			Lat:       p.Lat,
			Lon:       p.Lon,
			Elevation: p.AltitudeM,
			Time:      p.Timestamp.UTC().Format(time.RFC3339),
		}
		speed := p.SpeedMps
		point.Speed = &speed
		if p.CourseDeg != track.CourseUnknown {
			course := p.CourseDeg
			point.Course = &course
		}
		segment.Points = append(segment.Points, point)
	}

	doc := gpxFile{
		Version: "1.1",
		Creator: "tracklog",
		Xmlns:   "http://www.topografix.com/GPX/1/1",
		Trk: gpxTrack{
			Name:    session.Narrative,
			Segment: segment,
		},
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal gpx: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
