// Package geo provides great-circle geometry over WGS-84 coordinates.
package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean earth radius used for the spherical
// approximation.
const EarthRadiusMeters = 6371008.8

// Distance returns the great-circle distance in meters between two
// latitude/longitude pairs (degrees).
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// InitialBearing returns the forward azimuth from point 1 to point 2 in
// degrees [0, 360), where 0 is north and 90 is east.
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lonDiff := (lon2 - lon1) * math.Pi / 180

	y := math.Sin(lonDiff) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(lonDiff)
	bearing := math.Atan2(y, x) * 180 / math.Pi

	return math.Mod(bearing+360, 360)
}
