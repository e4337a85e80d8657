// Package geo provides great-circle helpers for game coordinates.
package geo

import (
	"math"

	"captureflag/pkg/game/types"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const earthRadiusMeters = 6371000.0

// Distance returns the great-circle distance between two coordinates in meters.
func Distance(a, b types.Coordinate) float64 {
	pointA := s2.PointFromLatLng(s2.LatLngFromDegrees(a.Latitude, a.Longitude))
	pointB := s2.PointFromLatLng(s2.LatLngFromDegrees(b.Latitude, b.Longitude))
	angle := s1.Angle(s2.ChordAngleBetweenPoints(pointA, pointB).Angle())
	return angle.Radians() * earthRadiusMeters
}

// MoveToward returns the coordinate reached by traveling distanceMeters from
// start along the great-circle path to end. If the requested distance exceeds
// the separation, end is returned.
func MoveToward(start, end types.Coordinate, distanceMeters float64) types.Coordinate {
	startPoint := s2.PointFromLatLng(s2.LatLngFromDegrees(start.Latitude, start.Longitude))
	endPoint := s2.PointFromLatLng(s2.LatLngFromDegrees(end.Latitude, end.Longitude))

	totalAngle := s1.Angle(s2.ChordAngleBetweenPoints(startPoint, endPoint).Angle())
	totalMeters := totalAngle.Radians() * earthRadiusMeters
	if distanceMeters >= totalMeters {
		return end
	}

	newPoint := s2.Interpolate(distanceMeters/totalMeters, startPoint, endPoint)
	newLatLng := s2.LatLngFromPoint(newPoint)
	return types.Coordinate{
		Latitude:  newLatLng.Lat.Degrees(),
		Longitude: newLatLng.Lng.Degrees(),
	}
}

// Offset displaces a coordinate by the given distances in meters. Positive
// values move north and east. Good enough for placing flags a few hundred
// meters from a player; not intended for long distances or the poles.
func Offset(c types.Coordinate, northMeters, eastMeters float64) types.Coordinate {
	latRadians := c.Latitude * math.Pi / 180
	dLat := (northMeters / earthRadiusMeters) * 180 / math.Pi
	dLng := (eastMeters / (earthRadiusMeters * math.Cos(latRadians))) * 180 / math.Pi
	return types.Coordinate{
		Latitude:  c.Latitude + dLat,
		Longitude: c.Longitude + dLng,
	}
}
