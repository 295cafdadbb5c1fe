// Package geo holds the coordinate type and the great-circle distance
// math the location resolver is built on.
package geo

import (
	"errors"
	"math"
)

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

var ErrOutOfRange = errors.New("coordinate out of range")

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Valid reports whether the coordinate lies in [-90,90] x [-180,180].
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180 &&
		!math.IsNaN(c.Lat) && !math.IsNaN(c.Lon)
}

// DistanceMeters returns the great-circle distance between a and b on a
// sphere of radius 6,371,000 m (haversine). Symmetric, zero for
// coincident points.
func DistanceMeters(a, b Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	if h > 1 {
		h = 1
	}
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
