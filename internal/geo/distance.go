// Package geo contains pure geographic computation helpers.
package geo

import (
	"math"

	"carpool/internal/domain"
)

const earthRadiusM = 6371000.0

// DistanceM returns the great-circle (haversine) distance in meters between
// two points. It is symmetric and zero for identical points.
func DistanceM(a, b domain.GeoPoint) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusM * c
}

// WithinTolerance reports whether two points are at most toleranceM meters apart.
func WithinTolerance(a, b domain.GeoPoint, toleranceM float64) bool {
	return DistanceM(a, b) <= toleranceM
}

// ValidPoint reports whether the point has coordinates in valid WGS84 ranges.
func ValidPoint(p domain.GeoPoint) bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
