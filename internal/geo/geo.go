// Package geo provides bounding boxes and great-circle distance.
package geo

import "math"

const earthRadiusMeters = 6371000.0

// Bounds is a latitude/longitude bounding box.
type Bounds struct {
	North float64
	South float64
	East  float64
	West  float64
}

// Valid reports whether the box encloses a non-empty area.
func (b Bounds) Valid() bool {
	return b.North > b.South && b.East != b.West &&
		b.North <= 90 && b.South >= -90 &&
		b.East <= 180 && b.West >= -180
}

// Center returns the midpoint of the box.
func (b Bounds) Center() (lat, lon float64) {
	return (b.North + b.South) / 2, (b.East + b.West) / 2
}

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}
