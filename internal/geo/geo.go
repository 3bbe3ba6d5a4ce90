// Package geo wraps the great-circle helpers used to place vehicles between
// stations and to rank stations by distance.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/samirnavas/metro-tracker/internal/models"
)

// Point converts a location into an orb point (lon, lat order).
func Point(l models.Location) orb.Point {
	return orb.Point{l.Lng, l.Lat}
}

// Location converts an orb point back into a location.
func Location(p orb.Point) models.Location {
	return models.Location{Lat: p.Lat(), Lng: p.Lon()}
}

// DistanceKm returns the haversine distance between two locations in kilometers.
func DistanceKm(a, b models.Location) float64 {
	return geo.DistanceHaversine(Point(a), Point(b)) / 1000
}

// Interpolate returns the point a fraction of the way from one location to
// another, stepping along the initial great-circle bearing rather than
// blending latitude and longitude linearly.
func Interpolate(from, to models.Location, fraction float64) models.Location {
	if fraction <= 0 {
		return from
	}
	if fraction >= 1 {
		return to
	}
	p1, p2 := Point(from), Point(to)
	d := geo.Distance(p1, p2)
	if d == 0 {
		return from
	}
	bearing := geo.Bearing(p1, p2)
	return Location(geo.PointAtBearingAndDistance(p1, bearing, d*fraction))
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
