package geometry

import (
	"math"

	"github.com/tailored-agentic-units/annotations/geojson"
)

const (
	// EarthRadius is the mean earth radius in meters used for geodesic
	// destinations.
	EarthRadius = 6371008.8

	// BufferSteps is the number of vertices used to approximate a circle.
	BufferSteps = 100

	// CRSGeographic is the code whose circle radius is expressed in degrees.
	CRSGeographic = "EPSG:4326"
)

// RadiusToRadians converts a circle radius into an angular distance. In
// CRSGeographic the radius is in degrees; in every other CRS it is in meters
// and is buffered in kilometers.
func RadiusToRadians(radius float64, crs string) float64 {
	if crs == CRSGeographic {
		return radius * math.Pi / 180
	}
	km := radius / 1000
	return km / (EarthRadius / 1000)
}

// Destination returns the position reached from origin after travelling the
// angular distance (radians) along the bearing (degrees, clockwise from north).
func Destination(origin geojson.Position, distance, bearing float64) geojson.Position {
	lon1 := origin.Lon() * math.Pi / 180
	lat1 := origin.Lat() * math.Pi / 180
	theta := bearing * math.Pi / 180

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(distance) +
		math.Cos(lat1)*math.Sin(distance)*math.Cos(theta))
	lon2 := lon1 + math.Atan2(
		math.Sin(theta)*math.Sin(distance)*math.Cos(lat1),
		math.Cos(distance)-math.Sin(lat1)*math.Sin(lat2),
	)
	return geojson.Pos(lon2*180/math.Pi, lat2*180/math.Pi)
}

// angularDistance returns the great-circle angular distance between a and b in
// radians.
func angularDistance(a, b geojson.Position) float64 {
	lat1 := a.Lat() * math.Pi / 180
	lat2 := b.Lat() * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Lon() - a.Lon()) * math.Pi / 180
	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	return 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Buffer approximates the circle {center, radius} with a closed polygon of
// BufferSteps vertices. The first vertex lies due north of center. It
// returns nil when center is malformed or radius is not positive.
func Buffer(center geojson.Position, radius float64, crs string) *geojson.Geometry {
	if !center.Valid() || !(radius > 0) || math.IsInf(radius, 0) {
		return nil
	}
	distance := RadiusToRadians(radius, crs)
	ring := make([]geojson.Position, 0, BufferSteps+1)
	for i := range BufferSteps {
		bearing := float64(i) * -360 / BufferSteps
		ring = append(ring, Destination(center, distance, bearing))
	}
	ring = append(ring, ring[0].Clone())
	return geojson.NewPolygon(ring)
}
