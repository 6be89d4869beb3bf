package geojson

import "errors"

// Sentinel errors for GeoJSON decoding.
var (
	ErrUnknownGeometry    = errors.New("unknown geometry type")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)
