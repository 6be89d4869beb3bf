package geometry

import (
	"errors"
	"fmt"

	"github.com/tailored-agentic-units/annotations/geojson"
)

// Sentinel errors for Merge.
var (
	ErrEmptyMerge       = errors.New("nothing to merge")
	ErrMissingGeometry  = errors.New("feature has no geometry")
	ErrUnsupportedMerge = errors.New("unsupported geometry merge")
)

// Merge folds drawn parts into one geometry. When the first object is a
// collection its features are merged instead. The first part seeds the
// result; further Points upgrade a Point to MultiPoint and extend a
// MultiPoint. Any other combination returns ErrUnsupportedMerge.
func Merge(objs []geojson.Object) (*geojson.Geometry, error) {
	if len(objs) == 0 {
		return nil, ErrEmptyMerge
	}
	if fc, ok := objs[0].(*geojson.FeatureCollection); ok {
		return Merge(objectsOf(fc.Features))
	}

	var acc *geojson.Geometry
	for i, obj := range objs {
		f, ok := obj.(geojson.Feature)
		if !ok {
			if fc, isColl := obj.(*geojson.FeatureCollection); isColl && acc == nil {
				return Merge(objectsOf(fc.Features))
			}
			return nil, fmt.Errorf("%w: collection at position %d", ErrUnsupportedMerge, i)
		}
		if f.Geometry == nil {
			return nil, fmt.Errorf("%w: position %d", ErrMissingGeometry, i)
		}
		if acc == nil {
			acc = f.Geometry.Clone()
			continue
		}

		next := f.Geometry.Type.Flat()
		switch {
		case acc.Type == geojson.Point && next == geojson.Point:
			acc = &geojson.Geometry{
				Type: geojson.MultiPoint,
				Path: []geojson.Position{acc.Position, f.Geometry.Position.Clone()},
			}
		case acc.Type == geojson.MultiPoint && next == geojson.Point:
			acc.Path = append(acc.Path, f.Geometry.Position.Clone())
		default:
			return nil, fmt.Errorf("%w: %s + %s", ErrUnsupportedMerge, acc.Type, f.Geometry.Type)
		}
	}
	return acc, nil
}

func objectsOf(fs []geojson.Feature) []geojson.Object {
	out := make([]geojson.Object, len(fs))
	for i, f := range fs {
		out[i] = f
	}
	return out
}
