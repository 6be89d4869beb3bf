// Package validation decides whether a feature is complete enough to be
// committed. The predicate is pure: it depends only on the geometry type, the
// extracted components, and the feature properties.
package validation

import (
	"math"

	"github.com/tailored-agentic-units/annotations/geojson"
)

// Input is the data the validity predicate inspects.
type Input struct {
	Type       geojson.GeometryType
	Components []geojson.Position
	Properties geojson.FeatureProperties
}

// minComponents is the smallest number of valid positions that makes an
// incrementally drawn shape meaningful.
var minComponents = map[geojson.GeometryType]int{
	geojson.Point:      1,
	geojson.MultiPoint: 2,
	geojson.LineString: 2,
	geojson.Polygon:    3,
}

// MinComponents returns the minimum component count for t (1 when t has no
// explicit rule).
func MinComponents(t geojson.GeometryType) int {
	if n, ok := minComponents[t]; ok {
		return n
	}
	return 1
}

// Validate reports whether in satisfies the rule for its type.
func Validate(in Input) bool {
	switch in.Type {
	case "":
		return false
	case geojson.Text:
		return len(in.Components) > 0 &&
			in.Components[0].Valid() &&
			in.Properties.ValueText != ""
	case geojson.Circle:
		return len(in.Components) > 0 &&
			in.Components[0].Valid() &&
			validRadius(in.Properties.Radius)
	default:
		return allValid(in.Components)
	}
}

// Feature validates f using its own kind, components, and properties.
func Feature(f geojson.Feature) bool {
	return Validate(Input{
		Type:       f.Kind(),
		Components: Components(f),
		Properties: f.Properties,
	})
}

// Components extracts the editable positions of f following the nesting of
// its kind: the outer ring for polygons (without the closing position when
// the ring is complete), the path for lines and multipoints, the single pair
// for points and texts, and the center for circles.
func Components(f geojson.Feature) []geojson.Position {
	kind := f.Kind()
	if kind == geojson.Circle {
		return []geojson.Position{f.Properties.Center}
	}
	g := f.Geometry
	if g == nil {
		return nil
	}
	switch kind {
	case geojson.Polygon:
		if len(g.Rings) == 0 {
			return nil
		}
		ring := g.Rings[0]
		if CompletePolygon(g.Rings) {
			return ring[:len(ring)-1]
		}
		return ring
	case geojson.LineString, geojson.MultiPoint:
		return g.Path
	case geojson.Point, geojson.Text:
		return []geojson.Position{g.Position}
	default:
		return g.Positions()
	}
}

// CompletePolygon reports whether the valid positions of the outer ring form
// a closed ring of more than three positions.
func CompletePolygon(rings [][]geojson.Position) bool {
	if len(rings) == 0 {
		return false
	}
	valid := geojson.ValidPositions(rings[0])
	if len(valid) <= 3 {
		return false
	}
	first, last := valid[0], valid[len(valid)-1]
	return first[0] == last[0] && first[1] == last[1]
}

// CanRemoveComponent reports whether one component may be removed from an
// editor row while keeping the shape above its minimum size.
func CanRemoveComponent(t geojson.GeometryType, components []geojson.Position) bool {
	if t == geojson.Circle || t == geojson.Text || t == geojson.Point {
		return false
	}
	if !allValid(components) {
		return false
	}
	return len(components) > MinComponents(t)
}

// CanAddComponent reports whether editors may append positions for t.
func CanAddComponent(t geojson.GeometryType) bool {
	switch t {
	case geojson.MultiPoint, geojson.LineString, geojson.Polygon:
		return true
	}
	return false
}

func allValid(ps []geojson.Position) bool {
	if len(ps) == 0 {
		return false
	}
	for _, p := range ps {
		if !p.Valid() {
			return false
		}
	}
	return true
}

func validRadius(r float64) bool {
	return r > 0 && !math.IsInf(r, 0) && !math.IsNaN(r)
}
