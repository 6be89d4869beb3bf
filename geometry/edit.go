// Package geometry mutates feature geometry: coordinate replacement with the
// right nesting per type, circle buffering, text placement, merging of drawn
// parts, and removal of malformed positions before hand-off.
package geometry

import (
	"golang.org/x/text/unicode/norm"

	"github.com/tailored-agentic-units/annotations/geojson"
	"github.com/tailored-agentic-units/annotations/validation"
)

// SetCoordinates returns g with its coordinates replaced by components,
// nested according to t: polygons wrap the components in one ring, lines
// and multipoints keep them flat, and every other type takes the first
// component as its single position.
func SetCoordinates(t geojson.GeometryType, components []geojson.Position) *geojson.Geometry {
	cs := make([]geojson.Position, len(components))
	for i, c := range components {
		cs[i] = c.Clone()
	}
	switch t {
	case geojson.Polygon, geojson.Circle:
		return &geojson.Geometry{Type: t, Rings: [][]geojson.Position{cs}}
	case geojson.LineString, geojson.MultiPoint:
		return &geojson.Geometry{Type: t, Path: cs}
	case geojson.MultiLineString:
		return &geojson.Geometry{Type: t, Rings: [][]geojson.Position{cs}}
	case geojson.MultiPolygon:
		return &geojson.Geometry{Type: t, Polygons: [][][]geojson.Position{{cs}}}
	default:
		g := &geojson.Geometry{Type: t}
		if len(cs) > 0 {
			g.Position = cs[0]
		}
		return g
	}
}

// Revalidate recomputes the validity flag of f from its current state.
func Revalidate(f geojson.Feature) geojson.Feature {
	f.Properties.IsValidFeature = validation.Feature(f)
	return f
}

// UpdateCoordinates replaces the coordinates of f and recomputes validity.
// Circles take the first component as center and are re-buffered; texts
// keep their value.
func UpdateCoordinates(f geojson.Feature, components []geojson.Position, crs string) geojson.Feature {
	out := f.Clone()
	switch out.Kind() {
	case geojson.Circle:
		var center geojson.Position
		if len(components) > 0 {
			center = components[0]
		}
		return UpdateCircle(out, center, out.Properties.Radius, crs)
	case geojson.Text:
		var p geojson.Position
		if len(components) > 0 {
			p = components[0]
		}
		return UpdateText(out, out.Properties.ValueText, p)
	}
	t := geojson.Point
	if out.Geometry != nil {
		t = out.Geometry.Type
	}
	out.Geometry = SetCoordinates(t, components)
	return Revalidate(out)
}

// UpdateCircle sets center and radius together and recomputes the buffered
// polygon. The visible geometry is tagged Circle and carries the buffered
// rings, or an empty ring when the circle is not valid.
func UpdateCircle(f geojson.Feature, center geojson.Position, radius float64, crs string) geojson.Feature {
	out := f.Clone()
	out.Properties.IsCircle = true
	out.Properties.Center = center.Clone()
	out.Properties.Radius = radius
	out.Properties.PolygonGeom = Buffer(center, radius, crs)
	if out.Properties.PolygonGeom != nil {
		out.Geometry = &geojson.Geometry{
			Type:  geojson.Circle,
			Rings: out.Properties.PolygonGeom.Clone().Rings,
		}
	} else {
		out.Geometry = geojson.Placeholder(geojson.Circle)
	}
	return Revalidate(out)
}

// UpdateText sets the text value and its anchor position together. The
// value is normalized to NFC so equal strings compare equal.
func UpdateText(f geojson.Feature, value string, at geojson.Position) geojson.Feature {
	out := f.Clone()
	out.Properties.IsText = true
	out.Properties.ValueText = norm.NFC.String(value)
	out.Geometry = &geojson.Geometry{Type: geojson.Text, Position: at.Clone()}
	return Revalidate(out)
}

// Commitable returns the stored form of f: internal Circle and Text tags are
// flattened to Polygon and Point and a circle's visible geometry is its
// buffered polygon.
func Commitable(f geojson.Feature) geojson.Feature {
	out := f.Clone()
	if out.Properties.IsCircle && out.Properties.PolygonGeom != nil {
		out.Geometry = out.Properties.PolygonGeom.Clone()
	}
	out.Geometry = out.Geometry.Flatten()
	return out
}

// Sanitize returns a copy of g without malformed positions, keeping the
// nesting of its type. Scalar geometries with a malformed position lose it.
func Sanitize(g *geojson.Geometry) *geojson.Geometry {
	if g == nil {
		return nil
	}
	out := g.Clone()
	switch g.Type {
	case geojson.LineString, geojson.MultiPoint:
		out.Path = geojson.ValidPositions(g.Path)
	case geojson.Polygon, geojson.Circle:
		if len(g.Rings) == 0 {
			out.Rings = [][]geojson.Position{{}}
		} else {
			out.Rings = [][]geojson.Position{geojson.ValidPositions(g.Rings[0])}
		}
	case geojson.MultiLineString:
		for i, r := range g.Rings {
			out.Rings[i] = geojson.ValidPositions(r)
		}
	case geojson.MultiPolygon:
		for i, p := range g.Polygons {
			for j, r := range p {
				out.Polygons[i][j] = geojson.ValidPositions(r)
			}
		}
	default:
		if !g.Position.Valid() {
			out.Position = nil
		}
	}
	return out
}

// SanitizeCollection applies Sanitize to every feature of c.
func SanitizeCollection(c *geojson.FeatureCollection) *geojson.FeatureCollection {
	out := c.Clone()
	for i := range out.Features {
		out.Features[i].Geometry = Sanitize(out.Features[i].Geometry)
	}
	return out
}
