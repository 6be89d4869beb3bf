package geojson

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// GeometryType names a GeoJSON geometry. Circle and Text are internal tags:
// a Circle carries polygon rings, a Text carries a single position.
type GeometryType string

const (
	Point           GeometryType = "Point"
	MultiPoint      GeometryType = "MultiPoint"
	LineString      GeometryType = "LineString"
	MultiLineString GeometryType = "MultiLineString"
	Polygon         GeometryType = "Polygon"
	MultiPolygon    GeometryType = "MultiPolygon"
	Circle          GeometryType = "Circle"
	Text            GeometryType = "Text"
)

// Known reports whether t is one of the supported geometry types.
func (t GeometryType) Known() bool {
	switch t {
	case Point, MultiPoint, LineString, MultiLineString, Polygon, MultiPolygon, Circle, Text:
		return true
	}
	return false
}

// Incremental reports whether features of this type are drawn vertex by
// vertex rather than defined by a single click.
func (t GeometryType) Incremental() bool {
	switch t {
	case LineString, MultiPoint, Polygon, MultiLineString, MultiPolygon:
		return true
	}
	return false
}

// Flat returns the GeoJSON type used once internal tags are flattened.
func (t GeometryType) Flat() GeometryType {
	switch t {
	case Circle:
		return Polygon
	case Text:
		return Point
	}
	return t
}

// Geometry holds coordinates for every supported nesting depth. Only the
// field matching Type is meaningful.
type Geometry struct {
	Type     GeometryType
	Position Position       // Point, Text
	Path     []Position     // LineString, MultiPoint
	Rings    [][]Position   // Polygon, MultiLineString, Circle
	Polygons [][][]Position // MultiPolygon
}

// NewPoint returns a Point geometry.
func NewPoint(p Position) *Geometry {
	return &Geometry{Type: Point, Position: p}
}

// NewPolygon returns a Polygon geometry with the given rings.
func NewPolygon(rings ...[]Position) *Geometry {
	return &Geometry{Type: Polygon, Rings: rings}
}

// Placeholder returns the empty geometry a freshly added feature of type t
// starts with.
func Placeholder(t GeometryType) *Geometry {
	switch t {
	case LineString, MultiPoint:
		return &Geometry{Type: t, Path: []Position{}}
	case Polygon, MultiLineString:
		return &Geometry{Type: t, Rings: [][]Position{{}}}
	case Circle:
		return &Geometry{Type: Circle, Rings: [][]Position{{}}}
	case MultiPolygon:
		return &Geometry{Type: t, Polygons: [][][]Position{}}
	default:
		return &Geometry{Type: t}
	}
}

// Clone returns a deep copy of g. A nil geometry clones to nil.
func (g *Geometry) Clone() *Geometry {
	if g == nil {
		return nil
	}
	out := &Geometry{
		Type:     g.Type,
		Position: g.Position.Clone(),
		Path:     clonePath(g.Path),
		Rings:    cloneRings(g.Rings),
	}
	if g.Polygons != nil {
		out.Polygons = make([][][]Position, len(g.Polygons))
		for i, p := range g.Polygons {
			out.Polygons[i] = cloneRings(p)
		}
	}
	return out
}

// Flatten returns a copy with internal tags replaced by GeoJSON types.
func (g *Geometry) Flatten() *Geometry {
	if g == nil {
		return nil
	}
	out := g.Clone()
	out.Type = g.Type.Flat()
	return out
}

// Positions returns every position of g in document order.
func (g *Geometry) Positions() []Position {
	if g == nil {
		return nil
	}
	switch g.Type {
	case Point, Text:
		if g.Position == nil {
			return nil
		}
		return []Position{g.Position}
	case LineString, MultiPoint:
		return g.Path
	case Polygon, MultiLineString, Circle:
		var out []Position
		for _, r := range g.Rings {
			out = append(out, r...)
		}
		return out
	case MultiPolygon:
		var out []Position
		for _, p := range g.Polygons {
			for _, r := range p {
				out = append(out, r...)
			}
		}
		return out
	}
	return nil
}

// Equal reports whether two geometries have the same type and coordinates.
func (g *Geometry) Equal(o *Geometry) bool {
	if g == nil || o == nil {
		return g == o
	}
	if g.Type != o.Type {
		return false
	}
	a, b := g.Positions(), o.Positions()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

type wireGeometry struct {
	Type        GeometryType    `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

func (g Geometry) MarshalJSON() ([]byte, error) {
	var coords any
	switch g.Type {
	case Point, Text:
		coords = g.Position
	case LineString, MultiPoint:
		coords = nonNil(g.Path)
	case Polygon, MultiLineString, Circle:
		coords = nonNil(g.Rings)
	case MultiPolygon:
		coords = nonNil(g.Polygons)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGeometry, g.Type)
	}
	raw, err := json.Marshal(coords)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireGeometry{Type: g.Type, Coordinates: raw})
}

func (g *Geometry) UnmarshalJSON(data []byte) error {
	var w wireGeometry
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Geometry{Type: w.Type}
	empty := len(bytes.TrimSpace(w.Coordinates)) == 0 || bytes.Equal(bytes.TrimSpace(w.Coordinates), []byte("null"))

	var err error
	switch w.Type {
	case Point, Text:
		if !empty {
			err = json.Unmarshal(w.Coordinates, &out.Position)
		}
	case LineString, MultiPoint:
		out.Path = []Position{}
		if !empty {
			err = json.Unmarshal(w.Coordinates, &out.Path)
		}
	case Polygon, MultiLineString, Circle:
		out.Rings = [][]Position{}
		if !empty {
			err = json.Unmarshal(w.Coordinates, &out.Rings)
		}
	case MultiPolygon:
		out.Polygons = [][][]Position{}
		if !empty {
			err = json.Unmarshal(w.Coordinates, &out.Polygons)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownGeometry, w.Type)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidCoordinates, w.Type, err)
	}
	*g = out
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
