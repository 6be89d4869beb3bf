package geometry_test

import (
	"errors"
	"math"
	"testing"

	"github.com/tailored-agentic-units/annotations/geojson"
	"github.com/tailored-agentic-units/annotations/geometry"
)

func near(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func TestBuffer(t *testing.T) {
	tests := []struct {
		name     string
		radius   float64
		crs      string
		firstLat float64
	}{
		{"projected meters", 10000, "EPSG:3857", 1.0899320364},
		{"geographic degrees", 0.5, geometry.CRSGeographic, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := geometry.Buffer(geojson.Pos(1, 1), tt.radius, tt.crs)
			if g == nil {
				t.Fatal("expected a polygon")
			}
			if g.Type != geojson.Polygon || len(g.Rings) != 1 {
				t.Fatalf("geometry = %s with %d rings", g.Type, len(g.Rings))
			}
			ring := g.Rings[0]
			if len(ring) != geometry.BufferSteps+1 {
				t.Fatalf("ring has %d positions, want %d", len(ring), geometry.BufferSteps+1)
			}
			if !ring[0].Equal(ring[len(ring)-1]) {
				t.Error("ring is not closed")
			}
			if !near(ring[0].Lon(), 1, 1e-9) || !near(ring[0].Lat(), tt.firstLat, 1e-9) {
				t.Errorf("first vertex = %v, want [1 %v]", ring[0], tt.firstLat)
			}
		})
	}
}

func TestBuffer_Counterclockwise(t *testing.T) {
	ring := geometry.Buffer(geojson.Pos(0, 0), 1, geometry.CRSGeographic).Rings[0]
	// A quarter of the way round, a counterclockwise walk from north is west.
	if ring[geometry.BufferSteps/4].Lon() >= 0 {
		t.Errorf("vertex %d = %v, want west of center", geometry.BufferSteps/4, ring[geometry.BufferSteps/4])
	}
}

func TestBuffer_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		center geojson.Position
		radius float64
	}{
		{"zero radius", geojson.Pos(0, 0), 0},
		{"negative radius", geojson.Pos(0, 0), -1},
		{"infinite radius", geojson.Pos(0, 0), math.Inf(1)},
		{"NaN radius", geojson.Pos(0, 0), math.NaN()},
		{"missing center", geojson.Missing(), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if g := geometry.Buffer(tt.center, tt.radius, geometry.CRSGeographic); g != nil {
				t.Errorf("expected nil, got %+v", g)
			}
		})
	}
}

func TestSetCoordinates(t *testing.T) {
	cs := []geojson.Position{geojson.Pos(0, 0), geojson.Pos(1, 1), geojson.Pos(2, 0)}

	tests := []struct {
		typ   geojson.GeometryType
		check func(*geojson.Geometry) bool
	}{
		{geojson.Polygon, func(g *geojson.Geometry) bool { return len(g.Rings) == 1 && len(g.Rings[0]) == 3 }},
		{geojson.LineString, func(g *geojson.Geometry) bool { return len(g.Path) == 3 }},
		{geojson.MultiPoint, func(g *geojson.Geometry) bool { return len(g.Path) == 3 }},
		{geojson.Point, func(g *geojson.Geometry) bool { return g.Position.Equal(cs[0]) }},
		{geojson.MultiPolygon, func(g *geojson.Geometry) bool { return len(g.Polygons) == 1 && len(g.Polygons[0][0]) == 3 }},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			g := geometry.SetCoordinates(tt.typ, cs)
			if g.Type != tt.typ || !tt.check(g) {
				t.Errorf("unexpected geometry %+v", g)
			}
		})
	}
}

func TestSetCoordinates_Copies(t *testing.T) {
	cs := []geojson.Position{geojson.Pos(0, 0)}
	g := geometry.SetCoordinates(geojson.Point, cs)
	cs[0][0] = 5
	if g.Position[0] != 0 {
		t.Error("geometry shares input positions")
	}
}

func TestUpdateCircle(t *testing.T) {
	f := geometry.UpdateCircle(geojson.NewFeature("c", nil), geojson.Pos(1, 1), 1, geometry.CRSGeographic)

	if f.Kind() != geojson.Circle || f.Geometry.Type != geojson.Circle {
		t.Fatalf("kind = %s geometry = %s, want Circle", f.Kind(), f.Geometry.Type)
	}
	if !f.Properties.IsValidFeature || f.Properties.PolygonGeom == nil {
		t.Fatal("expected a valid buffered circle")
	}
	if !f.Properties.Center.Equal(geojson.Pos(1, 1)) || f.Properties.Radius != 1 {
		t.Errorf("center/radius = %v/%v", f.Properties.Center, f.Properties.Radius)
	}

	f = geometry.UpdateCircle(f, geojson.Pos(1, 1), 0, geometry.CRSGeographic)
	if f.Properties.IsValidFeature || f.Properties.PolygonGeom != nil {
		t.Error("expected zero radius to invalidate the circle")
	}
	if len(f.Geometry.Rings) != 1 || len(f.Geometry.Rings[0]) != 0 {
		t.Errorf("geometry = %+v, want empty ring", f.Geometry)
	}
}

func TestUpdateText(t *testing.T) {
	// "e" followed by a combining acute accent.
	f := geometry.UpdateText(geojson.NewFeature("t", nil), "cafe\u0301", geojson.Pos(3, 4))

	if f.Properties.ValueText != "caf\u00e9" {
		t.Errorf("value = %q, want NFC form", f.Properties.ValueText)
	}
	if f.Geometry.Type != geojson.Text || !f.Geometry.Position.Equal(geojson.Pos(3, 4)) {
		t.Errorf("geometry = %+v", f.Geometry)
	}
	if !f.Properties.IsValidFeature {
		t.Error("expected valid text")
	}
}

func TestUpdateCoordinates(t *testing.T) {
	line := geojson.NewFeature("l", geojson.Placeholder(geojson.LineString))
	line = geometry.UpdateCoordinates(line, []geojson.Position{geojson.Pos(0, 0), geojson.Pos(1, 1)}, geometry.CRSGeographic)
	if !line.Properties.IsValidFeature || len(line.Geometry.Path) != 2 {
		t.Errorf("line = %+v", line)
	}

	circle := geometry.UpdateCircle(geojson.NewFeature("c", nil), geojson.Pos(0, 0), 2, geometry.CRSGeographic)
	moved := geometry.UpdateCoordinates(circle, []geojson.Position{geojson.Pos(5, 5)}, geometry.CRSGeographic)
	if !moved.Properties.Center.Equal(geojson.Pos(5, 5)) || moved.Properties.Radius != 2 {
		t.Errorf("moved circle center/radius = %v/%v", moved.Properties.Center, moved.Properties.Radius)
	}
}

func TestCommitable(t *testing.T) {
	circle := geometry.UpdateCircle(geojson.NewFeature("c", nil), geojson.Pos(1, 1), 1, geometry.CRSGeographic)
	stored := geometry.Commitable(circle)
	if stored.Geometry.Type != geojson.Polygon {
		t.Errorf("circle stored as %s, want Polygon", stored.Geometry.Type)
	}
	if !stored.Properties.IsCircle {
		t.Error("expected circle tag kept in properties")
	}

	text := geometry.UpdateText(geojson.NewFeature("t", nil), "x", geojson.Pos(0, 0))
	if got := geometry.Commitable(text).Geometry.Type; got != geojson.Point {
		t.Errorf("text stored as %s, want Point", got)
	}

	if circle.Geometry.Type != geojson.Circle {
		t.Error("Commitable modified its input")
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   *geojson.Geometry
		n    int
	}{
		{"line", &geojson.Geometry{Type: geojson.LineString, Path: []geojson.Position{geojson.Pos(0, 0), geojson.Missing()}}, 1},
		{"polygon", geojson.NewPolygon([]geojson.Position{geojson.Missing(), geojson.Pos(0, 0)}), 1},
		{"point", geojson.NewPoint(geojson.Missing()), 0},
		{"valid point", geojson.NewPoint(geojson.Pos(1, 1)), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := geometry.Sanitize(tt.in)
			if got := len(out.Positions()); got != tt.n {
				t.Errorf("got %d positions, want %d", got, tt.n)
			}
			if out.Type != tt.in.Type {
				t.Errorf("type changed to %s", out.Type)
			}
		})
	}

	if geometry.Sanitize(nil) != nil {
		t.Error("expected nil for nil geometry")
	}
}

func TestMerge(t *testing.T) {
	pt := func(id string, x float64) geojson.Object {
		return geojson.NewFeature(id, geojson.NewPoint(geojson.Pos(x, x)))
	}
	line := geojson.NewFeature("l", &geojson.Geometry{Type: geojson.LineString, Path: []geojson.Position{geojson.Pos(0, 0)}})

	t.Run("single part", func(t *testing.T) {
		g, err := geometry.Merge([]geojson.Object{line})
		if err != nil || g.Type != geojson.LineString {
			t.Fatalf("got %+v, %v", g, err)
		}
	})

	t.Run("points become multipoint", func(t *testing.T) {
		g, err := geometry.Merge([]geojson.Object{pt("a", 1), pt("b", 2), pt("c", 3)})
		if err != nil {
			t.Fatalf("Merge failed: %v", err)
		}
		if g.Type != geojson.MultiPoint || len(g.Path) != 3 {
			t.Errorf("got %+v, want MultiPoint of 3", g)
		}
	})

	t.Run("collection features", func(t *testing.T) {
		fc := geojson.NewFeatureCollection("fc")
		fc.Features = []geojson.Feature{
			geojson.NewFeature("a", geojson.NewPoint(geojson.Pos(1, 1))),
			geojson.NewFeature("b", geojson.NewPoint(geojson.Pos(2, 2))),
		}
		g, err := geometry.Merge([]geojson.Object{fc})
		if err != nil || g.Type != geojson.MultiPoint {
			t.Errorf("got %+v, %v", g, err)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := geometry.Merge([]geojson.Object{pt("a", 1), line})
		if !errors.Is(err, geometry.ErrUnsupportedMerge) {
			t.Errorf("got %v, want ErrUnsupportedMerge", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		_, err := geometry.Merge(nil)
		if !errors.Is(err, geometry.ErrEmptyMerge) {
			t.Errorf("got %v, want ErrEmptyMerge", err)
		}
	})

	t.Run("missing geometry", func(t *testing.T) {
		_, err := geometry.Merge([]geojson.Object{geojson.NewFeature("n", nil)})
		if !errors.Is(err, geometry.ErrMissingGeometry) {
			t.Errorf("got %v, want ErrMissingGeometry", err)
		}
	})
}
