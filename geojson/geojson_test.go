package geojson_test

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/annotations/geojson"
)

func TestPosition_Valid(t *testing.T) {
	tests := []struct {
		name string
		pos  geojson.Position
		want bool
	}{
		{"pair", geojson.Pos(1, 2), true},
		{"with altitude", geojson.Position{1, 2, 3}, true},
		{"missing", geojson.Missing(), false},
		{"half typed", geojson.Position{1, math.NaN()}, false},
		{"infinite", geojson.Position{math.Inf(1), 0}, false},
		{"too short", geojson.Position{1}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pos.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPosition_NullOrdinates(t *testing.T) {
	p := geojson.Position{1, math.NaN()}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "[1,null]" {
		t.Errorf("got %s, want [1,null]", data)
	}

	var back geojson.Position
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !back.Equal(p) {
		t.Errorf("got %v, want %v", back, p)
	}
	if back.Valid() {
		t.Error("expected half-typed position to stay invalid")
	}
}

func TestGeometry_JSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		typ  geojson.GeometryType
		n    int
	}{
		{"point", `{"type":"Point","coordinates":[1,2]}`, geojson.Point, 1},
		{"line", `{"type":"LineString","coordinates":[[0,0],[1,1],[2,2]]}`, geojson.LineString, 3},
		{"polygon", `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`, geojson.Polygon, 4},
		{"multipolygon", `{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[0,0]]],[[[5,5],[6,5],[5,5]]]]}`, geojson.MultiPolygon, 6},
		{"empty line", `{"type":"LineString","coordinates":null}`, geojson.LineString, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g geojson.Geometry
			if err := json.Unmarshal([]byte(tt.in), &g); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if g.Type != tt.typ {
				t.Errorf("type = %s, want %s", g.Type, tt.typ)
			}
			if got := len(g.Positions()); got != tt.n {
				t.Errorf("got %d positions, want %d", got, tt.n)
			}
			if _, err := json.Marshal(g); err != nil {
				t.Errorf("Marshal failed: %v", err)
			}
		})
	}
}

func TestGeometry_JSONErrors(t *testing.T) {
	var g geojson.Geometry
	err := json.Unmarshal([]byte(`{"type":"Hexagon","coordinates":[]}`), &g)
	if !errors.Is(err, geojson.ErrUnknownGeometry) {
		t.Errorf("got %v, want ErrUnknownGeometry", err)
	}

	err = json.Unmarshal([]byte(`{"type":"Point","coordinates":"here"}`), &g)
	if !errors.Is(err, geojson.ErrInvalidCoordinates) {
		t.Errorf("got %v, want ErrInvalidCoordinates", err)
	}
}

func TestGeometry_EmptyCoordinatesEncodeAsArrays(t *testing.T) {
	data, err := json.Marshal(geojson.Placeholder(geojson.LineString))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"coordinates":[]`) {
		t.Errorf("got %s, want empty coordinates array", data)
	}
}

func TestPlaceholder(t *testing.T) {
	tests := []struct {
		typ   geojson.GeometryType
		check func(*geojson.Geometry) bool
	}{
		{geojson.Point, func(g *geojson.Geometry) bool { return g.Position == nil }},
		{geojson.LineString, func(g *geojson.Geometry) bool { return g.Path != nil && len(g.Path) == 0 }},
		{geojson.Polygon, func(g *geojson.Geometry) bool { return len(g.Rings) == 1 && len(g.Rings[0]) == 0 }},
		{geojson.Circle, func(g *geojson.Geometry) bool { return len(g.Rings) == 1 && len(g.Rings[0]) == 0 }},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			g := geojson.Placeholder(tt.typ)
			if g.Type != tt.typ {
				t.Errorf("type = %s, want %s", g.Type, tt.typ)
			}
			if !tt.check(g) {
				t.Errorf("unexpected placeholder %+v", g)
			}
		})
	}
}

func TestGeometryType_Flat(t *testing.T) {
	if geojson.Circle.Flat() != geojson.Polygon {
		t.Error("Circle should flatten to Polygon")
	}
	if geojson.Text.Flat() != geojson.Point {
		t.Error("Text should flatten to Point")
	}
	if geojson.LineString.Flat() != geojson.LineString {
		t.Error("LineString should stay LineString")
	}
	if !geojson.Polygon.Incremental() || geojson.Circle.Incremental() || geojson.Point.Incremental() {
		t.Error("unexpected incremental classification")
	}
}

func TestFeature_Kind(t *testing.T) {
	circle := geojson.NewFeature("c", geojson.NewPolygon())
	circle.Properties.IsCircle = true
	text := geojson.NewFeature("t", geojson.NewPoint(geojson.Pos(0, 0)))
	text.Properties.IsText = true

	tests := []struct {
		name string
		f    geojson.Feature
		want geojson.GeometryType
	}{
		{"circle tag wins", circle, geojson.Circle},
		{"text tag wins", text, geojson.Text},
		{"geometry type", geojson.NewFeature("p", geojson.NewPoint(geojson.Pos(0, 0))), geojson.Point},
		{"no geometry", geojson.NewFeature("n", nil), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.Kind(); got != tt.want {
				t.Errorf("Kind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFeature_CloneIsDeep(t *testing.T) {
	f := geojson.NewFeature("p", geojson.NewPoint(geojson.Pos(1, 1)))
	f.Style = []geojson.Style{{Color: "#fff", DashArray: []string{"1"}}}

	c := f.Clone()
	c.Geometry.Position[0] = 9
	c.Style[0].DashArray[0] = "2"

	if f.Geometry.Position[0] != 1 {
		t.Error("clone shares coordinates")
	}
	if f.Style[0].DashArray[0] != "1" {
		t.Error("clone shares style slices")
	}
}

func TestCollectionProperties_JSON(t *testing.T) {
	in := `{"id":"a","title":"Harbour","visibility":false,"author":"kim"}`
	var p geojson.CollectionProperties
	if err := json.Unmarshal([]byte(in), &p); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if p.ID != "a" || p.Title != "Harbour" {
		t.Errorf("got %+v", p)
	}
	if p.Visible() {
		t.Error("expected visibility false")
	}
	if p.Fields["author"] != "kim" {
		t.Errorf("fields = %v, want author kept", p.Fields)
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	if m["author"] != "kim" || m["visibility"] != false {
		t.Errorf("encoded %s, want inlined fields", data)
	}
}

func TestCollectionProperties_VisibleByDefault(t *testing.T) {
	var p geojson.CollectionProperties
	if !p.Visible() {
		t.Error("expected unset visibility to count as visible")
	}
	p.SetVisible(false)
	if p.Visible() {
		t.Error("expected hidden after SetVisible(false)")
	}
}

func TestObjects_Decode(t *testing.T) {
	in := `[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[1,1]},"properties":{"id":"a"}},
		{"type":"FeatureCollection","properties":{"id":"fc"},"features":[
			{"type":"Feature","geometry":{"type":"Point","coordinates":[2,2]},"properties":{"id":"b","canEdit":true}}
		]}
	]`
	var objs geojson.Objects
	if err := json.Unmarshal([]byte(in), &objs); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(objs) != 2 {
		t.Fatalf("got %d objects, want 2", len(objs))
	}
	if _, ok := objs[0].(geojson.Feature); !ok {
		t.Errorf("objs[0] = %T, want Feature", objs[0])
	}
	fc, ok := objs[1].(*geojson.FeatureCollection)
	if !ok {
		t.Fatalf("objs[1] = %T, want *FeatureCollection", objs[1])
	}
	if got := fc.Editable(); len(got) != 1 || got[0].ID() != "b" {
		t.Errorf("editable = %+v, want b", got)
	}

	fs := geojson.FeaturesOf(objs)
	if len(fs) != 2 || fs[0].ID() != "a" || fs[1].ID() != "b" {
		t.Errorf("FeaturesOf = %+v", fs)
	}
}

func TestFeatureCollection_Find(t *testing.T) {
	fc := geojson.NewFeatureCollection("a")
	fc.Features = []geojson.Feature{
		geojson.NewFeature("x", nil),
		geojson.NewFeature("y", nil),
	}

	f, i := fc.Find("y")
	if i != 1 || f.ID() != "y" {
		t.Errorf("Find(y) = %v, %d", f, i)
	}
	if _, i := fc.Find("z"); i != -1 {
		t.Errorf("Find(z) index = %d, want -1", i)
	}
	if geojson.IndexOf(fc.Features, "x") != 0 {
		t.Error("IndexOf(x) != 0")
	}
}
