package style

import (
	"github.com/google/uuid"

	"github.com/tailored-agentic-units/annotations/geojson"
)

// PointKind selects how default point features are drawn.
type PointKind string

const (
	PointMarker PointKind = "marker"
	PointSymbol PointKind = "symbol"
)

// Default style templates per geometry kind.
var (
	Circle = geojson.Style{
		Color:       "#ffcc33",
		Opacity:     1,
		Weight:      3,
		FillColor:   "#ffffff",
		FillOpacity: 0.2,
	}
	Marker = geojson.Style{
		IconGlyph: "comment",
		IconShape: "square",
		IconColor: "blue",
	}
	Symbol = geojson.Style{
		IconAnchor:   []float64{0.5, 0.5},
		AnchorXUnits: "fraction",
		AnchorYUnits: "fraction",
		Color:        "#000000",
		FillColor:    "#000000",
		Opacity:      1,
		Size:         64,
		FillOpacity:  1,
	}
	Text = geojson.Style{
		FontStyle:   "normal",
		FontSize:    "14",
		FontSizeUom: "px",
		FontFamily:  "Arial",
		FontWeight:  "normal",
		Font:        "14px Arial",
		TextAlign:   "center",
		Color:       "#000000",
		Opacity:     1,
		FillColor:   "#000000",
		FillOpacity: 1,
	}
	Line = geojson.Style{
		Color:   "#ffcc33",
		Opacity: 1,
		Weight:  3,
	}
	Polygon = geojson.Style{
		Color:       "#ffcc33",
		Opacity:     1,
		Weight:      3,
		FillColor:   "#ffffff",
		FillOpacity: 0.2,
	}
)

// Defaults holds the point styles resolved by a Loader.
type Defaults struct {
	Marker geojson.Style
	Symbol geojson.Style
}

// StaticDefaults returns Defaults built from the templates alone.
func StaticDefaults() Defaults {
	return Defaults{Marker: Marker.Clone(), Symbol: Symbol.Clone()}
}

// Template returns the base style for t.
func Template(t geojson.GeometryType) geojson.Style {
	switch t {
	case geojson.Text:
		return Text.Clone()
	case geojson.Circle:
		return Circle.Clone()
	case geojson.LineString, geojson.MultiLineString:
		return Line.Clone()
	case geojson.Polygon, geojson.MultiPolygon:
		return Polygon.Clone()
	default:
		return Marker.Clone()
	}
}

// ForNewFeature returns the style list for a feature of type t. Points use
// the symbol or marker default according to kind. Circles get a hidden
// center point style and lines get start and end point styles.
func ForNewFeature(t geojson.GeometryType, kind PointKind, d Defaults) []geojson.Style {
	var base geojson.Style
	switch t {
	case geojson.Point, geojson.MultiPoint:
		if kind == PointSymbol {
			base = d.Symbol.Clone()
		} else {
			base = d.Marker.Clone()
		}
	default:
		base = Template(t)
	}
	base.ID = uuid.NewString()
	base.Type = t
	base.Highlight = false
	filtering := true
	base.Filtering = &filtering

	styles := []geojson.Style{base}
	switch t {
	case geojson.Circle:
		styles = append(styles, pointStyle("Center Style", "centerPoint"))
	case geojson.LineString:
		styles = append(styles,
			pointStyle("StartPoint Style", "startPoint"),
			pointStyle("EndPoint Style", "endPoint"),
		)
	}
	return styles
}

func pointStyle(title, geometryFn string) geojson.Style {
	s := Marker.Clone()
	s.ID = uuid.NewString()
	s.Type = geojson.Point
	s.Title = title
	s.Geometry = geometryFn
	s.IconAnchor = []float64{0.5, 0.5}
	filtering := false
	s.Filtering = &filtering
	return s
}
