package geojson

import "slices"

// Style describes how one feature (or one derived part of it, such as the
// start point of a line) is drawn.
type Style struct {
	ID        string       `json:"id,omitempty"`
	Type      GeometryType `json:"type,omitempty"`
	Title     string       `json:"title,omitempty"`
	Geometry  string       `json:"geometry,omitempty"`
	Filtering *bool        `json:"filtering,omitempty"`
	Highlight bool         `json:"highlight"`

	Color       string   `json:"color,omitempty"`
	Opacity     float64  `json:"opacity,omitempty"`
	Weight      float64  `json:"weight,omitempty"`
	FillColor   string   `json:"fillColor,omitempty"`
	FillOpacity float64  `json:"fillOpacity,omitempty"`
	DashArray   []string `json:"dashArray,omitempty"`

	IconGlyph    string    `json:"iconGlyph,omitempty"`
	IconShape    string    `json:"iconShape,omitempty"`
	IconColor    string    `json:"iconColor,omitempty"`
	IconAnchor   []float64 `json:"iconAnchor,omitempty"`
	AnchorXUnits string    `json:"anchorXUnits,omitempty"`
	AnchorYUnits string    `json:"anchorYUnits,omitempty"`

	Shape               string `json:"shape,omitempty"`
	Size                int    `json:"size,omitempty"`
	SymbolURL           string `json:"symbolUrl,omitempty"`
	SymbolURLCustomized string `json:"symbolUrlCustomized,omitempty"`

	Font        string `json:"font,omitempty"`
	FontStyle   string `json:"fontStyle,omitempty"`
	FontSize    string `json:"fontSize,omitempty"`
	FontSizeUom string `json:"fontSizeUom,omitempty"`
	FontFamily  string `json:"fontFamily,omitempty"`
	FontWeight  string `json:"fontWeight,omitempty"`
	TextAlign   string `json:"textAlign,omitempty"`
}

// Clone returns a deep copy of s.
func (s Style) Clone() Style {
	out := s
	out.DashArray = slices.Clone(s.DashArray)
	out.IconAnchor = slices.Clone(s.IconAnchor)
	if s.Filtering != nil {
		f := *s.Filtering
		out.Filtering = &f
	}
	return out
}

// WithHighlight returns a copy of s with the highlight flag set to on.
func (s Style) WithHighlight(on bool) Style {
	out := s.Clone()
	out.Highlight = on
	return out
}

// CloneStyles deep-copies a style list.
func CloneStyles(styles []Style) []Style {
	if styles == nil {
		return nil
	}
	out := make([]Style, len(styles))
	for i, s := range styles {
		out[i] = s.Clone()
	}
	return out
}
