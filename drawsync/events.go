package drawsync

import "github.com/tailored-agentic-units/annotations/geojson"

// FeatureDraftUpdate reports a transient change while the user is still
// interacting, such as a vertex being dragged.
type FeatureDraftUpdate struct {
	Features []geojson.Feature `json:"features"`
	Owner    Owner             `json:"owner"`
}

// GeometryFinalized reports the end of a drawing interaction. Features may
// hold plain features or, when the surface transforms its output, a single
// collection.
type GeometryFinalized struct {
	Features      geojson.Objects `json:"features"`
	Owner         Owner           `json:"owner"`
	TextChanged   bool            `json:"textChanged,omitempty"`
	CircleChanged bool            `json:"circleChanged,omitempty"`
}

// FeatureListSelected reports that the user picked existing features for
// interactive editing. The first feature becomes the edited one.
type FeatureListSelected struct {
	Features []geojson.Feature `json:"features"`
	Owner    Owner             `json:"owner"`
}
