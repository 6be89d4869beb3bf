// Package geojson holds the in-memory annotation model: features with
// editing metadata, the feature collections that group them, and their
// styles. Circle and Text are tracked as first-class geometry kinds and
// flattened to Polygon and Point on the wire when committed.
package geojson

// TypeFeature and TypeFeatureCollection are the GeoJSON object type names.
const (
	TypeFeature           = "Feature"
	TypeFeatureCollection = "FeatureCollection"
)

// FeatureProperties carries the editing metadata of a single feature.
type FeatureProperties struct {
	ID             string    `json:"id"`
	CanEdit        bool      `json:"canEdit"`
	IsCircle       bool      `json:"isCircle,omitempty"`
	IsText         bool      `json:"isText,omitempty"`
	IsValidFeature bool      `json:"isValidFeature"`
	Center         Position  `json:"center,omitempty"`
	Radius         float64   `json:"radius,omitempty"`
	PolygonGeom    *Geometry `json:"polygonGeom,omitempty"`
	ValueText      string    `json:"valueText,omitempty"`
	GeometryTitle  string    `json:"geometryTitle,omitempty"`
}

// Clone returns a deep copy of p.
func (p FeatureProperties) Clone() FeatureProperties {
	out := p
	out.Center = p.Center.Clone()
	out.PolygonGeom = p.PolygonGeom.Clone()
	return out
}

// Feature is one drawable part of an annotation.
type Feature struct {
	Type       string            `json:"type"`
	Geometry   *Geometry         `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
	Style      []Style           `json:"style,omitempty"`
}

// NewFeature returns a Feature with the given id and geometry.
func NewFeature(id string, g *Geometry) Feature {
	return Feature{
		Type:       TypeFeature,
		Geometry:   g,
		Properties: FeatureProperties{ID: id},
	}
}

// ID returns the feature id.
func (f Feature) ID() string {
	return f.Properties.ID
}

// Kind returns the editing type of f: Circle and Text take precedence over
// the geometry type.
func (f Feature) Kind() GeometryType {
	switch {
	case f.Properties.IsCircle:
		return Circle
	case f.Properties.IsText:
		return Text
	case f.Geometry != nil:
		return f.Geometry.Type
	}
	return ""
}

// Clone returns a deep copy of f.
func (f Feature) Clone() Feature {
	return Feature{
		Type:       f.Type,
		Geometry:   f.Geometry.Clone(),
		Properties: f.Properties.Clone(),
		Style:      CloneStyles(f.Style),
	}
}

// CloneFeatures deep-copies a feature list.
func CloneFeatures(fs []Feature) []Feature {
	if fs == nil {
		return nil
	}
	out := make([]Feature, len(fs))
	for i, f := range fs {
		out[i] = f.Clone()
	}
	return out
}

// IndexOf returns the position of the feature with id, or -1.
func IndexOf(fs []Feature, id string) int {
	for i, f := range fs {
		if f.Properties.ID == id {
			return i
		}
	}
	return -1
}
