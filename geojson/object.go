package geojson

import (
	"encoding/json"
	"fmt"
)

// Object is a Feature or a FeatureCollection as reported by a drawing
// surface.
type Object interface {
	GeoJSONType() string
}

func (Feature) GeoJSONType() string            { return TypeFeature }
func (*FeatureCollection) GeoJSONType() string { return TypeFeatureCollection }

// Objects decodes a JSON array whose items may be features or collections.
type Objects []Object

func (o *Objects) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Objects, 0, len(raw))
	for i, item := range raw {
		obj, err := DecodeObject(item)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, obj)
	}
	*o = out
	return nil
}

// DecodeObject decodes a single Feature or FeatureCollection.
func DecodeObject(data []byte) (Object, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case TypeFeatureCollection:
		var c FeatureCollection
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return &c, nil
	case TypeFeature, "":
		var f Feature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		f.Type = TypeFeature
		return f, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownGeometry, head.Type)
}

// FeaturesOf flattens objects into features, descending into collections.
func FeaturesOf(objs []Object) []Feature {
	var out []Feature
	for _, o := range objs {
		switch v := o.(type) {
		case Feature:
			out = append(out, v)
		case *FeatureCollection:
			out = append(out, v.Features...)
		}
	}
	return out
}
