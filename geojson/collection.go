package geojson

import (
	"encoding/json"
	"maps"
)

// CollectionProperties holds the descriptive fields of an annotation. Fields
// other than the well-known ones are kept in Fields and inlined on the wire.
type CollectionProperties struct {
	ID          string
	Title       string
	Description string
	Visibility  *bool
	Fields      map[string]any
}

// Clone returns a deep copy of p (Fields values are copied shallowly).
func (p CollectionProperties) Clone() CollectionProperties {
	out := p
	out.Fields = maps.Clone(p.Fields)
	if p.Visibility != nil {
		v := *p.Visibility
		out.Visibility = &v
	}
	return out
}

// Visible reports the effective visibility; an unset flag means visible.
func (p CollectionProperties) Visible() bool {
	return p.Visibility == nil || *p.Visibility
}

// SetVisible sets the visibility flag.
func (p *CollectionProperties) SetVisible(v bool) {
	p.Visibility = &v
}

// Set assigns one field by name. Well-known names map onto typed fields.
func (p *CollectionProperties) Set(name string, value any) {
	switch name {
	case "id":
		if s, ok := value.(string); ok {
			p.ID = s
			return
		}
	case "title":
		if s, ok := value.(string); ok {
			p.Title = s
			return
		}
	case "description":
		if s, ok := value.(string); ok {
			p.Description = s
			return
		}
	case "visibility":
		if b, ok := value.(bool); ok {
			p.SetVisible(b)
			return
		}
	}
	if p.Fields == nil {
		p.Fields = make(map[string]any)
	}
	p.Fields[name] = value
}

// Merge assigns every entry of fields, in map order.
func (p *CollectionProperties) Merge(fields map[string]any) {
	for k, v := range fields {
		p.Set(k, v)
	}
}

func (p CollectionProperties) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Map())
}

func (p *CollectionProperties) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	out := CollectionProperties{}
	for k, v := range m {
		out.Set(k, v)
	}
	*p = out
	return nil
}

// FeatureCollection is an annotation: a titled group of features sharing a
// collection-level style.
type FeatureCollection struct {
	Type       string               `json:"type"`
	Properties CollectionProperties `json:"properties"`
	Features   []Feature            `json:"features"`
	Style      Style                `json:"style"`
}

// NewFeatureCollection returns an empty collection with the given id.
func NewFeatureCollection(id string) *FeatureCollection {
	return &FeatureCollection{
		Type:       TypeFeatureCollection,
		Properties: CollectionProperties{ID: id},
		Features:   []Feature{},
	}
}

// ID returns the collection id.
func (c *FeatureCollection) ID() string {
	return c.Properties.ID
}

// Clone returns a deep copy of c.
func (c *FeatureCollection) Clone() *FeatureCollection {
	if c == nil {
		return nil
	}
	return &FeatureCollection{
		Type:       c.Type,
		Properties: c.Properties.Clone(),
		Features:   CloneFeatures(c.Features),
		Style:      c.Style.Clone(),
	}
}

// Find returns the feature with id and its index, or nil and -1.
func (c *FeatureCollection) Find(id string) (*Feature, int) {
	i := IndexOf(c.Features, id)
	if i < 0 {
		return nil, -1
	}
	return &c.Features[i], i
}

// Editable returns the features flagged canEdit.
func (c *FeatureCollection) Editable() []Feature {
	var out []Feature
	for _, f := range c.Features {
		if f.Properties.CanEdit {
			out = append(out, f)
		}
	}
	return out
}

// Map returns the properties as a flat map, as stored on the wire.
func (p CollectionProperties) Map() map[string]any {
	m := maps.Clone(p.Fields)
	if m == nil {
		m = make(map[string]any, 4)
	}
	m["id"] = p.ID
	if p.Title != "" {
		m["title"] = p.Title
	}
	if p.Description != "" {
		m["description"] = p.Description
	}
	if p.Visibility != nil {
		m["visibility"] = *p.Visibility
	}
	return m
}
