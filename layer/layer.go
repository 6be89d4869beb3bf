// Package layer holds the persisted representation of annotations: one
// vector layer whose features are annotation collections, and the
// registries that store it.
package layer

import (
	"context"
	"errors"

	"github.com/tailored-agentic-units/annotations/geojson"
)

// TypeVector is the type of annotation layers.
const TypeVector = "vector"

// Sentinel errors for registries.
var (
	ErrLayerNotFound = errors.New("layer not found")
	ErrStoreFailed   = errors.New("layer store failed")
)

// Layer is the vector layer handed to the map on save.
type Layer struct {
	ID                 string                       `json:"id"`
	Name               string                       `json:"name,omitempty"`
	Type               string                       `json:"type"`
	Visibility         bool                         `json:"visibility"`
	RowViewer          string                       `json:"rowViewer,omitempty"`
	HideLoading        bool                         `json:"hideLoading,omitempty"`
	HandleClickOnLayer bool                         `json:"handleClickOnLayer,omitempty"`
	Features           []*geojson.FeatureCollection `json:"features"`
	Style              geojson.Style                `json:"style"`
}

// Clone returns a deep copy of l.
func (l *Layer) Clone() *Layer {
	if l == nil {
		return nil
	}
	out := *l
	out.Features = make([]*geojson.FeatureCollection, len(l.Features))
	for i, f := range l.Features {
		out.Features[i] = f.Clone()
	}
	out.Style = l.Style.Clone()
	return &out
}

// Annotation returns the collection with id, or nil.
func (l *Layer) Annotation(id string) *geojson.FeatureCollection {
	for _, f := range l.Features {
		if f.ID() == id {
			return f
		}
	}
	return nil
}

// RemoveAnnotation drops the collection with id and reports whether it
// existed.
func (l *Layer) RemoveAnnotation(id string) bool {
	for i, f := range l.Features {
		if f.ID() == id {
			l.Features = append(l.Features[:i], l.Features[i+1:]...)
			return true
		}
	}
	return false
}

// Empty reports whether the layer holds no annotation.
func (l *Layer) Empty() bool {
	return len(l.Features) == 0
}

// RecomputeVisibility sets the layer visibility to the OR of its
// annotations' visibility. While an edit session is active the layer stays
// visible.
func (l *Layer) RecomputeVisibility(editing bool) {
	if editing {
		l.Visibility = true
		return
	}
	visible := false
	for _, f := range l.Features {
		if f.Properties.Visible() {
			visible = true
			break
		}
	}
	l.Visibility = visible
}

// Dedupe keeps the last collection for every id, in first-seen order.
func Dedupe(fcs []*geojson.FeatureCollection) []*geojson.FeatureCollection {
	index := make(map[string]int, len(fcs))
	out := make([]*geojson.FeatureCollection, 0, len(fcs))
	for _, fc := range fcs {
		if i, ok := index[fc.ID()]; ok {
			out[i] = fc
			continue
		}
		index[fc.ID()] = len(out)
		out = append(out, fc)
	}
	return out
}

// Registry stores layers by id. Implementations return copies so callers
// never share state with the store.
type Registry interface {
	// Get returns the layer or ErrLayerNotFound.
	Get(ctx context.Context, id string) (*Layer, error)
	// Put creates or replaces a layer.
	Put(ctx context.Context, l *Layer) error
	// Remove deletes a layer. Missing layers are ignored.
	Remove(ctx context.Context, id string) error
}

// ViewerRegistry resolves the row viewer used to display a layer's
// features.
type ViewerRegistry interface {
	RowViewer(layerID string) string
}

// StaticViewers maps layer ids to row viewer names.
type StaticViewers map[string]string

func (s StaticViewers) RowViewer(layerID string) string {
	return s[layerID]
}
