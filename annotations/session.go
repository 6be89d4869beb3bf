package annotations

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/tailored-agentic-units/annotations/geojson"
	"github.com/tailored-agentic-units/annotations/geometry"
	"github.com/tailored-agentic-units/annotations/observability"
)

// StartNew opens an edit session on a new empty annotation with a fresh id.
func (s *Store) StartNew(ctx context.Context) error {
	s.closeSession()
	s.editing = geojson.NewFeatureCollection(s.newID())
	s.lifecycle = LifecycleEditingNew

	s.emit(ctx, EventEditStart, observability.LevelInfo, "annotations.StartNew", map[string]any{
		"id":  s.editing.ID(),
		"new": true,
	})
	return nil
}

// EditExisting opens an edit session on the stored annotation with id.
// Unknown ids leave the store unchanged.
func (s *Store) EditExisting(ctx context.Context, id string) error {
	l, err := s.loadLayer(ctx)
	if err != nil {
		return err
	}
	var fc *geojson.FeatureCollection
	if l != nil {
		fc = l.Annotation(id)
	}
	if fc == nil {
		s.desync(ctx, "annotations.EditExisting", "annotation not found", slog.String("id", id))
		return nil
	}
	return s.StartEditingExisting(ctx, fc)
}

// StartEditingExisting opens an edit session on a copy of fc. Every feature
// starts locked and the committed snapshot holds the features as given.
func (s *Store) StartEditingExisting(ctx context.Context, fc *geojson.FeatureCollection) error {
	if fc == nil {
		return ErrAnnotationNotFound
	}
	s.closeSession()
	s.editing = fc.Clone()
	if s.editing.Features == nil {
		s.editing.Features = []geojson.Feature{}
	}
	s.lockExcept("")
	s.arena.snapshot(s.editing.Features)
	s.lifecycle = LifecycleEditingExisting

	s.emit(ctx, EventEditStart, observability.LevelInfo, "annotations.StartEditingExisting", map[string]any{
		"id":       s.editing.ID(),
		"features": len(s.editing.Features),
	})
	s.protocol.Select(ctx, s.editing, s.featureType)
	return nil
}

// SetEditingFeature replaces the edited annotation with fc, keeping the
// session open. The committed snapshot follows the new features; the
// working sub-feature, pending field edits and any style session belong to
// the replaced annotation and are dropped.
func (s *Store) SetEditingFeature(ctx context.Context, fc *geojson.FeatureCollection) error {
	if fc == nil {
		return ErrAnnotationNotFound
	}
	s.editing = fc.Clone()
	if s.editing.Features == nil {
		s.editing.Features = []geojson.Feature{}
	}
	s.arena.clear()
	s.featureType = ""
	s.drawing = false
	s.pending = nil
	s.styles.Reset()
	s.debounce.Stop()
	s.lockExcept("")
	s.arena.snapshot(s.editing.Features)

	s.lifecycle = LifecycleEditingNew
	if l, err := s.loadLayer(ctx); err == nil && l != nil && l.Annotation(fc.ID()) != nil {
		s.lifecycle = LifecycleEditingExisting
	}
	s.protocol.Select(ctx, s.editing, s.featureType)
	return nil
}

// CancelEdit closes the session without persisting anything.
func (s *Store) CancelEdit(ctx context.Context) error {
	if !s.editingActive() {
		return nil
	}
	id := s.editing.ID()
	method := s.featureType
	s.closeSession()

	s.protocol.Clean(ctx, method)
	s.emit(ctx, EventEditCancel, observability.LevelInfo, "annotations.CancelEdit", map[string]any{"id": id})
	return s.refreshVisibility(ctx)
}

// ChangeField records an unsaved edit of a descriptive field. Pending
// fields are applied on commit and on save.
func (s *Store) ChangeField(ctx context.Context, name string, value any) error {
	if !s.editingActive() {
		return ErrNotEditing
	}
	if s.pending == nil {
		s.pending = make(map[string]any)
	}
	s.pending[name] = value
	return nil
}

// SaveRequest describes an annotation being persisted.
type SaveRequest struct {
	ID           string            `json:"id"`
	Fields       map[string]any    `json:"fields,omitempty"`
	Geometry     []geojson.Feature `json:"geometry"`
	Style        geojson.Style     `json:"style"`
	IsNewFeature bool              `json:"newFeature,omitempty"`
	Properties   map[string]any    `json:"properties,omitempty"`
}

// Save persists an annotation into the annotations layer, creating the
// layer on first save, and closes the session. New annotations are made
// visible.
func (s *Store) Save(ctx context.Context, req SaveRequest) error {
	prev := s.lifecycle
	s.lifecycle = LifecycleCommitting

	features := make([]geojson.Feature, len(req.Geometry))
	for i, f := range req.Geometry {
		features[i] = geometry.Commitable(f)
		features[i].Properties.CanEdit = false
	}

	l, err := s.loadLayer(ctx)
	if err != nil {
		s.lifecycle = prev
		return err
	}
	if l == nil {
		l = s.newLayer()
		l.Style = req.Style.Clone()
	}

	if fc := l.Annotation(req.ID); fc != nil && !req.IsNewFeature {
		fc.Properties.Merge(req.Properties)
		fc.Properties.Merge(req.Fields)
		fc.Features = features
		fc.Style = req.Style.WithHighlight(false)
	} else {
		l.RemoveAnnotation(req.ID)
		fc := geojson.NewFeatureCollection(req.ID)
		fc.Properties.Merge(req.Properties)
		fc.Properties.Merge(req.Fields)
		fc.Properties.ID = req.ID
		fc.Features = features
		fc.Style = req.Style.WithHighlight(false)
		if req.IsNewFeature {
			fc.Properties.SetVisible(true)
		}
		l.Features = append(l.Features, fc)
	}

	method := s.featureType
	editingSaved := s.editingActive() && s.editing.ID() == req.ID
	if editingSaved {
		s.closeSession()
	} else {
		s.lifecycle = prev
	}

	if err := s.storeLayer(ctx, l); err != nil {
		return err
	}
	if editingSaved {
		s.protocol.Clean(ctx, method)
	}
	s.emit(ctx, EventSave, observability.LevelInfo, "annotations.Save", map[string]any{
		"id":       req.ID,
		"features": len(features),
		"new":      req.IsNewFeature,
	})
	return nil
}

// SaveEditing commits the working sub-feature and saves the edited
// annotation with its pending fields.
func (s *Store) SaveEditing(ctx context.Context) error {
	if !s.editingActive() {
		return ErrNotEditing
	}
	if s.arena.active() {
		s.commitWorking()
	}
	req := SaveRequest{
		ID:           s.editing.ID(),
		Fields:       maps.Clone(s.pending),
		Geometry:     geojson.CloneFeatures(s.editing.Features),
		Style:        s.editing.Style.Clone(),
		IsNewFeature: s.lifecycle == LifecycleEditingNew,
		Properties:   s.editing.Properties.Map(),
	}
	return s.Save(ctx, req)
}

// Remove deletes the stored annotation with id. The layer is removed when
// it becomes empty. An edit session on the same annotation is closed.
func (s *Store) Remove(ctx context.Context, id string) error {
	l, err := s.loadLayer(ctx)
	if err != nil {
		return err
	}
	if l == nil || !l.RemoveAnnotation(id) {
		s.desync(ctx, "annotations.Remove", "annotation not found", slog.String("id", id))
		return nil
	}

	if s.editingActive() && s.editing.ID() == id {
		method := s.featureType
		s.closeSession()
		s.protocol.Clean(ctx, method)
	}
	if err := s.storeLayer(ctx, l); err != nil {
		return err
	}
	s.emit(ctx, EventRemove, observability.LevelInfo, "annotations.Remove", map[string]any{"id": id})
	return nil
}

// ToggleVisibility sets the visibility of the annotation with id, or flips
// it when visible is nil. An unset flag counts as visible.
func (s *Store) ToggleVisibility(ctx context.Context, id string, visible *bool) error {
	l, err := s.loadLayer(ctx)
	if err != nil {
		return err
	}
	var fc *geojson.FeatureCollection
	if l != nil {
		fc = l.Annotation(id)
	}
	if fc == nil {
		s.desync(ctx, "annotations.ToggleVisibility", "annotation not found", slog.String("id", id))
		return nil
	}
	if visible != nil {
		fc.Properties.SetVisible(*visible)
	} else {
		fc.Properties.SetVisible(!fc.Properties.Visible())
	}
	return s.storeLayer(ctx, l)
}

// refreshVisibility recomputes the stored layer visibility.
func (s *Store) refreshVisibility(ctx context.Context) error {
	l, err := s.loadLayer(ctx)
	if err != nil || l == nil {
		return err
	}
	return s.storeLayer(ctx, l)
}

func (s *Store) requireEditing(op string) error {
	if !s.editingActive() {
		return fmt.Errorf("%w: %s", ErrNotEditing, op)
	}
	return nil
}
