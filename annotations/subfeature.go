package annotations

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tailored-agentic-units/annotations/geojson"
	"github.com/tailored-agentic-units/annotations/geometry"
	"github.com/tailored-agentic-units/annotations/observability"
	"github.com/tailored-agentic-units/annotations/style"
	"github.com/tailored-agentic-units/annotations/validation"
)

// StartSubFeature appends an empty placeholder feature of type t, makes it
// the only editable feature, and puts the surface in drawing mode. A
// sub-feature still being edited is committed first.
func (s *Store) StartSubFeature(ctx context.Context, t geojson.GeometryType) error {
	if err := s.requireEditing("start sub-feature"); err != nil {
		return err
	}
	if !t.Known() {
		return fmt.Errorf("%w: %s", geojson.ErrUnknownGeometry, t)
	}
	if s.arena.active() {
		s.commitWorking()
	}

	f := geojson.NewFeature(s.newID(), geojson.Placeholder(t))
	f.Properties.CanEdit = true
	f.Properties.IsCircle = t == geojson.Circle
	f.Properties.IsText = t == geojson.Text
	f.Style = style.ForNewFeature(t, s.cfg.Style.PointKind, s.defaults)
	f = geometry.Revalidate(f)

	s.place(f)
	s.lockExcept(f.ID())
	s.arena.begin(f, true)
	s.featureType = t
	s.drawing = true

	s.emit(ctx, EventSubFeature, observability.LevelVerbose, "annotations.StartSubFeature", map[string]any{
		"id":   f.ID(),
		"type": string(t),
	})
	s.protocol.StartDrawing(ctx, s.editing, t)
	return nil
}

// ToggleAddGeometry starts adding a sub-feature of type t, or stops the
// add interaction when one is active.
func (s *Store) ToggleAddGeometry(ctx context.Context, t geojson.GeometryType) error {
	if s.drawing {
		s.drawing = false
		s.protocol.Stop(ctx, s.featureType)
		return nil
	}
	return s.StartSubFeature(ctx, t)
}

// CommitSubFeature folds the working sub-feature into the edited features,
// applies pending field edits, and takes a new committed snapshot. No
// feature is editable afterwards.
func (s *Store) CommitSubFeature(ctx context.Context) error {
	if err := s.requireEditing("commit sub-feature"); err != nil {
		return err
	}
	id := s.arena.workingID()
	if s.arena.active() {
		s.commitWorking()
	}
	s.editing.Properties.Merge(s.pending)
	s.pending = nil
	s.lockExcept("")
	s.arena.commit(s.editing.Features)
	s.drawing = false
	s.featureType = ""
	s.debounce.Stop()

	s.emit(ctx, EventSubFeature, observability.LevelVerbose, "annotations.CommitSubFeature", map[string]any{
		"id":       id,
		"features": len(s.editing.Features),
	})
	s.protocol.Select(ctx, s.editing, "")
	return nil
}

// commitWorking writes the stored form of the working feature into the
// edited features and closes the working slot.
func (s *Store) commitWorking() {
	w := s.arena.working
	if w == nil {
		return
	}
	f := geometry.Commitable(*w)
	f.Properties.CanEdit = false
	s.place(f)
	s.arena.discard()
}

// ResetOrCancelSubFeature abandons the working sub-feature. A brand-new
// non-circle shape is dropped; anything else returns to the committed
// snapshot. Calling it again changes nothing.
func (s *Store) ResetOrCancelSubFeature(ctx context.Context) error {
	if err := s.requireEditing("reset sub-feature"); err != nil {
		return err
	}
	w := s.arena.working
	if w != nil && s.arena.fresh && w.Kind() != geojson.Circle {
		s.unplace(w.ID())
		s.arena.discard()
	} else {
		s.editing.Features = s.arena.rollback()
	}
	s.lockExcept("")
	s.drawing = false
	s.debounce.Stop()

	s.protocol.Select(ctx, s.editing, "")
	return nil
}

// DeleteSubFeature removes the sub-feature with id from the edited
// annotation and from the committed snapshot. When the annotation of an
// existing session loses its last feature it is removed from the layer.
func (s *Store) DeleteSubFeature(ctx context.Context, id string) error {
	if err := s.requireEditing("delete sub-feature"); err != nil {
		return err
	}
	if geojson.IndexOf(s.editing.Features, id) < 0 {
		s.desync(ctx, "annotations.DeleteSubFeature", "feature not found", slog.String("id", id))
		return nil
	}
	s.unplace(id)
	s.arena.forget(id)
	if !s.arena.active() {
		s.lockExcept("")
	}

	if len(s.editing.Features) == 0 && s.lifecycle == LifecycleEditingExisting {
		l, err := s.loadLayer(ctx)
		if err != nil {
			return err
		}
		if l != nil && l.RemoveAnnotation(s.editing.ID()) {
			if err := s.storeLayer(ctx, l); err != nil {
				return err
			}
		}
	}

	s.protocol.Replace(ctx, s.editing, s.featureType)
	s.protocol.Select(ctx, s.editing, "")
	return nil
}

// ConfirmDeleteFeature deletes the working sub-feature.
func (s *Store) ConfirmDeleteFeature(ctx context.Context) error {
	if err := s.requireEditing("delete feature"); err != nil {
		return err
	}
	id := s.arena.workingID()
	if id == "" {
		s.desync(ctx, "annotations.ConfirmDeleteFeature", "no feature selected")
		return nil
	}
	return s.DeleteSubFeature(ctx, id)
}

// ChangeRadius sets the radius of the working circle, optionally moving its
// center to components[0]. The radius is in meters unless crs is
// geographic; an empty crs uses the configured one.
func (s *Store) ChangeRadius(ctx context.Context, radius float64, components []geojson.Position, crs string) error {
	if err := s.requireEditing("change radius"); err != nil {
		return err
	}
	w := s.arena.working
	if w == nil || w.Kind() != geojson.Circle {
		s.desync(ctx, "annotations.ChangeRadius", "no circle selected")
		return nil
	}
	center := w.Properties.Center
	if len(components) > 0 {
		center = components[0]
	}
	if crs == "" {
		crs = s.cfg.CRS
	}
	f := geometry.UpdateCircle(*w, center, radius, crs)
	s.arena.update(f)
	s.place(f)
	s.reportInvalid(ctx, "annotations.ChangeRadius", f)

	s.protocol.EditGeometry(ctx, s.editing, geojson.Circle)
	return nil
}

// ChangeText sets the value of the working text, optionally moving it to
// components[0].
func (s *Store) ChangeText(ctx context.Context, value string, components []geojson.Position) error {
	if err := s.requireEditing("change text"); err != nil {
		return err
	}
	w := s.arena.working
	if w == nil || w.Kind() != geojson.Text {
		s.desync(ctx, "annotations.ChangeText", "no text selected")
		return nil
	}
	var at geojson.Position
	if w.Geometry != nil {
		at = w.Geometry.Position
	}
	if len(components) > 0 {
		at = components[0]
	}
	f := geometry.UpdateText(*w, value, at)
	s.arena.update(f)
	s.place(f)
	s.reportInvalid(ctx, "annotations.ChangeText", f)

	s.protocol.EditGeometry(ctx, s.editing, geojson.Text)
	return nil
}

// CoordinateChange is a coordinate edit made in the feature editor. Radius
// and Text apply to circles and texts only; nil keeps the current value.
type CoordinateChange struct {
	Components []geojson.Position `json:"components"`
	Radius     *float64           `json:"radius,omitempty"`
	Text       *string            `json:"text,omitempty"`
	CRS        string             `json:"crs,omitempty"`
}

// ChangeSelectedCoordinates replaces the coordinates of the working
// sub-feature and recomputes its validity. Invalid scalar shapes are hidden
// from the edited features until they become valid again.
func (s *Store) ChangeSelectedCoordinates(ctx context.Context, change CoordinateChange) error {
	if err := s.requireEditing("change coordinates"); err != nil {
		return err
	}
	w := s.arena.working
	if w == nil {
		s.desync(ctx, "annotations.ChangeSelectedCoordinates", "no feature selected")
		return nil
	}
	crs := change.CRS
	if crs == "" {
		crs = s.cfg.CRS
	}

	var first geojson.Position
	if len(change.Components) > 0 {
		first = change.Components[0]
	}
	kind := w.Kind()
	var f geojson.Feature
	switch kind {
	case geojson.Circle:
		radius := w.Properties.Radius
		if change.Radius != nil {
			radius = *change.Radius
		}
		f = geometry.UpdateCircle(*w, first, radius, crs)
	case geojson.Text:
		value := w.Properties.ValueText
		if change.Text != nil {
			value = *change.Text
		}
		f = geometry.UpdateText(*w, value, first)
	default:
		f = geometry.UpdateCoordinates(*w, change.Components, crs)
	}
	s.arena.update(f)

	entry := f.Clone()
	entry.Geometry = geometry.Sanitize(entry.Geometry)
	if f.Properties.IsValidFeature || kind.Incremental() {
		s.place(entry)
	} else {
		s.unplace(f.ID())
	}
	s.reportInvalid(ctx, "annotations.ChangeSelectedCoordinates", f)

	s.protocol.EditGeometry(ctx, s.editing, kind)
	return nil
}

// CanRemoveComponent reports whether the working sub-feature keeps enough
// components for its type after removing one.
func (s *Store) CanRemoveComponent() bool {
	w := s.arena.working
	if w == nil {
		return false
	}
	return validation.CanRemoveComponent(w.Kind(), validation.Components(*w))
}

func (s *Store) reportInvalid(ctx context.Context, source string, f geojson.Feature) {
	if f.Properties.IsValidFeature {
		return
	}
	data := map[string]any{
		"id":   f.ID(),
		"type": string(f.Kind()),
	}
	if f.Kind() == geojson.Circle {
		data["radius"] = f.Properties.Radius
	}
	s.emit(ctx, EventInvalid, observability.LevelVerbose, source, data)
}
