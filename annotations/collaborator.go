package annotations

import (
	"context"
	"log/slog"

	"github.com/tailored-agentic-units/annotations/drawsync"
	"github.com/tailored-agentic-units/annotations/geojson"
	"github.com/tailored-agentic-units/annotations/geometry"
	"github.com/tailored-agentic-units/annotations/observability"
	"github.com/tailored-agentic-units/annotations/style"
)

// ReceiveDraftUpdate applies a transient change from the drawing surface.
// Only the working sub-feature, or the one the surface marks editable when
// none is active, is updated. Circle drafts re-drive the surface once the
// user pauses.
func (s *Store) ReceiveDraftUpdate(ctx context.Context, ev drawsync.FeatureDraftUpdate) error {
	if !s.protocol.Accepts(ev.Owner) {
		return nil
	}
	if !s.editingActive() {
		s.desync(ctx, "annotations.ReceiveDraftUpdate", "no edit session")
		return nil
	}

	circle := false
	for _, in := range ev.Features {
		target, ok := s.draftTarget(in)
		if !ok {
			s.desync(ctx, "annotations.ReceiveDraftUpdate", "feature not editable", slog.String("id", in.ID()))
			continue
		}
		f := s.applyDrawn(target, in, in.Geometry, false)
		f.Properties.CanEdit = true
		if s.arena.active() {
			s.arena.update(f)
		} else {
			s.arena.begin(f, false)
		}
		s.place(f)
		s.lockExcept(f.ID())
		if f.Kind() == geojson.Circle {
			circle = true
		}
	}

	if circle {
		bg := context.WithoutCancel(ctx)
		s.debounce.Trigger(func() {
			if s.editingActive() {
				s.protocol.EditGeometry(bg, s.editing, geojson.Circle)
			}
		})
	}
	return nil
}

// draftTarget resolves which stored feature a draft refers to.
func (s *Store) draftTarget(in geojson.Feature) (geojson.Feature, bool) {
	if w := s.arena.working; w != nil {
		if in.ID() == w.ID() || geojson.IndexOf(s.editing.Features, in.ID()) < 0 {
			return *w, true
		}
		return geojson.Feature{}, false
	}
	if !in.Properties.CanEdit {
		return geojson.Feature{}, false
	}
	if f, i := s.editing.Find(in.ID()); i >= 0 {
		return editable(*f), true
	}
	return geojson.Feature{}, false
}

// ReceiveFinalized applies the end of a drawing interaction. Drawn parts are
// merged into one geometry that becomes the value of the working
// sub-feature. A new circle is checkpointed so a later reset returns to its
// first definition. With multi-geometry disabled the add interaction stops.
func (s *Store) ReceiveFinalized(ctx context.Context, ev drawsync.GeometryFinalized) error {
	if !s.protocol.Accepts(ev.Owner) {
		return nil
	}
	if !s.editingActive() {
		s.desync(ctx, "annotations.ReceiveFinalized", "no edit session")
		return nil
	}

	parts := finalizedParts(ev.Features)
	if len(parts) == 0 {
		s.desync(ctx, "annotations.ReceiveFinalized", "no features")
		return nil
	}
	merged, err := geometry.Merge(parts)
	if err != nil {
		s.desync(ctx, "annotations.ReceiveFinalized", err.Error())
		return nil
	}
	in := geojson.FeaturesOf(parts)[0]

	target, fresh := s.finalizedTarget(in)
	f := s.applyDrawn(target, in, merged, ev.TextChanged)
	f.Properties.CanEdit = true
	if s.arena.active() {
		s.arena.update(f)
	} else {
		s.arena.begin(f, fresh)
	}
	if f.Kind() == geojson.Circle && s.arena.fresh {
		s.arena.checkpoint(display(f))
	}
	s.place(f)
	s.lockExcept(f.ID())

	s.emit(ctx, EventFinalized, observability.LevelVerbose, "annotations.ReceiveFinalized", map[string]any{
		"id":    f.ID(),
		"type":  string(f.Kind()),
		"valid": f.Properties.IsValidFeature,
	})

	if !s.cfg.Draw.MultiGeometry() && s.drawing {
		s.drawing = false
		s.protocol.Stop(ctx, s.featureType)
	}
	return nil
}

// finalizedParts returns the drawn parts: the editable features of a
// transformed collection, or the objects as sent.
func finalizedParts(objs geojson.Objects) []geojson.Object {
	if len(objs) == 0 {
		return nil
	}
	fc, ok := objs[0].(*geojson.FeatureCollection)
	if !ok {
		return objs
	}
	fs := fc.Editable()
	if len(fs) == 0 {
		fs = fc.Features
	}
	out := make([]geojson.Object, len(fs))
	for i, f := range fs {
		out[i] = f
	}
	return out
}

// finalizedTarget resolves the feature a finalized drawing replaces: the
// working sub-feature, the feature with the incoming id, or a new one.
func (s *Store) finalizedTarget(in geojson.Feature) (geojson.Feature, bool) {
	if w := s.arena.working; w != nil {
		return *w, s.arena.fresh
	}
	if f, i := s.editing.Find(in.ID()); i >= 0 {
		return editable(*f), false
	}
	f := geojson.NewFeature(s.newID(), nil)
	f.Properties.IsCircle = in.Properties.IsCircle
	f.Properties.IsText = in.Properties.IsText
	f.Style = geojson.CloneStyles(in.Style)
	if len(f.Style) == 0 {
		f.Style = style.ForNewFeature(in.Kind(), s.cfg.Style.PointKind, s.defaults)
	}
	return f, true
}

// applyDrawn sets the drawn geometry g on target, keeping its id, and
// recomputes derived state for circles and texts.
func (s *Store) applyDrawn(target, in geojson.Feature, g *geojson.Geometry, textChanged bool) geojson.Feature {
	out := target.Clone()
	if len(in.Style) > 0 && len(out.Style) == 0 {
		out.Style = geojson.CloneStyles(in.Style)
	}

	switch {
	case out.Kind() == geojson.Circle || in.Properties.IsCircle:
		center := in.Properties.Center
		if !center.Valid() {
			center = out.Properties.Center
		}
		radius := in.Properties.Radius
		if !(radius > 0) {
			radius = out.Properties.Radius
		}
		return geometry.UpdateCircle(out, center, radius, s.cfg.CRS)
	case out.Kind() == geojson.Text || in.Properties.IsText:
		value := out.Properties.ValueText
		if textChanged || in.Properties.ValueText != "" {
			value = in.Properties.ValueText
		}
		var at geojson.Position
		if g != nil {
			at = g.Position
		}
		return geometry.UpdateText(out, value, at)
	}

	if g != nil {
		out.Geometry = g.Clone()
	}
	return geometry.Revalidate(out)
}

// ReceiveSelection makes the first selected feature the working sub-feature.
// The previous working feature is committed and a new snapshot is taken.
func (s *Store) ReceiveSelection(ctx context.Context, ev drawsync.FeatureListSelected) error {
	if !s.protocol.Accepts(ev.Owner) {
		return nil
	}
	if !s.editingActive() || len(ev.Features) == 0 {
		s.desync(ctx, "annotations.ReceiveSelection", "nothing to select")
		return nil
	}
	id := ev.Features[0].ID()
	if geojson.IndexOf(s.editing.Features, id) < 0 {
		s.desync(ctx, "annotations.ReceiveSelection", "feature not found", slog.String("id", id))
		return nil
	}

	if s.arena.active() && s.arena.workingID() != id {
		s.commitWorking()
	}
	s.arena.snapshot(s.editing.Features)

	f, _ := s.editing.Find(id)
	w := editable(*f)
	w.Properties.CanEdit = true
	s.arena.begin(w, false)
	s.lockExcept(id)
	s.featureType = w.Kind()

	s.protocol.Clean(ctx, s.featureType)
	s.protocol.EditGeometry(ctx, s.editing, s.featureType)
	return nil
}
