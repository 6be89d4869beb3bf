package annotations

import (
	"context"
	"errors"

	"github.com/tailored-agentic-units/annotations/export"
	"github.com/tailored-agentic-units/annotations/geojson"
	"github.com/tailored-agentic-units/annotations/geometry"
	"github.com/tailored-agentic-units/annotations/layer"
	"github.com/tailored-agentic-units/annotations/observability"
	"github.com/tailored-agentic-units/annotations/style"
)

// DefaultTitle names imported annotations that carry no title.
const DefaultTitle = "Default title"

// LoadAnnotations imports annotations into the layer. Imported
// collections get missing ids, a default title, and default feature
// styles. With override the layer content is replaced; otherwise it is
// extended and later duplicates of an id win.
func (s *Store) LoadAnnotations(ctx context.Context, fcs []*geojson.FeatureCollection, override bool) error {
	normalized := make([]*geojson.FeatureCollection, 0, len(fcs))
	for _, fc := range fcs {
		if fc == nil {
			continue
		}
		normalized = append(normalized, s.normalize(fc))
	}

	l, err := s.loadLayer(ctx)
	if err != nil {
		return err
	}
	if l == nil {
		l = s.newLayer()
	}
	if override {
		l.Features = layer.Dedupe(normalized)
	} else {
		l.Features = layer.Dedupe(append(l.Features, normalized...))
	}
	return s.storeLayer(ctx, l)
}

// ImportDocument decodes an exported annotations document and loads it.
func (s *Store) ImportDocument(ctx context.Context, data []byte, override bool) error {
	fcs, err := export.Decode(data)
	if err != nil {
		return err
	}
	return s.LoadAnnotations(ctx, fcs, override)
}

func (s *Store) normalize(in *geojson.FeatureCollection) *geojson.FeatureCollection {
	fc := in.Clone()
	fc.Type = geojson.TypeFeatureCollection
	if fc.Properties.ID == "" {
		fc.Properties.ID = s.newID()
	}
	if fc.Properties.Title == "" {
		fc.Properties.Title = DefaultTitle
	}
	if fc.Features == nil {
		fc.Features = []geojson.Feature{}
	}
	for i := range fc.Features {
		f := &fc.Features[i]
		f.Type = geojson.TypeFeature
		if f.Properties.ID == "" {
			f.Properties.ID = s.newID()
		}
		if len(f.Style) == 0 {
			f.Style = style.ForNewFeature(f.Kind(), s.cfg.Style.PointKind, s.defaults)
		}
		f.Properties.CanEdit = false
		*f = geometry.Revalidate(editable(*f))
		*f = geometry.Commitable(*f)
	}
	return fc
}

// Download exports the stored annotation with id, or every annotation when
// id is empty. Failures are reported as notifications and leave the store
// unchanged.
func (s *Store) Download(ctx context.Context, id string) error {
	l, err := s.loadLayer(ctx)
	if err != nil {
		s.notifyFailure(ctx, err)
		return nil
	}
	var fcs []*geojson.FeatureCollection
	if l != nil {
		if id == "" {
			fcs = l.Features
		} else if fc := l.Annotation(id); fc != nil {
			fcs = []*geojson.FeatureCollection{fc}
		}
	}
	if len(fcs) == 0 {
		s.notifyFailure(ctx, ErrAnnotationNotFound)
		return nil
	}

	data, err := export.Encode(style.CleanHighlight(fcs))
	if err != nil {
		s.notifyFailure(ctx, err)
		return nil
	}
	if s.exports == nil {
		s.notifyFailure(ctx, errors.New("no export destination configured"))
		return nil
	}
	name := export.FileName(s.cfg.MapName)
	if err := s.exports.Save(ctx, name, data); err != nil {
		s.notifyFailure(ctx, err)
		return nil
	}
	s.emit(ctx, EventExport, observability.LevelInfo, "annotations.Download", map[string]any{
		"file":        name,
		"annotations": len(fcs),
	})
	return nil
}

func (s *Store) notifyFailure(ctx context.Context, err error) {
	s.emit(ctx, EventCommandFailed, observability.LevelError, "annotations.Download", map[string]any{
		"error": err.Error(),
	})
	s.notifier.Notify(ctx, Notification{
		Title:       "annotations.title",
		Message:     "annotations.downloadError",
		Level:       "error",
		AutoDismiss: 5,
		Position:    "tc",
	})
}
