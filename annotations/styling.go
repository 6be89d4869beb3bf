package annotations

import (
	"context"

	"github.com/tailored-agentic-units/annotations/geojson"
	"github.com/tailored-agentic-units/annotations/style"
)

// currentStyles returns the style list a style session edits: the working
// sub-feature's styles, or the annotation style when nothing is selected.
func (s *Store) currentStyles() []geojson.Style {
	if w := s.arena.working; w != nil {
		return w.Style
	}
	return []geojson.Style{s.editing.Style}
}

// ToggleStyleSession opens or closes the style session. While open the
// surface is read-only; closing returns it to geometry editing.
func (s *Store) ToggleStyleSession(ctx context.Context) error {
	if err := s.requireEditing("toggle style"); err != nil {
		return err
	}
	if s.styles.Toggle(s.currentStyles()) {
		s.protocol.ReadOnly(ctx, s.editing, s.featureType)
		return nil
	}
	s.redrive(ctx)
	return nil
}

// SetStyle replaces the styles of the working sub-feature, or the first
// entry as the annotation style when nothing is selected.
func (s *Store) SetStyle(ctx context.Context, styles []geojson.Style) error {
	if err := s.requireEditing("set style"); err != nil {
		return err
	}
	if len(styles) == 0 {
		return nil
	}
	s.applyStyles(ctx, styles)
	return nil
}

func (s *Store) applyStyles(ctx context.Context, styles []geojson.Style) {
	w := s.arena.working
	if w == nil {
		s.editing.Style = styles[0].Clone()
		s.protocol.Replace(ctx, s.editing, s.featureType)
		return
	}
	f := w.Clone()
	f.Style = geojson.CloneStyles(styles)
	s.arena.update(f)
	s.place(f)
	s.protocol.UpdateStyle(ctx, display(f), f.Kind(), styles[0])
}

// RestoreStyle closes the style session and puts back the styles captured
// when it opened.
func (s *Store) RestoreStyle(ctx context.Context) error {
	if err := s.requireEditing("restore style"); err != nil {
		return err
	}
	original, ok := s.styles.Restore()
	if ok && len(original) > 0 {
		s.applyStyles(ctx, original)
	}
	s.redrive(ctx)
	return nil
}

// ConfirmStyle closes the style session keeping the current styles.
func (s *Store) ConfirmStyle(ctx context.Context) error {
	if err := s.requireEditing("confirm style"); err != nil {
		return err
	}
	s.styles.Confirm()
	s.redrive(ctx)
	return nil
}

// redrive returns the surface to the mode matching the editing state.
func (s *Store) redrive(ctx context.Context) {
	if s.arena.active() {
		s.protocol.EditGeometry(ctx, s.editing, s.featureType)
		return
	}
	s.protocol.Select(ctx, s.editing, s.featureType)
}

// Highlight flags the stored annotation with id as highlighted.
func (s *Store) Highlight(ctx context.Context, id string) error {
	l, err := s.loadLayer(ctx)
	if err != nil || l == nil {
		return err
	}
	l.Features = style.Highlight(l.Features, id)
	return s.storeLayer(ctx, l)
}

// CleanHighlight clears every highlight flag of the stored annotations.
func (s *Store) CleanHighlight(ctx context.Context) error {
	l, err := s.loadLayer(ctx)
	if err != nil || l == nil {
		return err
	}
	l.Features = style.CleanHighlight(l.Features)
	return s.storeLayer(ctx, l)
}

// LoadDefaultStyles resolves the default point styles and waits for the
// result. Failed symbols fall back to the placeholder asset.
func (s *Store) LoadDefaultStyles(ctx context.Context, req style.Request) error {
	s.loading = true
	s.applyDefaults(s.loader.Load(ctx, req))
	return nil
}

// LoadDefaultStylesAsync starts resolving default point styles and returns
// at once. The result is applied on the store's event loop in the same task
// that clears Loading; without a loop it behaves like LoadDefaultStyles.
func (s *Store) LoadDefaultStylesAsync(ctx context.Context, req style.Request) {
	if s.post == nil {
		s.LoadDefaultStyles(ctx, req)
		return
	}
	bg := context.WithoutCancel(ctx)
	s.loading = true
	go func() {
		res := s.loader.Load(bg, req)
		s.post(func() { s.applyDefaults(res) })
	}()
}

// applyDefaults installs res and clears the loading flag.
func (s *Store) applyDefaults(res style.Result) {
	s.defaults = res.Defaults
	s.symbols = res.Symbols
	s.symbolErrs = res.Errors
	s.loading = false
}
