// Package style manages annotation styling: the single style-editing
// session with its restorable snapshot, highlight flags on stored
// annotations, default styles per geometry kind, and the parallel loading
// of default point symbols.
package style

import "github.com/tailored-agentic-units/annotations/geojson"

// Session tracks whether a style-editing session is open and the style
// list it may need to restore. Toggling never stacks sessions.
type Session struct {
	active   bool
	original []geojson.Style
}

// Active reports whether a session is open.
func (s *Session) Active() bool {
	return s.active
}

// Original returns the snapshot taken when the session opened.
func (s *Session) Original() []geojson.Style {
	return geojson.CloneStyles(s.original)
}

// Toggle flips the session flag. Opening a session snapshots current and
// closing it discards the snapshot. It returns the new flag.
func (s *Session) Toggle(current []geojson.Style) bool {
	s.active = !s.active
	s.original = nil
	if s.active {
		s.original = geojson.CloneStyles(current)
	}
	return s.active
}

// Restore closes the session and returns the snapshot verbatim. ok is false
// when no session is open.
func (s *Session) Restore() (styles []geojson.Style, ok bool) {
	styles, ok = s.original, s.active && s.original != nil
	s.active = false
	s.original = nil
	return styles, ok
}

// Confirm closes the session and discards the snapshot.
func (s *Session) Confirm() {
	s.active = false
	s.original = nil
}

// Reset discards all session state.
func (s *Session) Reset() {
	*s = Session{}
}

// Highlight returns copies of collections where every feature style of the
// collection with id has its highlight flag set.
func Highlight(collections []*geojson.FeatureCollection, id string) []*geojson.FeatureCollection {
	out := make([]*geojson.FeatureCollection, len(collections))
	for i, c := range collections {
		out[i] = c.Clone()
		if c.ID() == id {
			setHighlight(out[i], true)
		}
	}
	return out
}

// CleanHighlight returns copies of collections with every highlight flag
// cleared.
func CleanHighlight(collections []*geojson.FeatureCollection) []*geojson.FeatureCollection {
	out := make([]*geojson.FeatureCollection, len(collections))
	for i, c := range collections {
		out[i] = c.Clone()
		setHighlight(out[i], false)
	}
	return out
}

// Plain returns s with highlighting forced off, as sent to drawing surfaces.
func Plain(s geojson.Style) geojson.Style {
	return s.WithHighlight(false)
}

// UpdateAll merges patch into every feature style of c.
func UpdateAll(c *geojson.FeatureCollection, patch func(*geojson.Style)) *geojson.FeatureCollection {
	out := c.Clone()
	for i := range out.Features {
		for j := range out.Features[i].Style {
			patch(&out.Features[i].Style[j])
		}
	}
	return out
}

func setHighlight(c *geojson.FeatureCollection, on bool) {
	for i := range c.Features {
		for j := range c.Features[i].Style {
			c.Features[i].Style[j].Highlight = on
		}
	}
}
