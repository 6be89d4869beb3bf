package annotations

import "github.com/tailored-agentic-units/annotations/geojson"

// Arena holds the two editing slots: the committed snapshot the session can
// revert to, and the working copy of the single sub-feature being edited.
// Values in both slots are owned by the arena; callers get copies.
type Arena struct {
	committed []geojson.Feature
	working   *geojson.Feature
	fresh     bool
}

// Committed returns a copy of the committed snapshot.
func (a *Arena) Committed() []geojson.Feature {
	return geojson.CloneFeatures(a.committed)
}

// Working returns a copy of the working feature, or nil.
func (a *Arena) Working() *geojson.Feature {
	if a.working == nil {
		return nil
	}
	f := a.working.Clone()
	return &f
}

// Fresh reports whether the working feature has no committed value.
func (a *Arena) Fresh() bool {
	return a.working != nil && a.fresh
}

func (a *Arena) active() bool {
	return a.working != nil
}

func (a *Arena) workingID() string {
	if a.working == nil {
		return ""
	}
	return a.working.ID()
}

// snapshot replaces the committed slot with fs. Stored values are never
// editable.
func (a *Arena) snapshot(fs []geojson.Feature) {
	a.committed = lockedCopy(fs)
}

// begin makes f the working feature. fresh marks a feature that was never
// committed.
func (a *Arena) begin(f geojson.Feature, fresh bool) {
	c := f.Clone()
	a.working = &c
	a.fresh = fresh
}

func (a *Arena) update(f geojson.Feature) {
	c := f.Clone()
	a.working = &c
}

// checkpoint writes the working value into the committed slot so later
// rollbacks return to it.
func (a *Arena) checkpoint(stored geojson.Feature) {
	c := stored.Clone()
	c.Properties.CanEdit = false
	if i := geojson.IndexOf(a.committed, c.ID()); i >= 0 {
		a.committed[i] = c
	} else {
		a.committed = append(a.committed, c)
	}
	a.fresh = false
}

// commit stores fs as the new snapshot and closes the working slot.
func (a *Arena) commit(fs []geojson.Feature) {
	a.snapshot(fs)
	a.discard()
}

// rollback closes the working slot and returns the committed snapshot.
func (a *Arena) rollback() []geojson.Feature {
	a.discard()
	out := geojson.CloneFeatures(a.committed)
	if out == nil {
		out = []geojson.Feature{}
	}
	return out
}

// forget removes id from the committed slot.
func (a *Arena) forget(id string) {
	if i := geojson.IndexOf(a.committed, id); i >= 0 {
		a.committed = append(a.committed[:i], a.committed[i+1:]...)
	}
	if a.workingID() == id {
		a.discard()
	}
}

func (a *Arena) discard() {
	a.working = nil
	a.fresh = false
}

func (a *Arena) clear() {
	*a = Arena{}
}

func lockedCopy(fs []geojson.Feature) []geojson.Feature {
	out := make([]geojson.Feature, len(fs))
	for i, f := range fs {
		out[i] = f.Clone()
		out[i].Properties.CanEdit = false
	}
	return out
}
