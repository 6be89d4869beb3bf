// Package annotations implements the annotation editing store: the state
// machine behind creating, editing, styling, and persisting annotations on
// a map.
//
// A Store owns the annotation being edited, its committed and working
// feature slots, the style session, and the default styles. It drives the
// map's drawing surface through a drawsync.Protocol and persists saved
// annotations into a layer.Registry. A Store is not safe for concurrent
// use; run it behind a Loop when events arrive from several goroutines.
//
//	s, err := annotations.New(&cfg, annotations.WithDrawer(surface))
//	err = s.StartNew(ctx)
//	err = s.StartSubFeature(ctx, geojson.Point)
package annotations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/annotations/drawsync"
	"github.com/tailored-agentic-units/annotations/export"
	"github.com/tailored-agentic-units/annotations/geojson"
	"github.com/tailored-agentic-units/annotations/geometry"
	"github.com/tailored-agentic-units/annotations/layer"
	"github.com/tailored-agentic-units/annotations/observability"
	"github.com/tailored-agentic-units/annotations/style"
)

// Lifecycle is the phase of the editing session.
type Lifecycle string

const (
	LifecycleEmpty           Lifecycle = "empty"
	LifecycleEditingNew      Lifecycle = "editing.new"
	LifecycleEditingExisting Lifecycle = "editing.existing"
	LifecycleCommitting      Lifecycle = "committing"
	LifecycleClosed          Lifecycle = "closed"
)

// Option configures a Store after config-driven initialization.
type Option func(*Store)

// WithDrawer sets the drawing surface receiving drive commands.
func WithDrawer(d drawsync.Drawer) Option {
	return func(s *Store) { s.drawer = d }
}

// WithLayerRegistry overrides the config-created layer registry.
func WithLayerRegistry(r layer.Registry) Option {
	return func(s *Store) { s.layers = r }
}

// WithViewers sets the row viewer lookup used when creating the layer.
func WithViewers(v layer.ViewerRegistry) Option {
	return func(s *Store) { s.viewers = v }
}

// WithExportSink sets where downloads are written.
func WithExportSink(sink export.Sink) Option {
	return func(s *Store) { s.exports = sink }
}

// WithNotifier sets the user notification channel.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithObserver overrides the config-selected observer.
func WithObserver(o observability.Observer) Option {
	return func(s *Store) { s.observer = o }
}

// WithFetcher sets the symbol asset fetcher.
func WithFetcher(f style.Fetcher) Option {
	return func(s *Store) { s.fetcher = f }
}

// WithScheduler overrides the timer used to debounce circle drafts.
func WithScheduler(sch drawsync.Scheduler) Option {
	return func(s *Store) { s.schedule = sch }
}

// WithIDGenerator overrides the id source for new annotations and features.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithOwner overrides the owner token stamped on drive commands.
func WithOwner(o drawsync.Owner) Option {
	return func(s *Store) { s.owner = o }
}

// Store is the annotation editing state machine.
type Store struct {
	cfg      Config
	owner    drawsync.Owner
	drawer   drawsync.Drawer
	protocol *drawsync.Protocol
	layers   layer.Registry
	viewers  layer.ViewerRegistry
	exports  export.Sink
	notifier Notifier
	observer observability.Observer
	fetcher  style.Fetcher
	loader   *style.Loader
	schedule drawsync.Scheduler
	debounce *drawsync.Debouncer
	newID    func() string
	post     func(func())

	lifecycle   Lifecycle
	editing     *geojson.FeatureCollection
	arena       Arena
	featureType geojson.GeometryType
	drawing     bool
	pending     map[string]any
	styles      style.Session
	defaults    style.Defaults
	symbols     map[string]geojson.Style
	symbolErrs  []string
	loading     bool
}

// New creates a Store from configuration. The layer registry and observer
// are created from their config sections; options applied afterwards can
// override any collaborator.
func New(cfg *Config, opts ...Option) (*Store, error) {
	c := DefaultConfig()
	c.Merge(cfg)

	s := &Store{
		cfg:       c,
		owner:     drawsync.NewOwner(c.Draw.OwnerName),
		viewers:   layer.StaticViewers{},
		newID:     func() string { return uuid.Must(uuid.NewV7()).String() },
		lifecycle: LifecycleEmpty,
		defaults:  style.StaticDefaults(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.observer == nil {
		obs, err := observability.ResolveObservers(c.Observer)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observer: %w", err)
		}
		s.observer = obs
	}
	if s.layers == nil {
		reg, err := layer.NewRegistry(&c.Layer)
		if err != nil {
			return nil, fmt.Errorf("failed to create layer registry: %w", err)
		}
		s.layers = reg
	}
	if s.exports == nil && c.ExportDir != "" {
		s.exports = export.NewFileSink(c.ExportDir)
	}
	if s.notifier == nil {
		s.notifier = observerNotifier{observer: s.observer}
	}
	if s.fetcher == nil {
		s.fetcher = style.HTTPFetcher{}
	}

	s.protocol = drawsync.NewProtocol(s.owner, c.Draw, s.drawer, s.observer)
	s.loader = style.NewLoader(s.fetcher, s.observer)
	schedule := s.schedule
	if schedule == nil {
		schedule = drawsync.TimerScheduler
	}
	s.debounce = drawsync.NewDebouncer(c.Draw.DraftDebounce(), func(d time.Duration, fn func()) func() {
		return schedule(d, func() { s.run(fn) })
	})
	return s, nil
}

// Config returns the effective configuration.
func (s *Store) Config() Config {
	return s.cfg
}

// Owner returns the owner token of the store's drive commands.
func (s *Store) Owner() drawsync.Owner {
	return s.owner
}

// Lifecycle returns the current session phase.
func (s *Store) Lifecycle() Lifecycle {
	return s.lifecycle
}

// Editing returns a copy of the annotation being edited, or nil.
func (s *Store) Editing() *geojson.FeatureCollection {
	return s.editing.Clone()
}

// Features returns a copy of the edited annotation's features.
func (s *Store) Features() []geojson.Feature {
	if s.editing == nil {
		return nil
	}
	return geojson.CloneFeatures(s.editing.Features)
}

// Selected returns a copy of the working sub-feature, or nil.
func (s *Store) Selected() *geojson.Feature {
	return s.arena.Working()
}

// Arena exposes the editing slots.
func (s *Store) Arena() *Arena {
	return &s.arena
}

// FeatureType returns the geometry kind being drawn or edited.
func (s *Store) FeatureType() geojson.GeometryType {
	return s.featureType
}

// Drawing reports whether an add-geometry interaction is active.
func (s *Store) Drawing() bool {
	return s.drawing
}

// StyleSessionActive reports whether a style session is open.
func (s *Store) StyleSessionActive() bool {
	return s.styles.Active()
}

// OriginalStyle returns the style snapshot of the open style session.
func (s *Store) OriginalStyle() []geojson.Style {
	return s.styles.Original()
}

// PendingFields returns the unsaved field edits.
func (s *Store) PendingFields() map[string]any {
	out := make(map[string]any, len(s.pending))
	for k, v := range s.pending {
		out[k] = v
	}
	return out
}

// Defaults returns the default point styles.
func (s *Store) Defaults() style.Defaults {
	return style.Defaults{Marker: s.defaults.Marker.Clone(), Symbol: s.defaults.Symbol.Clone()}
}

// Symbols returns the loaded symbol styles by shape.
func (s *Store) Symbols() map[string]geojson.Style {
	out := make(map[string]geojson.Style, len(s.symbols))
	for k, v := range s.symbols {
		out[k] = v.Clone()
	}
	return out
}

// SymbolErrors names the symbol shapes that fell back to the placeholder.
func (s *Store) SymbolErrors() []string {
	return append([]string(nil), s.symbolErrs...)
}

// Loading reports whether default styles are being loaded.
func (s *Store) Loading() bool {
	return s.loading
}

// Layer returns a copy of the annotations layer, or nil when it does not
// exist.
func (s *Store) Layer(ctx context.Context) (*layer.Layer, error) {
	return s.loadLayer(ctx)
}

// Close releases the layer registry when it holds resources.
func (s *Store) Close() error {
	s.debounce.Stop()
	if c, ok := s.layers.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// run executes fn on the store's event loop when one is attached, or
// inline otherwise.
func (s *Store) run(fn func()) {
	if s.post != nil {
		s.post(fn)
		return
	}
	fn()
}

func (s *Store) editingActive() bool {
	return s.editing != nil
}

// closeSession drops every editing slot.
func (s *Store) closeSession() {
	s.editing = nil
	s.arena.clear()
	s.featureType = ""
	s.drawing = false
	s.pending = nil
	s.styles.Reset()
	s.debounce.Stop()
	s.lifecycle = LifecycleClosed
}

// place writes the display form of f into the edited features, replacing
// the entry with the same id or appending.
func (s *Store) place(f geojson.Feature) {
	entry := display(f)
	if i := geojson.IndexOf(s.editing.Features, entry.ID()); i >= 0 {
		s.editing.Features[i] = entry
		return
	}
	s.editing.Features = append(s.editing.Features, entry)
}

func (s *Store) unplace(id string) {
	if i := geojson.IndexOf(s.editing.Features, id); i >= 0 {
		s.editing.Features = append(s.editing.Features[:i], s.editing.Features[i+1:]...)
	}
}

// lockExcept leaves at most one editable feature: the one with id.
func (s *Store) lockExcept(id string) {
	for i := range s.editing.Features {
		s.editing.Features[i].Properties.CanEdit = id != "" && s.editing.Features[i].ID() == id
	}
}

// display returns the form of f shown on the map: circles and texts are
// flattened and an invalid circle shows an empty polygon.
func display(f geojson.Feature) geojson.Feature {
	return geometry.Commitable(f)
}

// editable restores the internal Circle and Text tags of a stored feature.
func editable(f geojson.Feature) geojson.Feature {
	out := f.Clone()
	switch {
	case out.Properties.IsCircle:
		g := &geojson.Geometry{Type: geojson.Circle}
		if out.Properties.PolygonGeom != nil {
			g.Rings = out.Properties.PolygonGeom.Clone().Rings
		} else {
			g = geojson.Placeholder(geojson.Circle)
		}
		out.Geometry = g
	case out.Properties.IsText:
		g := &geojson.Geometry{Type: geojson.Text}
		if out.Geometry != nil {
			g.Position = out.Geometry.Position.Clone()
		}
		out.Geometry = g
	}
	return out
}

func (s *Store) emit(ctx context.Context, t observability.EventType, level observability.Level, source string, data map[string]any) {
	observability.Emit(ctx, s.observer, t, level, source, data)
}

// desync records an inbound reference to something the store does not hold.
// The triggering operation becomes a no-op.
func (s *Store) desync(ctx context.Context, source, reason string, attrs ...slog.Attr) {
	data := map[string]any{"reason": reason}
	for _, a := range attrs {
		data[a.Key] = a.Value.Any()
	}
	s.emit(ctx, EventDesync, observability.LevelWarning, source, data)
}

// loadLayer returns the annotations layer or nil when it does not exist.
func (s *Store) loadLayer(ctx context.Context) (*layer.Layer, error) {
	l, err := s.layers.Get(ctx, s.cfg.Layer.ID)
	if err != nil {
		if errors.Is(err, layer.ErrLayerNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load layer: %w", err)
	}
	return l, nil
}

func (s *Store) newLayer() *layer.Layer {
	return &layer.Layer{
		ID:                 s.cfg.Layer.ID,
		Name:               s.cfg.Layer.Name,
		Type:               layer.TypeVector,
		Visibility:         true,
		RowViewer:          s.viewers.RowViewer(s.cfg.Layer.ID),
		HideLoading:        true,
		HandleClickOnLayer: true,
		Features:           []*geojson.FeatureCollection{},
	}
}

// storeLayer persists l, or removes it when it holds no annotation.
func (s *Store) storeLayer(ctx context.Context, l *layer.Layer) error {
	if l.Empty() {
		if err := s.layers.Remove(ctx, l.ID); err != nil {
			return fmt.Errorf("failed to remove layer: %w", err)
		}
		s.emit(ctx, EventLayerRemove, observability.LevelInfo, "annotations.storeLayer", map[string]any{"layer": l.ID})
		return nil
	}
	l.RecomputeVisibility(s.editingActive())
	if err := s.layers.Put(ctx, l); err != nil {
		return fmt.Errorf("failed to store layer: %w", err)
	}
	s.emit(ctx, EventLayerUpdate, observability.LevelVerbose, "annotations.storeLayer", map[string]any{
		"layer":       l.ID,
		"annotations": len(l.Features),
		"visibility":  l.Visibility,
	})
	return nil
}
