package layer_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tailored-agentic-units/annotations/geojson"
	"github.com/tailored-agentic-units/annotations/layer"
)

func annotation(id string, visible *bool) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection(id)
	fc.Features = []geojson.Feature{
		geojson.NewFeature(id+"-f", geojson.NewPoint(geojson.Pos(1, 2))),
	}
	if visible != nil {
		fc.Properties.SetVisible(*visible)
	}
	return fc
}

func flag(v bool) *bool { return &v }

func TestRecomputeVisibility(t *testing.T) {
	tests := []struct {
		name    string
		flags   []*bool
		editing bool
		want    bool
	}{
		{"editing forces visible", []*bool{flag(false)}, true, true},
		{"unset counts as visible", []*bool{nil}, false, true},
		{"any visible", []*bool{flag(false), flag(true)}, false, true},
		{"all hidden", []*bool{flag(false), flag(false)}, false, false},
		{"empty layer", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &layer.Layer{ID: "annotations"}
			for i, f := range tt.flags {
				l.Features = append(l.Features, annotation(string(rune('a'+i)), f))
			}
			l.RecomputeVisibility(tt.editing)
			if l.Visibility != tt.want {
				t.Errorf("Visibility = %v, want %v", l.Visibility, tt.want)
			}
		})
	}
}

func TestLayer_Annotations(t *testing.T) {
	l := &layer.Layer{Features: []*geojson.FeatureCollection{annotation("a", nil), annotation("b", nil)}}

	if l.Annotation("b") == nil || l.Annotation("z") != nil {
		t.Error("unexpected Annotation lookup")
	}
	if !l.RemoveAnnotation("a") || l.RemoveAnnotation("a") {
		t.Error("expected a removed exactly once")
	}
	l.RemoveAnnotation("b")
	if !l.Empty() {
		t.Error("expected empty layer")
	}
}

func TestLayer_Clone(t *testing.T) {
	l := &layer.Layer{ID: "annotations", Features: []*geojson.FeatureCollection{annotation("a", nil)}}
	c := l.Clone()
	c.Features[0].Features[0].Geometry.Position[0] = 9

	if l.Features[0].Features[0].Geometry.Position[0] != 1 {
		t.Error("clone shares features")
	}
}

func TestDedupe(t *testing.T) {
	first := annotation("a", nil)
	last := annotation("a", flag(false))
	out := layer.Dedupe([]*geojson.FeatureCollection{first, annotation("b", nil), last})

	if len(out) != 2 {
		t.Fatalf("got %d annotations, want 2", len(out))
	}
	if out[0] != last || out[1].ID() != "b" {
		t.Errorf("got [%s %s], want last a first", out[0].ID(), out[1].ID())
	}
}

func registries(t *testing.T) map[string]layer.Registry {
	t.Helper()
	bolt, err := layer.OpenBolt(filepath.Join(t.TempDir(), "layers.db"))
	if err != nil {
		t.Fatalf("OpenBolt failed: %v", err)
	}
	t.Cleanup(func() { bolt.Close() })

	return map[string]layer.Registry{
		"memory": layer.NewMemoryRegistry(),
		"bolt":   bolt,
	}
}

func TestRegistry(t *testing.T) {
	for name, reg := range registries(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := reg.Get(ctx, "annotations"); !errors.Is(err, layer.ErrLayerNotFound) {
				t.Fatalf("got %v, want ErrLayerNotFound", err)
			}

			l := &layer.Layer{
				ID:         "annotations",
				Name:       "Annotations",
				Type:       layer.TypeVector,
				Visibility: true,
				Features:   []*geojson.FeatureCollection{annotation("a", nil)},
			}
			if err := reg.Put(ctx, l); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			l.Name = "changed"

			got, err := reg.Get(ctx, "annotations")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got.Name != "Annotations" || got.Type != layer.TypeVector || !got.Visibility {
				t.Errorf("got %+v", got)
			}
			if got.Annotation("a") == nil {
				t.Fatal("expected annotation a stored")
			}
			if p := got.Annotation("a").Features[0].Geometry.Position; !p.Equal(geojson.Pos(1, 2)) {
				t.Errorf("position = %v, want [1 2]", p)
			}

			if err := reg.Remove(ctx, "annotations"); err != nil {
				t.Fatalf("Remove failed: %v", err)
			}
			if err := reg.Remove(ctx, "annotations"); err != nil {
				t.Errorf("Remove of missing layer failed: %v", err)
			}
			if _, err := reg.Get(ctx, "annotations"); !errors.Is(err, layer.ErrLayerNotFound) {
				t.Errorf("got %v, want ErrLayerNotFound after remove", err)
			}
		})
	}
}

func TestBolt_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layers.db")
	ctx := context.Background()

	reg, err := layer.OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt failed: %v", err)
	}
	if err := reg.Put(ctx, &layer.Layer{ID: "annotations", Type: layer.TypeVector}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	reg.Close()

	reg, err = layer.OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reg.Close()
	if _, err := reg.Get(ctx, "annotations"); err != nil {
		t.Errorf("Get after reopen failed: %v", err)
	}
}

func TestOpenBolt_EmptyPath(t *testing.T) {
	if _, err := layer.OpenBolt("  "); !errors.Is(err, layer.ErrStoreFailed) {
		t.Errorf("got %v, want ErrStoreFailed", err)
	}
}

func TestNewRegistry(t *testing.T) {
	cfg := layer.DefaultConfig()
	reg, err := layer.NewRegistry(&cfg)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	if _, ok := reg.(*layer.BoltRegistry); ok {
		t.Error("expected memory registry without a path")
	}

	cfg.Merge(&layer.Config{Path: filepath.Join(t.TempDir(), "layers.db")})
	reg, err = layer.NewRegistry(&cfg)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	bolt, ok := reg.(*layer.BoltRegistry)
	if !ok {
		t.Fatalf("got %T, want *layer.BoltRegistry", reg)
	}
	bolt.Close()

	if cfg.ID != layer.DefaultID || cfg.Name != layer.DefaultName {
		t.Errorf("merge changed defaults: %+v", cfg)
	}
}

func TestStaticViewers(t *testing.T) {
	v := layer.StaticViewers{"annotations": "annotations"}
	if v.RowViewer("annotations") != "annotations" || v.RowViewer("other") != "" {
		t.Error("unexpected row viewer lookup")
	}
}
