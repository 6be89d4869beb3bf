package annotations

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"

	"github.com/tailored-agentic-units/annotations/drawsync"
	"github.com/tailored-agentic-units/annotations/geometry"
	"github.com/tailored-agentic-units/annotations/layer"
	"github.com/tailored-agentic-units/annotations/style"
)

const defaultObserver = "slog"

// Config holds initialization parameters for the editing store and the
// subsystems it composes.
type Config struct {
	// CRS is the projection circle radii are expressed in.
	CRS       string          `json:"crs,omitempty"`
	MapName   string          `json:"map_name,omitempty"`
	Observer  string          `json:"observer,omitempty"`
	ExportDir string          `json:"export_dir,omitempty"`
	Draw      drawsync.Config `json:"draw"`
	Style     style.Config    `json:"style"`
	Layer     layer.Config    `json:"layer"`
}

// DefaultConfig returns a Config with defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		CRS:      geometry.CRSGeographic,
		Observer: defaultObserver,
		Draw:     drawsync.DefaultConfig(),
		Style:    style.DefaultConfig(),
		Layer:    layer.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	c.Draw.Merge(&source.Draw)
	c.Style.Merge(&source.Style)
	c.Layer.Merge(&source.Layer)

	if source.CRS != "" {
		c.CRS = source.CRS
	}
	if source.MapName != "" {
		c.MapName = source.MapName
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
	if source.ExportDir != "" {
		c.ExportDir = source.ExportDir
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}

type envConfig struct {
	CRS             string `env:"ANNOTATIONS_CRS"`
	MapName         string `env:"ANNOTATIONS_MAP_NAME"`
	Observer        string `env:"ANNOTATIONS_OBSERVER"`
	ExportDir       string `env:"ANNOTATIONS_EXPORT_DIR"`
	Owner           string `env:"ANNOTATIONS_OWNER"`
	Projection      string `env:"ANNOTATIONS_FEATURE_PROJECTION"`
	MultiGeometry   *bool  `env:"ANNOTATIONS_MULTI_GEOMETRY"`
	Geodesic        bool   `env:"ANNOTATIONS_GEODESIC"`
	DraftDebounceMS int    `env:"ANNOTATIONS_DRAFT_DEBOUNCE_MS"`
	SymbolsPath     string `env:"ANNOTATIONS_SYMBOLS_PATH"`
	Shape           string `env:"ANNOTATIONS_SYMBOL_SHAPE"`
	Size            int    `env:"ANNOTATIONS_SYMBOL_SIZE"`
	FillColor       string `env:"ANNOTATIONS_FILL_COLOR"`
	StrokeColor     string `env:"ANNOTATIONS_STROKE_COLOR"`
	PointKind       string `env:"ANNOTATIONS_POINT_KIND"`
	LayerID         string `env:"ANNOTATIONS_LAYER_ID"`
	LayerName       string `env:"ANNOTATIONS_LAYER_NAME"`
	LayerPath       string `env:"ANNOTATIONS_LAYER_PATH"`
}

// ApplyEnv merges ANNOTATIONS_* environment variables into c. Unset
// variables leave c unchanged.
func (c *Config) ApplyEnv() error {
	var e envConfig
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	c.Merge(&Config{
		CRS:       e.CRS,
		MapName:   e.MapName,
		Observer:  e.Observer,
		ExportDir: e.ExportDir,
		Draw: drawsync.Config{
			OwnerName:         e.Owner,
			FeatureProjection: e.Projection,
			MultiGeometryNil:  e.MultiGeometry,
			Geodesic:          e.Geodesic,
			DraftDebounceMS:   e.DraftDebounceMS,
		},
		Style: style.Config{
			SymbolsPath: e.SymbolsPath,
			Shape:       e.Shape,
			Size:        e.Size,
			FillColor:   e.FillColor,
			StrokeColor: e.StrokeColor,
			PointKind:   style.PointKind(e.PointKind),
		},
		Layer: layer.Config{
			ID:   e.LayerID,
			Name: e.LayerName,
			Path: e.LayerPath,
		},
	})
	return nil
}
