package drawsync

import "time"

const (
	DefaultOwnerName     = "annotations"
	DefaultProjection    = "EPSG:4326"
	DefaultDraftDebounce = 300 * time.Millisecond
)

// Config holds drawing surface parameters.
type Config struct {
	OwnerName         string `json:"owner,omitempty"`
	FeatureProjection string `json:"feature_projection,omitempty"`
	// MultiGeometryNil allows several shapes per annotation (default true).
	MultiGeometryNil *bool `json:"multi_geometry,omitempty"`
	Geodesic         bool  `json:"geodesic,omitempty"`
	DraftDebounceMS  int   `json:"draft_debounce_ms,omitempty"`
}

// DefaultConfig returns the default drawing configuration.
func DefaultConfig() Config {
	return Config{
		OwnerName:         DefaultOwnerName,
		FeatureProjection: DefaultProjection,
		DraftDebounceMS:   int(DefaultDraftDebounce / time.Millisecond),
	}
}

// MultiGeometry reports whether annotations may hold several shapes.
func (c *Config) MultiGeometry() bool {
	if c.MultiGeometryNil == nil {
		return true
	}
	return *c.MultiGeometryNil
}

// DraftDebounce returns the delay before reacting to circle drafts.
func (c *Config) DraftDebounce() time.Duration {
	if c.DraftDebounceMS <= 0 {
		return DefaultDraftDebounce
	}
	return time.Duration(c.DraftDebounceMS) * time.Millisecond
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.OwnerName != "" {
		c.OwnerName = source.OwnerName
	}
	if source.FeatureProjection != "" {
		c.FeatureProjection = source.FeatureProjection
	}
	if source.MultiGeometryNil != nil {
		v := *source.MultiGeometryNil
		c.MultiGeometryNil = &v
	}
	if source.Geodesic {
		c.Geodesic = true
	}
	if source.DraftDebounceMS > 0 {
		c.DraftDebounceMS = source.DraftDebounceMS
	}
}
