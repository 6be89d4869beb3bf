package layer

const (
	DefaultID   = "annotations"
	DefaultName = "Annotations"
)

// Config holds layer storage parameters.
type Config struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Path string `json:"path,omitempty"` // BoltDB file; empty keeps layers in memory.
}

// DefaultConfig returns the default layer configuration (in memory).
func DefaultConfig() Config {
	return Config{ID: DefaultID, Name: DefaultName}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.ID != "" {
		c.ID = source.ID
	}
	if source.Name != "" {
		c.Name = source.Name
	}
	if source.Path != "" {
		c.Path = source.Path
	}
}

// NewRegistry creates a Registry from configuration.
func NewRegistry(cfg *Config) (Registry, error) {
	if cfg.Path == "" {
		return NewMemoryRegistry(), nil
	}
	return OpenBolt(cfg.Path)
}
