package style

const (
	DefaultShape = "triangle"
	DefaultPath  = "product/assets/symbols/"
)

// Config holds default point style parameters.
type Config struct {
	SymbolsPath string    `json:"symbols_path,omitempty"`
	Shape       string    `json:"shape,omitempty"`
	Size        int       `json:"size,omitempty"`
	FillColor   string    `json:"fill_color,omitempty"`
	StrokeColor string    `json:"stroke_color,omitempty"`
	PointKind   PointKind `json:"point_kind,omitempty"`
}

// DefaultConfig returns the default style configuration.
func DefaultConfig() Config {
	return Config{
		SymbolsPath: DefaultPath,
		Shape:       DefaultShape,
		Size:        64,
		FillColor:   "#000000",
		StrokeColor: "#000000",
		PointKind:   PointMarker,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.SymbolsPath != "" {
		c.SymbolsPath = source.SymbolsPath
	}
	if source.Shape != "" {
		c.Shape = source.Shape
	}
	if source.Size > 0 {
		c.Size = source.Size
	}
	if source.FillColor != "" {
		c.FillColor = source.FillColor
	}
	if source.StrokeColor != "" {
		c.StrokeColor = source.StrokeColor
	}
	if source.PointKind != "" {
		c.PointKind = source.PointKind
	}
}

// Request builds a load request for the configured shape.
func (c *Config) Request() Request {
	return Request{
		Shapes:      []string{c.Shape},
		Size:        c.Size,
		FillColor:   c.FillColor,
		StrokeColor: c.StrokeColor,
		SymbolsPath: c.SymbolsPath,
	}
}
