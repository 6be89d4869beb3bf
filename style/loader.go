package style

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/tailored-agentic-units/annotations/geojson"
	"github.com/tailored-agentic-units/annotations/observability"
)

// Loader event types.
const (
	EventLoadStart    observability.EventType = "style.load.start"
	EventLoadFailed   observability.EventType = "style.load.failed"
	EventLoadComplete observability.EventType = "style.load.complete"
)

// PlaceholderAsset replaces a symbol whose asset could not be fetched.
const PlaceholderAsset = DefaultPath + "symbolMissing.svg"

// ErrFetchFailed wraps asset fetch errors.
var ErrFetchFailed = errors.New("symbol fetch failed")

// AssetURL resolves the asset path of a symbol shape. Size and colors are
// applied later when the symbol is customized.
func AssetURL(shape string, size int, fillColor, strokeColor, basePath string) string {
	return basePath + shape + ".svg"
}

// Fetcher retrieves a symbol asset.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches assets with an http.Client. Relative URLs are resolved
// against BaseURL.
type HTTPFetcher struct {
	Client  *http.Client
	BaseURL string
}

func (f HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: status %d", ErrFetchFailed, url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return data, nil
}

// Request parameterizes a default style load.
type Request struct {
	Shapes      []string
	Size        int
	FillColor   string
	StrokeColor string
	SymbolsPath string
}

// Result is the outcome of a load. Errors names every shape that fell back
// to the placeholder asset.
type Result struct {
	Defaults Defaults
	Symbols  map[string]geojson.Style
	Errors   []string
}

// Loader resolves default point styles. Symbol shapes load in parallel and
// independently; a failed shape gets PlaceholderAsset and is reported in
// Result.Errors without affecting the others.
type Loader struct {
	fetcher  Fetcher
	observer observability.Observer
}

// NewLoader creates a Loader. Load start and completion are reported to
// observer as EventLoadStart and EventLoadComplete.
func NewLoader(fetcher Fetcher, observer observability.Observer) *Loader {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	return &Loader{fetcher: fetcher, observer: observer}
}

type shapeResult struct {
	index int
	shape string
	style geojson.Style
	err   error
}

// Load fetches every requested shape and returns the resolved defaults. The
// first shape becomes the default symbol style.
func (l *Loader) Load(ctx context.Context, req Request) Result {
	if len(req.Shapes) == 0 {
		req.Shapes = []string{DefaultShape}
	}
	if req.SymbolsPath == "" {
		req.SymbolsPath = DefaultPath
	}
	if req.Size <= 0 {
		req.Size = Symbol.Size
	}

	l.observer.OnEvent(ctx, observability.Event{
		Type:      EventLoadStart,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "style.Loader",
		Data:      map[string]any{"shapes": len(req.Shapes)},
	})

	results := make([]shapeResult, len(req.Shapes))
	var wg sync.WaitGroup
	for i, shape := range req.Shapes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = l.loadShape(ctx, i, shape, req)
		}()
	}
	wg.Wait()

	out := Result{
		Defaults: Defaults{Marker: Marker.Clone()},
		Symbols:  make(map[string]geojson.Style, len(results)),
	}
	for _, r := range results {
		out.Symbols[r.shape] = r.style
		if r.index == 0 {
			out.Defaults.Symbol = r.style
		}
		if r.err != nil {
			out.Errors = append(out.Errors, "loading_symbol"+r.shape)
			l.observer.OnEvent(ctx, observability.Event{
				Type:      EventLoadFailed,
				Level:     observability.LevelWarning,
				Timestamp: time.Now(),
				Source:    "style.Loader",
				Data:      map[string]any{"shape": r.shape, "error": r.err.Error()},
			})
		}
	}

	l.observer.OnEvent(ctx, observability.Event{
		Type:      EventLoadComplete,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "style.Loader",
		Data:      map[string]any{"shapes": len(req.Shapes), "errors": len(out.Errors)},
	})
	return out
}

func (l *Loader) loadShape(ctx context.Context, index int, shape string, req Request) shapeResult {
	s := Symbol.Clone()
	s.Shape = shape
	s.Size = req.Size
	s.FillColor = req.FillColor
	s.Color = req.StrokeColor
	s.SymbolURL = AssetURL(shape, req.Size, req.FillColor, req.StrokeColor, req.SymbolsPath)

	data, err := l.fetcher.Fetch(ctx, s.SymbolURL)
	if err != nil {
		s.SymbolURLCustomized = PlaceholderAsset
		return shapeResult{index: index, shape: shape, style: s, err: err}
	}
	s.SymbolURLCustomized = "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(data)
	return shapeResult{index: index, shape: shape, style: s}
}
