// Package export writes annotation downloads. Documents use the
// "ms2-annotations" envelope so they can be loaded back as annotations.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailored-agentic-units/annotations/geojson"
)

// AnnotationType marks an exported annotations document.
const AnnotationType = "ms2-annotations"

// Sentinel errors for exports.
var (
	ErrEncodeFailed  = errors.New("encode failed")
	ErrSaveFailed    = errors.New("save failed")
	ErrNotAnnotation = errors.New("not an annotations document")
)

// Document is the exported envelope.
type Document struct {
	Type     string                       `json:"type"`
	Name     string                       `json:"name,omitempty"`
	Features []*geojson.FeatureCollection `json:"features"`
}

// Encode serializes annotations in the export envelope.
func Encode(annotations []*geojson.FeatureCollection) ([]byte, error) {
	data, err := json.Marshal(Document{Type: AnnotationType, Features: annotations})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	return data, nil
}

// Decode parses an exported document. A document is accepted when its type
// is AnnotationType or its name is "Annotations".
func Decode(data []byte) ([]*geojson.FeatureCollection, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnnotation, err)
	}
	if doc.Type != AnnotationType && doc.Name != "Annotations" {
		return nil, ErrNotAnnotation
	}
	return doc.Features, nil
}

// FileName returns the download name for a map: "<map>.json", or
// "Annotations.json" when the map has no name.
func FileName(mapName string) string {
	if strings.TrimSpace(mapName) == "" {
		return "Annotations.json"
	}
	return mapName + ".json"
}

// Sink receives exported documents.
type Sink interface {
	Save(ctx context.Context, name string, data []byte) error
}

type fileSink struct {
	root string
}

// NewFileSink creates a Sink writing files under root. Files are written to
// a temporary name and renamed into place.
func NewFileSink(root string) Sink {
	return &fileSink{root: root}
}

func (s *fileSink) Save(_ context.Context, name string, data []byte) error {
	path := filepath.Join(s.root, filepath.Base(name))
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, name, err)
	}

	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, name, err)
	}
	return nil
}
