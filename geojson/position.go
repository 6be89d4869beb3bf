package geojson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// Position is a [lon, lat] pair. Missing ordinates are stored as NaN and
// encoded as JSON null, so a half-typed coordinate survives a round trip.
type Position []float64

// Pos builds a Position from a longitude and latitude.
func Pos(lon, lat float64) Position {
	return Position{lon, lat}
}

// Missing returns a Position whose ordinates are both unset.
func Missing() Position {
	return Position{math.NaN(), math.NaN()}
}

// Lon returns the longitude or NaN.
func (p Position) Lon() float64 {
	if len(p) < 1 {
		return math.NaN()
	}
	return p[0]
}

// Lat returns the latitude or NaN.
func (p Position) Lat() float64 {
	if len(p) < 2 {
		return math.NaN()
	}
	return p[1]
}

// Valid reports whether p is a well-formed [lon, lat] pair.
func (p Position) Valid() bool {
	if len(p) < 2 {
		return false
	}
	for _, v := range p[:2] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Equal compares two positions ordinate by ordinate. NaN equals NaN.
func (p Position) Equal(o Position) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] == o[i] || (math.IsNaN(p[i]) && math.IsNaN(o[i])) {
			continue
		}
		return false
	}
	return true
}

// Clone returns an independent copy.
func (p Position) Clone() Position {
	return slices.Clone(p)
}

func (p Position) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf.WriteString("null")
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (p *Position) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = nil
		return nil
	}
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: position: %v", ErrInvalidCoordinates, err)
	}
	out := make(Position, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	*p = out
	return nil
}

// ValidPositions returns the well-formed positions of ps, preserving order.
func ValidPositions(ps []Position) []Position {
	out := make([]Position, 0, len(ps))
	for _, p := range ps {
		if p.Valid() {
			out = append(out, p.Clone())
		}
	}
	return out
}

func clonePath(ps []Position) []Position {
	if ps == nil {
		return nil
	}
	out := make([]Position, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}

func cloneRings(rs [][]Position) [][]Position {
	if rs == nil {
		return nil
	}
	out := make([][]Position, len(rs))
	for i, r := range rs {
		out[i] = clonePath(r)
	}
	return out
}
