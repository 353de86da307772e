// Package points loads coordinate pairs from files and databases.
package points

import (
	"context"
	"encoding/json"
	"fmt"
	"haversine-udf/internal/domain"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// JSONSource reads a document of the form
// {"pairs": [{"x0": .., "y0": .., "x1": .., "y1": ..}, ...]}.
type JSONSource struct {
	path string
}

func NewJSONSource(path string) *JSONSource {
	return &JSONSource{path: path}
}

func (s *JSONSource) Name() string { return "json:" + s.path }

func (s *JSONSource) Fingerprint(ctx context.Context) (string, error) {
	return fileFingerprint(s.path)
}

func (s *JSONSource) LoadColumns(ctx context.Context) (domain.CoordinateColumns, error) {
	pairs, err := s.LoadPairs(ctx)
	if err != nil {
		return domain.CoordinateColumns{}, err
	}
	return domain.ColumnsFromPairs(pairs), nil
}

type rawPair struct {
	X0 *float64 `json:"x0"`
	Y0 *float64 `json:"y0"`
	X1 *float64 `json:"x1"`
	Y1 *float64 `json:"y1"`
}

type rawDocument struct {
	Pairs []rawPair `json:"pairs"`
}

// LoadPairs decodes every pair. A missing or null coordinate is an error.
func (s *JSONSource) LoadPairs(ctx context.Context) ([]domain.PointPair, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("load json points: %w", err)
	}
	defer f.Close()

	return decodePairs(f)
}

func decodePairs(r io.Reader) ([]domain.PointPair, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var doc rawDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("load json points: decode: %w", err)
	}

	pairs := make([]domain.PointPair, len(doc.Pairs))
	for i, p := range doc.Pairs {
		fields := []struct {
			name string
			v    *float64
			dst  *float64
		}{
			{"x0", p.X0, &pairs[i].X0},
			{"y0", p.Y0, &pairs[i].Y0},
			{"x1", p.X1, &pairs[i].X1},
			{"y1", p.Y1, &pairs[i].Y1},
		}
		for _, f := range fields {
			if f.v == nil {
				return nil, fmt.Errorf("load json points: %w", &domain.NullValueError{Column: f.name, Index: i})
			}
			*f.dst = *f.v
		}
	}
	return pairs, nil
}

// Hash file contents so the fingerprint changes whenever the data does.
func fileFingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", path, err)
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", path, err)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
