// Package neighbors serves the per-cluster nearest-neighbor indexes built
// offline over scaled feature vectors.
package neighbors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"sort"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrIndexNotFound     = errors.New("neighbor index not found")
	ErrDimensionMismatch = errors.New("query dimension mismatch")
	ErrNonFinite         = errors.New("non-finite coordinate")
)

// Supported distance metrics.
const (
	Euclidean = "euclidean"
	Manhattan = "manhattan"
	Cosine    = "cosine"
)

// Neighbor is one query result. Position is relative to the cluster subset
// the index was built over.
type Neighbor struct {
	Position int
	Distance float64
}

// Index is a brute-force k-NN structure over one cluster's points.
type Index struct {
	metric   string
	points   [][]float64
	dim      int
	distance func(a, b []float64) float64
}

// file is the JSON export of a fitted sklearn NearestNeighbors model.
type file struct {
	NNeighbors int         `json:"n_neighbors"`
	Metric     string      `json:"metric"`
	P          float64     `json:"p"`
	FitX       [][]float64 `json:"fit_X"`
}

// NewIndex builds an index over points. An empty metric means euclidean.
func NewIndex(points [][]float64, metric string) (*Index, error) {
	if len(points) == 0 {
		return nil, errors.New("index has no points")
	}

	dim := len(points[0])
	for i, p := range points {
		if len(p) != dim {
			return nil, fmt.Errorf("%w: point %d has %d features, want %d", ErrDimensionMismatch, i, len(p), dim)
		}
		if !finite(p) {
			return nil, fmt.Errorf("%w: point %d", ErrNonFinite, i)
		}
	}

	if metric == "" {
		metric = Euclidean
	}

	ix := &Index{
		metric: metric,
		points: points,
		dim:    dim,
	}

	switch metric {
	case Euclidean:
		ix.distance = func(a, b []float64) float64 { return floats.Distance(a, b, 2) }
	case Manhattan:
		ix.distance = func(a, b []float64) float64 { return floats.Distance(a, b, 1) }
	case Cosine:
		ix.distance = cosineDistance
	default:
		return nil, fmt.Errorf("unsupported metric %q", metric)
	}

	return ix, nil
}

// Load reads an index export from disk.
func Load(path string) (*Index, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, path)
		}
		return nil, err
	}

	var f file
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}

	metric := f.Metric
	if metric == "minkowski" {
		switch f.P {
		case 0, 2:
			metric = Euclidean
		case 1:
			metric = Manhattan
		default:
			return nil, fmt.Errorf("unsupported minkowski p=%v", f.P)
		}
	}

	return NewIndex(f.FitX, metric)
}

// Len is the number of indexed points.
func (ix *Index) Len() int {
	return len(ix.points)
}

// Metric is the distance metric the index uses.
func (ix *Index) Metric() string {
	return ix.metric
}

// Query returns the k nearest points to v in ascending distance order, ties
// broken by position. A point equal to v comes back at distance 0.
func (ix *Index) Query(v []float64, k int) ([]Neighbor, error) {
	if len(v) != ix.dim {
		return nil, fmt.Errorf("%w: got %d features, want %d", ErrDimensionMismatch, len(v), ix.dim)
	}
	if !finite(v) {
		return nil, fmt.Errorf("%w: query vector", ErrNonFinite)
	}

	all := make([]Neighbor, len(ix.points))
	for i, p := range ix.points {
		all[i] = Neighbor{Position: i, Distance: ix.distance(v, p)}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Distance != all[j].Distance {
			return all[i].Distance < all[j].Distance
		}
		return all[i].Position < all[j].Position
	})

	if k >= 0 && k < len(all) {
		all = all[:k]
	}
	return all, nil
}

func cosineDistance(a, b []float64) float64 {
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 1
	}
	d := 1 - floats.Dot(a, b)/(na*nb)
	return math.Max(d, 0)
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
