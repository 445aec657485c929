// Package scaler applies the standard-scaler transform fitted offline when
// the neighbor indexes were built.
package scaler

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mager/geetyatra/config"
	"github.com/mager/geetyatra/dataset"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrDimensionMismatch = errors.New("feature dimension mismatch")
	ErrNoRows            = errors.New("no rows to transform")
)

// Scaler maps x to (x - mean) / scale, per feature.
type Scaler struct {
	mean  []float64
	scale []float64
}

// file is the JSON export of a fitted sklearn StandardScaler.
type file struct {
	FeatureNames []string  `json:"feature_names_in"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
}

// New returns a Scaler for the given statistics. A zero scale is treated as
// one, matching how the offline scaler handles constant features.
func New(mean, scale []float64) (*Scaler, error) {
	if len(mean) == 0 || len(mean) != len(scale) {
		return nil, fmt.Errorf("%w: mean has %d values, scale has %d", ErrDimensionMismatch, len(mean), len(scale))
	}

	s := &Scaler{
		mean:  make([]float64, len(mean)),
		scale: make([]float64, len(scale)),
	}
	copy(s.mean, mean)
	for i, v := range scale {
		if v == 0 {
			v = 1
		}
		s.scale[i] = v
	}
	return s, nil
}

// Load reads a scaler export and checks it against dataset.Features.
func Load(path string) (*Scaler, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open scaler: %w", err)
	}

	var f file
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode scaler %s: %w", path, err)
	}

	if len(f.FeatureNames) > 0 {
		if len(f.FeatureNames) != len(dataset.Features) {
			return nil, fmt.Errorf("%w: scaler fitted on %d features, want %d", ErrDimensionMismatch, len(f.FeatureNames), len(dataset.Features))
		}
		for i, name := range f.FeatureNames {
			if name != dataset.Features[i] {
				return nil, fmt.Errorf("scaler feature %d is %q, want %q", i, name, dataset.Features[i])
			}
		}
	}

	s, err := New(f.Mean, f.Scale)
	if err != nil {
		return nil, err
	}
	if s.Dim() != dataset.NumFeatures {
		return nil, fmt.Errorf("%w: scaler has %d features, want %d", ErrDimensionMismatch, s.Dim(), dataset.NumFeatures)
	}
	return s, nil
}

// Dim is the number of features the scaler was fitted on.
func (s *Scaler) Dim() int {
	return len(s.mean)
}

// Transform scales every row. The result has the same shape as the input.
func (s *Scaler) Transform(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	d := s.Dim()
	data := make([]float64, 0, len(rows)*d)
	for i, row := range rows {
		if len(row) != d {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrDimensionMismatch, i, len(row), d)
		}
		data = append(data, row...)
	}

	m := mat.NewDense(len(rows), d, data)
	col := make([]float64, len(rows))
	for j := 0; j < d; j++ {
		mat.Col(col, j, m)
		floats.AddConst(-s.mean[j], col)
		floats.Scale(1/s.scale[j], col)
		m.SetCol(j, col)
	}
	return m, nil
}

// ProvideScaler loads the scaler once at startup.
func ProvideScaler(cfg config.Config, log *zap.SugaredLogger) (*Scaler, error) {
	s, err := Load(cfg.ScalerPath)
	if err != nil {
		log.Errorw("failed to load scaler", "path", cfg.ScalerPath, "error", err)
		return nil, err
	}
	log.Infow("scaler loaded", "path", cfg.ScalerPath, "features", s.Dim())
	return s, nil
}

var Options = ProvideScaler
