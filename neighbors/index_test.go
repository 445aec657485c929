package neighbors

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestQueryOrder(t *testing.T) {
	ix, err := NewIndex([][]float64{{0, 0}, {3, 4}, {1, 0}, {0, 2}}, "")
	if err != nil {
		t.Fatal(err)
	}

	got, err := ix.Query([]float64{0, 0}, 7)
	if err != nil {
		t.Fatal(err)
	}

	want := []Neighbor{{0, 0}, {2, 1}, {3, 2}, {1, 5}}
	if len(got) != len(want) {
		t.Fatalf("wrong result count: got %d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Position != want[i].Position || math.Abs(got[i].Distance-want[i].Distance) > 1e-12 {
			t.Errorf("result %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestQueryLimitAndTies(t *testing.T) {
	ix, err := NewIndex([][]float64{{1}, {-1}, {0}, {2}}, Euclidean)
	if err != nil {
		t.Fatal(err)
	}

	got, err := ix.Query([]float64{0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	if got[0].Position != 2 || got[1].Position != 0 || got[2].Position != 1 {
		t.Errorf("wrong order: %+v", got)
	}
}

func TestQueryDimensionMismatch(t *testing.T) {
	ix, _ := NewIndex([][]float64{{1, 2}}, Euclidean)

	if _, err := ix.Query([]float64{1, 2, 3}, 1); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestMetrics(t *testing.T) {
	points := [][]float64{{1, 0}, {0, 1}, {2, 2}}

	tests := []struct {
		metric string
		query  []float64
		first  int
		dist   float64
	}{
		{Euclidean, []float64{2, 1}, 2, 1},
		{Manhattan, []float64{1, 1}, 0, 1},
		{Cosine, []float64{5, 5}, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.metric, func(t *testing.T) {
			ix, err := NewIndex(points, tt.metric)
			if err != nil {
				t.Fatal(err)
			}
			got, err := ix.Query(tt.query, 1)
			if err != nil {
				t.Fatal(err)
			}
			if got[0].Position != tt.first || math.Abs(got[0].Distance-tt.dist) > 1e-9 {
				t.Errorf("got %+v want position %d distance %v", got[0], tt.first, tt.dist)
			}
		})
	}
}

func TestNewIndexErrors(t *testing.T) {
	if _, err := NewIndex(nil, Euclidean); err == nil {
		t.Error("expected an error for no points")
	}
	if _, err := NewIndex([][]float64{{1}, {1, 2}}, Euclidean); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := NewIndex([][]float64{{1}}, "hamming"); err == nil {
		t.Error("expected an error for an unknown metric")
	}
	if _, err := NewIndex([][]float64{{1}, {math.NaN()}}, Euclidean); !errors.Is(err, ErrNonFinite) {
		t.Errorf("expected ErrNonFinite, got %v", err)
	}
}

func TestQueryNonFinite(t *testing.T) {
	ix, err := NewIndex([][]float64{{0, 0}, {1, 1}}, Euclidean)
	if err != nil {
		t.Fatal(err)
	}

	for _, v := range [][]float64{{math.NaN(), 0}, {0, math.Inf(-1)}} {
		if _, err := ix.Query(v, 1); !errors.Is(err, ErrNonFinite) {
			t.Errorf("%v: expected ErrNonFinite, got %v", v, err)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "knn_cluster_0.json")
	body := `{"n_neighbors": 7, "metric": "minkowski", "p": 2, "fit_X": [[0, 0], [3, 4]]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	ix, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if ix.Len() != 2 || ix.Metric() != Euclidean {
		t.Errorf("wrong index: len %d metric %s", ix.Len(), ix.Metric())
	}

	_, err = Load(filepath.Join(dir, "knn_cluster_9.json"))
	if !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`{"metric": "minkowski", "p": 3, "fit_X": [[1]]}`), 0o644)
	if _, err := Load(bad); err == nil {
		t.Error("expected an error for p=3")
	}
}
