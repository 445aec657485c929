// Package dataset holds the read-only song table the recommender works from.
package dataset

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/mager/geetyatra/config"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
)

// Features is the fixed, ordered set of audio features used by the scaler and
// the neighbor indexes.
var Features = []string{
	"danceability",
	"energy",
	"valence",
	"tempo",
	"acousticness",
	"instrumentalness",
	"speechiness",
	"liveness",
}

// NumFeatures is the dimensionality of a feature vector.
const NumFeatures = 8

var (
	ErrEmpty     = errors.New("dataset has no rows")
	ErrNonFinite = errors.New("feature value is not finite")
)

// Song is one row of the dataset.
type Song struct {
	Track    string
	Artist   string
	Language string
	Features [NumFeatures]float64
	Cluster  int
}

// Vector returns the song's features as a slice.
func (s Song) Vector() []float64 {
	v := make([]float64, NumFeatures)
	copy(v, s.Features[:])
	return v
}

// Store is an immutable in-memory song table.
type Store struct {
	songs   []Song
	titles  []string
	byTitle map[string]int
}

// New builds a Store from rows in dataset order.
func New(songs []Song) *Store {
	s := &Store{
		songs:   songs,
		byTitle: make(map[string]int, len(songs)),
	}

	for i, song := range songs {
		// First row wins for duplicate titles.
		if _, ok := s.byTitle[song.Track]; !ok {
			s.byTitle[song.Track] = i
		}
	}

	s.titles = maps.Keys(s.byTitle)
	sort.Strings(s.titles)

	return s
}

// Len returns the number of rows.
func (s *Store) Len() int {
	return len(s.songs)
}

// Titles returns the distinct song titles, sorted.
func (s *Store) Titles() []string {
	out := make([]string, len(s.titles))
	copy(out, s.titles)
	return out
}

// Lookup returns the first row whose title matches exactly.
func (s *Store) Lookup(title string) (Song, bool) {
	i, ok := s.byTitle[title]
	if !ok {
		return Song{}, false
	}
	return s.songs[i], true
}

// Cluster returns the rows assigned to the given cluster in dataset order.
// Position i in the result is position i in that cluster's neighbor index.
func (s *Store) Cluster(id int) []Song {
	var out []Song
	for _, song := range s.songs {
		if song.Cluster == id {
			out = append(out, song)
		}
	}
	return out
}

// Search returns distinct titles containing query (case-insensitive), sorted
// and capped at limit. An empty query matches every title. A limit <= 0
// means no cap.
func (s *Store) Search(query string, limit int) []string {
	q := strings.ToLower(query)

	out := []string{}
	for _, title := range s.titles {
		if limit > 0 && len(out) == limit {
			break
		}
		if q == "" || strings.Contains(strings.ToLower(title), q) {
			out = append(out, title)
		}
	}
	return out
}

// Load reads a CSV dataset from disk.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	store, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return store, nil
}

// Read parses a CSV dataset. The header must contain track, artist, language,
// cluster and every name in Features; other columns are ignored.
func Read(r io.Reader) (*Store, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, err
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}

	required := append([]string{"track", "artist", "language", "cluster"}, Features...)
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var songs []Song
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		song := Song{
			Track:    record[cols["track"]],
			Artist:   record[cols["artist"]],
			Language: record[cols["language"]],
		}

		for i, name := range Features {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[cols[name]]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, name, err)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("line %d: %s: %w", line, name, ErrNonFinite)
			}
			song.Features[i] = v
		}

		song.Cluster, err = parseCluster(record[cols["cluster"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		songs = append(songs, song)
	}

	if len(songs) == 0 {
		return nil, ErrEmpty
	}

	return New(songs), nil
}

// parseCluster accepts "3" as well as "3.0", which is how pandas writes an
// integer column that once held NaN.
func parseCluster(raw string) (int, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("cluster: %w", err)
	}
	if v < 0 || v != math.Trunc(v) {
		return 0, fmt.Errorf("cluster: invalid label %q", raw)
	}
	return int(v), nil
}

func selectQuery(table string) string {
	return fmt.Sprintf(
		"SELECT track, artist, language, %s, cluster FROM %s ORDER BY position",
		strings.Join(Features, ", "),
		pq.QuoteIdentifier(table),
	)
}

// LoadDB reads the dataset from a Postgres table. Rows are ordered by the
// position column so cluster subsets line up with the offline indexes.
func LoadDB(ctx context.Context, db *sql.DB, table string) (*Store, error) {
	rows, err := db.QueryContext(ctx, selectQuery(table))
	if err != nil {
		return nil, fmt.Errorf("query dataset: %w", err)
	}
	defer rows.Close()

	var songs []Song
	for rows.Next() {
		var song Song
		dest := []any{&song.Track, &song.Artist, &song.Language}
		for i := range song.Features {
			dest = append(dest, &song.Features[i])
		}
		dest = append(dest, &song.Cluster)

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan dataset row: %w", err)
		}
		if song.Cluster < 0 {
			return nil, fmt.Errorf("song %q: invalid cluster %d", song.Track, song.Cluster)
		}
		for i, v := range song.Features {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("song %q: %s: %w", song.Track, Features[i], ErrNonFinite)
			}
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(songs) == 0 {
		return nil, ErrEmpty
	}

	return New(songs), nil
}

// ProvideStore loads the dataset once at startup, from Postgres when a
// database is configured and from CSV otherwise.
func ProvideStore(cfg config.Config, db *sql.DB, log *zap.SugaredLogger) (*Store, error) {
	var (
		store  *Store
		err    error
		source string
	)

	if db != nil {
		source = "postgres:" + cfg.DatasetTable
		store, err = LoadDB(context.Background(), db, cfg.DatasetTable)
	} else {
		source = cfg.DatasetPath
		store, err = Load(cfg.DatasetPath)
	}
	if err != nil {
		log.Errorw("failed to load dataset", "source", source, "error", err)
		return nil, err
	}

	log.Infow("dataset loaded", "source", source, "songs", store.Len(), "titles", len(store.titles))
	return store, nil
}

var Options = ProvideStore
