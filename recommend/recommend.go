// Package recommend answers "which songs sound like this one" from the
// clustered dataset and the per-cluster neighbor indexes.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mager/geetyatra/artwork"
	"github.com/mager/geetyatra/dataset"
	"github.com/mager/geetyatra/geetyatra"
	"github.com/mager/geetyatra/metrics"
	"github.com/mager/geetyatra/neighbors"
	"github.com/mager/geetyatra/scaler"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// NumRecommendations is how many similar songs a lookup returns at most.
const NumRecommendations = 6

var (
	ErrSongNotFound    = errors.New("song not found")
	ErrIndexMisaligned = errors.New("cluster index does not match dataset")
)

// LookupError is returned for every failed recommendation lookup.
type LookupError struct {
	Song    string
	Cluster int // -1 when the song was not found
	Err     error
}

func (e *LookupError) Error() string {
	if e.Cluster < 0 {
		return fmt.Sprintf("recommend %q: %v", e.Song, e.Err)
	}
	return fmt.Sprintf("recommend %q (cluster %d): %v", e.Song, e.Cluster, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// ArtworkFinder enriches a song with an image URL. It must not fail.
type ArtworkFinder interface {
	Find(ctx context.Context, title, artist string) *string
}

// IndexSource returns the neighbor index for a cluster.
type IndexSource interface {
	Get(ctx context.Context, cluster int) (*neighbors.Index, error)
}

type Service struct {
	log     *zap.SugaredLogger
	songs   *dataset.Store
	scaler  *scaler.Scaler
	indexes IndexSource
	artwork ArtworkFinder
}

func NewService(
	log *zap.SugaredLogger,
	songs *dataset.Store,
	sc *scaler.Scaler,
	indexes IndexSource,
	finder ArtworkFinder,
) *Service {
	return &Service{
		log:     log,
		songs:   songs,
		scaler:  sc,
		indexes: indexes,
		artwork: finder,
	}
}

// Recommend returns up to NumRecommendations songs from the same cluster as
// title, nearest first. The query song itself is never included.
func (s *Service) Recommend(ctx context.Context, title string) (recs []geetyatra.Recommendation, err error) {
	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
		metrics.RecommendationRequests.WithLabelValues(outcome(err)).Inc()
	}()

	song, ok := s.songs.Lookup(title)
	if !ok {
		return nil, &LookupError{Song: title, Cluster: -1, Err: ErrSongNotFound}
	}

	fail := func(err error) error {
		return &LookupError{Song: title, Cluster: song.Cluster, Err: err}
	}

	ix, err := s.indexes.Get(ctx, song.Cluster)
	if err != nil {
		return nil, fail(err)
	}

	members := s.songs.Cluster(song.Cluster)
	if len(members) != ix.Len() {
		return nil, fail(fmt.Errorf("%w: %d songs, %d indexed points", ErrIndexMisaligned, len(members), ix.Len()))
	}

	rows := make([][]float64, len(members))
	self, twins := -1, 0
	for i, m := range members {
		rows[i] = m.Vector()
		if m.Track != title {
			continue
		}
		if self < 0 {
			self = i
		} else {
			twins++
		}
	}

	scaled, err := s.scaler.Transform(rows)
	if err != nil {
		return nil, fail(err)
	}

	// Ask for one extra neighbor for the song itself and one per duplicate
	// title, since those are dropped below.
	hits, err := ix.Query(mat.Row(nil, self, scaled), NumRecommendations+1+twins)
	if err != nil {
		return nil, fail(err)
	}

	recs = make([]geetyatra.Recommendation, 0, NumRecommendations)
	for _, h := range hits {
		m := members[h.Position]
		if h.Position == self || m.Track == title {
			continue
		}
		if len(recs) == NumRecommendations {
			break
		}
		recs = append(recs, geetyatra.Recommendation{
			Track:    m.Track,
			Artist:   m.Artist,
			Language: m.Language,
		})
	}

	s.enrich(ctx, recs)

	return recs, nil
}

// enrich fills in image URLs concurrently. Order is preserved.
func (s *Service) enrich(ctx context.Context, recs []geetyatra.Recommendation) {
	var wg sync.WaitGroup
	for i := range recs {
		wg.Add(1)
		go func(r *geetyatra.Recommendation) {
			defer wg.Done()
			r.ImageURL = s.artwork.Find(ctx, r.Track, r.Artist)
		}(&recs[i])
	}
	wg.Wait()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrSongNotFound):
		return "not_found"
	case errors.Is(err, neighbors.ErrIndexNotFound):
		return "index_missing"
	default:
		return "error"
	}
}

// ProvideService wires the service from the startup singletons.
func ProvideService(
	log *zap.SugaredLogger,
	songs *dataset.Store,
	sc *scaler.Scaler,
	indexes *neighbors.Cache,
	finder *artwork.Finder,
) *Service {
	return NewService(log, songs, sc, indexes, finder)
}

var Options = ProvideService
