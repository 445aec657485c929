// Package artwork looks up album art for recommended songs. Lookups are best
// effort: every failure is logged and reported as "no image".
package artwork

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mager/geetyatra/config"
	"github.com/mager/geetyatra/metrics"
	"github.com/mager/geetyatra/musicbrainz"
	"github.com/mager/geetyatra/spotify"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const defaultTimeout = 5 * time.Second

// errCallerGone marks a lookup abandoned because the request context ended.
// The breaker counts it as neither a source failure nor a timeout.
var errCallerGone = errors.New("caller context done")

// Source is an external catalog that can map a song to an image URL. An
// empty URL with a nil error means the catalog has no match.
type Source interface {
	Name() string
	Configured() bool
	ArtworkURL(ctx context.Context, title, artist string) (string, error)
}

type guardedSource struct {
	src Source
	cb  *gobreaker.CircuitBreaker[string]
}

// Finder tries each source in order until one returns an image.
type Finder struct {
	log     *zap.SugaredLogger
	timeout time.Duration
	sources []guardedSource
}

// NewFinder builds a Finder over the configured sources. Unconfigured
// sources are skipped.
func NewFinder(log *zap.SugaredLogger, timeout time.Duration, sources ...Source) *Finder {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	f := &Finder{
		log:     log,
		timeout: timeout,
	}

	for _, src := range sources {
		if !src.Configured() {
			log.Infow("artwork source not configured, skipping", "source", src.Name())
			continue
		}
		f.sources = append(f.sources, guardedSource{
			src: src,
			cb:  newBreaker(log, src.Name()),
		})
	}

	return f
}

// newBreaker opens after 5 consecutive failures or a 60% failure rate over
// at least 10 requests, and probes again after 30 seconds.
func newBreaker(log *zap.SugaredLogger, name string) *gobreaker.CircuitBreaker[string] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 5 {
				return true
			}
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCallerGone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnw("artwork circuit breaker state change", "source", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
}

// Find returns the first image URL any source knows for the song, or nil.
// It never fails.
func (f *Finder) Find(ctx context.Context, title, artist string) *string {
	for _, g := range f.sources {
		if ctx.Err() != nil {
			return nil
		}
		name := g.src.Name()

		url, err := f.lookup(ctx, g, title, artist)
		switch {
		case errors.Is(err, errCallerGone):
			f.log.Debugw("artwork lookup abandoned", "source", name, "track", title)
			return nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			metrics.ArtworkLookups.WithLabelValues(name, "rejected").Inc()
			f.log.Debugw("artwork source unavailable", "source", name, "track", title, "error", err)
		case err != nil:
			metrics.ArtworkLookups.WithLabelValues(name, "error").Inc()
			f.log.Debugw("artwork lookup failed", "source", name, "track", title, "artist", artist, "error", err)
		case url == "":
			metrics.ArtworkLookups.WithLabelValues(name, "miss").Inc()
		default:
			metrics.ArtworkLookups.WithLabelValues(name, "hit").Inc()
			return &url
		}
	}
	return nil
}

type lookupResult struct {
	url string
	err error
}

// lookup runs one source call under the breaker and the timeout. The call
// runs in its own goroutine so clients that ignore ctx cannot stall the
// request.
func (f *Finder) lookup(parent context.Context, g guardedSource, title, artist string) (string, error) {
	ctx, cancel := context.WithTimeout(parent, f.timeout)
	defer cancel()

	return g.cb.Execute(func() (string, error) {
		ch := make(chan lookupResult, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					ch <- lookupResult{err: fmt.Errorf("artwork source %s panicked: %v", g.src.Name(), r)}
				}
			}()
			url, err := g.src.ArtworkURL(ctx, title, artist)
			ch <- lookupResult{url: url, err: err}
		}()

		select {
		case <-ctx.Done():
			if parent.Err() != nil {
				return "", errCallerGone
			}
			return "", ctx.Err()
		case res := <-ch:
			return res.url, res.err
		}
	})
}

// Sources lists the names of the active sources in lookup order.
func (f *Finder) Sources() []string {
	names := make([]string, len(f.sources))
	for i, g := range f.sources {
		names[i] = g.src.Name()
	}
	return names
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// ProvideFinder wires Spotify as the primary source and MusicBrainz as the
// fallback.
func ProvideFinder(
	cfg config.Config,
	log *zap.SugaredLogger,
	spotifyClient *spotify.SpotifyClient,
	musicbrainzClient *musicbrainz.MusicbrainzClient,
) *Finder {
	f := NewFinder(log, cfg.ArtworkTimeout, spotifyClient, musicbrainzClient)
	log.Infow("artwork finder ready", "sources", f.Sources(), "timeout", f.timeout)
	return f
}

var Options = ProvideFinder
