package musicbrainz

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mager/geetyatra/config"
	"github.com/mager/musicbrainz-go/musicbrainz"
	"go.uber.org/zap"
)

var ErrDisabled = errors.New("musicbrainz lookups disabled")

// maxReleases bounds how many releases are checked for front cover art.
const maxReleases = 3

type MusicbrainzClient struct {
	Client   *musicbrainz.MusicbrainzClient
	CoverArt *CoverArtClient
}

func ProvideMusicbrainz(cfg config.Config, log *zap.SugaredLogger) *MusicbrainzClient {
	var c MusicbrainzClient
	if !cfg.MusicbrainzEnabled {
		log.Info("musicbrainz artwork fallback disabled")
		return &c
	}

	c.Client = musicbrainz.NewMusicbrainzClient().
		WithUserAgent("geetyatra", "1.0.0", "https://github.com/mager/geetyatra")
	c.CoverArt = NewCoverArtClient(&http.Client{Timeout: 10 * time.Second}, CoverArtArchiveURL)

	return &c
}

// Configured reports whether lookups are enabled.
func (c *MusicbrainzClient) Configured() bool {
	return c.Client != nil
}

func (*MusicbrainzClient) Name() string {
	return "musicbrainz"
}

// ArtworkURL finds the recording by artist and title, then returns the
// front cover of the first of its releases that has one.
func (c *MusicbrainzClient) ArtworkURL(ctx context.Context, title, artist string) (string, error) {
	if c.Client == nil {
		return "", ErrDisabled
	}

	recs, err := c.Client.SearchRecordingsByArtistAndTrack(musicbrainz.SearchRecordingsByArtistAndTrackRequest{
		Artist: artist,
		Track:  title,
	})
	if err != nil {
		return "", err
	}
	if recs.Count == 0 || len(recs.Recordings) == 0 {
		return "", nil
	}

	recording, err := c.Client.GetRecording(musicbrainz.GetRecordingRequest{
		ID:       recs.Recordings[0].ID,
		Includes: []musicbrainz.Include{"releases"},
	})
	if err != nil {
		return "", err
	}

	if recording.Recording.Releases == nil {
		return "", nil
	}

	checked := 0
	for _, release := range *recording.Recording.Releases {
		if release.ID == "" {
			continue
		}
		if checked == maxReleases {
			break
		}
		checked++

		url, err := c.CoverArt.FrontImage(ctx, release.ID)
		if err != nil {
			if errors.Is(err, ErrNoCoverArt) {
				continue
			}
			return "", err
		}
		return url, nil
	}

	return "", nil
}

var Options = ProvideMusicbrainz
