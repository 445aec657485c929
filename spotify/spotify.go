package spotify

import (
	"context"
	"errors"

	"github.com/mager/geetyatra/config"
	spot "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
)

var ErrNotConfigured = errors.New("spotify credentials not configured")

type SpotifyClient struct {
	Client *spot.Client
	ID     string
	Secret string
}

// NewSpotifyClient wraps an already authenticated client.
func NewSpotifyClient(c *spot.Client) *SpotifyClient {
	return &SpotifyClient{Client: c}
}

// ProvideSpotify builds a client-credentials Spotify client. Without
// credentials the client is left unset and artwork lookups skip Spotify.
func ProvideSpotify(cfg config.Config, log *zap.SugaredLogger) *SpotifyClient {
	c := SpotifyClient{
		ID:     cfg.SpotifyID,
		Secret: cfg.SpotifySecret,
	}

	if c.ID == "" || c.Secret == "" {
		log.Warn("spotify credentials not set, artwork lookups will skip spotify")
		return &c
	}

	log.Info("setting up spotify client")

	creds := &clientcredentials.Config{
		ClientID:     c.ID,
		ClientSecret: c.Secret,
		TokenURL:     spotifyauth.TokenURL,
	}
	c.Client = spot.New(creds.Client(context.Background()))

	return &c
}

// Configured reports whether the client can make requests.
func (c *SpotifyClient) Configured() bool {
	return c.Client != nil
}

func (*SpotifyClient) Name() string {
	return "spotify"
}

// ArtworkURL searches for the best matching track and returns its primary
// album image. An empty string means no match.
func (c *SpotifyClient) ArtworkURL(ctx context.Context, title, artist string) (string, error) {
	if c.Client == nil {
		return "", ErrNotConfigured
	}

	results, err := c.Client.Search(ctx, title+" "+artist, spot.SearchTypeTrack, spot.Limit(1))
	if err != nil {
		return "", err
	}

	if results.Tracks == nil || len(results.Tracks.Tracks) == 0 {
		return "", nil
	}

	return GetFirstImage(results.Tracks.Tracks[0].Album), nil
}

var Options = ProvideSpotify
