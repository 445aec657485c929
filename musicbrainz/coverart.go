package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const CoverArtArchiveURL = "https://coverartarchive.org"

var ErrNoCoverArt = errors.New("release has no front cover")

// CoverArtClient talks to the Cover Art Archive JSON API.
type CoverArtClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewCoverArtClient(httpClient *http.Client, baseURL string) *CoverArtClient {
	return &CoverArtClient{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

type coverArtResponse struct {
	Images []struct {
		Front      bool              `json:"front"`
		Image      string            `json:"image"`
		Thumbnails map[string]string `json:"thumbnails"`
	} `json:"images"`
}

// FrontImage returns the 500px thumbnail of the release's front cover,
// falling back to the full-size image.
func (c *CoverArtClient) FrontImage(ctx context.Context, releaseID string) (string, error) {
	url := fmt.Sprintf("%s/release/%s", c.baseURL, releaseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNoCoverArt
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cover art archive: unexpected status %d", resp.StatusCode)
	}

	var caa coverArtResponse
	if err := json.NewDecoder(resp.Body).Decode(&caa); err != nil {
		return "", err
	}

	for _, img := range caa.Images {
		if !img.Front {
			continue
		}
		if url500, ok := img.Thumbnails["500"]; ok {
			return url500, nil
		}
		if img.Image != "" {
			return img.Image, nil
		}
	}

	return "", ErrNoCoverArt
}
