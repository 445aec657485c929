package spotify

import (
	spot "github.com/zmb3/spotify/v2"
)

// GetFirstImage returns the album's primary (largest) image URL
func GetFirstImage(a spot.SimpleAlbum) string {
	if len(a.Images) == 0 {
		return ""
	}

	return a.Images[0].URL
}
