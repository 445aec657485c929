package geetyatra

// Recommendation is one similar song returned to the client.
type Recommendation struct {
	Track    string `json:"track"`
	Artist   string `json:"artist"`
	Language string `json:"language"`
	// ImageURL is the album art, or nil when no catalog had an image.
	ImageURL *string `json:"image_url"`
}
