package health

import (
	"net/http"

	"github.com/mager/geetyatra/dataset"
	"github.com/mager/geetyatra/handler"
	"github.com/mager/geetyatra/neighbors"
	"github.com/mager/geetyatra/spotify"
	"go.uber.org/zap"
)

// HealthHandler reports whether the service and its collaborators are ready.
type HealthHandler struct {
	log           *zap.SugaredLogger
	songs         *dataset.Store
	indexes       *neighbors.Cache
	spotifyClient *spotify.SpotifyClient
}

func (*HealthHandler) Pattern() string {
	return "/health"
}

func (*HealthHandler) Methods() []string {
	return []string{http.MethodGet}
}

// NewHealthHandler builds a new HealthHandler.
func NewHealthHandler(
	log *zap.SugaredLogger,
	songs *dataset.Store,
	indexes *neighbors.Cache,
	spotifyClient *spotify.SpotifyClient,
) *HealthHandler {
	return &HealthHandler{
		log:           log,
		songs:         songs,
		indexes:       indexes,
		spotifyClient: spotifyClient,
	}
}

type Response struct {
	Server  bool `json:"server"`
	Songs   int  `json:"songs"`
	Indexes int  `json:"indexes"`
	Spotify bool `json:"spotify"`
}

// Health check
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} Response
// @Router /health [get]
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var resp Response

	h.log.Debug("health check")

	resp.Server = true
	resp.Songs = h.songs.Len()
	resp.Indexes = h.indexes.Len()

	// Make sure Spotify client is set up properly
	resp.Spotify = h.spotifyClient.Configured()

	handler.WriteJSON(w, http.StatusOK, resp)
}
