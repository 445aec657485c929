package song

import (
	"net/http"

	"github.com/mager/geetyatra/dataset"
	"github.com/mager/geetyatra/handler"
	"go.uber.org/zap"
)

// MaxSearchResults caps the number of titles a search returns.
const MaxSearchResults = 20

// SearchHandler finds titles by substring.
type SearchHandler struct {
	log   *zap.SugaredLogger
	songs *dataset.Store
}

func (*SearchHandler) Pattern() string {
	return "/search_songs"
}

func (*SearchHandler) Methods() []string {
	return []string{http.MethodPost}
}

// NewSearchHandler builds a new SearchHandler.
func NewSearchHandler(log *zap.SugaredLogger, songs *dataset.Store) *SearchHandler {
	return &SearchHandler{
		log:   log,
		songs: songs,
	}
}

type SearchRequest struct {
	Query string `json:"query"`
}

type SearchResponse struct {
	Songs []string `json:"songs"`
}

// Search songs by title
// @Summary Search songs by title
// @Description Case-insensitive substring search over song titles. An empty query lists every title.
// @Tags Songs
// @Accept json
// @Produce json
// @Param request body SearchRequest true "Search request"
// @Success 200 {object} SearchResponse
// @Router /search_songs [post]
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp := SearchResponse{
		Songs: h.songs.Search(req.Query, MaxSearchResults),
	}

	h.log.Debugw("song search", "query", req.Query, "results", len(resp.Songs))

	handler.WriteJSON(w, http.StatusOK, resp)
}
