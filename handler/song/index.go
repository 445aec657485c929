package song

import (
	"net/http"

	"github.com/mager/geetyatra/dataset"
	"github.com/mager/geetyatra/web"
	"go.uber.org/zap"
)

// IndexHandler renders the song browser page.
type IndexHandler struct {
	log   *zap.SugaredLogger
	songs *dataset.Store
}

func (*IndexHandler) Pattern() string {
	return "/"
}

func (*IndexHandler) Methods() []string {
	return []string{http.MethodGet}
}

// NewIndexHandler builds a new IndexHandler.
func NewIndexHandler(log *zap.SugaredLogger, songs *dataset.Store) *IndexHandler {
	return &IndexHandler{
		log:   log,
		songs: songs,
	}
}

type indexPage struct {
	Songs []string
}

// ServeHTTP renders every distinct title, sorted.
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := web.IndexTemplate.Execute(w, indexPage{Songs: h.songs.Titles()}); err != nil {
		h.log.Errorw("failed to render index", "error", err)
	}
}
