package recommendation

import (
	"context"
	"net/http"

	"github.com/mager/geetyatra/geetyatra"
	"github.com/mager/geetyatra/handler"
	"github.com/mager/geetyatra/recommend"
	"go.uber.org/zap"
)

// Recommender is the part of recommend.Service the handler needs.
type Recommender interface {
	Recommend(ctx context.Context, title string) ([]geetyatra.Recommendation, error)
}

// RecommendationHandler is an http.Handler
type RecommendationHandler struct {
	log         *zap.SugaredLogger
	recommender Recommender
}

func (*RecommendationHandler) Pattern() string {
	return "/get_recommendations"
}

func (*RecommendationHandler) Methods() []string {
	return []string{http.MethodPost}
}

// NewRecommendationHandler builds a new RecommendationHandler.
func NewRecommendationHandler(log *zap.SugaredLogger, svc *recommend.Service) *RecommendationHandler {
	return &RecommendationHandler{
		log:         log,
		recommender: svc,
	}
}

type RecommendationRequest struct {
	Song string `json:"song"`
}

type RecommendationResponse struct {
	Recommendations []geetyatra.Recommendation `json:"recommendations"`
}

// Get similar songs
// @Summary Get similar songs
// @Description Returns up to 6 songs from the same cluster, nearest first. Unknown songs yield an empty list.
// @Tags Recommendations
// @Accept json
// @Produce json
// @Param request body RecommendationRequest true "Recommendation request"
// @Success 200 {object} RecommendationResponse
// @Failure 400 {object} handler.ErrorResponse
// @Router /get_recommendations [post]
func (h *RecommendationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req RecommendationRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Song == "" {
		handler.WriteError(w, http.StatusBadRequest, "No song selected")
		return
	}

	recs, err := h.recommender.Recommend(r.Context(), req.Song)
	if err != nil {
		// Lookup failures are reported as "no recommendations", not as errors.
		h.log.Warnw("error getting recommendations", "song", req.Song, "error", err)
	}
	if recs == nil {
		recs = []geetyatra.Recommendation{}
	}

	h.log.Infow("recommendations", "song", req.Song, "count", len(recs))

	handler.WriteJSON(w, http.StatusOK, RecommendationResponse{Recommendations: recs})
}
