package delivery

import (
	"context"
	"log"
	"net/http"

	"jobmatch-backend/pkg/recommend"

	"github.com/gin-gonic/gin"
)

type jobRecommender interface {
	ShowJobs(ctx context.Context, userID string) ([]recommend.Job, error)
}

type RecommendationHandler struct {
	recommender jobRecommender
}

func NewRecommendationHandler(recommender jobRecommender) *RecommendationHandler {
	return &RecommendationHandler{recommender: recommender}
}

// List proxies the external matching service. There is no retry; the
// client shows the error and the user reloads.
// GET /api/recommendations
func (h *RecommendationHandler) List(c *gin.Context) {
	jobs, err := h.recommender.ShowJobs(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		log.Printf("[Recommend] %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch job recommendations"})
		return
	}
	if jobs == nil {
		jobs = []recommend.Job{}
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "total": len(jobs)})
}
