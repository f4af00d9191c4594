package api

import (
	"context"
	"net/http"

	appUsecase "jobmatch-backend/internal/application/usecase"
	authUsecase "jobmatch-backend/internal/auth/usecase"
	"jobmatch-backend/pkg/config"
	"jobmatch-backend/pkg/recommend"
	"jobmatch-backend/pkg/sse"

	"github.com/gin-gonic/gin"
)

type jobRecommender interface {
	ShowJobs(ctx context.Context, userID string) ([]recommend.Job, error)
}

type Handler struct {
	authUsecase       authUsecase.AuthUsecase
	appUsecase        appUsecase.ApplicationUsecase
	inboxUsecase      appUsecase.InboxUsecase
	classifierUsecase appUsecase.ClassifierUsecase
	monitorUsecase    appUsecase.MonitorUsecase
	digestUsecase     appUsecase.JobDigestUsecase
	recommender       jobRecommender
	sseManager        *sse.Manager
	config            *config.Config
}

func NewHandler(
	authUc authUsecase.AuthUsecase,
	appUc appUsecase.ApplicationUsecase,
	inboxUc appUsecase.InboxUsecase,
	classifierUc appUsecase.ClassifierUsecase,
	monitorUc appUsecase.MonitorUsecase,
	digestUc appUsecase.JobDigestUsecase,
	recommender jobRecommender,
	sseManager *sse.Manager,
	cfg *config.Config,
) *Handler {
	return &Handler{
		authUsecase:       authUc,
		appUsecase:        appUc,
		inboxUsecase:      inboxUc,
		classifierUsecase: classifierUc,
		monitorUsecase:    monitorUc,
		digestUsecase:     digestUc,
		recommender:       recommender,
		sseManager:        sseManager,
		config:            cfg,
	}
}

// Router builds the gin engine with CORS and every route.
func (h *Handler) Router() *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Internal-Key")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	h.setupRoutes(r)
	return r
}
