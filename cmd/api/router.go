package api

import (
	"net/http"

	appDelivery "jobmatch-backend/internal/application/delivery"
	"jobmatch-backend/internal/auth/delivery"

	"github.com/gin-gonic/gin"
)

func (h *Handler) setupRoutes(r *gin.Engine) {
	authHandler := delivery.NewAuthHandler(h.authUsecase)
	appHandler := appDelivery.NewApplicationHandler(h.appUsecase, h.inboxUsecase)
	internalHandler := appDelivery.NewInternalHandler(h.classifierUsecase, h.monitorUsecase, h.digestUsecase)
	recommendationHandler := appDelivery.NewRecommendationHandler(h.recommender)
	requireAuth := delivery.AuthMiddleware(h.authUsecase)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// SSE endpoint
		api.GET("/events", requireAuth, func(c *gin.Context) {
			h.sseManager.ServeHTTP(c, c.GetString("userID"))
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
			auth.POST("/google", authHandler.GoogleSignIn)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", requireAuth, authHandler.Me)
			auth.POST("/logout", authHandler.Logout)
		}

		// Profile and mailbox (protected)
		api.GET("/profile", requireAuth, authHandler.GetProfile)
		api.PUT("/profile", requireAuth, authHandler.UpdateProfile)
		api.GET("/mailbox", requireAuth, authHandler.GetMailbox)
		api.PUT("/mailbox", requireAuth, authHandler.SaveMailbox)

		// FCM routes (protected)
		fcm := api.Group("/fcm")
		fcm.Use(requireAuth)
		{
			fcm.POST("/register", authHandler.RegisterFCMToken)
			fcm.DELETE("/:token", authHandler.UnregisterFCMToken)
		}

		api.GET("/recommendations", requireAuth, recommendationHandler.List)

		// Application routes (protected)
		applications := api.Group("/applications")
		applications.Use(requireAuth)
		{
			applications.POST("", appHandler.Like)
			applications.GET("", appHandler.List)
			applications.POST("/apply", appHandler.Apply)
			applications.POST("/send-emails", appHandler.SendEmails)
			applications.GET("/:id", appHandler.Get)
			applications.GET("/:id/history", appHandler.History)
			applications.DELETE("/:id", appHandler.Remove)
			applications.PATCH("/:id/status", appHandler.UpdateStatus)
		}
		api.GET("/simulations/:id", requireAuth, appHandler.GetSimulation)

		// Inbox routes (protected)
		inbox := api.Group("/inbox")
		inbox.Use(requireAuth)
		{
			inbox.GET("", appHandler.Inbox)
			inbox.GET("/stats", appHandler.Stats)
			inbox.GET("/search", appHandler.Search)
		}

		// Batch jobs for cron and ops
		internal := api.Group("/internal")
		internal.Use(appDelivery.InternalKeyMiddleware(h.config.InternalAPIKey))
		{
			internal.POST("/process-email-responses", internalHandler.ProcessEmailResponses)
			internal.POST("/monitor-mailbox", internalHandler.MonitorMailbox)
			internal.POST("/send-job-notifications", internalHandler.SendJobNotifications)
		}

		// Runtime AI settings are server-wide, so they need the internal key
		settings := api.Group("/settings")
		settings.Use(appDelivery.AdminKeyMiddleware(h.config.InternalAPIKey))
		{
			settings.GET("/ai", GetAISettings)
			settings.PUT("/ai", UpdateAISettings)
			settings.POST("/ai/test", TestOllamaConnection)
		}
	}
}
