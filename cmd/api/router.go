package api

import (
	"net/http"

	authDelivery "nexus-backend/internal/auth/delivery"
	authdomain "nexus-backend/internal/auth/domain"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	authRequired := authDelivery.AuthMiddleware(h.authUsecase)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// SSE endpoint
		api.GET("/events", authRequired, func(c *gin.Context) {
			user, exists := c.Get("user")
			if !exists {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
				return
			}
			userData, ok := user.(*authdomain.User)
			if !ok {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user data"})
				return
			}
			h.sseManager.ServeHTTP(c, userData.ID)
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", h.authHandler.Login)
			auth.POST("/register", h.authHandler.Register)
			auth.POST("/google", h.authHandler.GoogleSignIn)
			auth.POST("/refresh", h.authHandler.RefreshToken)
			auth.POST("/logout", h.authHandler.Logout)
			auth.GET("/me", authRequired, h.authHandler.Me)
		}

		// FCM routes (protected)
		fcm := api.Group("/fcm")
		fcm.Use(authRequired)
		{
			fcm.POST("/register", h.authHandler.RegisterFCMToken)
			fcm.POST("/unregister", h.authHandler.UnregisterFCMToken)
		}

		// Connected account routes (protected)
		accounts := api.Group("/accounts")
		accounts.Use(authRequired)
		{
			accounts.POST("", h.accountHandler.LinkAccount)
			accounts.GET("", h.accountHandler.GetAccounts)
			accounts.DELETE("/:id", h.accountHandler.RevokeAccount)
			accounts.POST("/:id/scopes", h.accountHandler.AddScope)
			accounts.GET("/:id/scopes", h.accountHandler.GetScopes)
			accounts.POST("/:id/sync", h.accountHandler.TriggerSync)
		}

		// Scope toggle (protected)
		api.PATCH("/scopes/:id", authRequired, h.accountHandler.SetScopeEnabled)

		// Chat routes (protected)
		chat := api.Group("/chat")
		chat.Use(authRequired)
		{
			chat.POST("", h.chatHandler.SendMessage)
			chat.GET("/sessions", h.chatHandler.GetSessions)
			chat.GET("/sessions/:id", h.chatHandler.GetSessionMessages)
			chat.DELETE("/sessions/:id", h.chatHandler.DeleteSession)
			chat.PUT("/sessions/:id/scopes", h.chatHandler.SetScopeLink)
			chat.GET("/sessions/:id/scopes", h.chatHandler.GetScopeLinks)
		}

		// Search routes (protected)
		search := api.Group("/search")
		search.Use(authRequired)
		{
			search.POST("/semantic", h.contentHandler.SemanticSearch)
			search.GET("/suggestions", h.contentHandler.Suggestions)
		}

		// Ingest endpoint for external sync agents (protected)
		api.POST("/sync/ingest", authRequired, h.contentHandler.Ingest)

		// Settings routes (public) - Runtime configuration
		settings := api.Group("/settings")
		{
			settings.GET("/ollama", GetOllamaSettings)
			settings.PUT("/ollama", UpdateOllamaSettings)
			settings.POST("/ollama/test", TestOllamaConnection)
		}
	}
}
