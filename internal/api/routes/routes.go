// Package routes defines the HTTP routes for the Tutor Session Service.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/javatutor/session-service/internal/api/handlers"
	"github.com/javatutor/session-service/internal/api/middleware"
)

// Config holds the dependencies for setting up routes.
type Config struct {
	HealthHandler       *handlers.HealthHandler
	ConversationHandler *handlers.ConversationHandler
	EngagementHandler   *handlers.EngagementHandler
	ExecutionHandler    *handlers.ExecutionHandler
	SyncHandler         *handlers.SyncHandler
	AuthMiddleware      *middleware.AuthMiddleware
}

// Setup configures all routes on the Gin engine.
func Setup(r *gin.Engine, cfg *Config) {
	// API v1 routes - all routes under /api/v1/session-service
	v1 := r.Group("/api/v1/session-service")
	{
		// Health check routes (no auth required)
		v1.GET("/health", cfg.HealthHandler.Health)
		v1.GET("/ready", cfg.HealthHandler.Ready)
		v1.GET("/live", cfg.HealthHandler.Live)

		// Apply auth middleware to protected API routes
		protected := v1.Group("")
		protected.Use(cfg.AuthMiddleware.Authenticate())

		// Session-scoped routes
		sessions := protected.Group("/sessions/:sessionId")
		{
			sessions.POST("/login-sweep", cfg.ConversationHandler.LoginSweep)
			sessions.POST("/hydrate", cfg.ConversationHandler.Hydrate)

			// Archived messages (durable copy, paginated)
			sessions.GET("/messages", cfg.ConversationHandler.GetMessages)
			sessions.DELETE("/messages", cfg.ConversationHandler.DeleteMessages)

			// Live conversation state
			conversation := sessions.Group("/conversation")
			{
				conversation.POST("/messages", cfg.ConversationHandler.SendMessage)
				conversation.GET("/combined", cfg.ConversationHandler.GetCombinedView)
				conversation.GET("/:model/context", cfg.ConversationHandler.GetContextWindow)
				conversation.POST("/active-model", cfg.ConversationHandler.SetActiveModel)
			}

			// Engagement tracking
			engagement := sessions.Group("/engagement")
			{
				engagement.POST("/start", cfg.EngagementHandler.Start)
				engagement.POST("/stop", cfg.EngagementHandler.Stop)
				engagement.POST("/reset", cfg.EngagementHandler.Reset)
				engagement.POST("/events", cfg.EngagementHandler.RecordEvent)
				engagement.GET("/analytics", cfg.EngagementHandler.GetAnalytics)
			}

			// Code sandbox relay
			sessions.POST("/code/execute", cfg.ExecutionHandler.ExecuteCode)

			// Cross-tab sync (WebSocket upgrade)
			sessions.GET("/sync", cfg.SyncHandler.Connect)
		}
	}
}

// SetupWithMiddleware sets up routes with common middleware.
func SetupWithMiddleware(r *gin.Engine, cfg *Config, loggingMw *middleware.LoggingMiddleware, errorMw *middleware.ErrorMiddleware) {
	// Apply global middleware
	r.Use(loggingMw.Logger())
	r.Use(errorMw.Recovery())
	r.Use(gin.Recovery())

	// Setup routes
	Setup(r, cfg)
}
