package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/havenline/haven-backend/internal/http/handlers"
	httpMW "github.com/havenline/haven-backend/internal/http/middleware"
)

type RouterConfig struct {
	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware

	UserHandler         *httpH.UserHandler
	ConversationHandler *httpH.ConversationHandler
	PatternHandler      *httpH.PatternHandler
	CrisisHandler       *httpH.CrisisHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
		}

		// Conversations
		if cfg.ConversationHandler != nil {
			protected.POST("/conversations", cfg.ConversationHandler.Create)
			protected.GET("/conversations", cfg.ConversationHandler.List)
			protected.GET("/conversations/:id", cfg.ConversationHandler.Get)
			protected.POST("/conversations/:id/messages", cfg.ConversationHandler.SendMessage)
			protected.GET("/conversations/:id/messages", cfg.ConversationHandler.ListMessages)
			protected.PATCH("/conversations/:id/status", cfg.ConversationHandler.UpdateStatus)
			protected.GET("/conversations/:id/summary", cfg.ConversationHandler.GetSummary)
			protected.POST("/conversations/:id/summary", cfg.ConversationHandler.RegenerateSummary)
			protected.POST("/detect", cfg.ConversationHandler.DetectState)
		}

		// Patterns
		if cfg.PatternHandler != nil {
			protected.GET("/patterns", cfg.PatternHandler.ListMine)
		}

		// Crisis events
		if cfg.CrisisHandler != nil {
			protected.GET("/conversations/:id/crisis-events", cfg.CrisisHandler.ListByConversation)
			protected.POST("/conversations/:id/crisis-events", cfg.CrisisHandler.Record)
			protected.GET("/crisis-events/unresolved", cfg.CrisisHandler.ListUnresolved)
			protected.POST("/crisis-events/:id/resolve", cfg.CrisisHandler.Resolve)
		}
	}

	return r
}
