package router

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/mbeoliero/tradehub/internal/handler"
	"github.com/mbeoliero/tradehub/internal/middleware"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Conversation *handler.ConversationHandler
	Message      *handler.MessageHandler
	Notification *handler.NotificationHandler
	Quote        *handler.QuoteHandler
}

// SetupRouter sets up all routes
func SetupRouter(h *server.Hertz, handlers *Handlers) {
	// CORS middleware
	h.Use(middleware.CORS())

	// Health check
	h.GET("/health", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(consts.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth routes (no auth required)
	authGroup := h.Group("/auth")
	{
		authGroup.POST("/register", handlers.Auth.Register)
		authGroup.POST("/login", handlers.Auth.Login)
	}

	// User routes (auth required)
	userGroup := h.Group("/user", middleware.JWTAuth())
	{
		userGroup.GET("/info", handlers.User.GetUserInfo)
		userGroup.GET("/info/:user_id", handlers.User.GetUserInfoById)
		userGroup.POST("/approve", handlers.User.Approve)
	}

	// Conversation routes (auth required)
	convGroup := h.Group("/conversation", middleware.JWTAuth())
	{
		convGroup.POST("/create", handlers.Conversation.CreateConversation)
		convGroup.GET("/info", handlers.Conversation.GetConversation)
		convGroup.GET("/direct", handlers.Conversation.FindDirect)
		convGroup.GET("/list", handlers.Conversation.GetConversationList)
		convGroup.POST("/mark_read", handlers.Conversation.MarkRead)
	}

	// Message routes (auth required)
	msgGroup := h.Group("/msg", middleware.JWTAuth())
	{
		msgGroup.POST("/send", handlers.Message.SendMessage)
		msgGroup.GET("/list", handlers.Message.ListMessages)
	}

	// Notification routes (auth required)
	notifyGroup := h.Group("/notification", middleware.JWTAuth())
	{
		notifyGroup.GET("/list", handlers.Notification.ListNotifications)
		notifyGroup.GET("/unread_count", handlers.Notification.GetUnreadCount)
		notifyGroup.POST("/mark_read", handlers.Notification.MarkRead)
		notifyGroup.POST("/mark_all_read", handlers.Notification.MarkAllRead)
	}

	// Quote routes (auth required)
	quoteGroup := h.Group("/quote", middleware.JWTAuth())
	{
		quoteGroup.POST("/submit", handlers.Quote.SubmitQuote)
		quoteGroup.GET("/list", handlers.Quote.ListQuotes)
	}
}
