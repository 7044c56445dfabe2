package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/tradehub/internal/config"
	"github.com/mbeoliero/tradehub/internal/entity"
	"github.com/mbeoliero/tradehub/internal/gateway"
	"github.com/mbeoliero/tradehub/internal/handler"
	"github.com/mbeoliero/tradehub/internal/livequery"
	"github.com/mbeoliero/tradehub/internal/repository"
	"github.com/mbeoliero/tradehub/internal/router"
	"github.com/mbeoliero/tradehub/internal/service"
	"github.com/mbeoliero/tradehub/pkg/constant"
)

func main() {
	ctx := context.TODO()

	// Load configuration
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		log.CtxError(ctx, "failed to load config: %v", err)
		panic(err)
	}

	log.CtxInfo(ctx, "config loaded: mode=%s", cfg.Server.Mode)

	// Initialize Redis key prefix
	constant.InitRedisKeyPrefix(cfg.Redis.KeyPrefix)
	log.CtxInfo(ctx, "redis key prefix: %s", constant.GetRedisKeyPrefix())

	// Initialize repositories
	repos, err := repository.NewRepositories(ctx, cfg)
	if err != nil {
		log.CtxError(ctx, "failed to initialize repositories: %v", err)
		panic(err)
	}
	defer repos.Close(ctx)

	// Check store connections
	if err := repos.CheckConnection(ctx); err != nil {
		log.CtxError(ctx, "store connection check failed: %v", err)
		panic(err)
	}
	log.CtxInfo(ctx, "store connections established")

	// Migrate account table and ensure document indexes
	if err := repos.DB.AutoMigrate(&entity.User{}); err != nil {
		log.CtxError(ctx, "account table migration failed: %v", err)
		panic(err)
	}
	if err := repos.CreateIndexes(ctx); err != nil {
		log.CtxError(ctx, "index creation failed: %v", err)
		panic(err)
	}

	// Initialize services
	userService := service.NewUserService(repos.User, repos.Notification, cfg)
	convService := service.NewConversationService(repos.Conversation)
	msgService := service.NewMessageService(repos.Conversation, repos.Message, repos.Notification)
	readStateService := service.NewReadStateService(repos.Conversation, repos.Message, repos.Notification)
	quoteService := service.NewQuoteService(repos.Quote, repos.Notification)

	// Initialize the live query gateway over the document store
	live := livequery.NewGateway(livequery.NewMongoSource(repos.Mongo))

	// Initialize WebSocket server
	wsServer := gateway.NewWsServer(cfg, repos.Redis, live)

	// Set message pusher for message service
	msgService.SetPusher(wsServer)

	// Start WebSocket server
	wsServer.Run(ctx)
	log.CtxInfo(ctx, "websocket server started")

	// Initialize handlers
	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(userService),
		User:         handler.NewUserHandler(userService),
		Conversation: handler.NewConversationHandler(convService, readStateService),
		Message:      handler.NewMessageHandler(msgService),
		Notification: handler.NewNotificationHandler(readStateService),
		Quote:        handler.NewQuoteHandler(quoteService),
	}

	// Create Hertz server
	h := server.Default(
		server.WithHostPorts(fmt.Sprintf(":%d", cfg.Server.HTTPPort)),
	)

	// Setup routes
	router.SetupRouter(h, handlers)

	log.CtxInfo(ctx, "server starting on port %d", cfg.Server.HTTPPort)

	// Start server in goroutine
	go func() {
		h.Spin()
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.CtxInfo(ctx, "shutting down server...")

	// Graceful shutdown
	if err := wsServer.Shutdown(ctx); err != nil {
		log.CtxError(ctx, "websocket server shutdown error: %v", err)
	}
	if err := h.Shutdown(ctx); err != nil {
		log.CtxError(ctx, "server shutdown error: %v", err)
	}

	log.CtxInfo(ctx, "server stopped")
}
