package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"chat-core/internal/capabilities"
	"chat-core/internal/config"
	"chat-core/internal/db"
	"chat-core/internal/flags"
	"chat-core/internal/handlers"
	"chat-core/internal/middleware"
	"chat-core/internal/observability"
	"chat-core/internal/repositories"
	"chat-core/internal/service"
	"chat-core/internal/telemetry"
	"chat-core/internal/ws"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	flagStore, err := flags.NewRedisStore(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer flagStore.Close()

	if cfg.AMQPURL != "" {
		publisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("failed to connect to amqp: %v", err)
		}
		defer publisher.Close()
		observability.SetPublisher(publisher)
	}

	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	userRepo := repositories.NewUserRepo(database)
	capabilityRepo := repositories.NewCapabilityRepo(database)

	registry := capabilities.NewRegistry(logger,
		capabilities.NewMessagePolicy(flagStore, capabilityRepo, logger),
		capabilities.NewImagePolicy(capabilityRepo),
		capabilities.NewChatPolicy(flagStore, logger),
		capabilities.NewThreadPolicy(capabilityRepo),
	)

	audit := telemetry.NewAuditEmitter(observability.DefaultPublisher(), "audit.chat", cfg.ServiceName, cfg.Environment, logger)

	hub := ws.NewHub()
	chats := service.NewChatService(chatRepo, messageRepo, userRepo, registry, audit, hub, logger)

	chatHandler := handlers.NewChatHandler(chats)
	messageHandler := handlers.NewMessageHandler(chats)
	presenceHandler := handlers.NewPresenceHandler(chats)
	adminHandler := handlers.NewAdminHandler(flagStore, registry, capabilityRepo)
	chatWS := ws.NewChatWebSocketHandler(hub, chatRepo, userRepo, cfg.HeartbeatInterval, logger)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(otelgin.Middleware(cfg.ServiceName))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	authMiddleware := middleware.AuthMiddleware(middleware.HeaderProvider{})

	router.POST("/chats", authMiddleware, chatHandler.CreateChat)
	router.GET("/chats", authMiddleware, chatHandler.ListChats)
	router.GET("/chats/:chat_id", authMiddleware, chatHandler.ChatDetails)
	router.PATCH("/chats/:chat_id/name", authMiddleware, chatHandler.RenameChat)
	router.POST("/chats/:chat_id/archive", authMiddleware, chatHandler.ArchiveChat)
	router.GET("/chats/:chat_id/messages", authMiddleware, chatHandler.GetChatMessages)
	router.POST("/chats/:chat_id/messages", authMiddleware, messageHandler.PostMessage)
	router.POST("/messages/:message_id/status", authMiddleware, messageHandler.ReportStatus)
	router.PATCH("/messages/:message_id/content", authMiddleware, messageHandler.UpdateContent)
	router.POST("/presence/ping", authMiddleware, presenceHandler.Ping)

	router.GET("/admin/flags/:name", authMiddleware, adminHandler.GetFlag)
	router.PUT("/admin/flags/:name", authMiddleware, adminHandler.SetFlag)
	router.GET("/admin/capabilities/check", authMiddleware, adminHandler.CheckCapability)
	router.PUT("/admin/chats/:chat_id/capabilities", authMiddleware, adminHandler.SetChatCapability)

	router.GET("/ws/chats/:chat_id", authMiddleware, chatWS.Handle)

	if err := router.Run(cfg.Addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
