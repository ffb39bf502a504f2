package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"campus-chat-service/internal/config"
	"campus-chat-service/internal/db"
	"campus-chat-service/internal/handlers"
	"campus-chat-service/internal/middleware"
	"campus-chat-service/internal/observability"
	"campus-chat-service/internal/rabbitmq"
	"campus-chat-service/internal/repositories"
	"campus-chat-service/internal/service"
	"campus-chat-service/internal/telemetry"
	"campus-chat-service/internal/ws"
)

const serviceName = "campus-chat-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := cfg.NewLogger()

	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTLPEndpoint, serviceName)
	if err != nil {
		logger.Fatalf("failed to set up tracing: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseDSN, logger)
	if err != nil {
		logger.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	logger.WithField("mode", rabbitmq.Mode(publisher)).Info("event publisher ready")

	emitter := telemetry.NewAuditEmitter(publisher, "chat.audit", serviceName, cfg.Environment, logger)

	userRepo := repositories.NewUserRepo(database)
	productRepo := repositories.NewProductRepo(database)
	conversationRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	registry := ws.NewRegistry(logger)
	chatService := service.NewChatService(userRepo, productRepo, conversationRepo, messageRepo, registry, logger)

	verifier := middleware.NewTokenVerifier(cfg.JWTSecret)
	chatHandler := handlers.NewChatHandler(chatService, emitter)
	wsHandler := ws.NewHandler(registry, verifier, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.GET("/chats/conversations", authMiddleware, chatHandler.ListConversations)
	router.GET("/chats/unread-count", authMiddleware, chatHandler.UnreadCount)
	router.GET("/chats/:user_id", authMiddleware, chatHandler.GetMessages)
	router.POST("/chats/send/:user_id", authMiddleware, chatHandler.SendMessage)
	router.PUT("/chats/read/:user_id", authMiddleware, chatHandler.MarkAsRead)

	router.GET("/ws", wsHandler.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	handlers.RegisterDebugRoutes(router, emitter, cfg.Debug)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("server shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.WithError(err).Warn("tracing shutdown")
	}
}
