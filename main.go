package main

import (
	"database/sql"
	"net/http"

	"chat-api/chat"
	"chat-api/config"
	"chat-api/handlers"
	"chat-api/middleware"
	"chat-api/services"
	"chat-api/store"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// Connect to PostgreSQL for app data
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	logger.Info("connected to PostgreSQL database")

	pg := store.NewPostgres(db)

	// The completion client is built once and shared by every request.
	completions := services.NewCompletionService(cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL,
		services.CompletionConfig{
			Model:       cfg.ChatModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}, logger)

	orchestrator := chat.NewOrchestrator(pg, completions, logger)
	chatHandler := handlers.NewChatHandler(pg, orchestrator, cfg.RequestTimeout, logger)
	webhookHandler, err := handlers.NewWebhookHandler(pg, cfg.ClerkSigningSecret, logger)
	if err != nil {
		logger.Fatal("failed to initialize webhook handler", zap.Error(err))
	}

	// Setup Gin router
	router := gin.Default()
	router.Use(corsMiddleware())
	router.Use(middleware.Auth([]byte(cfg.AuthSecret)))

	// API routes
	api := router.Group("/api")
	{
		// Chat pipeline
		api.POST("/chat/ai", chatHandler.SendMessage)

		// Conversation routes
		api.POST("/conversations", chatHandler.CreateConversation)
		api.GET("/conversations", chatHandler.ListConversations)
		api.GET("/conversations/:id", chatHandler.GetConversation)
		api.PUT("/conversations/:id", chatHandler.RenameConversation)
		api.DELETE("/conversations/:id", chatHandler.DeleteConversation)

		// Identity sync from the auth provider
		api.POST("/clerk", webhookHandler.HandleClerkEvent)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	logger.Info("starting server", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

// corsMiddleware enables CORS for local development.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
