// backend/cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/arogya-app/arogya/backend/internal/api/handlers"
	"github.com/arogya-app/arogya/backend/internal/config"
	"github.com/arogya-app/arogya/backend/internal/database"
	"github.com/arogya-app/arogya/backend/internal/health"
	"github.com/arogya-app/arogya/backend/internal/llm"
	"github.com/arogya-app/arogya/backend/internal/middleware"
	"github.com/arogya-app/arogya/backend/internal/reference"
	"github.com/arogya-app/arogya/backend/internal/repository"
	"github.com/arogya-app/arogya/backend/internal/services"
	"github.com/arogya-app/arogya/backend/internal/websearch"
	"github.com/arogya-app/arogya/backend/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	logger := utils.GetLogger()
	logger.Info("Starting Arogya backend server...")

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.ValidateProviders(); err != nil {
		logger.WithError(err).Warn("LLM providers not fully configured, chat will degrade")
	}

	dbConfig := &database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}
	dbManager, err := database.NewManager(dbConfig, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database manager")
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		logger.WithError(err).Fatal("Database migration failed")
	}

	repoManager := repository.NewRepositoryManager(dbManager.DB)
	cache := database.NewCache(dbManager.Redis, logger)

	// Retrieval sources
	embedder := reference.NewEmbedder(cfg.Ollama.URL, cfg.Ollama.EmbedModel)
	store := reference.NewStore(cfg.Chroma.URL, cfg.Chroma.Collection, embedder, logger)
	localSearch := reference.NewService(store, logger)
	serpClient := websearch.NewClient(cfg.SerpAPI.BaseURL, cfg.SerpAPI.APIKey, cfg.SerpAPI.Timeout, logger)
	webClient := websearch.NewCachedClient(serpClient, cache, cfg.SerpAPI.CacheTTL, logger)

	// LLM fallback chain, strictly in configured order
	providersByName := map[string]llm.Provider{
		"huggingface": llm.NewHuggingFace(cfg.Providers.HuggingFaceKey, cfg.Providers.HuggingFaceModel, logger),
		"groq":        llm.NewGroq(cfg.Providers.GroqKey, cfg.Providers.GroqModel, logger),
		"deepseek":    llm.NewDeepSeek(cfg.Providers.DeepSeekKey, cfg.Providers.DeepSeekModel, logger),
	}
	var providers []llm.Provider
	for _, name := range cfg.Providers.Order {
		if provider, ok := providersByName[name]; ok {
			providers = append(providers, provider)
		} else {
			logger.WithField("provider", name).Warn("Unknown provider in configured order, skipping")
		}
	}
	chain := llm.NewChain(providers, cfg.Providers.Timeout, logger)

	// Pipeline services
	contextBuilder := services.NewContextBuilder(repoManager.HealthRecord, repoManager.FamilyMember, repoManager.User, logger)
	queryProcessor := services.NewQueryProcessor(localSearch, webClient, cfg.Chat.SearchDeadline, logger)
	chatService := services.NewChatService(contextBuilder, queryProcessor, chain, repoManager.ChatLog, services.ChatBudget{
		PublicMaxTokens:  cfg.Chat.PublicMaxTokens,
		PrivateMaxTokens: cfg.Chat.PrivateMaxTokens,
		Temperature:      cfg.Chat.Temperature,
	}, logger)

	summaryCache := services.NewSummaryCache(cache, cfg.Summary.CacheTTL, logger)
	summaryService := services.NewSummaryService(repoManager.HealthRecord, webClient, chain, summaryCache, services.SummaryBudget{
		MaxTokens:   cfg.Summary.MaxTokens,
		Temperature: cfg.Summary.Temperature,
	}, logger)
	summaryWorker := services.NewSummaryWorker(summaryService, logger)
	defer summaryWorker.Close()

	checker := health.NewHealthChecker(dbManager, store, cfg.SerpAPI.APIKey != "", cfg.ValidateProviders() == nil, logger)

	// Router
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestID())

	chatHandler := handlers.NewChatHandler(chatService, summaryService, summaryWorker, logger)
	healthHandler := handlers.NewHealthHandler(checker)

	router.GET("/health", healthHandler.HandleHealth)
	router.GET("/health/detailed", healthHandler.HandleDetailedHealth)

	chatLimiter := middleware.NewRateLimiter(20)
	summaryLimiter := middleware.NewRateLimiter(10)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/chat", chatLimiter.RateLimit(), chatHandler.HandleChat)
		apiV1.POST("/records/:id/summary", summaryLimiter.RateLimit(), chatHandler.HandleSummarize)
		apiV1.GET("/summaries/:job_id", chatHandler.HandleSummaryJob)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Forced shutdown")
	}
	logger.Info("Server stopped")
}
