// Package main is the entry point for the Tutor Session Service.
// @title Tutor Session Service API
// @version 1.0
// @description Session-scoped conversation state, engagement scoring, and cross-tab sync for the Java tutoring UI

// @contact.name API Support
// @contact.url https://github.com/javatutor/session-service

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8086
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token authentication
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
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/javatutor/session-service/docs"
	"github.com/javatutor/session-service/internal/api/handlers"
	"github.com/javatutor/session-service/internal/api/middleware"
	"github.com/javatutor/session-service/internal/api/routes"
	"github.com/javatutor/session-service/internal/config"
	"github.com/javatutor/session-service/internal/core/cache"
	"github.com/javatutor/session-service/internal/core/docdb"
	"github.com/javatutor/session-service/internal/core/vault"
	rediscache "github.com/javatutor/session-service/internal/infrastructure/cache/redis"
	"github.com/javatutor/session-service/internal/infrastructure/docdb/mongodb"
	dotenvvault "github.com/javatutor/session-service/internal/infrastructure/vault/dotenv"
	"github.com/javatutor/session-service/internal/pkg/encryption"
	"github.com/javatutor/session-service/internal/services/conversation"
	"github.com/javatutor/session-service/internal/services/engagement"
	"github.com/javatutor/session-service/internal/services/syncbus"
	"github.com/javatutor/session-service/internal/services/tutor"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx := context.Background()
	logger := newLogger(cfg.Log)

	// Initialize vault client using factory pattern
	vaultClient, err := createVaultClient(cfg.Vault)
	if err != nil {
		log.Fatalf("failed to initialize vault client: %v", err)
	}
	defer vaultClient.Close()

	// Initialize cache client using factory pattern
	cacheClient, err := createCacheClient(cfg.Cache)
	if err != nil {
		log.Fatalf("failed to initialize cache client: %v", err)
	}
	defer cacheClient.Close()

	// Initialize document db client using factory pattern
	docDBClient, err := createDocDBClient(ctx, cfg.DocDB)
	if err != nil {
		log.Fatalf("failed to initialize document db client: %v", err)
	}
	defer docDBClient.Close(ctx)

	// Ensure database indexes
	if err := docDBClient.EnsureIndexes(ctx); err != nil {
		log.Printf("warning: failed to ensure indexes: %v", err)
	}

	// Initialize encryptor
	encryptor, err := createEncryptor(cfg.Vault, vaultClient)
	if err != nil {
		log.Fatalf("failed to initialize encryptor: %v", err)
	}

	// The sync bus shares the cache's Redis connection.
	bus := syncbus.New(syncbus.Config{
		Redis:   cacheRedis(cacheClient),
		Channel: cfg.Sync.Channel,
		Logger:  logger,
	})
	if err := bus.Start(ctx); err != nil {
		log.Fatalf("failed to start sync bus: %v", err)
	}
	defer bus.Close()

	// Background archiver for engagement events
	archiver := engagement.NewArchiver(100, docDBClient.Engagement(), logger)
	archiver.Start(2)
	defer archiver.Stop()

	// Initialize conversation store manager
	stores, err := conversation.NewManager(&conversation.ManagerConfig{
		CacheClient: cacheClient,
		Encryptor:   encryptor,
		Archive:     docDBClient.Messages(),
		Bus:         bus,
		TTL:         cfg.Cache.TTL,
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("failed to initialize conversation manager: %v", err)
	}

	// Initialize engagement tracker manager
	trackers, err := engagement.NewManager(&engagement.ManagerConfig{
		Threshold:         cfg.Engagement.Threshold,
		Bus:               bus,
		Archiver:          archiver,
		ScrollDebounce:    cfg.Engagement.ScrollDebounce,
		InteractDebounce:  cfg.Engagement.InteractDebounce,
		TimeBonusInterval: cfg.Engagement.TimeBonusInterval,
		Logger:            logger,
	})
	if err != nil {
		log.Fatalf("failed to initialize engagement manager: %v", err)
	}

	// Tutor backend client
	tutorClient := tutor.NewClient(&tutor.ClientConfig{
		BaseURL: cfg.Tutor.URL,
		Timeout: cfg.Tutor.Timeout,
	})

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Setup router
	router := setupRouter(cacheClient, docDBClient, bus, stores, trackers, tutorClient, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:    cfg.Server.Address(),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// newLogger builds the root zerolog logger from configuration.
func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	if cfg.Format == "console" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return logger
}

// createVaultClient creates a vault client based on the configuration.
func createVaultClient(cfg config.VaultConfig) (vault.Client, error) {
	vaultType := vault.Type(cfg.Type)

	switch vaultType {
	case vault.TypeDotEnv:
		return dotenvvault.NewClient()
	default:
		log.Fatalf("unsupported vault type: %s", cfg.Type)
		return nil, nil
	}
}

// createCacheClient creates a cache client based on the configuration.
func createCacheClient(cfg config.CacheConfig) (cache.Client, error) {
	cacheType := cache.Type(cfg.Type)

	switch cacheType {
	case cache.TypeRedis:
		return rediscache.NewClient(rediscache.Config{
			Host:       cfg.Host,
			Port:       cfg.Port,
			Password:   cfg.Password,
			DB:         cfg.DB,
			DefaultTTL: cfg.TTL,
		})
	default:
		log.Fatalf("unsupported cache type: %s", cfg.Type)
		return nil, nil
	}
}

// createDocDBClient creates a document database client based on the configuration.
func createDocDBClient(ctx context.Context, cfg config.DocDBConfig) (docdb.Client, error) {
	docDBType := docdb.Type(cfg.Type)

	switch docDBType {
	case docdb.TypeMongoDB:
		return mongodb.NewClient(ctx, &mongodb.ClientConfig{
			URI:          cfg.URI,
			DatabaseName: cfg.Database,
		})
	default:
		log.Fatalf("unsupported docdb type: %s", cfg.Type)
		return nil, nil
	}
}

// createEncryptor creates an encryptor based on the configuration.
func createEncryptor(cfg config.VaultConfig, vaultClient vault.Client) (encryption.Encryptor, error) {
	encryptionKey := cfg.EncryptionKey
	if encryptionKey == "" {
		// Try to get from vault
		key, err := vaultClient.GetSecret(context.Background(), "dotenv://CONVERSATION_ENCRYPTION_KEY")
		if err == nil && key != "" {
			encryptionKey = key
		}
	}

	if encryptionKey == "" {
		// Use NoOp encryptor in development
		log.Println("warning: CONVERSATION_ENCRYPTION_KEY not set, using NoOp encryptor")
		return encryption.NewNoOpEncryptor(), nil
	}

	return encryption.NewAESEncryptor(encryptionKey)
}

// cacheRedis exposes the underlying Redis connection when the cache backend
// provides one. The sync bus degrades to no-op mode otherwise.
func cacheRedis(client cache.Client) *redis.Client {
	if rc, ok := client.(*rediscache.Client); ok {
		return rc.Redis()
	}
	return nil
}

// setupRouter creates and configures the Gin router.
func setupRouter(
	cacheClient cache.Client,
	docDBClient docdb.Client,
	bus *syncbus.Bus,
	stores *conversation.Manager,
	trackers *engagement.Manager,
	tutorClient tutor.Client,
	logger zerolog.Logger,
) *gin.Engine {
	router := gin.New()

	// Create middleware
	loggingMw := middleware.NewLoggingMiddlewareWithLogger(logger)
	errorMw := middleware.NewErrorMiddleware()
	authMw := middleware.NewAuthMiddleware()

	corsCfg := middleware.DefaultCORSConfig()
	router.Use(middleware.NewCORSMiddleware(corsCfg))

	// Create handlers
	healthHandler := handlers.NewHealthHandler(cacheClient, docDBClient, bus)
	conversationHandler := handlers.NewConversationHandler(stores, trackers, tutorClient, cacheClient, docDBClient, logger)
	engagementHandler := handlers.NewEngagementHandler(trackers, logger)
	executionHandler := handlers.NewExecutionHandler(tutorClient, trackers, logger)
	syncHandler := handlers.NewSyncHandler(bus, corsCfg.AllowOrigins, logger)

	// Setup routes
	routesCfg := &routes.Config{
		HealthHandler:       healthHandler,
		ConversationHandler: conversationHandler,
		EngagementHandler:   engagementHandler,
		ExecutionHandler:    executionHandler,
		SyncHandler:         syncHandler,
		AuthMiddleware:      authMw,
	}

	routes.SetupWithMiddleware(router, routesCfg, loggingMw, errorMw)

	// Swagger documentation endpoint
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return router
}
