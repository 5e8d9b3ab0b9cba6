package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/opsdeck/opsdeck/internal/catalog"
	"github.com/opsdeck/opsdeck/internal/config"
	"github.com/opsdeck/opsdeck/internal/database"
	"github.com/opsdeck/opsdeck/internal/events"
	"github.com/opsdeck/opsdeck/internal/handlers"
	"github.com/opsdeck/opsdeck/internal/middleware"
	"github.com/opsdeck/opsdeck/internal/notify"
	"github.com/opsdeck/opsdeck/internal/services"
	"gorm.io/gorm/logger"
)

func main() {
	// Load .env file if present (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Authentication is enforced only when an admin password is set
	authEnabled := cfg.AdminPassword != ""
	var adminPasswordHash string
	if authEnabled {
		adminPasswordHash, err = middleware.HashPassword(cfg.AdminPassword)
		if err != nil {
			log.Fatalf("Failed to hash admin password: %v", err)
		}
	} else {
		log.Println("WARNING: ADMIN_PASSWORD not set, authentication is disabled")
	}

	jwtAuth := middleware.NewJWTAuthMiddleware(&middleware.JWTAuthConfig{
		Enabled:           authEnabled,
		AdminUsername:     cfg.AdminUsername,
		AdminPasswordHash: adminPasswordHash,
		JWTSecret:         cfg.JWTSecret,
		JWTExpiryHours:    cfg.JWTExpiryHours,
		SkipPaths:         []string{"/health", "/auth/login", "/ws/events"},
	})

	// Database
	if err := database.Connect(cfg.DatabaseURL, logger.Warn); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	if err := database.InitializeDefaults(); err != nil {
		log.Fatalf("Failed to initialize defaults: %v", err)
	}

	if cfg.CatalogSeedPath != "" {
		if err := catalog.SeedFromFile(database.DB, cfg.CatalogSeedPath); err != nil {
			log.Fatalf("Failed to seed asset catalog from %s: %v", cfg.CatalogSeedPath, err)
		}
		log.Printf("Asset catalog seeded from %s", cfg.CatalogSeedPath)
	}

	// Services
	catalogService := catalog.NewService(database.DB)
	workOrderService := services.NewWorkOrderService(database.DB)
	coordinator := services.NewResolutionCoordinator(database.DB, catalogService)

	hub := events.NewHub()
	coordinator.SetEventPublisher(hub)
	coordinator.SetNotifier(notify.NewSlackNotifier())

	// Handlers
	mux := http.NewServeMux()
	handlers.NewAuthHandler(jwtAuth).SetupRoutes(mux)
	handlers.NewReportHandler(coordinator).SetupRoutes(mux)
	handlers.NewAPIHandler(database.DB, catalogService, workOrderService).SetupRoutes(mux)
	handlers.NewHealthHandler(hub).SetupRoutes(mux)

	// Middleware chain: request ID -> CORS -> JWT -> mux
	var handler http.Handler = mux
	handler = jwtAuth.Wrap(handler)
	handler = middleware.NewCORSMiddleware().Wrap(handler)
	handler = middleware.RequestIDMiddleware(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("OpsDeck listening on :%d", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Shutdown complete")
}
