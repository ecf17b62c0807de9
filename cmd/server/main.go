package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/merchops/supplier-mdm/internal/api"
	"github.com/merchops/supplier-mdm/internal/config"
	"github.com/merchops/supplier-mdm/internal/db"
	"github.com/merchops/supplier-mdm/internal/inference"
	"github.com/merchops/supplier-mdm/internal/mapping"
	"github.com/merchops/supplier-mdm/internal/middleware"
	"github.com/merchops/supplier-mdm/internal/onboarding"
	"github.com/merchops/supplier-mdm/internal/repository"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, conn.Pool, "./migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create repositories
	supplierRepo := repository.NewSupplierRepository(conn.Pool)
	templateRepo := repository.NewMappingTemplateRepository(conn.Pool)
	logRepo := repository.NewTestPullLogRepository(conn.Pool)

	// Engine configuration is immutable once built
	validator := inference.NewValidator(nil, inference.DetectionPolicy(cfg.Engine.DetectionPolicy))
	scorer := mapping.NewScorer(mapping.FuzzyPolicy(cfg.Engine.FuzzyPolicy), nil)

	service := onboarding.NewService(supplierRepo, templateRepo, logRepo, validator, scorer, cfg.UploadDir)

	handler := api.NewHandler(service, supplierRepo, templateRepo)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	root := corsHandler.Handler(middleware.LoggingMiddleware(handler.Routes()))

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      root,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting supplier onboarding API on %s", cfg.Server.Addr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
