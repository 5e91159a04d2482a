package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yourusername/neoflow/campaign-service/internal/api/routes"
	"github.com/yourusername/neoflow/campaign-service/internal/config"
	"github.com/yourusername/neoflow/campaign-service/internal/scheduler"
	"github.com/yourusername/neoflow/campaign-service/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.Init(logger.FileOptions{Path: cfg.LogFile})
	defer logger.Sync()

	// Initialize Gin router
	router := gin.Default()

	// Setup routes
	campaignService, cleanup := routes.Setup(router, cfg)
	defer cleanup()

	// Warm the snapshot so the first request does not pay for enrichment
	warmCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	if err := campaignService.Refresh(warmCtx); err != nil {
		logger.Error("Initial campaign refresh failed", zap.Error(err))
	}
	cancel()

	var jobs *scheduler.Manager
	if cfg.RefreshInterval > 0 {
		var err error
		jobs, err = scheduler.NewManager()
		if err != nil {
			logger.Fatal("Failed to create job manager", zap.Error(err))
		}
		if err := jobs.RegisterRefreshJob(campaignService, cfg.RefreshInterval); err != nil {
			logger.Fatal("Failed to register refresh job", zap.Error(err))
		}
		jobs.Start()
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		logger.Info("Shutting down campaign service...")
		if jobs != nil {
			jobs.Stop()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down server", zap.Error(err))
		}
	}()

	logger.Info("Starting campaign service on port " + cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Failed to start server: " + err.Error())
	}
}
