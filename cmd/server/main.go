package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/fbaprofit/internal/api"
	"github.com/andresuchdata/fbaprofit/internal/cache"
	"github.com/andresuchdata/fbaprofit/internal/config"
	"github.com/andresuchdata/fbaprofit/internal/drive"
	"github.com/andresuchdata/fbaprofit/internal/rates"
	"github.com/andresuchdata/fbaprofit/internal/service"
	"github.com/andresuchdata/fbaprofit/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.Setup(os.Stdout, cfg.App.LogJSON)
	logger.SetLevel(cfg.App.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	resultCache, err := cache.NewResultCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("result cache unavailable, continuing without cache")
		resultCache = cache.NewNoopResultCache()
	}

	services := &api.Services{
		Analytics:     service.NewAnalyticsService(rates.FromConfig(cfg.Analytics), cfg.App.WorkerCount, resultCache),
		DriveFolderID: cfg.Drive.FolderID,
	}

	if cfg.Drive.CredentialsJSON != "" {
		driveService, err := drive.NewService(context.Background(), cfg.Drive.CredentialsJSON)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("google drive unavailable, drive routes disabled")
		} else {
			services.Drive = driveService
		}
	}

	router := api.NewRouter(services, cfg.Server)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
