package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/fbaprofit/internal/api/handlers"
	"github.com/andresuchdata/fbaprofit/internal/api/middleware"
	"github.com/andresuchdata/fbaprofit/internal/config"
	"github.com/andresuchdata/fbaprofit/internal/service"
)

type Services struct {
	Analytics *service.AnalyticsService
	// Drive is optional; its routes are only mounted when set.
	Drive         handlers.DriveClient
	DriveFolderID string
}

func NewRouter(services *Services, cfg config.ServerConfig) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger("/health"))
	router.Use(middleware.Recovery())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(cfg.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services == nil || services.Analytics == nil {
		return router
	}

	analyticsHandler := handlers.NewAnalyticsHandler(services.Analytics, cfg.MaxUploadMB)
	portfolioGroup := apiGroup.Group("/portfolio")
	{
		portfolioGroup.POST("/metrics", analyticsHandler.CalculateMetrics)
		portfolioGroup.POST("/findings", analyticsHandler.DetectFindings)
		portfolioGroup.POST("/upload", analyticsHandler.Upload)
		portfolioGroup.GET("/rates", analyticsHandler.GetRates)
		portfolioGroup.DELETE("/cache", analyticsHandler.ClearCache)
	}

	if services.Drive != nil {
		driveHandler := handlers.NewDriveHandler(services.Drive, services.Analytics, services.DriveFolderID)
		driveGroup := apiGroup.Group("/drive")
		{
			driveGroup.GET("/files", driveHandler.ListFiles)
			driveGroup.POST("/analyze", driveHandler.Analyze)
		}
	}

	return router
}

// normalizeAllowedOrigins splits comma separated entries and reports whether
// "*" was among them.
func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
