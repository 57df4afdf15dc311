package main

import (
	"net/http"

	"sdr-service/internal/handler"
	mid "sdr-service/internal/middleware"
	"sdr-service/internal/model"
	"sdr-service/pkg/config"
	"sdr-service/pkg/database"
	"sdr-service/pkg/grok"
	"sdr-service/pkg/logger"
	"sdr-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration (.env file is optional)
	appConfig, err := config.Load("sdr-service")
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(appConfig); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting sdr-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize grok API client
	grok.Initialize(&appConfig.Grok, log)
	log.Info("Grok client initialized",
		zap.String("api_url", appConfig.Grok.APIURL),
		zap.String("model", appConfig.Grok.Model))

	// Initialize database
	if _, err := database.InitDB(&appConfig.DB); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(&model.Lead{}, &model.ActivityLog{}); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Lead API routes
	leads := e.Group("/leads")
	leads.GET("", handler.ListLeads)
	leads.POST("", handler.CreateLead)
	leads.POST("/qualify", handler.QualifyLead)
	leads.POST("/outreach/:id", handler.GenerateOutreach)
	leads.GET("/pipeline/stages", handler.GetPipelineStages)
	leads.GET("/pipeline/stats", handler.GetPipelineStats)
	leads.GET("/pipeline/analytics", handler.GetPipelineAnalytics)
	leads.GET("/search/all", handler.SearchAll)
	leads.GET("/search/suggestions", handler.SearchSuggestions)
	leads.GET("/:id", handler.GetLead)
	leads.PUT("/:id", handler.UpdateLead)
	leads.DELETE("/:id", handler.DeleteLead)
	leads.POST("/:id/progress", handler.ProgressLead)
	leads.GET("/:id/activities", handler.GetLeadActivities)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
