// Package api exposes the investigator use cases over HTTP.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"riskScope/internal/ingest"
	"riskScope/internal/service"
)

type Config struct {
	Service  *service.Service
	Uploader *ingest.Uploader
	Logger   *zap.Logger
}

func NewRouter(cfg *Config) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{svc: cfg.Service, uploader: cfg.Uploader, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/healthz", h.Health)

	api := router.Group("/v1")
	{
		api.POST("/search", h.Search)
		api.POST("/enrich", h.Enrich)
		api.GET("/customers", h.Customers)
		api.GET("/dashboard", h.Dashboard)
		api.POST("/reports", h.Report)
		api.POST("/graph", h.Graph)
		api.POST("/uploads", h.Upload)
	}
	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
