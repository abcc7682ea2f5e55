package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"catalog-analyzer/internal/shared/metrics"
	"catalog-analyzer/internal/shared/middleware"
	"catalog-analyzer/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		metrics.Middleware(),
		middleware.CORS(),
	)

	// ========================================
	// CATALOG ROUTES
	// ========================================
	router.POST("/imports", c.UnitHandler.Import)
	router.DELETE("/delete/:id", c.UnitHandler.Delete)
	router.GET("/nodes/:id", c.UnitHandler.GetNode)
	router.GET("/node/:id/statistic", c.StatisticHandler.NodeStatistic)
	router.GET("/sales", c.StatisticHandler.Sales)

	// ========================================
	// OPERATIONAL ROUTES
	// ========================================
	router.GET("/health", healthCheckHandler(c))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		overall := "ok"
		dbStatus := "ok"

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := appCtx.DB.HealthCheck(ctx); err != nil {
			dbStatus = err.Error()
			overall = "degraded"
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"status":    overall,
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
			"services": gin.H{
				"database": dbStatus,
			},
		})
	}
}
