// Package api exposes persisted evaluation runs over a read-only HTTP API.
package api

import (
	"net/http"
	"time"

	"veritas/internal"
	"veritas/ports"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the runs handler onto a gin engine
func NewRouter(repo ports.ResultRepository, logger *internal.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := NewRunsHandler(repo, logger)
	runs := router.Group("/api/runs")
	{
		runs.GET("", h.ListRuns)
		runs.GET("/:id", h.GetRun)
		runs.GET("/:id/rows", h.ListRows)
		runs.GET("/:id/report", h.GetReport)
	}
	return router
}

func requestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("[API] %s %s %d %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
