package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/microlend/backend/internal/config"
	"github.com/microlend/backend/internal/version"
	"github.com/microlend/backend/internal/ws"
)

type Dependencies struct {
	Pinger    Pinger
	WSHandler *ws.Handler
}

func NewRouter(cfg config.Config, logger *slog.Logger, deps Dependencies) *gin.Engine {
	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		logger.Info("request", "method", c.Request.Method, "path", c.Request.URL.Path)
		c.Next()
	})

	health := NewHealthHandler(deps.Pinger)

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/v1/meta", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    "Microlend Monitor",
			"version": version.Version,
			"env":     cfg.Env,
		})
	})

	if deps.WSHandler != nil {
		r.GET("/ws/feed", deps.WSHandler.HandleWebSocket)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	return r
}
