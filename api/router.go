package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/use-agent/aurora/api/handler"
	"github.com/use-agent/aurora/api/middleware"
	"github.com/use-agent/aurora/browser"
	"github.com/use-agent/aurora/config"
	"github.com/use-agent/aurora/metrics"
	"github.com/use-agent/aurora/task"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health and metrics endpoints are intentionally outside auth so
// monitoring probes always work.
func NewRouter(m *task.Manager, b *browser.Browser, met *metrics.Metrics, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health and metrics — no auth required.
	v1.GET("/health", handler.Health(b, m, startTime))
	if met != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(met.Registry, promhttp.HandlerOpts{})))
	}

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Tasks
	protected.POST("/tasks", handler.SubmitTask(m))
	protected.GET("/tasks", handler.ListTasks(m))
	protected.GET("/tasks/:id", handler.GetTask(m))
	protected.GET("/tasks/:id/result", handler.GetResult(m))
	protected.GET("/tasks/:id/download", handler.DownloadResult(m))
	protected.DELETE("/tasks/:id", handler.CancelTask(m))

	return r
}
