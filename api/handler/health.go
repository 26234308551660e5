package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/aurora/browser"
	"github.com/use-agent/aurora/models"
	"github.com/use-agent/aurora/task"
)

// Health returns a handler for GET /api/v1/health.
//
// Reports pool utilisation and degrades status when > 80% of pages are
// active. The browser may be nil when the service runs static-only.
func Health(b *browser.Browser, m *task.Manager, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		var pool models.PoolStats
		if b != nil {
			pool = b.Stats()
		}

		status := "healthy"
		if pool.MaxPages > 0 && pool.ActivePages > int(float64(pool.MaxPages)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Tasks:   m.Stats(),
			Pool:    pool,
			Version: "0.1.0",
		})
	}
}
