package handler

import (
	"context"
	"net/http"
	"time"

	"ethos/backend/internal/logger"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// Healthz pings the store and, when configured, Redis.
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	checks := gin.H{"storage": "ok"}
	healthy := true

	if err := h.Store.Ping(ctx); err != nil {
		logger.Warn("health check failed", "check", "storage", "error", err)
		checks["storage"] = "unavailable"
		healthy = false
	}
	if h.Redis != nil {
		checks["redis"] = "ok"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			logger.Warn("health check failed", "check", "redis", "error", err)
			checks["redis"] = "unavailable"
			healthy = false
		}
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": checks})
}
