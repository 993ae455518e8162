// backend/internal/api/handlers/health.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arogya-app/arogya/backend/internal/health"
)

type HealthHandler struct {
	checker *health.HealthChecker
}

func NewHealthHandler(checker *health.HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// HandleHealth is the cheap liveness endpoint.
func (h *HealthHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "arogya-backend",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// HandleDetailedHealth probes every dependency.
func (h *HealthHandler) HandleDetailedHealth(c *gin.Context) {
	overall := h.checker.CheckAll(c.Request.Context())

	code := http.StatusOK
	if overall.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, overall)
}
