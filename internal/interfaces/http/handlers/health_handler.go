package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
)

// HealthChecker reports the health of one backing component.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthCheckerFunc adapts a plain function to HealthChecker.
type HealthCheckerFunc func(ctx context.Context) error

func (f HealthCheckerFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

// HealthHandler serves liveness and readiness probes. Liveness is
// unconditional; readiness fans out to the registered component checks.
type HealthHandler struct {
	checkers map[string]HealthChecker
	logger   logging.Logger
	timeout  time.Duration
}

func NewHealthHandler(logger logging.Logger) *HealthHandler {
	return &HealthHandler{
		checkers: make(map[string]HealthChecker),
		logger:   logger,
		timeout:  5 * time.Second,
	}
}

// Register adds a named component to the readiness probe. Optional
// components (kafka, minio) are simply not registered when disabled.
func (h *HealthHandler) Register(name string, checker HealthChecker) {
	h.checkers[name] = checker
}

// Liveness reports that the process is up.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type componentStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Readiness checks every registered component and returns 503 when any
// of them fails.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	components := make(map[string]componentStatus, len(h.checkers))
	healthy := true

	for name, checker := range h.checkers {
		if err := checker.HealthCheck(ctx); err != nil {
			healthy = false
			components[name] = componentStatus{Status: "unhealthy", Error: err.Error()}
			h.logger.Warn("readiness check failed",
				logging.String("component", name),
				logging.Err(err),
			)
			continue
		}
		components[name] = componentStatus{Status: "healthy"}
	}

	status := http.StatusOK
	overall := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "not_ready"
	}

	c.JSON(status, gin.H{
		"status":     overall,
		"components": components,
		"checked_at": time.Now().UTC().Format(time.RFC3339),
	})
}
