package handlers

import (
	"net/http"

	"tajeats-api/logger"
	"tajeats-api/models"
	"tajeats-api/statemachine"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetStateMachineInfo returns the full state machine for informational purposes
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	var terminal []models.OrderStatus
	for _, s := range models.AllStatuses {
		if s.Terminal() {
			terminal = append(terminal, s)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   statemachine.GetAllTransitions(),
		"statuses":        models.AllStatuses,
		"terminal_states": terminal,
		"admin_override":  "ADMIN may perform every listed transition",
		"description":     "Order lifecycle state machine",
	})
}

// Health reports whether the service and its store are reachable
func (h *Handler) Health(c *gin.Context) {
	if h.Ping != nil {
		if err := h.Ping(c.Request.Context()); err != nil {
			logger.FromGin(c).Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "service": h.Service})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": h.Service})
}
