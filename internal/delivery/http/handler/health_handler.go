package handler

import (
	"net/http"

	pkgmqtt "pet-tracker/pkg/mqtt"

	"github.com/gin-gonic/gin"
)

type DatabaseHealth interface {
	Health() error
}

type BrokerState interface {
	State() pkgmqtt.State
}

type HealthHandler struct {
	db     DatabaseHealth
	broker BrokerState
}

func NewHealthHandler(db DatabaseHealth, broker BrokerState) *HealthHandler {
	return &HealthHandler{db: db, broker: broker}
}

// Health reports unhealthy only when the database is down. A disconnected broker
// degrades config delivery but the reconnect loop recovers on its own.
func (h *HealthHandler) Health(c *gin.Context) {
	brokerState := h.broker.State()

	if err := h.db.Health(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"message": "Database connection failed",
			"mqtt":    brokerState.String(),
		})
		return
	}

	status := "healthy"
	if brokerState != pkgmqtt.StateConnected {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"message": "Service is running",
		"mqtt":    brokerState.String(),
	})
}
