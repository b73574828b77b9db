package handler

import (
	"net/http"

	"pet-tracker/internal/ingestion"
	"pet-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SyncStatsSource exposes the live sync counters.
type SyncStatsSource interface {
	Stats() ingestion.SyncStats
	PendingDispatches() int
}

type SyncStatsResponse struct {
	ingestion.SyncStats
	PendingDispatches int    `json:"pendingDispatches"`
	BrokerState       string `json:"brokerState"`
}

type AdminHandler struct {
	stats  SyncStatsSource
	broker BrokerState
}

func NewAdminHandler(stats SyncStatsSource, broker BrokerState) *AdminHandler {
	return &AdminHandler{stats: stats, broker: broker}
}

func (h *AdminHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	router.GET("/sync/stats", h.GetSyncStats)
}

func (h *AdminHandler) GetSyncStats(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Sync statistics retrieved successfully", SyncStatsResponse{
		SyncStats:         h.stats.Stats(),
		PendingDispatches: h.stats.PendingDispatches(),
		BrokerState:       h.broker.State().String(),
	})
}
