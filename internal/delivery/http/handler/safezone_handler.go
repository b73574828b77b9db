package handler

import (
	"net/http"

	"pet-tracker/internal/usecase/safezone"
	"pet-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SafeZoneHandler struct {
	service *safezone.Service
}

func NewSafeZoneHandler(service *safezone.Service) *SafeZoneHandler {
	return &SafeZoneHandler{service: service}
}

func (h *SafeZoneHandler) RegisterRoutes(router *gin.RouterGroup) {
	zones := router.Group("/pets/:petId/safe-zones")
	{
		zones.GET("", h.ListSafeZones)
		zones.POST("", h.CreateSafeZone)
		zones.PUT("/:zoneId", h.UpdateSafeZone)
		zones.DELETE("/:zoneId", h.DeleteSafeZone)
		zones.POST("/:zoneId/toggle", h.ToggleSafeZone)
		zones.POST("/:zoneId/primary", h.SetPrimarySafeZone)
	}
}

// scope resolves the caller and the path ids. zoneID is uuid.Nil when the route has none.
func scope(c *gin.Context, withZone bool) (ownerID, petID, zoneID uuid.UUID, ok bool) {
	if ownerID, ok = requireUser(c); !ok {
		return
	}

	petID, err := uuid.Parse(c.Param("petId"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid pet ID")
		return ownerID, petID, zoneID, false
	}

	if withZone {
		zoneID, err = uuid.Parse(c.Param("zoneId"))
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid safe zone ID")
			return ownerID, petID, zoneID, false
		}
	}
	return ownerID, petID, zoneID, true
}

func (h *SafeZoneHandler) ListSafeZones(c *gin.Context) {
	ownerID, petID, _, ok := scope(c, false)
	if !ok {
		return
	}

	resp, err := h.service.List(c.Request.Context(), ownerID, petID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Safe zones retrieved successfully", resp)
}

func (h *SafeZoneHandler) CreateSafeZone(c *gin.Context) {
	ownerID, petID, _, ok := scope(c, false)
	if !ok {
		return
	}

	var req safezone.CreateSafeZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.Create(c.Request.Context(), ownerID, petID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Safe zone created successfully", resp)
}

func (h *SafeZoneHandler) UpdateSafeZone(c *gin.Context) {
	ownerID, petID, zoneID, ok := scope(c, true)
	if !ok {
		return
	}

	var req safezone.UpdateSafeZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.Update(c.Request.Context(), ownerID, petID, zoneID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Safe zone updated successfully", resp)
}

func (h *SafeZoneHandler) DeleteSafeZone(c *gin.Context) {
	ownerID, petID, zoneID, ok := scope(c, true)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), ownerID, petID, zoneID); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Safe zone deleted successfully", nil)
}

func (h *SafeZoneHandler) ToggleSafeZone(c *gin.Context) {
	ownerID, petID, zoneID, ok := scope(c, true)
	if !ok {
		return
	}

	resp, err := h.service.Toggle(c.Request.Context(), ownerID, petID, zoneID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Safe zone toggled successfully", resp)
}

func (h *SafeZoneHandler) SetPrimarySafeZone(c *gin.Context) {
	ownerID, petID, zoneID, ok := scope(c, true)
	if !ok {
		return
	}

	resp, err := h.service.SetPrimary(c.Request.Context(), ownerID, petID, zoneID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Primary safe zone updated", resp)
}
