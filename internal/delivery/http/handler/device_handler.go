package handler

import (
	"net/http"

	"pet-tracker/internal/usecase/device"
	"pet-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	service *device.Service
}

func NewDeviceHandler(service *device.Service) *DeviceHandler {
	return &DeviceHandler{service: service}
}

func (h *DeviceHandler) RegisterRoutes(router *gin.RouterGroup) {
	devices := router.Group("/devices")
	{
		devices.POST("", h.RegisterDevice)
		devices.GET("", h.ListDevices)
		devices.GET("/:deviceId", h.GetDevice)
		devices.POST("/:deviceId/deactivate", h.DeactivateDevice)
		devices.POST("/:deviceId/sync", h.SyncDevice)
	}
}

func (h *DeviceHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	devices := router.Group("/devices")
	{
		devices.DELETE("/:deviceId/config", h.ResetConfig)
	}
}

func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	ownerID, ok := requireUser(c)
	if !ok {
		return
	}

	var req device.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.Register(c.Request.Context(), ownerID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Device registered successfully", resp)
}

func (h *DeviceHandler) ListDevices(c *gin.Context) {
	ownerID, ok := requireUser(c)
	if !ok {
		return
	}

	resp, err := h.service.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Devices retrieved successfully", resp)
}

func (h *DeviceHandler) GetDevice(c *gin.Context) {
	ownerID, ok := requireUser(c)
	if !ok {
		return
	}

	resp, err := h.service.Get(c.Request.Context(), ownerID, c.Param("deviceId"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device retrieved successfully", resp)
}

func (h *DeviceHandler) DeactivateDevice(c *gin.Context) {
	ownerID, ok := requireUser(c)
	if !ok {
		return
	}

	resp, err := h.service.Deactivate(c.Request.Context(), ownerID, c.Param("deviceId"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device deactivated successfully", resp)
}

func (h *DeviceHandler) SyncDevice(c *gin.Context) {
	ownerID, ok := requireUser(c)
	if !ok {
		return
	}

	resp, err := h.service.Sync(c.Request.Context(), ownerID, c.Param("deviceId"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device configuration published", resp)
}

func (h *DeviceHandler) ResetConfig(c *gin.Context) {
	if err := h.service.ResetConfig(c.Request.Context(), c.Param("deviceId")); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Retained configuration cleared", nil)
}
