package handler

import (
	"errors"
	"net/http"

	domainDevice "pet-tracker/internal/domain/device"
	domainPet "pet-tracker/internal/domain/pet"
	domainUser "pet-tracker/internal/domain/user"
	"pet-tracker/internal/middleware"
	appErrors "pet-tracker/pkg/errors"
	"pet-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// statusFor maps use-case errors onto HTTP status codes.
func statusFor(err error) int {
	switch appErrors.CodeOf(err) {
	case appErrors.CodeValidation:
		return http.StatusBadRequest
	case appErrors.CodeUnprocessable:
		return http.StatusUnprocessableEntity
	case appErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	}

	switch {
	case errors.Is(err, domainDevice.ErrDeviceNotFound),
		errors.Is(err, domainPet.ErrPetNotFound),
		errors.Is(err, domainPet.ErrSafeZoneNotFound),
		errors.Is(err, domainUser.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainDevice.ErrNotDeviceOwner),
		errors.Is(err, domainPet.ErrNotPetOwner),
		errors.Is(err, domainUser.ErrUserInactive):
		return http.StatusForbidden
	case errors.Is(err, domainDevice.ErrDevicePairedElsewhere),
		errors.Is(err, domainDevice.ErrDeviceAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domainDevice.ErrInvalidDeviceID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		middleware.RequestLogger(c).Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		if status == http.StatusInternalServerError {
			utils.ErrorResponse(c, status, "Internal server error")
			return
		}
	}
	utils.ErrorResponse(c, status, err.Error())
}

func requireUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
	}
	return id, ok
}
