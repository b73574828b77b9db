package device

import (
	"time"

	domainDevice "pet-tracker/internal/domain/device"

	"github.com/google/uuid"
)

type RegisterDeviceRequest struct {
	DeviceID string    `json:"device_id" validate:"required,min=3,max=64"`
	PetID    uuid.UUID `json:"pet_id" validate:"required"`
}

type DeviceResponse struct {
	DeviceID         string     `json:"device_id"`
	PetID            uuid.UUID  `json:"pet_id"`
	OwnerID          uuid.UUID  `json:"owner_id"`
	IsActive         bool       `json:"is_active"`
	IsOnline         bool       `json:"is_online"`
	ConfigSent       bool       `json:"config_sent"`
	LastConfigSent   *time.Time `json:"last_config_sent"`
	LastConfigAck    *time.Time `json:"last_config_ack"`
	LastSeen         *time.Time `json:"last_seen"`
	BatteryLevel     *int       `json:"battery_level"`
	SignalStrength   *int       `json:"signal_strength"`
	UpdateIntervalMs *int       `json:"update_interval_ms"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type DeviceListResponse struct {
	Devices []DeviceResponse `json:"devices"`
	Total   int              `json:"total"`
}

func ToDeviceResponse(d *domainDevice.Device) *DeviceResponse {
	if d == nil {
		return nil
	}
	return &DeviceResponse{
		DeviceID:         d.DeviceID,
		PetID:            d.PetID,
		OwnerID:          d.OwnerID,
		IsActive:         d.IsActive,
		IsOnline:         d.IsOnline(),
		ConfigSent:       d.ConfigSent,
		LastConfigSent:   d.LastConfigSent,
		LastConfigAck:    d.LastConfigAck,
		LastSeen:         d.LastSeen,
		BatteryLevel:     d.BatteryLevel,
		SignalStrength:   d.SignalStrength,
		UpdateIntervalMs: d.UpdateIntervalMs,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}
