package device

import (
	"time"

	"github.com/google/uuid"
)

// Device is a tracker unit paired with one pet and one owner.
type Device struct {
	DeviceID         string
	PetID            uuid.UUID
	OwnerID          uuid.UUID
	IsActive         bool
	ConfigSent       bool
	LastConfigSent   *time.Time
	LastConfigAck    *time.Time
	LastSeen         *time.Time
	BatteryLevel     *int
	SignalStrength   *int
	UpdateIntervalMs *int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsOnline checks if the device is online (last seen within 5 minutes)
func (d *Device) IsOnline() bool {
	if d.LastSeen == nil {
		return false
	}
	return time.Since(*d.LastSeen) < 5*time.Minute
}

// Heartbeat carries the optional readings that accompany a lastSeen refresh.
type Heartbeat struct {
	SeenAt         time.Time
	BatteryLevel   *int
	SignalStrength *int
}
