package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// Sample is one location reading reported by a tracker. Samples are never updated.
type Sample struct {
	ID             uuid.UUID
	PetID          uuid.UUID
	DeviceID       string
	RecordedAt     time.Time
	Latitude       float64
	Longitude      float64
	Speed          *float64
	Accuracy       *float64
	BatteryLevel   *int
	SignalStrength *int
}
