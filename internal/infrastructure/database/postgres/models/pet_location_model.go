package models

import (
	"time"

	"github.com/google/uuid"
)

// PetLocationModel is one row of the append-only telemetry table.
type PetLocationModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	PetID          uuid.UUID `gorm:"type:uuid;not null;index:idx_pet_locations_pet_time,priority:1"`
	DeviceID       string    `gorm:"type:varchar(64);not null;index"`
	RecordedAt     time.Time `gorm:"not null;index:idx_pet_locations_pet_time,priority:2"`
	Latitude       float64   `gorm:"not null"`
	Longitude      float64   `gorm:"not null"`
	Speed          *float64
	Accuracy       *float64
	BatteryLevel   *int      `gorm:"type:integer"`
	SignalStrength *int      `gorm:"type:integer"`
	CreatedAt      time.Time `gorm:"not null"`
}

func (PetLocationModel) TableName() string {
	return "pet_locations"
}
