package models

import (
	"time"

	"github.com/google/uuid"
)

// DeviceModel represents the database model for paired trackers.
type DeviceModel struct {
	DeviceID         string     `gorm:"type:varchar(64);primaryKey"`
	PetID            uuid.UUID  `gorm:"type:uuid;not null;index"`
	OwnerID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	IsActive         bool       `gorm:"not null;index"`
	ConfigSent       bool       `gorm:"not null"`
	LastConfigSent   *time.Time `gorm:"type:timestamp"`
	LastConfigAck    *time.Time `gorm:"type:timestamp"`
	LastSeen         *time.Time `gorm:"type:timestamp"`
	BatteryLevel     *int       `gorm:"type:integer"`
	SignalStrength   *int       `gorm:"type:integer"`
	UpdateIntervalMs *int       `gorm:"type:integer"`
	CreatedAt        time.Time  `gorm:"not null"`
	UpdatedAt        time.Time  `gorm:"not null"`
}

func (DeviceModel) TableName() string {
	return "devices"
}
