package models

import (
	"time"

	"pet-tracker/internal/domain/pet"
	"pet-tracker/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PetModel stores a pet together with its safe zones as one JSON document column.
type PetModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	OwnerID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	Name      string         `gorm:"type:varchar(255);not null"`
	Species   string         `gorm:"type:varchar(100)"`
	Breed     string         `gorm:"type:varchar(100)"`
	SafeZones []pet.SafeZone `gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`

	// ZoneLimits is applied by BeforeSave. Zero means pet.DefaultLimits.
	ZoneLimits pet.Limits `gorm:"-"`
}

func (PetModel) TableName() string {
	return "pets"
}

// BeforeSave normalizes the zone collection on every write, whoever the caller is.
func (m *PetModel) BeforeSave(tx *gorm.DB) error {
	limits := m.ZoneLimits
	if limits == (pet.Limits{}) {
		limits = pet.DefaultLimits()
	}

	zones, report := pet.NormalizeSafeZones(m.SafeZones, limits)
	m.SafeZones = zones

	if report.OverWarning {
		logger.Warn("Pet has many safe zones",
			zap.String("pet_id", m.ID.String()),
			zap.Int("count", len(zones)),
			zap.Int("warn_threshold", limits.WarnThreshold),
		)
	}
	if report.Trimmed > 0 {
		logger.Warn("Trimmed oldest safe zones",
			zap.String("pet_id", m.ID.String()),
			zap.Int("removed", report.Trimmed),
			zap.Int("max_zones", limits.MaxZones),
		)
	}
	if report.RadiusClamped > 0 {
		logger.Debug("Clamped safe zone radius",
			zap.String("pet_id", m.ID.String()),
			zap.Int("zones", report.RadiusClamped),
		)
	}
	return nil
}
