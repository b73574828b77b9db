package postgres

import (
	"context"
	"fmt"
	"time"

	domainTelemetry "pet-tracker/internal/domain/telemetry"
	"pet-tracker/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
)

// TelemetryRepository appends location samples to pet_locations.
type TelemetryRepository struct {
	db *DB
}

func NewTelemetryRepository(db *DB) domainTelemetry.Repository {
	return &TelemetryRepository{db: db}
}

func (r *TelemetryRepository) Append(ctx context.Context, s *domainTelemetry.Sample) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.RecordedAt.IsZero() {
		s.RecordedAt = time.Now()
	}

	dbModel := &models.PetLocationModel{
		ID:             s.ID,
		PetID:          s.PetID,
		DeviceID:       s.DeviceID,
		RecordedAt:     s.RecordedAt,
		Latitude:       s.Latitude,
		Longitude:      s.Longitude,
		Speed:          s.Speed,
		Accuracy:       s.Accuracy,
		BatteryLevel:   s.BatteryLevel,
		SignalStrength: s.SignalStrength,
	}
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to insert location: %w", err)
	}
	return nil
}

// ListByPet returns the newest samples first.
func (r *TelemetryRepository) ListByPet(ctx context.Context, petID uuid.UUID, limit int) ([]*domainTelemetry.Sample, error) {
	if limit <= 0 {
		limit = 100
	}

	var dbModels []models.PetLocationModel
	err := r.db.DB.WithContext(ctx).
		Where("pet_id = ?", petID).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}

	samples := make([]*domainTelemetry.Sample, 0, len(dbModels))
	for _, m := range dbModels {
		samples = append(samples, &domainTelemetry.Sample{
			ID:             m.ID,
			PetID:          m.PetID,
			DeviceID:       m.DeviceID,
			RecordedAt:     m.RecordedAt,
			Latitude:       m.Latitude,
			Longitude:      m.Longitude,
			Speed:          m.Speed,
			Accuracy:       m.Accuracy,
			BatteryLevel:   m.BatteryLevel,
			SignalStrength: m.SignalStrength,
		})
	}
	return samples, nil
}
