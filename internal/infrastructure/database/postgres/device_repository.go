package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainDevice "pet-tracker/internal/domain/device"
	"pet-tracker/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeviceRepository implements domainDevice.Repository
type DeviceRepository struct {
	db *DB
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *DB) domainDevice.Repository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) Create(ctx context.Context, d *domainDevice.Device) error {
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now

	dbModel := toDeviceModel(d)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		if isDuplicateKey(err) {
			return domainDevice.ErrDeviceAlreadyExists
		}
		return fmt.Errorf("failed to create device: %w", err)
	}

	return nil
}

func (r *DeviceRepository) GetByDeviceID(ctx context.Context, deviceID string) (*domainDevice.Device, error) {
	var dbModel models.DeviceModel
	err := r.db.DB.WithContext(ctx).
		Where("device_id = ?", deviceID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainDevice.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return toDeviceEntity(&dbModel), nil
}

func (r *DeviceRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domainDevice.Device, error) {
	var dbModels []models.DeviceModel
	err := r.db.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	return toDeviceEntities(dbModels), nil
}

func (r *DeviceRepository) ListActiveByPet(ctx context.Context, petID uuid.UUID) ([]*domainDevice.Device, error) {
	var dbModels []models.DeviceModel
	err := r.db.DB.WithContext(ctx).
		Where("pet_id = ? AND is_active = ?", petID, true).
		Order("created_at ASC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pet devices: %w", err)
	}

	return toDeviceEntities(dbModels), nil
}

// Reactivate re-pairs an existing device. The retained config is stale after a re-pair,
// so configSent is cleared.
func (r *DeviceRepository) Reactivate(ctx context.Context, deviceID string, petID, ownerID uuid.UUID) error {
	return r.update(ctx, deviceID, "reactivate device", map[string]interface{}{
		"pet_id":      petID,
		"owner_id":    ownerID,
		"is_active":   true,
		"config_sent": false,
	})
}

func (r *DeviceRepository) Deactivate(ctx context.Context, deviceID string) error {
	return r.update(ctx, deviceID, "deactivate device", map[string]interface{}{
		"is_active": false,
	})
}

func (r *DeviceRepository) TouchLastSeen(ctx context.Context, deviceID string, hb domainDevice.Heartbeat) error {
	seenAt := hb.SeenAt
	if seenAt.IsZero() {
		seenAt = time.Now()
	}

	updates := map[string]interface{}{
		"last_seen": seenAt,
	}
	if hb.BatteryLevel != nil {
		updates["battery_level"] = *hb.BatteryLevel
	}
	if hb.SignalStrength != nil {
		updates["signal_strength"] = *hb.SignalStrength
	}

	return r.update(ctx, deviceID, "update last seen", updates)
}

func (r *DeviceRepository) MarkConfigSent(ctx context.Context, deviceID string, sentAt time.Time) error {
	return r.update(ctx, deviceID, "mark config sent", map[string]interface{}{
		"config_sent":      true,
		"last_config_sent": sentAt,
	})
}

func (r *DeviceRepository) MarkConfigAcknowledged(ctx context.Context, deviceID string, ackAt time.Time) error {
	return r.update(ctx, deviceID, "mark config acknowledged", map[string]interface{}{
		"last_config_ack": ackAt,
	})
}

func (r *DeviceRepository) ResetConfigSent(ctx context.Context, deviceID string) error {
	return r.update(ctx, deviceID, "reset config sent", map[string]interface{}{
		"config_sent": false,
	})
}

// update applies a single-row field update and maps zero rows to ErrDeviceNotFound.
func (r *DeviceRepository) update(ctx context.Context, deviceID, op string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result := r.db.DB.WithContext(ctx).
		Model(&models.DeviceModel{}).
		Where("device_id = ?", deviceID).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to %s: %w", op, result.Error)
	}
	if result.RowsAffected == 0 {
		return domainDevice.ErrDeviceNotFound
	}

	return nil
}

func toDeviceModel(d *domainDevice.Device) *models.DeviceModel {
	return &models.DeviceModel{
		DeviceID:         d.DeviceID,
		PetID:            d.PetID,
		OwnerID:          d.OwnerID,
		IsActive:         d.IsActive,
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

func toDeviceEntity(m *models.DeviceModel) *domainDevice.Device {
	return &domainDevice.Device{
		DeviceID:         m.DeviceID,
		PetID:            m.PetID,
		OwnerID:          m.OwnerID,
		IsActive:         m.IsActive,
		ConfigSent:       m.ConfigSent,
		LastConfigSent:   m.LastConfigSent,
		LastConfigAck:    m.LastConfigAck,
		LastSeen:         m.LastSeen,
		BatteryLevel:     m.BatteryLevel,
		SignalStrength:   m.SignalStrength,
		UpdateIntervalMs: m.UpdateIntervalMs,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func toDeviceEntities(ms []models.DeviceModel) []*domainDevice.Device {
	devices := make([]*domainDevice.Device, 0, len(ms))
	for i := range ms {
		devices = append(devices, toDeviceEntity(&ms[i]))
	}
	return devices
}
