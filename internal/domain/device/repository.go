package device

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the device registry. Every mutation is a single-row update.
type Repository interface {
	Create(ctx context.Context, device *Device) error
	GetByDeviceID(ctx context.Context, deviceID string) (*Device, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Device, error)
	ListActiveByPet(ctx context.Context, petID uuid.UUID) ([]*Device, error)
	Reactivate(ctx context.Context, deviceID string, petID, ownerID uuid.UUID) error
	Deactivate(ctx context.Context, deviceID string) error
	TouchLastSeen(ctx context.Context, deviceID string, hb Heartbeat) error
	MarkConfigSent(ctx context.Context, deviceID string, sentAt time.Time) error
	MarkConfigAcknowledged(ctx context.Context, deviceID string, ackAt time.Time) error
	ResetConfigSent(ctx context.Context, deviceID string) error
}
