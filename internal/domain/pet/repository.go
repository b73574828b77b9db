package pet

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists pets. SaveSafeZones re-saves the whole zone collection and
// returns it as stored, after the consistency rules have run.
type Repository interface {
	Create(ctx context.Context, pet *Pet) error
	GetByID(ctx context.Context, petID uuid.UUID) (*Pet, error)
	GetSafeZones(ctx context.Context, petID uuid.UUID) ([]SafeZone, error)
	SaveSafeZones(ctx context.Context, petID uuid.UUID, zones []SafeZone) ([]SafeZone, error)
}
