package telemetry

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the append-only telemetry store.
type Repository interface {
	Append(ctx context.Context, sample *Sample) error
	ListByPet(ctx context.Context, petID uuid.UUID, limit int) ([]*Sample, error)
}
