package safezone

import (
	"time"

	domainPet "pet-tracker/internal/domain/pet"

	"github.com/google/uuid"
)

// Radius must be present but is not range-checked. Out-of-range values, zero included,
// are clamped when the pet is saved.
type CreateSafeZoneRequest struct {
	Name      string   `json:"name" validate:"required,min=1,max=100"`
	Latitude  float64  `json:"latitude" validate:"latitude"`
	Longitude float64  `json:"longitude" validate:"longitude"`
	Radius    *float64 `json:"radius" validate:"required"`
	IsActive  *bool    `json:"is_active"`
	IsPrimary bool     `json:"is_primary"`
}

type UpdateSafeZoneRequest struct {
	Name      *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
	Radius    *float64 `json:"radius"`
	IsActive  *bool    `json:"is_active"`
}

type SafeZoneResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Radius      float64   `json:"radius"`
	IsActive    bool      `json:"is_active"`
	IsPrimary   bool      `json:"is_primary"`
	AutoCreated bool      `json:"auto_created"`
	CreatedAt   time.Time `json:"created_at"`
}

type SafeZoneListResponse struct {
	PetID     uuid.UUID          `json:"pet_id"`
	SafeZones []SafeZoneResponse `json:"safe_zones"`
	Count     int                `json:"count"`
	Warning   string             `json:"warning,omitempty"`
}

func ToSafeZoneResponse(z *domainPet.SafeZone) *SafeZoneResponse {
	if z == nil {
		return nil
	}
	return &SafeZoneResponse{
		ID:          z.ID,
		Name:        z.Name,
		Latitude:    z.Latitude,
		Longitude:   z.Longitude,
		Radius:      z.Radius,
		IsActive:    z.IsActive,
		IsPrimary:   z.IsPrimary,
		AutoCreated: z.AutoCreated,
		CreatedAt:   z.CreatedAt,
	}
}

func toListResponse(petID uuid.UUID, zones []domainPet.SafeZone, limits domainPet.Limits) *SafeZoneListResponse {
	out := make([]SafeZoneResponse, len(zones))
	for i := range zones {
		out[i] = *ToSafeZoneResponse(&zones[i])
	}

	resp := &SafeZoneListResponse{
		PetID:     petID,
		SafeZones: out,
		Count:     len(out),
	}
	if limits.WarnThreshold > 0 && len(out) > limits.WarnThreshold {
		resp.Warning = "pet has more safe zones than recommended; the oldest are removed beyond the maximum"
	}
	return resp
}
