package pet

import (
	"time"

	"github.com/google/uuid"
)

// Pet owns an ordered collection of safe zones.
type Pet struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Species   string
	Breed     string
	SafeZones []SafeZone
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOwnedBy reports whether userID owns the pet.
func (p *Pet) IsOwnedBy(userID uuid.UUID) bool {
	return p.OwnerID == userID
}

func (p *Pet) indexOf(zoneID uuid.UUID) int {
	for i := range p.SafeZones {
		if p.SafeZones[i].ID == zoneID {
			return i
		}
	}
	return -1
}

// SafeZone returns the zone with the given id.
func (p *Pet) SafeZone(zoneID uuid.UUID) (*SafeZone, error) {
	idx := p.indexOf(zoneID)
	if idx < 0 {
		return nil, ErrSafeZoneNotFound
	}
	return &p.SafeZones[idx], nil
}

// AddSafeZone appends a zone. A zone added as primary takes over from the current one.
func (p *Pet) AddSafeZone(zone SafeZone) {
	if zone.IsPrimary {
		p.clearPrimary()
	}
	p.SafeZones = append(p.SafeZones, zone)
}

// SetPrimary makes zoneID the single primary zone.
func (p *Pet) SetPrimary(zoneID uuid.UUID) error {
	idx := p.indexOf(zoneID)
	if idx < 0 {
		return ErrSafeZoneNotFound
	}
	p.clearPrimary()
	p.SafeZones[idx].IsPrimary = true
	return nil
}

// ToggleSafeZone flips the active flag and returns the new value.
func (p *Pet) ToggleSafeZone(zoneID uuid.UUID) (bool, error) {
	idx := p.indexOf(zoneID)
	if idx < 0 {
		return false, ErrSafeZoneNotFound
	}
	p.SafeZones[idx].IsActive = !p.SafeZones[idx].IsActive
	return p.SafeZones[idx].IsActive, nil
}

// RemoveSafeZone deletes a zone, keeping the order of the rest.
func (p *Pet) RemoveSafeZone(zoneID uuid.UUID) error {
	idx := p.indexOf(zoneID)
	if idx < 0 {
		return ErrSafeZoneNotFound
	}
	p.SafeZones = append(p.SafeZones[:idx], p.SafeZones[idx+1:]...)
	return nil
}

func (p *Pet) clearPrimary() {
	for i := range p.SafeZones {
		p.SafeZones[i].IsPrimary = false
	}
}
