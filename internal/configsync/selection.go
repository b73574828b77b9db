package configsync

import "pet-tracker/internal/domain/pet"

// SelectSafeZone picks the zone a device should honor, in priority order:
// active and primary, then active, then primary, then the first zone. Nil when empty.
func SelectSafeZone(zones []pet.SafeZone) *pet.SafeZone {
	if len(zones) == 0 {
		return nil
	}

	rules := []func(pet.SafeZone) bool{
		func(z pet.SafeZone) bool { return z.IsActive && z.IsPrimary },
		func(z pet.SafeZone) bool { return z.IsActive },
		func(z pet.SafeZone) bool { return z.IsPrimary },
	}
	for _, match := range rules {
		for i := range zones {
			if match(zones[i]) {
				return &zones[i]
			}
		}
	}
	return &zones[0]
}
