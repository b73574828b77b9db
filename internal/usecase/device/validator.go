package device

import (
	"context"

	domainPet "pet-tracker/internal/domain/pet"
	domainUser "pet-tracker/internal/domain/user"

	"github.com/google/uuid"
)

// ValidateOwner checks that the owner exists and is active
func ValidateOwner(ctx context.Context, userRepo domainUser.Repository, ownerID uuid.UUID) error {
	owner, err := userRepo.GetByID(ctx, ownerID)
	if err != nil {
		return err
	}
	if !owner.IsActive {
		return domainUser.ErrUserInactive
	}
	return nil
}

// ValidatePetOwnership checks that petID belongs to ownerID
func ValidatePetOwnership(ctx context.Context, petRepo domainPet.Repository, ownerID, petID uuid.UUID) error {
	p, err := petRepo.GetByID(ctx, petID)
	if err != nil {
		return err
	}
	if !p.IsOwnedBy(ownerID) {
		return domainPet.ErrNotPetOwner
	}
	return nil
}
