package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for owner lookups
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, fullName string, phoneNumber *string) error
}
