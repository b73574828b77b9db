package pet

import "errors"

var (
	ErrPetNotFound      = errors.New("pet not found")
	ErrSafeZoneNotFound = errors.New("safe zone not found")
	ErrNotPetOwner      = errors.New("pet belongs to another owner")
)
