package device

import "errors"

var (
	ErrDeviceNotFound        = errors.New("device not found")
	ErrDeviceAlreadyExists   = errors.New("device already exists")
	ErrDeviceInactive        = errors.New("device is inactive")
	ErrDevicePairedElsewhere = errors.New("device is paired with another owner")
	ErrInvalidDeviceID       = errors.New("invalid device id")
	ErrNotDeviceOwner        = errors.New("device belongs to another owner")
)
