package device

import (
	"context"
	"errors"

	"pet-tracker/internal/configsync"
	domainDevice "pet-tracker/internal/domain/device"
	domainPet "pet-tracker/internal/domain/pet"
	domainUser "pet-tracker/internal/domain/user"
	"pet-tracker/internal/logger"
	appErrors "pet-tracker/pkg/errors"
	"pet-tracker/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConfigDispatcher is the slice of the sync coordinator the device use cases drive.
type ConfigDispatcher interface {
	TriggerRegistration(deviceID string)
	Dispatch(ctx context.Context, deviceID string, trigger configsync.Trigger) error
	ResetConfig(ctx context.Context, deviceID string) error
}

// Service implements device use cases
type Service struct {
	deviceRepo domainDevice.Repository
	petRepo    domainPet.Repository
	userRepo   domainUser.Repository
	dispatcher ConfigDispatcher
}

// NewService creates a new device service
func NewService(deviceRepo domainDevice.Repository, petRepo domainPet.Repository, userRepo domainUser.Repository, dispatcher ConfigDispatcher) *Service {
	return &Service{
		deviceRepo: deviceRepo,
		petRepo:    petRepo,
		userRepo:   userRepo,
		dispatcher: dispatcher,
	}
}

// Register pairs a tracker with one of the owner's pets. Registering a device that is
// already known re-activates it; a device still active for another owner is refused.
func (s *Service) Register(ctx context.Context, ownerID uuid.UUID, req *RegisterDeviceRequest) (*DeviceResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	deviceID := utils.SanitizeDeviceID(req.DeviceID)
	if deviceID != req.DeviceID {
		return nil, domainDevice.ErrInvalidDeviceID
	}

	if err := ValidateOwner(ctx, s.userRepo, ownerID); err != nil {
		return nil, err
	}
	if err := ValidatePetOwnership(ctx, s.petRepo, ownerID, req.PetID); err != nil {
		return nil, err
	}

	existing, err := s.deviceRepo.GetByDeviceID(ctx, deviceID)
	switch {
	case errors.Is(err, domainDevice.ErrDeviceNotFound):
		err = s.deviceRepo.Create(ctx, &domainDevice.Device{
			DeviceID: deviceID,
			PetID:    req.PetID,
			OwnerID:  ownerID,
			IsActive: true,
		})
	case err != nil:
		return nil, err
	case existing.IsActive && existing.OwnerID != ownerID:
		return nil, domainDevice.ErrDevicePairedElsewhere
	default:
		err = s.deviceRepo.Reactivate(ctx, deviceID, req.PetID, ownerID)
	}
	if err != nil {
		return nil, err
	}

	registered, err := s.deviceRepo.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	logger.Info("Device registered",
		zap.String("device_id", deviceID),
		zap.String("pet_id", req.PetID.String()),
		zap.Bool("re_paired", existing != nil),
		zap.String("event", "device_registered"),
	)

	s.dispatcher.TriggerRegistration(deviceID)
	return ToDeviceResponse(registered), nil
}

func (s *Service) Get(ctx context.Context, ownerID uuid.UUID, deviceID string) (*DeviceResponse, error) {
	d, err := s.ownedDevice(ctx, ownerID, deviceID)
	if err != nil {
		return nil, err
	}
	return ToDeviceResponse(d), nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) (*DeviceListResponse, error) {
	devices, err := s.deviceRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	out := make([]DeviceResponse, len(devices))
	for i, d := range devices {
		out[i] = *ToDeviceResponse(d)
	}
	return &DeviceListResponse{Devices: out, Total: len(out)}, nil
}

// Deactivate stops all configuration traffic to the device. The pairing is kept.
func (s *Service) Deactivate(ctx context.Context, ownerID uuid.UUID, deviceID string) (*DeviceResponse, error) {
	if _, err := s.ownedDevice(ctx, ownerID, deviceID); err != nil {
		return nil, err
	}
	if err := s.deviceRepo.Deactivate(ctx, deviceID); err != nil {
		return nil, err
	}

	logger.Info("Device deactivated",
		zap.String("device_id", deviceID),
		zap.String("event", "device_deactivated"),
	)

	d, err := s.deviceRepo.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return ToDeviceResponse(d), nil
}

// Sync publishes the configuration now instead of waiting for the next trigger.
func (s *Service) Sync(ctx context.Context, ownerID uuid.UUID, deviceID string) (*DeviceResponse, error) {
	if _, err := s.ownedDevice(ctx, ownerID, deviceID); err != nil {
		return nil, err
	}
	if err := s.dispatcher.Dispatch(ctx, deviceID, configsync.TriggerManual); err != nil {
		if configsync.IsResolutionError(err) {
			return nil, appErrors.NewAppError(appErrors.CodeUnprocessable, "Device cannot be configured", err)
		}
		return nil, appErrors.NewAppError(appErrors.CodeUnavailable, "Config dispatch failed", err)
	}

	d, err := s.deviceRepo.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return ToDeviceResponse(d), nil
}

// ResetConfig is an admin operation: the retained config is cleared on the broker.
func (s *Service) ResetConfig(ctx context.Context, deviceID string) error {
	if err := s.dispatcher.ResetConfig(ctx, deviceID); err != nil {
		return err
	}
	logger.Info("Device config reset",
		zap.String("device_id", deviceID),
		zap.String("event", "device_config_reset"),
	)
	return nil
}

func (s *Service) ownedDevice(ctx context.Context, ownerID uuid.UUID, deviceID string) (*domainDevice.Device, error) {
	d, err := s.deviceRepo.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if d.OwnerID != ownerID {
		return nil, domainDevice.ErrNotDeviceOwner
	}
	return d, nil
}
