package user

import (
	"context"

	domainDevice "pet-tracker/internal/domain/device"
	domainUser "pet-tracker/internal/domain/user"
	"pet-tracker/internal/logger"
	appErrors "pet-tracker/pkg/errors"
	"pet-tracker/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProfileChangeTrigger schedules a config re-publish for one device.
type ProfileChangeTrigger interface {
	TriggerProfileChange(deviceID string)
}

// Service manages the owner profile. Owner name and phone travel inside every device
// config, so a change is pushed to the owner's active devices.
type Service struct {
	userRepo   domainUser.Repository
	deviceRepo domainDevice.Repository
	trigger    ProfileChangeTrigger
}

func NewService(userRepo domainUser.Repository, deviceRepo domainDevice.Repository, trigger ProfileChangeTrigger) *Service {
	return &Service{
		userRepo:   userRepo,
		deviceRepo: deviceRepo,
		trigger:    trigger,
	}
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToUserResponse(u), nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*UserResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	fullName := u.FullName
	if req.FullName != nil {
		fullName = utils.SanitizeString(*req.FullName)
	}
	phone := u.PhoneNumber
	if req.PhoneNumber != nil {
		sanitized := utils.SanitizePhone(*req.PhoneNumber)
		phone = &sanitized
		if sanitized == "" {
			phone = nil
		}
	}

	changed := fullName != u.FullName || !samePhone(phone, u.PhoneNumber)
	if !changed {
		return ToUserResponse(u), nil
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, fullName, phone); err != nil {
		return nil, err
	}

	logger.Info("Profile updated",
		zap.String("user_id", userID.String()),
		zap.Bool("has_phone", phone != nil),
		zap.String("event", "profile_updated"),
	)
	s.notifyDevices(ctx, userID)

	updated, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToUserResponse(updated), nil
}

func (s *Service) notifyDevices(ctx context.Context, ownerID uuid.UUID) {
	devices, err := s.deviceRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		logger.Warn("Could not list owner devices for profile re-dispatch",
			zap.String("user_id", ownerID.String()),
			zap.Error(err),
		)
		return
	}
	for _, d := range devices {
		if d.IsActive {
			s.trigger.TriggerProfileChange(d.DeviceID)
		}
	}
}

func samePhone(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
