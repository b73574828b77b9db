package safezone

import (
	"context"
	"time"

	domainDevice "pet-tracker/internal/domain/device"
	domainPet "pet-tracker/internal/domain/pet"
	"pet-tracker/internal/logger"
	"pet-tracker/internal/metrics"
	appErrors "pet-tracker/pkg/errors"
	"pet-tracker/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AutoConfigTrigger is told about every device whose pet's zones changed.
type AutoConfigTrigger interface {
	TriggerAutoConfig(deviceID string)
}

// Service implements owner-facing safe zone use cases
type Service struct {
	petRepo    domainPet.Repository
	deviceRepo domainDevice.Repository
	trigger    AutoConfigTrigger
	limits     domainPet.Limits
	now        func() time.Time
}

func NewService(petRepo domainPet.Repository, deviceRepo domainDevice.Repository, trigger AutoConfigTrigger, limits domainPet.Limits) *Service {
	return &Service{
		petRepo:    petRepo,
		deviceRepo: deviceRepo,
		trigger:    trigger,
		limits:     limits,
		now:        time.Now,
	}
}

func (s *Service) List(ctx context.Context, ownerID, petID uuid.UUID) (*SafeZoneListResponse, error) {
	p, err := s.loadOwnedPet(ctx, ownerID, petID)
	if err != nil {
		return nil, err
	}
	return toListResponse(p.ID, p.SafeZones, s.limits), nil
}

func (s *Service) Create(ctx context.Context, ownerID, petID uuid.UUID, req *CreateSafeZoneRequest) (*SafeZoneResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	p, err := s.loadOwnedPet(ctx, ownerID, petID)
	if err != nil {
		return nil, err
	}

	zone := domainPet.SafeZone{
		ID:        uuid.New(),
		Name:      utils.SanitizeString(req.Name),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Radius:    *req.Radius,
		IsActive:  req.IsActive == nil || *req.IsActive,
		IsPrimary: req.IsPrimary,
		CreatedAt: s.now(),
	}
	p.AddSafeZone(zone)

	saved, err := s.commit(ctx, p, "create")
	if err != nil {
		return nil, err
	}
	return findZone(saved, zone.ID)
}

func (s *Service) Update(ctx context.Context, ownerID, petID, zoneID uuid.UUID, req *UpdateSafeZoneRequest) (*SafeZoneResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	p, err := s.loadOwnedPet(ctx, ownerID, petID)
	if err != nil {
		return nil, err
	}

	zone, err := p.SafeZone(zoneID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		zone.Name = utils.SanitizeString(*req.Name)
	}
	if req.Latitude != nil {
		zone.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		zone.Longitude = *req.Longitude
	}
	if req.Radius != nil {
		zone.Radius = *req.Radius
	}
	if req.IsActive != nil {
		zone.IsActive = *req.IsActive
	}

	saved, err := s.commit(ctx, p, "update")
	if err != nil {
		return nil, err
	}
	return findZone(saved, zoneID)
}

func (s *Service) Toggle(ctx context.Context, ownerID, petID, zoneID uuid.UUID) (*SafeZoneResponse, error) {
	p, err := s.loadOwnedPet(ctx, ownerID, petID)
	if err != nil {
		return nil, err
	}
	if _, err := p.ToggleSafeZone(zoneID); err != nil {
		return nil, err
	}

	saved, err := s.commit(ctx, p, "toggle")
	if err != nil {
		return nil, err
	}
	return findZone(saved, zoneID)
}

// SetPrimary is the explicit choice and always wins over the earliest-primary rule.
func (s *Service) SetPrimary(ctx context.Context, ownerID, petID, zoneID uuid.UUID) (*SafeZoneResponse, error) {
	p, err := s.loadOwnedPet(ctx, ownerID, petID)
	if err != nil {
		return nil, err
	}
	if err := p.SetPrimary(zoneID); err != nil {
		return nil, err
	}

	saved, err := s.commit(ctx, p, "set_primary")
	if err != nil {
		return nil, err
	}
	return findZone(saved, zoneID)
}

func (s *Service) Delete(ctx context.Context, ownerID, petID, zoneID uuid.UUID) error {
	p, err := s.loadOwnedPet(ctx, ownerID, petID)
	if err != nil {
		return err
	}
	if err := p.RemoveSafeZone(zoneID); err != nil {
		return err
	}

	_, err = s.commit(ctx, p, "delete")
	return err
}

func (s *Service) loadOwnedPet(ctx context.Context, ownerID, petID uuid.UUID) (*domainPet.Pet, error) {
	p, err := s.petRepo.GetByID(ctx, petID)
	if err != nil {
		return nil, err
	}
	if !p.IsOwnedBy(ownerID) {
		return nil, domainPet.ErrNotPetOwner
	}
	return p, nil
}

// commit saves the collection and nudges every active device of the pet.
func (s *Service) commit(ctx context.Context, p *domainPet.Pet, operation string) ([]domainPet.SafeZone, error) {
	saved, err := s.petRepo.SaveSafeZones(ctx, p.ID, p.SafeZones)
	if err != nil {
		return nil, err
	}
	metrics.SafeZoneMutations.WithLabelValues(operation).Inc()

	logger.Info("Safe zones changed",
		zap.String("pet_id", p.ID.String()),
		zap.String("operation", operation),
		zap.Int("zone_count", len(saved)),
		zap.String("event", "safe_zones_changed"),
	)

	s.notifyDevices(ctx, p.ID)
	return saved, nil
}

func (s *Service) notifyDevices(ctx context.Context, petID uuid.UUID) {
	devices, err := s.deviceRepo.ListActiveByPet(ctx, petID)
	if err != nil {
		// The next telemetry cycle delivers the change anyway.
		logger.Warn("Could not list devices for auto-config",
			zap.String("pet_id", petID.String()),
			zap.Error(err),
		)
		return
	}
	for _, d := range devices {
		s.trigger.TriggerAutoConfig(d.DeviceID)
	}
}

func findZone(zones []domainPet.SafeZone, zoneID uuid.UUID) (*SafeZoneResponse, error) {
	for i := range zones {
		if zones[i].ID == zoneID {
			return ToSafeZoneResponse(&zones[i]), nil
		}
	}
	return nil, domainPet.ErrSafeZoneNotFound
}
