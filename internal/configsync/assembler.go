package configsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pet-tracker/internal/domain/device"
	"pet-tracker/internal/domain/pet"
	"pet-tracker/internal/domain/user"
	pkgmqtt "pet-tracker/pkg/mqtt"
)

// Settings are the deployment values copied into every payload.
type Settings struct {
	ServerURL        string
	UpdateIntervalMs int
	BrokerHost       string
	BrokerPort       int
	Username         string
	Password         string
	Topics           pkgmqtt.Topics
}

// Resolution is everything a dispatch needs, read fresh from the store.
type Resolution struct {
	Device  *device.Device
	Pet     *pet.Pet
	Owner   *user.User
	Payload *ConfigPayload
}

// Assembler builds configuration payloads from live store state. It never caches.
type Assembler struct {
	devices  device.Repository
	pets     pet.Repository
	users    user.Repository
	settings Settings
	now      func() time.Time
}

func NewAssembler(devices device.Repository, pets pet.Repository, users user.Repository, settings Settings) *Assembler {
	return &Assembler{
		devices:  devices,
		pets:     pets,
		users:    users,
		settings: settings,
		now:      time.Now,
	}
}

// Assemble resolves the device, its pet and owner, and builds a payload.
// Any resolution failure returns an error and no payload.
func (a *Assembler) Assemble(ctx context.Context, deviceID string) (*Resolution, error) {
	dev, err := a.devices.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("resolve device: %w", err)
	}
	if !dev.IsActive {
		return nil, fmt.Errorf("resolve device: %w", device.ErrDeviceInactive)
	}

	p, err := a.pets.GetByID(ctx, dev.PetID)
	if err != nil {
		return nil, fmt.Errorf("resolve pet %s: %w", dev.PetID, err)
	}

	owner, err := a.users.GetByID(ctx, dev.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("resolve owner %s: %w", dev.OwnerID, err)
	}
	if owner.ContactPhone() == "" {
		return nil, fmt.Errorf("resolve owner %s: %w", owner.ID, user.ErrPhoneMissing)
	}

	// Re-read zones on their own so a concurrent owner edit is never missed.
	zones, err := a.pets.GetSafeZones(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("read safe zones: %w", err)
	}
	p.SafeZones = zones

	return &Resolution{
		Device:  dev,
		Pet:     p,
		Owner:   owner,
		Payload: BuildPayload(dev, p, owner, a.settings, a.now()),
	}, nil
}

// BuildPayload is the pure construction step.
func BuildPayload(dev *device.Device, p *pet.Pet, owner *user.User, settings Settings, now time.Time) *ConfigPayload {
	interval := settings.UpdateIntervalMs
	if dev.UpdateIntervalMs != nil && *dev.UpdateIntervalMs > 0 {
		interval = *dev.UpdateIntervalMs
	}

	payload := &ConfigPayload{
		DeviceID:       dev.DeviceID,
		PetID:          p.ID.String(),
		PetName:        p.Name,
		PhoneNumber:    owner.ContactPhone(),
		OwnerName:      owner.FullName,
		ServerURL:      settings.ServerURL,
		UpdateInterval: interval,
		Timestamp:      now.UnixMilli(),
		ConfigSentAt:   now.UTC().Format(time.RFC3339),
		DataFreshness:  DataFreshnessLive,
		MQTT: MQTTSettings{
			Broker:   settings.BrokerHost,
			Port:     settings.BrokerPort,
			Username: settings.Username,
			Password: settings.Password,
			Topics: TopicSet{
				Location: settings.Topics.Location(dev.DeviceID),
				Status:   settings.Topics.Status(dev.DeviceID),
				Alert:    settings.Topics.Alert(dev.DeviceID),
				Config:   settings.Topics.Config(dev.DeviceID),
			},
		},
	}

	if zone := SelectSafeZone(p.SafeZones); zone != nil {
		payload.SafeZone = &SafeZonePayload{
			Center:      Center{Lat: zone.Latitude, Lng: zone.Longitude},
			Radius:      zone.Radius,
			Name:        zone.Name,
			IsActive:    zone.IsActive,
			IsPrimary:   zone.IsPrimary,
			AutoCreated: zone.AutoCreated,
		}
	}

	return payload
}

// IsResolutionError reports whether err means the device cannot currently be configured,
// as opposed to a transient failure.
func IsResolutionError(err error) bool {
	for _, target := range []error{
		device.ErrDeviceNotFound,
		device.ErrDeviceInactive,
		pet.ErrPetNotFound,
		user.ErrUserNotFound,
		user.ErrPhoneMissing,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
