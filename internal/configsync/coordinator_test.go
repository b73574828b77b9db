package configsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-tracker/internal/configsync/mocks"
	"pet-tracker/internal/domain/device"
	"pet-tracker/internal/domain/pet"
	"pet-tracker/internal/domain/telemetry"
	"pet-tracker/internal/domain/user"
	"pet-tracker/internal/infrastructure/database/postgres"
	"pet-tracker/internal/ingestion"
	"pet-tracker/internal/metrics"
	pkgmqtt "pet-tracker/pkg/mqtt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/matryer/is"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"
)

const testDeviceID = "PT-0001"

type fixture struct {
	devices device.Repository
	pets    pet.Repository
	users   user.Repository
	samples telemetry.Repository
	pub     *mocks.MockPublisher
	coord   *Coordinator
	asm     *Assembler
	owner   *user.User
	pet     *pet.Pet
}

func newFixture(t *testing.T, phone *string, delay time.Duration) *fixture {
	t.Helper()
	is := is.New(t)
	ctx := context.Background()

	db, err := postgres.NewSQLiteDB()
	is.NoErr(err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		devices: postgres.NewDeviceRepository(db),
		pets:    postgres.NewPetRepository(db, pet.DefaultLimits()),
		users:   postgres.NewUserRepository(db),
		samples: postgres.NewTelemetryRepository(db),
	}

	f.owner = &user.User{Email: "owner@example.com", FullName: "Nguyen Van A", PhoneNumber: phone, Role: user.RoleOwner, IsActive: true}
	is.NoErr(f.users.Create(ctx, f.owner))
	f.pet = &pet.Pet{OwnerID: f.owner.ID, Name: "Milo", Species: "dog"}
	is.NoErr(f.pets.Create(ctx, f.pet))
	is.NoErr(f.devices.Create(ctx, &device.Device{DeviceID: testDeviceID, PetID: f.pet.ID, OwnerID: f.owner.ID, IsActive: true}))

	topics := pkgmqtt.Topics{Prefix: "pets"}
	f.asm = NewAssembler(f.devices, f.pets, f.users, Settings{
		ServerURL:        "https://api.example.com",
		UpdateIntervalMs: 30000,
		BrokerHost:       "mqtt.example.com",
		BrokerPort:       1883,
		Topics:           topics,
	})

	ctrl := gomock.NewController(t)
	f.pub = mocks.NewMockPublisher(ctrl)
	f.coord = NewCoordinator(f.devices, f.samples, f.asm, f.pub, Options{DispatchDelay: delay, Topics: topics})
	t.Cleanup(f.coord.Close)

	return f
}

func phone(s string) *string { return &s }

func (f *fixture) capture(times int) chan []byte {
	ch := make(chan []byte, times+1)
	f.pub.EXPECT().
		PublishRetained("pets/"+testDeviceID+"/config", gomock.Any()).
		DoAndReturn(func(_ string, body []byte) error {
			ch <- body
			return nil
		}).
		Times(times)
	return ch
}

func receive(t *testing.T, ch chan []byte, within time.Duration) []byte {
	t.Helper()
	select {
	case body := <-ch:
		return body
	case <-time.After(within):
		t.Fatalf("no config published within %v", within)
		return nil
	}
}

func TestLocationWithoutZonesPublishesConfigWithoutSafeZone(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	f := newFixture(t, phone("+84912345678"), time.Second)
	published := f.capture(1)

	battery := 88
	err := f.coord.HandleLocation(ctx, testDeviceID, &ingestion.LocationMessage{
		Latitude: 10.77, Longitude: 106.69, BatteryLevel: &battery, RecordedAt: time.Now(),
	})
	is.NoErr(err)

	body := receive(t, published, time.Second)
	var raw map[string]any
	is.NoErr(json.Unmarshal(body, &raw))
	_, hasZone := raw["safeZone"]
	is.True(!hasZone)

	var payload ConfigPayload
	is.NoErr(json.Unmarshal(body, &payload))
	is.Equal(payload.DeviceID, testDeviceID)
	is.Equal(payload.PhoneNumber, "+84912345678")
	is.Equal(payload.PetName, "Milo")
	is.Equal(payload.UpdateInterval, 30000)
	is.Equal(payload.DataFreshness, DataFreshnessLive)
	is.Equal(payload.MQTT.Topics.Config, "pets/PT-0001/config")

	dev, err := f.devices.GetByDeviceID(ctx, testDeviceID)
	is.NoErr(err)
	is.True(dev.ConfigSent)
	is.True(dev.LastConfigSent != nil)
	is.True(dev.LastSeen != nil)
	is.Equal(*dev.BatteryLevel, 88)

	samples, err := f.samples.ListByPet(ctx, f.pet.ID, 10)
	is.NoErr(err)
	is.Equal(len(samples), 1)
	is.Equal(f.coord.Stats().ConfigsDispatched, int64(1))
}

func TestEachLocationStoresOneSampleAndPublishesOnce(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	f := newFixture(t, phone("+84912345678"), time.Second)
	f.capture(5)

	for i := 0; i < 5; i++ {
		is.NoErr(f.coord.HandleLocation(ctx, testDeviceID, &ingestion.LocationMessage{
			Latitude: 10 + float64(i)*0.001, Longitude: 106, RecordedAt: time.Now(),
		}))
	}

	samples, err := f.samples.ListByPet(ctx, f.pet.ID, 10)
	is.NoErr(err)
	is.Equal(len(samples), 5)
}

func TestSafeZoneEditPublishesAfterDelay(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	f := newFixture(t, phone("+84912345678"), 20*time.Millisecond)
	published := f.capture(1)

	_, err := f.pets.SaveSafeZones(ctx, f.pet.ID, []pet.SafeZone{{
		ID: uuid.New(), Name: "Home", Latitude: 10.0, Longitude: 106.0, Radius: 50, IsActive: true, CreatedAt: time.Now(),
	}})
	is.NoErr(err)

	start := time.Now()
	f.coord.TriggerAutoConfig(testDeviceID)
	is.Equal(f.coord.PendingDispatches(), 1)

	body := receive(t, published, 2*time.Second)
	is.True(time.Since(start) >= 20*time.Millisecond)

	var payload ConfigPayload
	is.NoErr(json.Unmarshal(body, &payload))
	is.True(payload.SafeZone != nil)
	is.Equal(payload.SafeZone.Radius, 50.0)
	is.True(payload.SafeZone.IsPrimary) // first zone is implicitly primary
	is.Equal(payload.SafeZone.Center, Center{Lat: 10.0, Lng: 106.0})
}

func TestInactiveDeviceIsNeverConfigured(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	f := newFixture(t, phone("+84912345678"), 5*time.Millisecond)
	// no PublishRetained expectation: any publish fails the test

	is.NoErr(f.devices.Deactivate(ctx, testDeviceID))
	before, err := f.devices.GetByDeviceID(ctx, testDeviceID)
	is.NoErr(err)

	is.NoErr(f.coord.HandleLocation(ctx, testDeviceID, &ingestion.LocationMessage{Latitude: 1, Longitude: 1, RecordedAt: time.Now()}))
	is.NoErr(f.coord.HandleStatus(ctx, testDeviceID, &ingestion.StatusReport{NeedConfig: true}))
	is.NoErr(f.coord.HandleConfigRequest(ctx, testDeviceID))
	f.coord.TriggerAutoConfig(testDeviceID)
	time.Sleep(30 * time.Millisecond)

	err = f.coord.Dispatch(ctx, testDeviceID, TriggerManual)
	is.True(errors.Is(err, device.ErrDeviceInactive))

	after, err := f.devices.GetByDeviceID(ctx, testDeviceID)
	is.NoErr(err)
	is.True(after.UpdatedAt.Equal(before.UpdatedAt))
	is.Equal(after.LastSeen, nil)
	is.True(!after.ConfigSent)

	samples, err := f.samples.ListByPet(ctx, f.pet.ID, 10)
	is.NoErr(err)
	is.Equal(len(samples), 0)
}

func TestUnknownDeviceIsDropped(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	f := newFixture(t, phone("+84912345678"), time.Second)

	is.NoErr(f.coord.HandleLocation(ctx, "PT-9999", &ingestion.LocationMessage{Latitude: 1, Longitude: 1, RecordedAt: time.Now()}))
	err := f.coord.Dispatch(ctx, "PT-9999", TriggerManual)
	is.True(errors.Is(err, device.ErrDeviceNotFound))
	is.True(IsResolutionError(err))
}

func TestOwnerWithoutPhoneAbortsDispatch(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	f := newFixture(t, nil, time.Second)

	is.NoErr(f.coord.HandleConfigRequest(ctx, testDeviceID))

	err := f.coord.Dispatch(ctx, testDeviceID, TriggerManual)
	is.True(errors.Is(err, user.ErrPhoneMissing))

	dev, err := f.devices.GetByDeviceID(ctx, testDeviceID)
	is.NoErr(err)
	is.True(!dev.ConfigSent)
	is.Equal(f.coord.Stats().DispatchesSkipped, int64(2))
}

func TestConfigRequestDispatchesImmediately(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	f := newFixture(t, phone("+84912345678"), time.Hour)
	published := f.capture(1)

	is.NoErr(f.coord.HandleConfigRequest(ctx, testDeviceID))
	receive(t, published, 100*time.Millisecond)
	is.Equal(f.coord.PendingDispatches(), 0)
}

func TestStatusSchedulesOnlyWhenConfigNeeded(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	f := newFixture(t, phone("+84912345678"), time.Hour)

	signal := -67
	// never configured: schedule
	is.NoErr(f.coord.HandleStatus(ctx, testDeviceID, &ingestion.StatusReport{SignalStrength: &signal}))
	is.Equal(f.coord.PendingDispatches(), 1)

	is.NoErr(f.devices.MarkConfigSent(ctx, testDeviceID, time.Now()))

	// configured and not asking: nothing
	is.NoErr(f.coord.HandleStatus(ctx, testDeviceID, &ingestion.StatusReport{ConfigReceived: true}))
	is.Equal(f.coord.PendingDispatches(), 1)

	// explicit flag: schedule again, earlier task is not cancelled
	is.NoErr(f.coord.HandleStatus(ctx, testDeviceID, &ingestion.StatusReport{NeedConfig: true}))
	is.Equal(f.coord.PendingDispatches(), 2)

	dev, err := f.devices.GetByDeviceID(ctx, testDeviceID)
	is.NoErr(err)
	is.Equal(*dev.SignalStrength, -67)
	is.True(dev.LastConfigAck != nil)
}

func TestStatusDelayedDispatchPublishes(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	f := newFixture(t, phone("+84912345678"), 10*time.Millisecond)
	published := f.capture(1)

	is.NoErr(f.coord.HandleStatus(ctx, testDeviceID, &ingestion.StatusReport{}))
	receive(t, published, 2*time.Second)
}

func TestPublishFailureLeavesDeviceUnconfigured(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	f := newFixture(t, phone("+84912345678"), time.Second)
	f.pub.EXPECT().PublishRetained(gomock.Any(), gomock.Any()).Return(pkgmqtt.ErrNotConnected)

	err := f.coord.Dispatch(ctx, testDeviceID, TriggerManual)
	is.True(errors.Is(err, pkgmqtt.ErrNotConnected))

	dev, err := f.devices.GetByDeviceID(ctx, testDeviceID)
	is.NoErr(err)
	is.True(!dev.ConfigSent)
	is.Equal(f.coord.Stats().DispatchesFailed, int64(1))
}

func TestResetConfigClearsRetainedMessage(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	f := newFixture(t, phone("+84912345678"), time.Second)
	is.NoErr(f.devices.MarkConfigSent(ctx, testDeviceID, time.Now()))

	f.pub.EXPECT().ClearRetained("pets/PT-0001/config").Return(nil)
	is.NoErr(f.coord.ResetConfig(ctx, testDeviceID))

	dev, err := f.devices.GetByDeviceID(ctx, testDeviceID)
	is.NoErr(err)
	is.True(!dev.ConfigSent)

	is.True(errors.Is(f.coord.ResetConfig(ctx, "PT-9999"), device.ErrDeviceNotFound))
}

func TestAssembleIsIdempotentExceptFreshness(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	f := newFixture(t, phone("+84912345678"), time.Second)

	_, err := f.pets.SaveSafeZones(ctx, f.pet.ID, []pet.SafeZone{
		{ID: uuid.New(), Name: "Park", Latitude: 10.1, Longitude: 106.1, Radius: 120, IsActive: false, CreatedAt: time.Now()},
		{ID: uuid.New(), Name: "Home", Latitude: 10.0, Longitude: 106.0, Radius: 80, IsActive: true, CreatedAt: time.Now()},
	})
	is.NoErr(err)

	first, err := f.asm.Assemble(ctx, testDeviceID)
	is.NoErr(err)
	time.Sleep(2 * time.Millisecond)
	second, err := f.asm.Assemble(ctx, testDeviceID)
	is.NoErr(err)

	is.Equal(first.Payload.SafeZone.Name, "Home") // active beats the inactive primary
	is.True(first.Payload.Timestamp != second.Payload.Timestamp)

	a, b := *first.Payload, *second.Payload
	a.Timestamp, b.Timestamp = 0, 0
	a.ConfigSentAt, b.ConfigSentAt = "", ""
	is.Equal(a, b)
}

func TestBuildPayloadUsesDeviceIntervalOverride(t *testing.T) {
	is := is.New(t)
	interval := 5000
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	payload := BuildPayload(
		&device.Device{DeviceID: "PT-7", UpdateIntervalMs: &interval},
		&pet.Pet{ID: uuid.New(), Name: "Luna"},
		&user.User{FullName: "Tran", PhoneNumber: phone(" +84900000000 ")},
		Settings{UpdateIntervalMs: 30000, Topics: pkgmqtt.Topics{Prefix: "pets"}},
		now,
	)

	is.Equal(payload.UpdateInterval, 5000)
	is.Equal(payload.PhoneNumber, "+84900000000")
	is.Equal(payload.Timestamp, now.UnixMilli())
	is.Equal(payload.ConfigSentAt, "2024-05-01T08:00:00Z")
	is.Equal(payload.SafeZone, nil)
}

func TestAlertTouchesLastSeenWithoutDispatch(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	f := newFixture(t, phone("+84912345678"), 10*time.Millisecond)

	err := f.coord.HandleAlert(ctx, testDeviceID, &ingestion.AlertMessage{Type: "low_battery", Fields: map[string]any{"level": 5}})
	is.NoErr(err)

	d, err := f.devices.GetByDeviceID(ctx, testDeviceID)
	is.NoErr(err)
	is.True(d.LastSeen != nil)
	is.True(!d.ConfigSent) // alerts never publish; the mock fails on any unexpected call

	time.Sleep(50 * time.Millisecond)
}

func TestProfileChangeIsCountedUnderItsOwnTrigger(t *testing.T) {
	is := is.New(t)
	f := newFixture(t, phone("+84912345678"), 10*time.Millisecond)
	published := f.capture(1)

	profileOK := metrics.ConfigDispatches.WithLabelValues(string(TriggerProfile), metrics.ResultOK)
	safeZoneOK := metrics.ConfigDispatches.WithLabelValues(string(TriggerSafeZone), metrics.ResultOK)
	beforeProfile := testutil.ToFloat64(profileOK)
	beforeSafeZone := testutil.ToFloat64(safeZoneOK)

	f.coord.TriggerProfileChange(testDeviceID)
	receive(t, published, 2*time.Second)

	// the counter is bumped after the registry update that follows the publish
	deadline := time.Now().Add(2 * time.Second)
	for testutil.ToFloat64(profileOK) == beforeProfile && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	is.Equal(testutil.ToFloat64(profileOK), beforeProfile+1)
	is.Equal(testutil.ToFloat64(safeZoneOK), beforeSafeZone)
}
